// ABOUTME: Canonical prompts shared between the panel and the mediator
// ABOUTME: The visual prompt marker drives the raster reuse decision

package domain

import "strings"

// DefaultVisualPrompt is the boilerplate question submitted when the
// user asks for a visual scan without typing anything.
const DefaultVisualPrompt = "Describe the visual layout of this page and summarize the key content."

// visualPromptMarker identifies the boilerplate prompt even when the
// caller appended extra instructions around it.
const visualPromptMarker = "Describe the visual layout"

// IsDefaultVisualPrompt reports whether text is the boilerplate visual
// scan prompt. A default prompt means the user wants a fresh look at
// the page rather than a follow-up about the previous capture.
func IsDefaultVisualPrompt(text string) bool {
	return strings.Contains(text, visualPromptMarker)
}
