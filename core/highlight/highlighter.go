// ABOUTME: Service layer implementation for citation highlighting
// ABOUTME: Locates a stamped block element, tints it, and restores it after a delay

package highlight

import (
	"sync"
	"time"

	"pageintel/core/interfaces"
)

const (
	highlightColor = "rgba(255, 255, 0, 0.4)"
	fadeColor      = "rgba(255, 255, 0, 0)"
	transition     = "background-color 0.5s ease"
)

// Config holds the highlight timing configuration.
type Config struct {
	// ClearAfter is how long a highlight stays before auto-clearing.
	ClearAfter time.Duration

	// FadeDuration is the fade step before original styles come back.
	FadeDuration time.Duration
}

// DefaultConfig returns the standard highlight timings.
func DefaultConfig() Config {
	return Config{
		ClearAfter:   4 * time.Second,
		FadeDuration: 500 * time.Millisecond,
	}
}

// activeHighlight tracks the one highlight that may exist at a time,
// with the inline styles it must restore.
type activeHighlight struct {
	element            interfaces.Element
	originalTransition string
	originalBackground string
	clearTimer         *time.Timer
}

// Highlighter locates a block by identifier and visually emphasizes it.
// Only one highlight is active at a time; a new call always preempts an
// in-flight restoration.
type Highlighter struct {
	page   interfaces.Page
	logger interfaces.Logger
	cfg    Config

	mu     sync.Mutex
	active *activeHighlight
}

// NewHighlighter creates a highlighter for the given page.
func NewHighlighter(page interfaces.Page, logger interfaces.Logger, cfg Config) *Highlighter {
	if cfg.ClearAfter <= 0 {
		cfg.ClearAfter = DefaultConfig().ClearAfter
	}
	if cfg.FadeDuration <= 0 {
		cfg.FadeDuration = DefaultConfig().FadeDuration
	}
	return &Highlighter{page: page, logger: logger, cfg: cfg}
}

// Highlight scrolls the identified block into view and tints it.
// Returns false if no element carries the identifier; in that case the
// document is left untouched and no cleanup is needed.
func (h *Highlighter) Highlight(blockID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clearLocked()

	element, ok := h.page.ElementByBlockID(blockID)
	if !ok {
		if h.logger != nil {
			h.logger.Warn("highlight target not found", map[string]interface{}{
				"blockId": blockID,
			})
		}
		return false
	}

	element.ScrollIntoView()

	original := &activeHighlight{
		element:            element,
		originalTransition: element.Style("transition"),
		originalBackground: element.Style("background-color"),
	}

	element.SetStyle("transition", transition)
	element.SetStyle("background-color", highlightColor)

	// The timer re-checks identity under the lock: a preempting
	// highlight must not be torn down by its predecessor's timer.
	original.clearTimer = time.AfterFunc(h.cfg.ClearAfter, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.active == original {
			h.clearLocked()
		}
	})
	h.active = original
	return true
}

// Clear removes the active highlight, if any, restoring the element's
// original inline styles after the fade step.
func (h *Highlighter) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearLocked()
}

func (h *Highlighter) clearLocked() {
	if h.active == nil {
		return
	}
	active := h.active
	h.active = nil

	active.clearTimer.Stop()

	// Fade out, then reapply whatever inline styles the element had.
	active.element.SetStyle("background-color", fadeColor)
	time.AfterFunc(h.cfg.FadeDuration, func() {
		active.element.SetStyle("background-color", active.originalBackground)
		active.element.SetStyle("transition", active.originalTransition)
	})
}
