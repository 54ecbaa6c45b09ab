// ABOUTME: Block domain model represents one addressable span of extracted page text
// ABOUTME: Defines the extraction result returned by a single extraction pass

package domain

import (
	"fmt"
	"strings"
)

// BlockType classifies an extracted text block.
type BlockType string

const (
	// BlockTypeHeading is emitted for h1-h6 elements.
	BlockTypeHeading BlockType = "heading"

	// BlockTypeParagraph is emitted for p elements with non-empty text.
	BlockTypeParagraph BlockType = "paragraph"

	// BlockTypeText is emitted for bare text content above the noise threshold.
	BlockTypeText BlockType = "text"
)

// Block is a typed, contiguous span of extracted text. Its ID is only
// meaningful relative to the ExtractionResult that produced it; IDs are
// never stable across extraction passes.
type Block struct {
	// ID is the per-pass identifier, formatted "block-<n>"
	ID string `json:"id"`

	// Type is the block classification
	Type BlockType `json:"type"`

	// Text is the trimmed text content
	Text string `json:"text"`
}

// BlockID formats the identifier for the nth block of a pass.
func BlockID(n int) string {
	return fmt.Sprintf("block-%d", n)
}

// BlockIDAttr is the attribute stamped onto source elements so a block
// can be located again for highlighting.
const BlockIDAttr = "data-block-id"

// LowQualityThreshold is the minimum content score for a page to be
// considered worth querying directly.
const LowQualityThreshold = 500

// ExtractionResult is the output of one extraction pass over a document.
// It is owned by the panel for the lifetime of one query and replaced
// wholesale on the next pass; it is never persisted.
type ExtractionResult struct {
	// URL is the document location at extraction time
	URL string `json:"url"`

	// Title is the document title
	Title string `json:"title"`

	// Blocks are the extracted blocks in pre-order encounter order
	Blocks []Block `json:"blocks"`

	// ContentScore is the sum of all block text lengths
	ContentScore int `json:"contentScore"`
}

// IsLowQuality reports whether the page scored below the quality threshold.
func (r ExtractionResult) IsLowQuality() bool {
	return r.ContentScore < LowQualityThreshold
}

// FullText joins all block texts with blank lines, in block order.
func (r ExtractionResult) FullText() string {
	texts := make([]string, len(r.Blocks))
	for i, b := range r.Blocks {
		texts[i] = b.Text
	}
	return strings.Join(texts, "\n\n")
}
