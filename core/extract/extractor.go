// ABOUTME: Service layer implementation for page content extraction
// ABOUTME: Walks an abstract document tree and emits typed, addressable text blocks

package extract

import (
	"strings"
	"unicode/utf8"

	"pageintel/core/domain"
	"pageintel/core/interfaces"
)

// rootSelectors are tried in priority order to locate the main content
// container. First match wins; the document body is the fallback.
var rootSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	"#content",
	"#main",
	".main-content",
}

// skipTags are elements whose whole subtree contributes no content.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"button":   true,
	"nav":      true,
	"footer":   true,
	"header":   true,
}

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// minTextRunes is the noise threshold: bare text nodes at or below this
// trimmed length emit nothing.
const minTextRunes = 20

// Extractor converts a live document into an ordered set of typed text
// blocks. Extraction is idempotent with respect to the returned
// structure, but stamps an identifying attribute onto qualifying
// elements as a side effect so blocks can be located again for
// highlighting.
type Extractor struct {
	logger interfaces.Logger
}

// NewExtractor creates a new extractor.
func NewExtractor(logger interfaces.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract runs one extraction pass over the document. Block identifiers
// are assigned from a fresh per-pass counter and are only meaningful
// relative to the returned result.
func (e *Extractor) Extract(doc interfaces.Document) domain.ExtractionResult {
	root := e.findMainContent(doc)

	p := &pass{}
	blocks := p.traverse(root, nil)

	score := 0
	for _, b := range blocks {
		score += utf8.RuneCountInString(b.Text)
	}

	if e.logger != nil {
		e.logger.Debug("extraction pass complete", map[string]interface{}{
			"url":          doc.URL(),
			"blocks":       len(blocks),
			"contentScore": score,
		})
	}

	return domain.ExtractionResult{
		URL:          doc.URL(),
		Title:        doc.Title(),
		Blocks:       blocks,
		ContentScore: score,
	}
}

// findMainContent tests the prioritized selectors and falls back to the
// document body.
func (e *Extractor) findMainContent(doc interfaces.Document) interfaces.Node {
	for _, sel := range rootSelectors {
		if node, ok := doc.QuerySelector(sel); ok {
			return node
		}
	}
	return doc.Body()
}

// pass holds the state of a single extraction pass.
type pass struct {
	counter int
}

// traverse walks the tree depth-first, pre-order, emitting blocks.
// parent is the enclosing element of a text node, needed for stamping.
func (p *pass) traverse(node interfaces.Node, parent interfaces.Node) []domain.Block {
	if node == nil {
		return nil
	}

	if node.IsText() {
		text := strings.TrimSpace(node.Text())
		if utf8.RuneCountInString(text) > minTextRunes {
			return []domain.Block{p.emit(domain.BlockTypeText, text, parent)}
		}
		return nil
	}

	tag := node.Tag()
	if skipTags[tag] || !node.IsVisible() {
		return nil
	}

	if headingTags[tag] {
		return []domain.Block{p.emit(domain.BlockTypeHeading, strings.TrimSpace(node.Text()), node)}
	}

	if tag == "p" {
		text := strings.TrimSpace(node.Text())
		if text == "" {
			return nil
		}
		return []domain.Block{p.emit(domain.BlockTypeParagraph, text, node)}
	}

	var blocks []domain.Block
	for _, child := range node.Children() {
		blocks = append(blocks, p.traverse(child, node)...)
	}
	return blocks
}

// emit assigns the next identifier and stamps the owning element.
// Stamping is first-assignment-wins: an element that already carries an
// identifier keeps it, so only the returned block is authoritative.
func (p *pass) emit(typ domain.BlockType, text string, owner interfaces.Node) domain.Block {
	id := domain.BlockID(p.counter)
	p.counter++

	if owner != nil && !owner.IsText() {
		if _, ok := owner.Attr(domain.BlockIDAttr); !ok {
			owner.SetAttr(domain.BlockIDAttr, id)
		}
	}

	return domain.Block{ID: id, Type: typ, Text: text}
}
