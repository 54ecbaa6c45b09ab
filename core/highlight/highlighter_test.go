package highlight_test

import (
	"testing"
	"time"

	"pageintel/core/domain"
	"pageintel/core/extract"
	"pageintel/core/highlight"
	htmldom "pageintel/infrastructure/dom/html"
)

const pageMarkup = `<html><head><title>Doc</title></head><body><article>
	<p style="background-color: white">First paragraph of the page.</p>
	<p>Second paragraph of the page.</p>
</article></body></html>`

func stampedPage(t *testing.T) (*htmldom.Document, domain.ExtractionResult) {
	t.Helper()
	doc, err := htmldom.Parse("https://example.com", pageMarkup)
	if err != nil {
		t.Fatalf("Failed to parse markup: %v", err)
	}
	result := extract.NewExtractor(nil).Extract(doc)
	return doc, result
}

func shortConfig() highlight.Config {
	return highlight.Config{
		ClearAfter:   40 * time.Millisecond,
		FadeDuration: 10 * time.Millisecond,
	}
}

func TestHighlighter_Highlight_UnknownID(t *testing.T) {
	doc, _ := stampedPage(t)
	h := highlight.NewHighlighter(doc, nil, shortConfig())

	if h.Highlight("unknown") {
		t.Error("Highlight should return false for unknown block ID")
	}
	// No scroll, no mutation.
	if _, ok := doc.LastScrolledBlockID(); ok {
		t.Error("unknown ID should not scroll anything")
	}
}

func TestHighlighter_Highlight_TintsAndScrolls(t *testing.T) {
	doc, result := stampedPage(t)
	h := highlight.NewHighlighter(doc, nil, shortConfig())

	if !h.Highlight(result.Blocks[0].ID) {
		t.Fatal("Highlight returned false for a stamped block")
	}

	scrolled, ok := doc.LastScrolledBlockID()
	if !ok || scrolled != result.Blocks[0].ID {
		t.Errorf("scrolled element = %q, want %q", scrolled, result.Blocks[0].ID)
	}

	el, _ := doc.ElementByBlockID(result.Blocks[0].ID)
	if got := el.Style("background-color"); got != "rgba(255, 255, 0, 0.4)" {
		t.Errorf("background-color = %q, want highlight tint", got)
	}
}

func TestHighlighter_Highlight_AutoClearRestoresStyles(t *testing.T) {
	doc, result := stampedPage(t)
	h := highlight.NewHighlighter(doc, nil, shortConfig())

	h.Highlight(result.Blocks[0].ID)

	// Wait past clear + fade.
	time.Sleep(80 * time.Millisecond)

	el, _ := doc.ElementByBlockID(result.Blocks[0].ID)
	if got := el.Style("background-color"); got != "white" {
		t.Errorf("background-color after auto-clear = %q, want original %q", got, "white")
	}
	if got := el.Style("transition"); got != "" {
		t.Errorf("transition after auto-clear = %q, want empty", got)
	}
}

func TestHighlighter_Highlight_PreemptsActiveHighlight(t *testing.T) {
	doc, result := stampedPage(t)
	h := highlight.NewHighlighter(doc, nil, shortConfig())

	h.Highlight(result.Blocks[0].ID)
	h.Highlight(result.Blocks[1].ID)

	// The second target is tinted.
	second, _ := doc.ElementByBlockID(result.Blocks[1].ID)
	if got := second.Style("background-color"); got != "rgba(255, 255, 0, 0.4)" {
		t.Errorf("second element background = %q, want highlight tint", got)
	}

	// The first is fading out immediately, not waiting for its timer.
	first, _ := doc.ElementByBlockID(result.Blocks[0].ID)
	if got := first.Style("background-color"); got != "rgba(255, 255, 0, 0)" {
		t.Errorf("first element background = %q, want fade color", got)
	}
}

func TestHighlighter_Clear_NoActiveHighlight(t *testing.T) {
	doc, _ := stampedPage(t)
	h := highlight.NewHighlighter(doc, nil, shortConfig())

	// Safe to call with nothing active.
	h.Clear()
	h.Clear()
}
