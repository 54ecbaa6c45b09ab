package extract_test

import (
	"strings"
	"testing"

	"pageintel/core/domain"
	"pageintel/core/extract"
	htmldom "pageintel/infrastructure/dom/html"
)

func parseDoc(t *testing.T, markup string) *htmldom.Document {
	t.Helper()
	doc, err := htmldom.Parse("https://example.com/page", markup)
	if err != nil {
		t.Fatalf("Failed to parse markup: %v", err)
	}
	return doc
}

func TestExtractor_Extract_HeadingAndParagraph(t *testing.T) {
	// One heading plus one 25-character paragraph.
	para := strings.Repeat("a", 25)
	doc := parseDoc(t, `<html><head><title>Page</title></head><body>
		<h1>Title</h1>
		<p>`+para+`</p>
	</body></html>`)

	result := extract.NewExtractor(nil).Extract(doc)

	if len(result.Blocks) != 2 {
		t.Fatalf("Extract returned %d blocks, want 2", len(result.Blocks))
	}
	if result.Blocks[0].Type != domain.BlockTypeHeading || result.Blocks[0].Text != "Title" {
		t.Errorf("first block = %v %q, want heading %q", result.Blocks[0].Type, result.Blocks[0].Text, "Title")
	}
	if result.Blocks[1].Type != domain.BlockTypeParagraph || len(result.Blocks[1].Text) != 25 {
		t.Errorf("second block = %v with %d chars, want paragraph with 25", result.Blocks[1].Type, len(result.Blocks[1].Text))
	}
	if result.ContentScore != 30 {
		t.Errorf("ContentScore = %d, want 30", result.ContentScore)
	}
	if !result.IsLowQuality() {
		t.Error("IsLowQuality() = false, want true for score 30")
	}
}

func TestExtractor_Extract_NoiseFilterThreshold(t *testing.T) {
	// A bare text node of exactly 20 characters yields no block;
	// 21 characters yields one.
	at20 := strings.Repeat("x", 20)
	at21 := strings.Repeat("x", 21)

	doc := parseDoc(t, `<html><body><div>`+at20+`</div></body></html>`)
	result := extract.NewExtractor(nil).Extract(doc)
	if len(result.Blocks) != 0 {
		t.Errorf("20-char text node yielded %d blocks, want 0", len(result.Blocks))
	}

	doc = parseDoc(t, `<html><body><div>`+at21+`</div></body></html>`)
	result = extract.NewExtractor(nil).Extract(doc)
	if len(result.Blocks) != 1 {
		t.Fatalf("21-char text node yielded %d blocks, want 1", len(result.Blocks))
	}
	if result.Blocks[0].Type != domain.BlockTypeText {
		t.Errorf("block type = %v, want text", result.Blocks[0].Type)
	}
}

func TestExtractor_Extract_QualityThreshold(t *testing.T) {
	// contentScore 499 is low quality, 500 is not.
	doc := parseDoc(t, `<html><body><p>`+strings.Repeat("a", 499)+`</p></body></html>`)
	result := extract.NewExtractor(nil).Extract(doc)
	if result.ContentScore != 499 {
		t.Fatalf("ContentScore = %d, want 499", result.ContentScore)
	}
	if !result.IsLowQuality() {
		t.Error("score 499 should be low quality")
	}

	doc = parseDoc(t, `<html><body><p>`+strings.Repeat("a", 500)+`</p></body></html>`)
	result = extract.NewExtractor(nil).Extract(doc)
	if result.IsLowQuality() {
		t.Error("score 500 should not be low quality")
	}
}

func TestExtractor_Extract_SkipsNonContentSubtrees(t *testing.T) {
	doc := parseDoc(t, `<html><body><article>
		<nav><p>Navigation menu with plenty of link text</p></nav>
		<script>var x = "this is not content at all";</script>
		<div style="display: none"><p>Hidden promotional copy</p></div>
		<div style="visibility: hidden"><p>Also hidden copy here</p></div>
		<p>The only real paragraph.</p>
	</article></body></html>`)

	result := extract.NewExtractor(nil).Extract(doc)

	if len(result.Blocks) != 1 {
		t.Fatalf("Extract returned %d blocks, want 1", len(result.Blocks))
	}
	if result.Blocks[0].Text != "The only real paragraph." {
		t.Errorf("block text = %q", result.Blocks[0].Text)
	}
}

func TestExtractor_Extract_RootSelectorPriority(t *testing.T) {
	// article wins over main and #content.
	doc := parseDoc(t, `<html><body>
		<div id="content"><p>Content div paragraph.</p></div>
		<main><p>Main element paragraph.</p></main>
		<article><p>Article element paragraph.</p></article>
	</body></html>`)

	result := extract.NewExtractor(nil).Extract(doc)

	if len(result.Blocks) != 1 || result.Blocks[0].Text != "Article element paragraph." {
		t.Errorf("expected article content only, got %+v", result.Blocks)
	}
}

func TestExtractor_Extract_HeadingDoesNotDescend(t *testing.T) {
	doc := parseDoc(t, `<html><body><h2>Outer <em>inner emphasis text content</em></h2></body></html>`)

	result := extract.NewExtractor(nil).Extract(doc)

	if len(result.Blocks) != 1 {
		t.Fatalf("Extract returned %d blocks, want 1", len(result.Blocks))
	}
	if result.Blocks[0].Type != domain.BlockTypeHeading {
		t.Errorf("block type = %v, want heading", result.Blocks[0].Type)
	}
	if result.Blocks[0].Text != "Outer inner emphasis text content" {
		t.Errorf("heading text = %q", result.Blocks[0].Text)
	}
}

func TestExtractor_Extract_EmptyParagraphSkipped(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>   </p><p>Real paragraph text here.</p></body></html>`)

	result := extract.NewExtractor(nil).Extract(doc)

	if len(result.Blocks) != 1 {
		t.Fatalf("Extract returned %d blocks, want 1", len(result.Blocks))
	}
}

func TestExtractor_Extract_DeterministicTextSequence(t *testing.T) {
	// Identical static snapshot yields an identical ordered text
	// sequence across repeated passes.
	markup := `<html><body><article>
		<h1>Heading One</h1>
		<p>First paragraph of the article body.</p>
		<h2>Heading Two</h2>
		<p>Second paragraph of the article body.</p>
	</article></body></html>`

	first := extract.NewExtractor(nil).Extract(parseDoc(t, markup))
	second := extract.NewExtractor(nil).Extract(parseDoc(t, markup))

	if len(first.Blocks) != len(second.Blocks) {
		t.Fatalf("block counts differ: %d vs %d", len(first.Blocks), len(second.Blocks))
	}
	for i := range first.Blocks {
		if first.Blocks[i].Text != second.Blocks[i].Text {
			t.Errorf("block %d text differs: %q vs %q", i, first.Blocks[i].Text, second.Blocks[i].Text)
		}
	}
}

func TestExtractor_Extract_CounterAndStamping(t *testing.T) {
	doc := parseDoc(t, `<html><body><article>
		<p>First paragraph of the page.</p>
		<p>Second paragraph of the page.</p>
	</article></body></html>`)

	result := extract.NewExtractor(nil).Extract(doc)

	if len(result.Blocks) != 2 {
		t.Fatalf("Extract returned %d blocks, want 2", len(result.Blocks))
	}
	if result.Blocks[0].ID != "block-0" || result.Blocks[1].ID != "block-1" {
		t.Errorf("block IDs = %q, %q, want block-0, block-1", result.Blocks[0].ID, result.Blocks[1].ID)
	}

	// Both elements are stamped and findable.
	for _, b := range result.Blocks {
		if _, ok := doc.ElementByBlockID(b.ID); !ok {
			t.Errorf("element for %s not stamped", b.ID)
		}
	}
}

func TestExtractor_Extract_FirstAssignmentWins(t *testing.T) {
	// A second pass resets the counter but leaves existing stamps in
	// place, so the returned blocks are the only source of truth.
	doc := parseDoc(t, `<html><body><article>
		<p data-block-id="block-7">Pre-stamped paragraph text.</p>
	</article></body></html>`)

	result := extract.NewExtractor(nil).Extract(doc)

	if len(result.Blocks) != 1 {
		t.Fatalf("Extract returned %d blocks, want 1", len(result.Blocks))
	}
	if result.Blocks[0].ID != "block-0" {
		t.Errorf("returned block ID = %q, want block-0", result.Blocks[0].ID)
	}
	// The stamp is untouched.
	if _, ok := doc.ElementByBlockID("block-7"); !ok {
		t.Error("pre-existing stamp was overwritten")
	}
	if _, ok := doc.ElementByBlockID("block-0"); ok {
		t.Error("element unexpectedly restamped with block-0")
	}
}
