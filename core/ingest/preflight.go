// ABOUTME: Ingestion preflight building clean text content for low-quality pages
// ABOUTME: Runs readability over the page and converts the article to markdown

package ingest

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"

	"pageintel/core/interfaces"
)

const (
	fetchTimeout = 30 * time.Second
	cacheTTL     = 1 * time.Hour
)

// Preflight prepares text content for backend ingestion. Pages whose
// in-place extraction scored too low get a second pass through
// readability so the index receives article text instead of chrome.
type Preflight struct {
	cache  interfaces.Cache
	logger interfaces.Logger
}

// NewPreflight creates a preflight service. cache may be nil.
func NewPreflight(cache interfaces.Cache, logger interfaces.Logger) *Preflight {
	return &Preflight{
		cache:  cache,
		logger: logger,
	}
}

// TextContent fetches the URL and returns markdown-formatted article
// text, cached for repeat ingests of the same page.
func (p *Preflight) TextContent(ctx context.Context, pageURL string) (string, error) {
	cacheKey := fmt.Sprintf("ingest:preflight:%s", pageURL)
	if p.cache != nil {
		if data, err := p.cache.Get(ctx, cacheKey); err == nil && data != nil {
			return string(data), nil
		}
	}

	article, err := readability.FromURL(pageURL, fetchTimeout)
	if err != nil {
		p.logger.Error("Failed to parse article for ingest", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return "", err
	}

	text := p.render(pageURL, article)
	if p.cache != nil && text != "" {
		_ = p.cache.Set(ctx, cacheKey, []byte(text), cacheTTL)
	}
	return text, nil
}

// TextContentFromHTML builds article text from markup already in hand,
// skipping the network fetch.
func (p *Preflight) TextContentFromHTML(pageURL, markup string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(markup), parsedURL)
	if err != nil {
		p.logger.Error("Failed to parse article markup", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return "", err
	}
	return p.render(pageURL, article), nil
}

// render converts the readability article to markdown, falling back to
// plain text when conversion fails.
func (p *Preflight) render(pageURL string, article readability.Article) string {
	body := article.TextContent
	if article.Content != "" {
		markdown, err := htmltomarkdown.ConvertString(article.Content)
		if err != nil {
			p.logger.Debug("Failed to convert article to markdown", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
		} else {
			body = markdown
		}
	}

	var out strings.Builder
	if article.Title != "" {
		out.WriteString("# ")
		out.WriteString(article.Title)
		out.WriteString("\n\n")
	}
	if article.SiteName != "" {
		out.WriteString(fmt.Sprintf("**Source:** %s\n\n---\n\n", article.SiteName))
	}
	out.WriteString(cleanText(body))

	return strings.TrimSpace(out.String())
}

// cleanText collapses runs of blank lines and trailing whitespace.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = regexp.MustCompile(`[ \t]+\n`).ReplaceAllString(text, "\n")
	text = regexp.MustCompile(`\n{3,}`).ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
