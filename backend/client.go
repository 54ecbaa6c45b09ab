// ABOUTME: Backend API client for chat, ingestion, image analysis, and site management
// ABOUTME: Every failure surfaces as a tagged error carrying the configured address

package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
	"pageintel/core/interfaces"
)

// sitesCacheTTL bounds how stale the cached sites list may be.
const sitesCacheTTL = 30 * time.Second

// Turn is one prior conversation turn sent as history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for /chat and /chat/stream.
type ChatRequest struct {
	Query         string         `json:"query"`
	ContentBlocks []domain.Block `json:"content_blocks"`
	PageContent   string         `json:"page_content"`
	SiteID        string         `json:"site_id,omitempty"`
	History       []Turn         `json:"history,omitempty"`
}

// IngestRequest is the payload for /ingest. Either TextContent is set
// (direct text ingest) or the URL is fetched server-side, optionally
// crawling.
type IngestRequest struct {
	URL         string `json:"url"`
	TextContent string `json:"text_content,omitempty"`
	Crawl       bool   `json:"crawl,omitempty"`
	MaxPages    int    `json:"max_pages,omitempty"`
	MaxDepth    int    `json:"max_depth,omitempty"`
}

// Client talks to the intelligence backend.
type Client struct {
	baseURL string
	http    interfaces.HTTPClient
	cache   interfaces.Cache
	logger  interfaces.Logger
}

// NewClient creates a backend client. cache may be nil to disable the
// sites-list cache.
func NewClient(baseURL string, deps interfaces.Dependencies) *Client {
	return &Client{
		baseURL: baseURL,
		http:    deps.HTTPClient,
		cache:   deps.Cache,
		logger:  deps.Logger,
	}
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Chat submits a non-streaming chat query and returns the full answer.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.postJSON(ctx, "/chat", req, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// AnalyzeImage submits an encoded image for visual analysis. mode
// defaults to "qa" when empty.
func (c *Client) AnalyzeImage(ctx context.Context, imageData []byte, prompt, mode string) (string, error) {
	if mode == "" {
		mode = "qa"
	}
	payload := map[string]string{
		"image_data": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData),
		"prompt":     prompt,
		"mode":       mode,
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.postJSON(ctx, "/analyze-image", payload, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// Ingest asks the backend to index a page.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (*domain.IngestResult, error) {
	if req.Crawl {
		if req.MaxPages == 0 {
			req.MaxPages = domain.DefaultMaxPages
		}
		if req.MaxDepth == 0 {
			req.MaxDepth = domain.DefaultMaxDepth
		}
	}
	var out domain.IngestResult
	if err := c.postJSON(ctx, "/ingest", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sites returns the indexed sites, cached briefly.
func (c *Client) Sites(ctx context.Context) ([]domain.Site, error) {
	const cacheKey = "backend:sites"

	// Prefer structured storage when the cache supports it (RedisJSON).
	if jc, ok := c.cache.(interfaces.JSONCache); ok {
		var cached []domain.Site
		if err := jc.GetJSON(ctx, cacheKey, &cached); err == nil && cached != nil {
			return cached, nil
		}
	} else if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil && data != nil {
			var cached []domain.Site
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	resp, err := c.http.Get(ctx, c.baseURL+"/sites")
	if err != nil {
		return nil, &coreerrors.NetworkUnreachableError{Address: c.baseURL, Cause: err}
	}
	defer resp.Body().Close()

	if resp.StatusCode() >= 400 {
		return nil, c.backendError(resp)
	}

	var out struct {
		Sites []domain.Site `json:"sites"`
	}
	if err := json.NewDecoder(resp.Body()).Decode(&out); err != nil {
		return nil, coreerrors.WrapError(err, "decoding sites response")
	}

	if jc, ok := c.cache.(interfaces.JSONCache); ok {
		_ = jc.SetJSON(ctx, cacheKey, out.Sites, sitesCacheTTL)
	} else if c.cache != nil {
		if data, err := json.Marshal(out.Sites); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, sitesCacheTTL)
		}
	}
	return out.Sites, nil
}

// DeleteSite removes one indexed site and invalidates the cached list.
func (c *Client) DeleteSite(ctx context.Context, siteID string) error {
	resp, err := c.http.Delete(ctx, c.baseURL+"/sites/"+url.PathEscape(siteID))
	if err != nil {
		return &coreerrors.NetworkUnreachableError{Address: c.baseURL, Cause: err}
	}
	defer resp.Body().Close()

	if resp.StatusCode() >= 400 {
		return c.backendError(resp)
	}
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "backend:sites")
	}
	return nil
}

// Export downloads an indexed site's content as a blob. format is
// "json" or "text".
func (c *Client) Export(ctx context.Context, siteURL, format string) ([]byte, error) {
	if format != "json" && format != "text" {
		return nil, &coreerrors.ValidationError{Field: "format", Message: "must be json or text"}
	}
	endpoint := c.baseURL + "/export/" + url.PathEscape(siteURL) + "?format=" + format

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, &coreerrors.NetworkUnreachableError{Address: c.baseURL, Cause: err}
	}
	defer resp.Body().Close()

	if resp.StatusCode() >= 400 {
		return nil, c.backendError(resp)
	}
	return io.ReadAll(resp.Body())
}

// postJSON posts a JSON payload and decodes a JSON reply into out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return coreerrors.WrapError(err, "encoding request")
	}

	resp, err := c.http.Post(ctx, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &coreerrors.NetworkUnreachableError{Address: c.baseURL, Cause: err}
	}
	defer resp.Body().Close()

	if resp.StatusCode() >= 400 {
		return c.backendError(resp)
	}

	if err := json.NewDecoder(resp.Body()).Decode(out); err != nil {
		return coreerrors.WrapError(err, "decoding response")
	}
	return nil
}

// backendError reads the server-supplied detail out of an error reply.
func (c *Client) backendError(resp interfaces.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body(), 4096))

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err != nil || detail.Detail == "" {
		detail.Detail = string(raw)
	}
	if detail.Detail == "" {
		detail.Detail = fmt.Sprintf("status %d", resp.StatusCode())
	}
	return &coreerrors.BackendError{StatusCode: resp.StatusCode(), Detail: detail.Detail}
}
