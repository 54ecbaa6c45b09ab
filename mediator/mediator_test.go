package mediator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"pageintel/backend"
	"pageintel/bus"
	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
	"pageintel/core/interfaces"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, fields map[string]interface{}) {}
func (nopLogger) Info(msg string, fields map[string]interface{})  {}
func (nopLogger) Warn(msg string, fields map[string]interface{})  {}
func (nopLogger) Error(msg string, fields map[string]interface{}) {}

type fakeResponse struct {
	status int
	body   io.ReadCloser
}

func (r *fakeResponse) StatusCode() int        { return r.status }
func (r *fakeResponse) Body() io.ReadCloser    { return r.body }
func (r *fakeResponse) Header(key string) string { return "" }

func jsonResponse(status int, body string) interfaces.Response {
	return &fakeResponse{status: status, body: io.NopCloser(strings.NewReader(body))}
}

// fakeHTTP replies with a canned body per path suffix and records the
// last request.
type fakeHTTP struct {
	mu        sync.Mutex
	responses map[string]string
	lastURL   string
	lastBody  []byte
}

func (f *fakeHTTP) respond(url string) (interfaces.Response, error) {
	for suffix, body := range f.responses {
		if strings.Contains(url, suffix) {
			return jsonResponse(200, body), nil
		}
	}
	return jsonResponse(404, `{"detail":"not found"}`), nil
}

func (f *fakeHTTP) Get(ctx context.Context, url string) (interfaces.Response, error) {
	f.mu.Lock()
	f.lastURL = url
	f.mu.Unlock()
	return f.respond(url)
}

func (f *fakeHTTP) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	data, _ := io.ReadAll(body)
	f.mu.Lock()
	f.lastURL = url
	f.lastBody = data
	f.mu.Unlock()
	return f.respond(url)
}

func (f *fakeHTTP) Delete(ctx context.Context, url string) (interfaces.Response, error) {
	f.mu.Lock()
	f.lastURL = url
	f.mu.Unlock()
	return f.respond(url)
}

// fakeCapturer counts captures and returns fixed bytes.
type fakeCapturer struct {
	mu     sync.Mutex
	raster []byte
	calls  int
	err    error
}

func (c *fakeCapturer) CaptureVisible(ctx context.Context, windowID string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.raster, nil
}

func (c *fakeCapturer) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func pageHandler(result domain.ExtractionResult) bus.Handler {
	return func(ctx context.Context, msg bus.Message) (bus.Message, error) {
		if msg.Type != bus.TypeExtractContent {
			return bus.Message{}, &coreerrors.ValidationError{Field: "type", Message: msg.Type}
		}
		return bus.Message{Type: msg.Type, Payload: result}, nil
	}
}

func richExtraction() domain.ExtractionResult {
	long := strings.Repeat("substantial page content ", 30)
	return domain.ExtractionResult{
		URL:   "https://example.com",
		Title: "Example",
		Blocks: []domain.Block{
			{ID: "block-0", Type: domain.BlockTypeHeading, Text: "Example"},
			{ID: "block-1", Type: domain.BlockTypeParagraph, Text: long},
		},
		ContentScore: len(long),
	}
}

func newTestMediator(t *testing.T, http *fakeHTTP, capturer *fakeCapturer) (*Mediator, *bus.Router) {
	t.Helper()
	router := bus.NewRouter(nopLogger{})
	client := backend.NewClient("http://backend", interfaces.Dependencies{
		HTTPClient: http,
		Logger:     nopLogger{},
	})

	m := NewMediator(router, client, capturer, nil, nopLogger{})
	m.Start()
	t.Cleanup(m.Stop)
	return m, router
}

func imageDataFromRequest(t *testing.T, body []byte) []byte {
	t.Helper()
	var req struct {
		ImageData string `json:"image_data"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("Failed to decode analyze request: %v", err)
	}
	encoded := strings.TrimPrefix(req.ImageData, "data:image/jpeg;base64,")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("Failed to decode image data: %v", err)
	}
	return raw
}

func TestMediator_CaptureVisibleTab_ReturnsRaster(t *testing.T) {
	capturer := &fakeCapturer{raster: []byte("fresh-raster")}
	_, router := newTestMediator(t, &fakeHTTP{}, capturer)

	reply, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type:    bus.TypeCaptureVisibleTab,
		Payload: bus.CapturePayload{WindowID: "window-1"},
	})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	raster, ok := reply.Payload.([]byte)
	if !ok || string(raster) != "fresh-raster" {
		t.Errorf("reply payload = %#v, want raster bytes", reply.Payload)
	}
}

func TestMediator_VisualQuery_PrecroppedImageWinsAndCaches(t *testing.T) {
	http := &fakeHTTP{responses: map[string]string{"/analyze-image": `{"answer":"a chart"}`}}
	capturer := &fakeCapturer{raster: []byte("screen")}
	_, router := newTestMediator(t, http, capturer)
	ctx := context.Background()

	crop := []byte("cropped-region")
	reply, err := router.Request(ctx, bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{
			Mode: "visual", Text: "What is in this region?", WindowID: "w", ImageData: crop,
		},
	})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if res, _ := reply.Payload.(bus.QueryResultPayload); res.Answer != "a chart" {
		t.Errorf("answer = %q", res.Answer)
	}
	if capturer.callCount() != 0 {
		t.Error("pre-cropped image should not trigger a capture")
	}
	if got := imageDataFromRequest(t, http.lastBody); string(got) != "cropped-region" {
		t.Errorf("analyzed image = %q, want the crop", got)
	}

	// A follow-up question now reuses the cached crop.
	if _, err := router.Request(ctx, bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{
			Mode: "visual", Text: "What color is the largest bar?", WindowID: "w",
		},
	}); err != nil {
		t.Fatalf("follow-up failed: %v", err)
	}
	if capturer.callCount() != 0 {
		t.Error("follow-up should reuse the cached raster, not capture")
	}
	if got := imageDataFromRequest(t, http.lastBody); string(got) != "cropped-region" {
		t.Errorf("follow-up analyzed %q, want the cached crop", got)
	}
}

func TestMediator_VisualQuery_DefaultPromptForcesFreshCapture(t *testing.T) {
	http := &fakeHTTP{responses: map[string]string{"/analyze-image": `{"answer":"ok"}`}}
	capturer := &fakeCapturer{raster: []byte("screen")}
	_, router := newTestMediator(t, http, capturer)
	ctx := context.Background()

	// Seed the cache with a crop.
	if _, err := router.Request(ctx, bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{
			Mode: "visual", Text: "region?", WindowID: "w", ImageData: []byte("old-crop"),
		},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := router.Request(ctx, bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{
			Mode: "visual", Text: domain.DefaultVisualPrompt, WindowID: "w",
		},
	}); err != nil {
		t.Fatalf("default prompt query failed: %v", err)
	}

	if capturer.callCount() != 1 {
		t.Errorf("captures = %d, want 1 (default prompt is a fresh scan)", capturer.callCount())
	}
	if got := imageDataFromRequest(t, http.lastBody); string(got) != "screen" {
		t.Errorf("analyzed %q, want the fresh capture", got)
	}
}

func TestMediator_VisualQuery_EmptyCacheCaptures(t *testing.T) {
	http := &fakeHTTP{responses: map[string]string{"/analyze-image": `{"answer":"ok"}`}}
	capturer := &fakeCapturer{raster: []byte("screen")}
	_, router := newTestMediator(t, http, capturer)

	if _, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{
			Mode: "visual", Text: "What does the sidebar say?", WindowID: "w",
		},
	}); err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if capturer.callCount() != 1 {
		t.Errorf("captures = %d, want 1 (nothing cached yet)", capturer.callCount())
	}
}

func TestMediator_VisualQuery_CaptureDenied(t *testing.T) {
	capturer := &fakeCapturer{err: &coreerrors.PermissionDeniedError{Target: "w", Message: "restricted"}}
	_, router := newTestMediator(t, &fakeHTTP{}, capturer)

	_, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{
			Mode: "visual", Text: domain.DefaultVisualPrompt, WindowID: "w",
		},
	})
	if !coreerrors.IsPermissionDenied(err) {
		t.Errorf("error = %v, want PermissionDeniedError", err)
	}
}

func TestMediator_RagQuery_ExtractsAndQueries(t *testing.T) {
	http := &fakeHTTP{responses: map[string]string{"/chat": `{"answer":"It is about batching."}`}}
	_, router := newTestMediator(t, http, &fakeCapturer{})
	router.Register(bus.ContextPage, pageHandler(richExtraction()))

	reply, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{Mode: "rag", Text: "What is this page about?", TabID: "tab-1"},
	})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	res, ok := reply.Payload.(bus.QueryResultPayload)
	if !ok {
		t.Fatalf("reply payload is %T", reply.Payload)
	}
	if res.Answer != "It is about batching." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.Blocks) != 2 {
		t.Errorf("blocks = %d, want 2", len(res.Blocks))
	}

	var chatReq struct {
		Query         string         `json:"query"`
		ContentBlocks []domain.Block `json:"content_blocks"`
	}
	if err := json.Unmarshal(http.lastBody, &chatReq); err != nil {
		t.Fatalf("Failed to decode chat request: %v", err)
	}
	if len(chatReq.ContentBlocks) != 2 {
		t.Errorf("chat request carried %d blocks, want 2", len(chatReq.ContentBlocks))
	}
}

func TestMediator_RagQuery_PageUnavailable(t *testing.T) {
	_, router := newTestMediator(t, &fakeHTTP{}, &fakeCapturer{})

	_, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type:    bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{Mode: "rag", Text: "anything"},
	})
	if !coreerrors.IsContextUnavailable(err) {
		t.Errorf("error = %v, want ContextUnavailableError", err)
	}
}

func TestMediator_ProcessQuery_UnknownMode(t *testing.T) {
	_, router := newTestMediator(t, &fakeHTTP{}, &fakeCapturer{})

	_, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type:    bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{Mode: "audio", Text: "hm"},
	})
	if !coreerrors.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestMediator_IngestPage_LowQualityFlagged(t *testing.T) {
	http := &fakeHTTP{responses: map[string]string{"/ingest": `{"message":"indexed","chunks_count":1}`}}
	_, router := newTestMediator(t, http, &fakeCapturer{})

	low := domain.ExtractionResult{
		URL:          "https://example.com/app",
		Blocks:       []domain.Block{{ID: "block-0", Type: domain.BlockTypeText, Text: "sparse interactive shell"}},
		ContentScore: 24,
	}
	router.Register(bus.ContextPage, pageHandler(low))

	reply, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type:    bus.TypeIngestPage,
		Payload: bus.IngestPayload{URL: "https://example.com/app"},
	})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	res, ok := reply.Payload.(domain.IngestResult)
	if !ok {
		t.Fatalf("reply payload is %T", reply.Payload)
	}
	if !res.LowQuality {
		t.Error("low-scoring page should be flagged low quality")
	}
	if res.Message != "indexed" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestMediator_IngestPage_QualityCheckBestEffort(t *testing.T) {
	http := &fakeHTTP{responses: map[string]string{"/ingest": `{"message":"indexed"}`}}
	// No page handler registered: the quality check fails, ingestion
	// proceeds anyway.
	_, router := newTestMediator(t, http, &fakeCapturer{})

	reply, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type:    bus.TypeIngestPage,
		Payload: bus.IngestPayload{URL: "https://example.com", Crawl: true},
	})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if res, _ := reply.Payload.(domain.IngestResult); res.LowQuality {
		t.Error("unverifiable page should not be flagged low quality")
	}

	var ingestReq struct {
		Crawl    bool `json:"crawl"`
		MaxPages int  `json:"max_pages"`
	}
	if err := json.Unmarshal(http.lastBody, &ingestReq); err != nil {
		t.Fatalf("Failed to decode ingest request: %v", err)
	}
	if !ingestReq.Crawl || ingestReq.MaxPages != domain.DefaultMaxPages {
		t.Errorf("ingest request = %+v, want crawl defaults applied", ingestReq)
	}
}

func TestMediator_IngestPage_DirectTextSkipsQualityCheck(t *testing.T) {
	http := &fakeHTTP{responses: map[string]string{"/ingest": `{"message":"indexed"}`}}
	_, router := newTestMediator(t, http, &fakeCapturer{})

	if _, err := router.Request(context.Background(), bus.ContextMediator, bus.Message{
		Type:    bus.TypeIngestPage,
		Payload: bus.IngestPayload{URL: "https://example.com", Text: "verbatim article text"},
	}); err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	var ingestReq struct {
		TextContent string `json:"text_content"`
	}
	if err := json.Unmarshal(http.lastBody, &ingestReq); err != nil {
		t.Fatalf("Failed to decode ingest request: %v", err)
	}
	if ingestReq.TextContent != "verbatim article text" {
		t.Errorf("text_content = %q", ingestReq.TextContent)
	}
}

func TestMediator_PushChatQuery_ReachesPanel(t *testing.T) {
	_, router := newTestMediator(t, &fakeHTTP{}, &fakeCapturer{})

	received := make(chan string, 1)
	router.Register(bus.ContextPanel, func(ctx context.Context, msg bus.Message) (bus.Message, error) {
		if payload, ok := msg.Payload.(bus.SetChatQueryPayload); ok {
			received <- payload.Text
		}
		return bus.Message{}, nil
	})

	m := NewMediator(router, nil, &fakeCapturer{}, nil, nopLogger{})
	m.pushDelay = 10 * time.Millisecond
	m.PushChatQuery("selected sentence")

	select {
	case text := <-received:
		if text != "selected sentence" {
			t.Errorf("pushed text = %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pushed query never reached the panel")
	}
}

func TestMediator_PushChatQuery_ToleratesUnmountedPanel(t *testing.T) {
	m, _ := newTestMediator(t, &fakeHTTP{}, &fakeCapturer{})
	m.pushDelay = time.Millisecond

	// No panel registered; must not panic or error.
	m.PushChatQuery("dropped silently")
	time.Sleep(20 * time.Millisecond)
}
