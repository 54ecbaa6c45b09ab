// ABOUTME: Coordination actor owning the cached raster and the capture privilege
// ABOUTME: All state mutations happen inside the single request loop

package mediator

import (
	"context"
	"time"

	"pageintel/backend"
	"pageintel/bus"
	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
	"pageintel/core/ingest"
	"pageintel/core/interfaces"
)

// chatQueryPushDelay gives a freshly mounted panel time to attach its
// listener before the pushed text arrives.
const chatQueryPushDelay = 500 * time.Millisecond

// request is one operation queued into the actor loop.
type request struct {
	msg   bus.Message
	ctx   context.Context
	reply chan result
}

type result struct {
	msg bus.Message
	err error
}

// Mediator is the coordination-context actor. It alone holds the
// capture primitive, and the cached raster slot is only ever touched
// from its request loop.
type Mediator struct {
	router    *bus.Router
	backend   *backend.Client
	capturer  interfaces.ScreenCapturer
	preflight *ingest.Preflight
	logger    interfaces.Logger

	pushDelay time.Duration
	requests  chan request
	done      chan struct{}

	// lastRaster is owned by the loop goroutine.
	lastRaster []byte
}

// NewMediator creates the mediator actor. preflight may be nil to skip
// the low-quality ingestion rewrite.
func NewMediator(router *bus.Router, client *backend.Client, capturer interfaces.ScreenCapturer, preflight *ingest.Preflight, logger interfaces.Logger) *Mediator {
	return &Mediator{
		router:    router,
		backend:   client,
		capturer:  capturer,
		preflight: preflight,
		logger:    logger,
		pushDelay: chatQueryPushDelay,
		requests:  make(chan request),
		done:      make(chan struct{}),
	}
}

// Start registers the mediator on the router and launches the request
// loop.
func (m *Mediator) Start() {
	m.router.Register(bus.ContextMediator, m.handle)
	go m.loop()
}

// Stop tears the request loop down. In-flight requests complete first.
func (m *Mediator) Stop() {
	m.router.Unregister(bus.ContextMediator)
	close(m.done)
}

// PushChatQuery sends free text toward the panel input, fire and
// forget. The push is delayed so a panel still mounting can catch it;
// an absent panel just drops it.
func (m *Mediator) PushChatQuery(text string) {
	go func() {
		time.Sleep(m.pushDelay)
		m.router.Notify(bus.ContextPanel, bus.Message{
			Type:    bus.TypeSetChatQuery,
			Payload: bus.SetChatQueryPayload{Text: text},
		})
	}()
}

// handle enqueues one incoming message for the loop and suspends for
// the reply.
func (m *Mediator) handle(ctx context.Context, msg bus.Message) (bus.Message, error) {
	req := request{msg: msg, ctx: ctx, reply: make(chan result, 1)}

	select {
	case m.requests <- req:
	case <-m.done:
		return bus.Message{}, &coreerrors.ContextUnavailableError{Context: bus.ContextMediator}
	case <-ctx.Done():
		return bus.Message{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.msg, res.err
	case <-ctx.Done():
		return bus.Message{}, ctx.Err()
	}
}

// loop is the actor body. Requests are processed strictly one at a
// time, which is what makes the raster slot safe without locks.
func (m *Mediator) loop() {
	for {
		select {
		case <-m.done:
			return
		case req := <-m.requests:
			req.reply <- m.dispatch(req.ctx, req.msg)
		}
	}
}

func (m *Mediator) dispatch(ctx context.Context, msg bus.Message) result {
	switch msg.Type {
	case bus.TypeCaptureVisibleTab:
		payload, ok := msg.Payload.(bus.CapturePayload)
		if !ok {
			return result{err: &coreerrors.ValidationError{Field: "payload", Message: "capture request requires a window id"}}
		}
		raster, err := m.capturer.CaptureVisible(ctx, payload.WindowID)
		if err != nil {
			return result{err: err}
		}
		return result{msg: bus.Message{Type: msg.Type, Payload: raster}}

	case bus.TypeProcessQuery:
		payload, ok := msg.Payload.(bus.ProcessQueryPayload)
		if !ok {
			return result{err: &coreerrors.ValidationError{Field: "payload", Message: "query request requires a query payload"}}
		}
		return m.processQuery(ctx, payload)

	case bus.TypeIngestPage:
		payload, ok := msg.Payload.(bus.IngestPayload)
		if !ok {
			return result{err: &coreerrors.ValidationError{Field: "payload", Message: "ingest request requires an ingest payload"}}
		}
		return m.ingestPage(ctx, payload)

	default:
		return result{err: &coreerrors.ValidationError{Field: "type", Message: "unknown message type " + msg.Type}}
	}
}

// processQuery answers a visual or rag query.
func (m *Mediator) processQuery(ctx context.Context, payload bus.ProcessQueryPayload) result {
	switch payload.Mode {
	case "visual":
		return m.visualQuery(ctx, payload)
	case "rag":
		return m.ragQuery(ctx, payload)
	default:
		return result{err: &coreerrors.ValidationError{Field: "mode", Message: "unknown query mode " + payload.Mode}}
	}
}

// visualQuery picks the raster to analyze. A pre-cropped image always
// wins and becomes the follow-up context. The boilerplate prompt means
// a fresh scan, so it forces a new capture; a specific question reuses
// the cached raster when one exists.
func (m *Mediator) visualQuery(ctx context.Context, payload bus.ProcessQueryPayload) result {
	var raster []byte

	switch {
	case len(payload.ImageData) > 0:
		raster = payload.ImageData
		m.lastRaster = raster

	case domain.IsDefaultVisualPrompt(payload.Text) || m.lastRaster == nil:
		fresh, err := m.capturer.CaptureVisible(ctx, payload.WindowID)
		if err != nil {
			return result{err: err}
		}
		raster = fresh
		m.lastRaster = fresh

	default:
		m.logger.Debug("reusing cached raster for follow-up", map[string]interface{}{
			"bytes": len(m.lastRaster),
		})
		raster = m.lastRaster
	}

	answer, err := m.backend.AnalyzeImage(ctx, raster, payload.Text, payload.BackendMode)
	if err != nil {
		return result{err: err}
	}
	return result{msg: bus.Message{Type: bus.TypeProcessQuery, Payload: bus.QueryResultPayload{Answer: answer}}}
}

// ragQuery extracts the page and queries the backend with its blocks.
// Nothing from the page is retained after the reply.
func (m *Mediator) ragQuery(ctx context.Context, payload bus.ProcessQueryPayload) result {
	reply, err := m.router.Request(ctx, bus.ContextPage, bus.Message{Type: bus.TypeExtractContent})
	if err != nil {
		return result{err: err}
	}
	extraction, ok := reply.Payload.(domain.ExtractionResult)
	if !ok {
		return result{err: &coreerrors.ContextUnavailableError{Context: bus.ContextPage}}
	}

	answer, err := m.backend.Chat(ctx, backend.ChatRequest{
		Query:         payload.Text,
		ContentBlocks: extraction.Blocks,
		PageContent:   extraction.FullText(),
	})
	if err != nil {
		return result{err: err}
	}
	return result{msg: bus.Message{Type: bus.TypeProcessQuery, Payload: bus.QueryResultPayload{
		Answer: answer,
		Blocks: extraction.Blocks,
	}}}
}

// ingestPage indexes a page with the backend. When no direct text is
// supplied the page quality is checked first, best-effort: a page that
// extracts poorly in place gets a readability pass so the index
// receives article text.
func (m *Mediator) ingestPage(ctx context.Context, payload bus.IngestPayload) result {
	req := backend.IngestRequest{
		URL:         payload.URL,
		TextContent: payload.Text,
		Crawl:       payload.Crawl,
		MaxPages:    payload.MaxPages,
		MaxDepth:    payload.MaxDepth,
	}

	lowQuality := false
	if payload.Text == "" {
		if reply, err := m.router.Request(ctx, bus.ContextPage, bus.Message{Type: bus.TypeExtractContent}); err != nil {
			m.logger.Warn("could not check page quality", map[string]interface{}{
				"url":   payload.URL,
				"error": err.Error(),
			})
		} else if extraction, ok := reply.Payload.(domain.ExtractionResult); ok && extraction.IsLowQuality() {
			lowQuality = true
			if m.preflight != nil {
				if text, err := m.preflight.TextContent(ctx, payload.URL); err == nil && text != "" {
					req.TextContent = text
				} else if err != nil {
					m.logger.Warn("ingestion preflight failed, falling back to URL ingest", map[string]interface{}{
						"url":   payload.URL,
						"error": err.Error(),
					})
				}
			}
		}
	}

	ingestResult, err := m.backend.Ingest(ctx, req)
	if err != nil {
		return result{err: err}
	}
	ingestResult.LowQuality = lowQuality
	return result{msg: bus.Message{Type: bus.TypeIngestPage, Payload: *ingestResult}}
}
