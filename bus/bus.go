// ABOUTME: Typed message envelopes and the cross-context router
// ABOUTME: All coordination between contexts is asynchronous message passing

package bus

import (
	"context"
	"sync"

	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
	"pageintel/core/interfaces"
)

// Execution context names. The three contexts are mutually isolated and
// share no memory; the router is their only connection.
const (
	ContextPage     = "page"
	ContextMediator = "mediator"
	ContextPanel    = "panel"
)

// Message types exchanged between contexts.
const (
	TypeExtractContent    = "EXTRACT_CONTENT"
	TypeHighlightCitation = "HIGHLIGHT_CITATION"
	TypeStartSelection    = "START_SELECTION"
	TypeCaptureVisibleTab = "CAPTURE_VISIBLE_TAB"
	TypeProcessQuery      = "PROCESS_QUERY"
	TypeIngestPage        = "INGEST_PAGE"
	TypeSetChatQuery      = "SET_CHAT_QUERY"
)

// Message is the typed envelope exchanged between contexts. Each type
// is either request/response (the caller suspends for a reply) or
// fire-and-forget (best-effort, no acknowledgment).
type Message struct {
	Type    string
	Payload interface{}
}

// HighlightPayload asks the page agent to highlight one block.
type HighlightPayload struct {
	BlockID string
}

// CapturePayload asks the mediator for a raster of one window.
type CapturePayload struct {
	WindowID string
}

// ProcessQueryPayload asks the mediator to answer a question.
type ProcessQueryPayload struct {
	Mode      string
	Text      string
	TabID     string
	WindowID  string
	ImageData []byte
	// BackendMode optionally overrides the image analysis mode.
	BackendMode string
}

// IngestPayload asks the mediator to index a page with the backend.
type IngestPayload struct {
	URL      string
	Text     string
	Crawl    bool
	MaxPages int
	MaxDepth int
}

// SetChatQueryPayload pushes free text toward the panel's input.
type SetChatQueryPayload struct {
	Text string
}

// QueryResultPayload is the mediator's reply to a processed query.
// Blocks are present for rag queries so the caller can resolve
// citations.
type QueryResultPayload struct {
	Answer string
	Blocks []domain.Block
}

// Handler processes one message addressed to a context and returns the
// reply. Handlers must return tagged errors; exceptions never cross
// context boundaries.
type Handler func(ctx context.Context, msg Message) (Message, error)

// Router brokers messages between the three contexts. Handlers register
// per context; requests suspend the caller until the reply arrives (no
// enforced timeout beyond ctx).
type Router struct {
	logger interfaces.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRouter creates an empty router.
func NewRouter(logger interfaces.Logger) *Router {
	return &Router{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register installs the handler for a context, replacing any previous
// one.
func (r *Router) Register(contextName string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[contextName] = h
}

// Unregister removes a context's handler, simulating e.g. a page agent
// unloading.
func (r *Router) Unregister(contextName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, contextName)
}

// Request delivers a message to the target context and suspends until
// the reply or error arrives. A target with no listener fails with
// ContextUnavailableError.
func (r *Router) Request(ctx context.Context, target string, msg Message) (Message, error) {
	r.mu.RLock()
	h, ok := r.handlers[target]
	r.mu.RUnlock()

	if !ok {
		return Message{}, &coreerrors.ContextUnavailableError{Context: target}
	}
	return h(ctx, msg)
}

// Notify delivers a message best-effort: no reply, no retry, no error.
// A missing listener (the panel not yet mounted) is tolerated silently.
func (r *Router) Notify(target string, msg Message) {
	r.mu.RLock()
	h, ok := r.handlers[target]
	r.mu.RUnlock()

	if !ok {
		if r.logger != nil {
			r.logger.Debug("notify dropped, no listener", map[string]interface{}{
				"target": target,
				"type":   msg.Type,
			})
		}
		return
	}

	go func() {
		if _, err := h(context.Background(), msg); err != nil && r.logger != nil {
			r.logger.Debug("notify handler failed", map[string]interface{}{
				"target": target,
				"type":   msg.Type,
				"error":  err.Error(),
			})
		}
	}()
}
