// ABOUTME: Panel-context orchestration of queries, crops, and citation handling
// ABOUTME: Holds conversation history and the block snapshot citations resolve against

package panel

import (
	"context"
	"sync"

	"pageintel/backend"
	"pageintel/bus"
	"pageintel/core/capture"
	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
	"pageintel/core/interfaces"
)

// Answer is one completed page query.
type Answer struct {
	Text      string
	Citations []domain.Citation

	// LowQuality warns that the page extracted below the quality
	// threshold, so the answer may rest on thin content.
	LowQuality bool

	// Failed is set when the stream ended with a backend error event;
	// Text then carries the error message.
	Failed bool
}

// Panel runs in the panel context. It never touches the page directly:
// extraction, highlighting, selection, and capture all go through the
// router.
type Panel struct {
	router    *bus.Router
	backend   *backend.Client
	cropper   *capture.Cropper
	logger    interfaces.Logger
	streaming bool

	mu      sync.Mutex
	blocks  []domain.Block
	history []backend.Turn
	pending string
}

// NewPanel creates the panel. streaming selects /chat/stream over
// /chat for page queries.
func NewPanel(router *bus.Router, client *backend.Client, logger interfaces.Logger, streaming bool) *Panel {
	return &Panel{
		router:    router,
		backend:   client,
		cropper:   capture.NewCropper(logger),
		logger:    logger,
		streaming: streaming,
	}
}

// Attach registers the panel as the panel-context listener so pushed
// chat queries reach it.
func (p *Panel) Attach(router *bus.Router) {
	router.Register(bus.ContextPanel, p.handle)
}

func (p *Panel) handle(ctx context.Context, msg bus.Message) (bus.Message, error) {
	switch msg.Type {
	case bus.TypeSetChatQuery:
		payload, ok := msg.Payload.(bus.SetChatQueryPayload)
		if !ok {
			return bus.Message{}, &coreerrors.ValidationError{Field: "payload", Message: "chat query push requires text"}
		}
		p.mu.Lock()
		p.pending = payload.Text
		p.mu.Unlock()
		return bus.Message{Type: msg.Type}, nil

	default:
		return bus.Message{}, &coreerrors.ValidationError{Field: "type", Message: "unknown message type " + msg.Type}
	}
}

// PendingQuery takes the pushed query text, if any. Taking it clears
// the slot.
func (p *Panel) PendingQuery() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	text := p.pending
	p.pending = ""
	return text, text != ""
}

// Ask answers a question about the current page. The page is
// re-extracted for every question; the resulting blocks become the
// snapshot citations resolve against. onToken receives incremental
// text when streaming is enabled and may be nil.
func (p *Panel) Ask(ctx context.Context, query string, onToken func(string)) (*Answer, error) {
	reply, err := p.router.Request(ctx, bus.ContextPage, bus.Message{Type: bus.TypeExtractContent})
	if err != nil {
		return nil, err
	}
	extraction, ok := reply.Payload.(domain.ExtractionResult)
	if !ok {
		return nil, &coreerrors.ContextUnavailableError{Context: bus.ContextPage}
	}

	p.mu.Lock()
	p.blocks = extraction.Blocks
	history := make([]backend.Turn, len(p.history))
	copy(history, p.history)
	p.mu.Unlock()

	req := backend.ChatRequest{
		Query:         query,
		ContentBlocks: extraction.Blocks,
		PageContent:   extraction.FullText(),
		History:       history,
	}

	answer := &Answer{LowQuality: extraction.IsLowQuality()}
	if p.streaming {
		result, err := p.backend.ChatStream(ctx, req, onToken)
		if err != nil {
			return nil, err
		}
		answer.Text = result.Answer
		answer.Failed = result.Failed
	} else {
		text, err := p.backend.Chat(ctx, req)
		if err != nil {
			return nil, err
		}
		answer.Text = text
		if onToken != nil {
			onToken(text)
		}
	}

	if !answer.Failed {
		answer.Citations = backend.ExtractCitations(answer.Text)
		p.remember(query, answer.Text)
	}
	return answer, nil
}

// AskVisual runs a visual query through the mediator. image may be nil
// to let the mediator pick the raster; backendMode may be empty for
// the backend's default analysis mode.
func (p *Panel) AskVisual(ctx context.Context, prompt, windowID string, image []byte, backendMode string) (string, error) {
	if prompt == "" {
		prompt = domain.DefaultVisualPrompt
	}

	reply, err := p.router.Request(ctx, bus.ContextMediator, bus.Message{
		Type: bus.TypeProcessQuery,
		Payload: bus.ProcessQueryPayload{
			Mode:        "visual",
			Text:        prompt,
			WindowID:    windowID,
			ImageData:   image,
			BackendMode: backendMode,
		},
	})
	if err != nil {
		return "", err
	}

	res, ok := reply.Payload.(bus.QueryResultPayload)
	if !ok {
		return "", &coreerrors.ContextUnavailableError{Context: bus.ContextMediator}
	}
	p.remember(prompt, res.Answer)
	return res.Answer, nil
}

// CropRegion runs the selection overlay and crops the confirmed region
// out of a fresh capture. A nil result with a nil error means the user
// cancelled.
func (p *Panel) CropRegion(ctx context.Context, windowID string) (*capture.CropResult, error) {
	reply, err := p.router.Request(ctx, bus.ContextPage, bus.Message{Type: bus.TypeStartSelection})
	if err != nil {
		return nil, err
	}
	rect, _ := reply.Payload.(*domain.SelectionRect)
	if rect == nil {
		return nil, nil
	}

	captureReply, err := p.router.Request(ctx, bus.ContextMediator, bus.Message{
		Type:    bus.TypeCaptureVisibleTab,
		Payload: bus.CapturePayload{WindowID: windowID},
	})
	if err != nil {
		return nil, err
	}
	raster, ok := captureReply.Payload.([]byte)
	if !ok {
		return nil, &coreerrors.ContextUnavailableError{Context: bus.ContextMediator}
	}

	return p.cropper.Crop(raster, *rect)
}

// HighlightCitation asks the page to highlight the cited block. A
// stale citation, one whose block no longer exists, reports false and
// nothing else happens.
func (p *Panel) HighlightCitation(ctx context.Context, blockID string) bool {
	reply, err := p.router.Request(ctx, bus.ContextPage, bus.Message{
		Type:    bus.TypeHighlightCitation,
		Payload: bus.HighlightPayload{BlockID: blockID},
	})
	if err != nil {
		p.logger.Debug("highlight request failed", map[string]interface{}{
			"block_id": blockID,
			"error":    err.Error(),
		})
		return false
	}
	found, _ := reply.Payload.(bool)
	return found
}

// ResolveCitation resolves a citation against the block snapshot of
// the most recent question.
func (p *Panel) ResolveCitation(c domain.Citation) (domain.Block, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return c.Resolve(p.blocks)
}

// History returns a copy of the conversation so far.
func (p *Panel) History() []backend.Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]backend.Turn, len(p.history))
	copy(out, p.history)
	return out
}

// ClearHistory drops the conversation, starting a fresh session.
func (p *Panel) ClearHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = nil
}

// remember appends one user/assistant exchange to the history.
func (p *Panel) remember(query, answer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history,
		backend.Turn{Role: "user", Content: query},
		backend.Turn{Role: "assistant", Content: answer},
	)
}
