// ABOUTME: Page-context agent answering extraction, highlight, and selection requests
// ABOUTME: Owns the only live references to the document tree

package agent

import (
	"context"

	"pageintel/bus"
	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
	"pageintel/core/extract"
	"pageintel/core/highlight"
	"pageintel/core/interfaces"
	"pageintel/core/selection"
)

// Agent runs in the page context. It holds the live page handle and
// serves the other contexts through the router; no DOM reference ever
// leaves this package.
type Agent struct {
	page        interfaces.Page
	extractor   *extract.Extractor
	highlighter *highlight.Highlighter
	overlay     *selection.Overlay
	logger      interfaces.Logger
}

// NewAgent creates the page agent for one document.
func NewAgent(page interfaces.Page, surface selection.Surface, logger interfaces.Logger) *Agent {
	return &Agent{
		page:        page,
		extractor:   extract.NewExtractor(logger),
		highlighter: highlight.NewHighlighter(page, logger, highlight.DefaultConfig()),
		overlay:     selection.NewOverlay(surface, logger),
		logger:      logger,
	}
}

// NewAgentWithConfig creates the page agent with a custom highlight
// configuration, used by tests to shorten timers.
func NewAgentWithConfig(page interfaces.Page, surface selection.Surface, logger interfaces.Logger, cfg highlight.Config) *Agent {
	return &Agent{
		page:        page,
		extractor:   extract.NewExtractor(logger),
		highlighter: highlight.NewHighlighter(page, logger, cfg),
		overlay:     selection.NewOverlay(surface, logger),
		logger:      logger,
	}
}

// Attach registers the agent as the page-context listener.
func (a *Agent) Attach(router *bus.Router) {
	router.Register(bus.ContextPage, a.handle)
}

// handle dispatches one incoming message.
func (a *Agent) handle(ctx context.Context, msg bus.Message) (bus.Message, error) {
	switch msg.Type {
	case bus.TypeExtractContent:
		return a.extractContent()

	case bus.TypeHighlightCitation:
		payload, ok := msg.Payload.(bus.HighlightPayload)
		if !ok {
			return bus.Message{}, &coreerrors.ValidationError{
				Field:   "payload",
				Message: "highlight request requires a block id",
			}
		}
		found := a.highlighter.Highlight(payload.BlockID)
		return bus.Message{Type: msg.Type, Payload: found}, nil

	case bus.TypeStartSelection:
		return a.startSelection(ctx)

	default:
		return bus.Message{}, &coreerrors.ValidationError{
			Field:   "type",
			Message: "unknown message type " + msg.Type,
		}
	}
}

// extractContent runs a fresh extraction pass over the page. Every
// request re-traverses the document so blocks reflect the current DOM.
func (a *Agent) extractContent() (bus.Message, error) {
	result := a.extractor.Extract(a.page)

	a.logger.Debug("content extracted", map[string]interface{}{
		"url":    result.URL,
		"blocks": len(result.Blocks),
		"score":  result.ContentScore,
	})
	return bus.Message{Type: bus.TypeExtractContent, Payload: result}, nil
}

// startSelection runs the overlay to completion. A nil rect in the
// reply means the user cancelled.
func (a *Agent) startSelection(ctx context.Context) (bus.Message, error) {
	rect, err := a.overlay.Start(ctx)
	if err != nil {
		return bus.Message{}, err
	}

	var payload *domain.SelectionRect
	if rect != nil {
		payload = rect
	}
	return bus.Message{Type: bus.TypeStartSelection, Payload: payload}, nil
}
