// ABOUTME: Incremental NDJSON stream reader for /chat/stream responses
// ABOUTME: Decodes chunk by chunk; events split across chunks are dropped, not buffered

package backend

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
)

// streamReadSize is the per-read buffer for the streaming body.
const streamReadSize = 4096

// StreamResult is what remains after a stream ends: the accumulated
// answer text and the terminal event, if one arrived.
type StreamResult struct {
	// Answer is the concatenation of all token texts. If the stream
	// ended with an error event, Answer is that error message.
	Answer string

	// Usage is the terminal usage event, if any.
	Usage *domain.StreamEvent

	// Failed reports whether the stream ended with an error event.
	Failed bool
}

// ChatStream submits a streaming chat query. onToken is invoked
// synchronously for every token event, in order; it is the only
// suspension point visible to the caller and enables incremental UI
// updates. There is no cancellation path once the stream starts other
// than ctx applying to the initial request.
//
// Each network chunk is split on line boundaries and every line is
// decoded independently. A JSON event split across two chunks fails to
// parse and is dropped with a warning; this is accepted best-effort
// behavior, not retried and not buffered across chunks.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, onToken func(string)) (*StreamResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, coreerrors.WrapError(err, "encoding request")
	}

	resp, err := c.http.Post(ctx, c.baseURL+"/chat/stream", strings.NewReader(string(body)))
	if err != nil {
		return nil, &coreerrors.NetworkUnreachableError{Address: c.baseURL, Cause: err}
	}
	defer resp.Body().Close()

	if resp.StatusCode() >= 400 {
		return nil, c.backendError(resp)
	}

	result := &StreamResult{}
	var answer strings.Builder

	buf := make([]byte, streamReadSize)
	reader := resp.Body()
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			c.consumeChunk(string(buf[:n]), &answer, result, onToken)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, &coreerrors.NetworkUnreachableError{Address: c.baseURL, Cause: readErr}
		}
	}

	if result.Failed {
		// The error message becomes the final answer.
		return result, nil
	}
	result.Answer = answer.String()
	return result, nil
}

// consumeChunk splits one decoded chunk on line boundaries and applies
// each event.
func (c *Client) consumeChunk(chunk string, answer *strings.Builder, result *StreamResult, onToken func(string)) {
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var event domain.StreamEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			if c.logger != nil {
				c.logger.Warn("dropping malformed stream event", map[string]interface{}{
					"line":  truncate(line, 120),
					"error": err.Error(),
				})
			}
			continue
		}

		switch event.Type {
		case domain.StreamEventToken:
			answer.WriteString(event.Text)
			if onToken != nil {
				onToken(event.Text)
			}
		case domain.StreamEventUsage:
			usage := event
			result.Usage = &usage
		case domain.StreamEventError:
			result.Failed = true
			result.Answer = event.Message
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
