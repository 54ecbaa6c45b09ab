// ABOUTME: File-backed screen capturer serving pre-rendered raster images
// ABOUTME: Restricted window targets fail with a permission error

package static

import (
	"context"
	"os"
	"sync"

	coreerrors "pageintel/core/errors"
)

// StaticCapturer implements ScreenCapturer by reading an encoded
// raster from a file path. It stands in for the privileged capture
// primitive in headless runs: each capture re-reads the source so an
// updated file shows up on the next request.
type StaticCapturer struct {
	sourcePath string

	mu         sync.RWMutex
	restricted map[string]struct{}
}

// NewStaticCapturer creates a capturer reading from sourcePath.
func NewStaticCapturer(sourcePath string) *StaticCapturer {
	return &StaticCapturer{
		sourcePath: sourcePath,
		restricted: make(map[string]struct{}),
	}
}

// Restrict marks a window as a forbidden capture target.
func (c *StaticCapturer) Restrict(windowID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restricted[windowID] = struct{}{}
}

// CaptureVisible returns the encoded raster for the given window.
func (c *StaticCapturer) CaptureVisible(ctx context.Context, windowID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	_, denied := c.restricted[windowID]
	c.mu.RUnlock()
	if denied {
		return nil, &coreerrors.PermissionDeniedError{
			Target:  windowID,
			Message: "window is a restricted capture target",
		}
	}

	if c.sourcePath == "" {
		return nil, &coreerrors.ValidationError{
			Field:   "capture source",
			Message: "no capture source configured",
		}
	}

	data, err := os.ReadFile(c.sourcePath)
	if err != nil {
		return nil, coreerrors.WrapError(err, "reading capture source")
	}
	return data, nil
}
