// ABOUTME: Screen capture interface for the privileged raster capture primitive
// ABOUTME: Only the mediator may hold an implementation

package interfaces

import "context"

// ScreenCapturer captures the visible viewport of a window as an
// encoded raster image at full device-pixel resolution. It is a
// privileged primitive: only the coordination process may invoke it.
// Restricted targets must fail with a permission error rather than
// returning an empty or corrupt image.
type ScreenCapturer interface {
	// CaptureVisible captures the visible area of the given window and
	// returns the encoded image bytes (JPEG or PNG).
	CaptureVisible(ctx context.Context, windowID string) ([]byte, error)
}
