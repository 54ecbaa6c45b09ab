// ABOUTME: SelectionRect domain model for user-drawn screen regions
// ABOUTME: Carries the window metrics captured at confirmation time

package domain

// SelectionRect is a normalized screen-space rectangle in CSS pixels.
// Width and Height are always non-negative. The window metrics are
// sampled at the moment the selection is confirmed and travel with the
// rectangle so the crop transform can recover the effective scale.
//
// A SelectionRect is ephemeral: it exists only between selection
// confirmation and crop completion.
type SelectionRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// WindowWidth and WindowHeight are the viewport dimensions in CSS
	// pixels at confirmation time.
	WindowWidth  float64 `json:"windowWidth"`
	WindowHeight float64 `json:"windowHeight"`

	// DevicePixelRatio is the reported ratio at confirmation time. The
	// crop transform deliberately does not trust it; it is carried for
	// diagnostics.
	DevicePixelRatio float64 `json:"devicePixelRatio"`
}
