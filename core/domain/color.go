// ABOUTME: RGB color domain model used for crop preview accents

package domain

// RGBColor is a simple RGB triple.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}
