// ABOUTME: Pixel-crop transform turning a full-viewport raster plus a rectangle into a cropped image
// ABOUTME: Derives the effective scale from the captured image, never from the reported DPR

package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"
	"github.com/oliamb/cutter"

	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
	"pageintel/core/interfaces"
)

const (
	jpegQuality = 80

	// Preview thumbnail bounds for the panel's crop chip.
	previewMaxWidth  = 160
	previewMaxHeight = 120
)

// CropResult is the re-encoded sub-region plus panel display extras.
type CropResult struct {
	// Image is the cropped region re-encoded as JPEG.
	Image []byte

	// Width and Height are the cropped dimensions in source pixels.
	Width  int
	Height int

	// Preview is a small JPEG thumbnail of the crop.
	Preview []byte

	// Accent is the prominent color of the crop, for the preview chip.
	Accent domain.RGBColor
}

// Cropper performs the panel-side crop transform.
type Cropper struct {
	logger interfaces.Logger
}

// NewCropper creates a cropper.
func NewCropper(logger interfaces.Logger) *Cropper {
	return &Cropper{logger: logger}
}

// Crop cuts the selected region out of a captured raster. The scale
// factor is inferred as capturedWidth / rect.WindowWidth so that zoom
// and OS scaling mismatches cannot skew the geometry, then the
// rectangle is mapped into source-image pixels and extracted.
func (c *Cropper) Crop(raster []byte, rect domain.SelectionRect) (*CropResult, error) {
	if rect.WindowWidth <= 0 {
		return nil, &coreerrors.ValidationError{Field: "windowWidth", Message: "must be positive"}
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return nil, &coreerrors.ValidationError{Field: "rect", Message: "selection has no area"}
	}

	img, format, err := image.Decode(bytes.NewReader(raster))
	if err != nil {
		return nil, fmt.Errorf("decoding raster: %w", err)
	}

	bounds := img.Bounds()
	scale := float64(bounds.Dx()) / rect.WindowWidth

	srcX := int(math.Round(rect.X * scale))
	srcY := int(math.Round(rect.Y * scale))
	srcW := int(math.Round(rect.Width * scale))
	srcH := int(math.Round(rect.Height * scale))

	// Clamp to the raster; a selection hanging off-screen is trimmed.
	if srcX < 0 {
		srcW += srcX
		srcX = 0
	}
	if srcY < 0 {
		srcH += srcY
		srcY = 0
	}
	if srcX+srcW > bounds.Dx() {
		srcW = bounds.Dx() - srcX
	}
	if srcY+srcH > bounds.Dy() {
		srcH = bounds.Dy() - srcY
	}
	if srcW <= 0 || srcH <= 0 {
		return nil, &coreerrors.ValidationError{Field: "rect", Message: "selection outside captured area"}
	}

	cropped, err := cutter.Crop(img, cutter.Config{
		Width:  srcW,
		Height: srcH,
		Anchor: image.Point{X: bounds.Min.X + srcX, Y: bounds.Min.Y + srcY},
		Mode:   cutter.TopLeft,
	})
	if err != nil {
		return nil, fmt.Errorf("cropping raster: %w", err)
	}

	encoded, err := encodeJPEG(cropped)
	if err != nil {
		return nil, err
	}

	preview, err := encodeJPEG(resize.Thumbnail(previewMaxWidth, previewMaxHeight, cropped, resize.Lanczos3))
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("crop complete", map[string]interface{}{
			"format": format,
			"scale":  scale,
			"width":  srcW,
			"height": srcH,
		})
	}

	return &CropResult{
		Image:   encoded,
		Width:   srcW,
		Height:  srcH,
		Preview: preview,
		Accent:  c.accentColor(cropped),
	}, nil
}

// SourceRegion maps a selection rectangle into source-image pixel
// coordinates for a raster of the given width. Exposed for callers that
// only need the geometry.
func SourceRegion(rect domain.SelectionRect, capturedWidth int) (x, y, w, h int) {
	scale := float64(capturedWidth) / rect.WindowWidth
	return int(math.Round(rect.X * scale)),
		int(math.Round(rect.Y * scale)),
		int(math.Round(rect.Width * scale)),
		int(math.Round(rect.Height * scale))
}

// accentColor finds the prominent color of the crop. Failures fall back
// to a neutral gray; the accent is cosmetic.
func (c *Cropper) accentColor(img image.Image) domain.RGBColor {
	fallback := domain.RGBColor{R: 128, G: 128, B: 128}

	nrgba := image.NewNRGBA(img.Bounds())
	draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)

	colors, err := prominentcolor.KmeansWithAll(
		prominentcolor.ArgumentDefault,
		nrgba,
		prominentcolor.DefaultK,
		1,
		prominentcolor.GetDefaultMasks(),
	)
	if err != nil || len(colors) == 0 {
		colors, err = prominentcolor.KmeansWithAll(
			prominentcolor.ArgumentDefault,
			nrgba,
			prominentcolor.DefaultK,
			1,
			nil,
		)
		if err != nil || len(colors) == 0 {
			return fallback
		}
	}

	return domain.RGBColor{
		R: uint8(colors[0].Color.R),
		G: uint8(colors[0].Color.G),
		B: uint8(colors[0].Color.B),
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
