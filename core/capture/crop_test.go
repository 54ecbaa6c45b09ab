package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"pageintel/core/domain"
	coreerrors "pageintel/core/errors"
)

// testRaster builds a PNG raster where the pixel at (x,y) encodes its
// own position, so crops can be verified by sampling.
func testRaster(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x / 8), G: uint8(y / 8), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test raster: %v", err)
	}
	return buf.Bytes()
}

func diff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestSourceRegion_ScaleFromCapturedWidth(t *testing.T) {
	// Capture width 2000 with a 1000px window means scale 2.
	rect := domain.SelectionRect{
		X: 100, Y: 100, Width: 200, Height: 100,
		WindowWidth: 1000, WindowHeight: 600,
		DevicePixelRatio: 1, // deliberately wrong; must be ignored
	}

	x, y, w, h := SourceRegion(rect, 2000)

	if x != 200 || y != 200 || w != 400 || h != 200 {
		t.Errorf("source region = {%d %d %d %d}, want {200 200 400 200}", x, y, w, h)
	}
}

func TestCropper_Crop_ScaledRegion(t *testing.T) {
	raster := testRaster(t, 2000, 1200)
	rect := domain.SelectionRect{
		X: 100, Y: 100, Width: 200, Height: 100,
		WindowWidth: 1000, WindowHeight: 600,
	}

	result, err := NewCropper(nil).Crop(raster, rect)
	if err != nil {
		t.Fatalf("Crop returned error: %v", err)
	}

	if result.Width != 400 || result.Height != 200 {
		t.Errorf("crop dimensions = %dx%d, want 400x200", result.Width, result.Height)
	}

	cropped, err := jpeg.Decode(bytes.NewReader(result.Image))
	if err != nil {
		t.Fatalf("Failed to decode cropped JPEG: %v", err)
	}
	if cropped.Bounds().Dx() != 400 || cropped.Bounds().Dy() != 200 {
		t.Errorf("decoded dimensions = %dx%d, want 400x200", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}

	// The crop's top-left should correspond to source pixel (200, 200).
	// Position-encoded channels survive JPEG within a small tolerance.
	r, g, _, _ := cropped.At(cropped.Bounds().Min.X+4, cropped.Bounds().Min.Y+4).RGBA()
	wantR, wantG := uint8(204/8), uint8(204/8)
	if diff(uint8(r>>8), wantR) > 4 || diff(uint8(g>>8), wantG) > 4 {
		t.Errorf("top-left sample = (%d, %d), want near (%d, %d)", uint8(r>>8), uint8(g>>8), wantR, wantG)
	}
}

func TestCropper_Crop_ProducesPreviewAndAccent(t *testing.T) {
	raster := testRaster(t, 800, 600)
	rect := domain.SelectionRect{
		X: 0, Y: 0, Width: 400, Height: 300,
		WindowWidth: 800, WindowHeight: 600,
	}

	result, err := NewCropper(nil).Crop(raster, rect)
	if err != nil {
		t.Fatalf("Crop returned error: %v", err)
	}

	if len(result.Preview) == 0 {
		t.Error("preview thumbnail missing")
	}
	preview, err := jpeg.Decode(bytes.NewReader(result.Preview))
	if err != nil {
		t.Fatalf("Failed to decode preview: %v", err)
	}
	if preview.Bounds().Dx() > 160 || preview.Bounds().Dy() > 120 {
		t.Errorf("preview %dx%d exceeds bounds", preview.Bounds().Dx(), preview.Bounds().Dy())
	}
}

func TestCropper_Crop_ClampsToRasterBounds(t *testing.T) {
	raster := testRaster(t, 1000, 500)
	// Selection hangs off the right and bottom edges.
	rect := domain.SelectionRect{
		X: 900, Y: 400, Width: 300, Height: 300,
		WindowWidth: 1000, WindowHeight: 500,
	}

	result, err := NewCropper(nil).Crop(raster, rect)
	if err != nil {
		t.Fatalf("Crop returned error: %v", err)
	}
	if result.Width != 100 || result.Height != 100 {
		t.Errorf("clamped dimensions = %dx%d, want 100x100", result.Width, result.Height)
	}
}

func TestCropper_Crop_InvalidInputs(t *testing.T) {
	raster := testRaster(t, 100, 100)

	_, err := NewCropper(nil).Crop(raster, domain.SelectionRect{
		X: 0, Y: 0, Width: 50, Height: 50, WindowWidth: 0,
	})
	if !coreerrors.IsValidation(err) {
		t.Errorf("zero window width error = %v, want ValidationError", err)
	}

	_, err = NewCropper(nil).Crop(raster, domain.SelectionRect{
		X: 0, Y: 0, Width: 0, Height: 50, WindowWidth: 100,
	})
	if !coreerrors.IsValidation(err) {
		t.Errorf("zero-area selection error = %v, want ValidationError", err)
	}

	_, err = NewCropper(nil).Crop([]byte("not an image"), domain.SelectionRect{
		X: 0, Y: 0, Width: 50, Height: 50, WindowWidth: 100,
	})
	if err == nil {
		t.Error("garbage raster should fail to decode")
	}
}
