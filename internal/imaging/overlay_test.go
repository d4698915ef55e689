package imaging

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"testing"
)

func TestCropOverlay(t *testing.T) {
	img := createInMemoryImage(100, 80, color.RGBA{200, 200, 200, 255})

	result, err := CropOverlay(img, CropRect{X: 10, Y: 10, Width: 60, Height: 60}, "#FF0000", 0)
	if err != nil {
		t.Fatalf("CropOverlay failed: %v", err)
	}

	if result.Width != 100 || result.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", result.Width, result.Height)
	}
	if result.Scale != 1 {
		t.Errorf("Scale: got %v, want 1", result.Scale)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	preview, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"outline top-left", 10, 10, "#FF0000"},
		{"outline bottom-right", 69, 69, "#FF0000"},
		{"outside is dimmed", 5, 5, "#646464"},
		{"inside is untouched", 15, 15, "#C8C8C8"},
		{"thirds guide", 30, 15, "#E3E3E3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HexString(preview.At(tt.x, tt.y)); got != tt.want {
				t.Errorf("pixel (%d,%d): got %s, want %s", tt.x, tt.y, got, tt.want)
			}
		})
	}

	// Source must not be modified
	if got := HexString(img.At(5, 5)); got != "#C8C8C8" {
		t.Errorf("source modified: got %s at (5,5)", got)
	}
}

func TestCropOverlay_Fit(t *testing.T) {
	img := createInMemoryImage(400, 200, color.RGBA{0, 0, 0, 255})

	result, err := CropOverlay(img, CropRect{X: 0, Y: 0, Width: 200, Height: 200}, "", 100)
	if err != nil {
		t.Fatalf("CropOverlay failed: %v", err)
	}
	if result.Width != 100 || result.Height != 50 {
		t.Errorf("dimensions: got %dx%d, want 100x50", result.Width, result.Height)
	}
	if result.Scale != 0.25 {
		t.Errorf("Scale: got %v, want 0.25", result.Scale)
	}
}

func TestCropOverlay_Invalid(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{0, 0, 0, 255})

	if _, err := CropOverlay(img, CropRect{X: 40, Y: 0, Width: 20, Height: 20}, "", 0); err == nil {
		t.Error("CropOverlay should fail for out-of-bounds crop")
	}
	if _, err := CropOverlay(img, CropRect{X: 0, Y: 0, Width: 20, Height: 20}, "nope", 0); err == nil {
		t.Error("CropOverlay should fail for invalid color")
	}
}
