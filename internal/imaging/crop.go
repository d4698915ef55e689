package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropRect is a region of a source image in pixel coordinates, measured from
// the source's top-left corner. X and Y are inclusive; the rectangle covers
// X..X+Width-1 and Y..Y+Height-1.
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks that r has a positive area and lies entirely inside bounds.
func (r CropRect) Validate(bounds image.Rectangle) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid crop region: width and height must be positive, got %dx%d", r.Width, r.Height)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.Width > bounds.Dx() || r.Y+r.Height > bounds.Dy() {
		return fmt.Errorf("crop region (%d,%d) %dx%d outside image bounds %dx%d",
			r.X, r.Y, r.Width, r.Height, bounds.Dx(), bounds.Dy())
	}
	return nil
}

// Rect converts r to an absolute rectangle within bounds.
func (r CropRect) Rect(bounds image.Rectangle) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Add(bounds.Min)
}

// Crop extracts r from img without scaling.
func Crop(img image.Image, r CropRect) (*image.NRGBA, error) {
	bounds := img.Bounds()
	if err := r.Validate(bounds); err != nil {
		return nil, err
	}
	return imaging.Crop(img, r.Rect(bounds)), nil
}

// Anchors lists the positions accepted by AnchoredCrop.
var Anchors = []string{
	"center", "top", "bottom", "left", "right",
	"top-left", "top-right", "bottom-left", "bottom-right",
}

// AnchoredCrop returns the largest rectangle with the given aspect ratio
// (width / height) that fits in bounds, placed at anchor.
//
// "center" matches what an interactive crop widget shows before the user
// pans or zooms. Any other anchor pins the rectangle to the named edge or
// corner; the free axis stays centered.
func AnchoredCrop(bounds image.Rectangle, aspect float64, anchor string) (CropRect, error) {
	if aspect <= 0 {
		return CropRect{}, fmt.Errorf("invalid aspect ratio: %v", aspect)
	}
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return CropRect{}, fmt.Errorf("image has no pixels")
	}

	cw, ch := w, int(float64(w)/aspect)
	if ch > h {
		cw, ch = int(float64(h)*aspect), h
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}

	midX := (w - cw) / 2
	midY := (h - ch) / 2
	endX := w - cw
	endY := h - ch

	var x, y int
	switch anchor {
	case "", "center":
		x, y = midX, midY
	case "top":
		x, y = midX, 0
	case "bottom":
		x, y = midX, endY
	case "left":
		x, y = 0, midY
	case "right":
		x, y = endX, midY
	case "top-left":
		x, y = 0, 0
	case "top-right":
		x, y = endX, 0
	case "bottom-left":
		x, y = 0, endY
	case "bottom-right":
		x, y = endX, endY
	default:
		return CropRect{}, fmt.Errorf("unknown anchor: %s", anchor)
	}

	return CropRect{X: x, Y: y, Width: cw, Height: ch}, nil
}
