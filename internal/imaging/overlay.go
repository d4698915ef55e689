package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// DefaultOverlayColor is the outline color used when none is given.
const DefaultOverlayColor = "#FF0000"

// OverlayResult contains a preview of a crop drawn over its source image.
type OverlayResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Scale       float64 `json:"scale"` // preview pixels per source pixel
	ImageBase64 string  `json:"image_base64"`
	MimeType    string  `json:"mime_type"`
}

// CropOverlay draws r over img the way a crop widget presents it: the area
// outside the crop is dimmed, the crop is outlined in outlineHex, and
// rule-of-thirds guides are drawn inside it.
//
// When maxSize is positive the preview is fitted inside maxSize×maxSize;
// the source itself is never modified.
func CropOverlay(img image.Image, r CropRect, outlineHex string, maxSize int) (*OverlayResult, error) {
	bounds := img.Bounds()
	if err := r.Validate(bounds); err != nil {
		return nil, err
	}
	if outlineHex == "" {
		outlineHex = DefaultOverlayColor
	}
	outline, err := ParseColor(outlineHex)
	if err != nil {
		return nil, err
	}

	// Clone rebases the copy at (0,0), matching CropRect's coordinates.
	result := imaging.Clone(img)
	crop := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	shade := result.Bounds()
	for y := shade.Min.Y; y < shade.Max.Y; y++ {
		for x := shade.Min.X; x < shade.Max.X; x++ {
			if image.Pt(x, y).In(crop) {
				continue
			}
			i := result.PixOffset(x, y)
			result.Pix[i+0] /= 2
			result.Pix[i+1] /= 2
			result.Pix[i+2] /= 2
		}
	}

	for i := 1; i < 3; i++ {
		gx := crop.Min.X + crop.Dx()*i/3
		gy := crop.Min.Y + crop.Dy()*i/3
		for y := crop.Min.Y; y < crop.Max.Y; y++ {
			lighten(result, gx, y)
		}
		for x := crop.Min.X; x < crop.Max.X; x++ {
			lighten(result, x, gy)
		}
	}

	// Outline last so it is never covered by a guide line.
	for x := crop.Min.X; x < crop.Max.X; x++ {
		result.SetNRGBA(x, crop.Min.Y, outline)
		result.SetNRGBA(x, crop.Max.Y-1, outline)
	}
	for y := crop.Min.Y; y < crop.Max.Y; y++ {
		result.SetNRGBA(crop.Min.X, y, outline)
		result.SetNRGBA(crop.Max.X-1, y, outline)
	}

	var preview image.Image = result
	scale := 1.0
	if maxSize > 0 && (bounds.Dx() > maxSize || bounds.Dy() > maxSize) {
		fitted := imaging.Fit(result, maxSize, maxSize, imaging.Box)
		scale = float64(fitted.Bounds().Dx()) / float64(bounds.Dx())
		preview = fitted
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, preview); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &OverlayResult{
		Width:       preview.Bounds().Dx(),
		Height:      preview.Bounds().Dy(),
		Scale:       scale,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// lighten moves the pixel at (x, y) halfway towards white.
func lighten(img *image.NRGBA, x, y int) {
	i := img.PixOffset(x, y)
	for c := 0; c < 3; c++ {
		img.Pix[i+c] = uint8((int(img.Pix[i+c]) + 255) / 2)
	}
}
