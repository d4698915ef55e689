package compose

import (
	"context"
	"image"

	imgproc "github.com/disintegration/imaging"

	"github.com/ironsheep/image-framer-mcp/internal/imaging"
)

// Composite frames the crop r of src with border b.
//
// The result is a new (r.Width+2t)×(r.Height+2t) image; src is not
// modified. r must lie inside src and b.Thickness must be non-negative.
func Composite(src image.Image, r imaging.CropRect, b Border) (*image.NRGBA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	cropped, err := imaging.Crop(src, r)
	if err != nil {
		return nil, err
	}

	t := b.Thickness
	canvas := imgproc.New(r.Width+2*t, r.Height+2*t, b.Color)
	return imgproc.Overlay(canvas, cropped, image.Pt(t, t), 1.0), nil
}

// CompositeSource waits for src to finish decoding, then calls Composite.
//
// A decode failure is returned as is; if ctx ends first its error is
// returned.
func CompositeSource(ctx context.Context, src *imaging.Source, r imaging.CropRect, b Border) (*image.NRGBA, error) {
	img, err := src.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return Composite(img, r, b)
}
