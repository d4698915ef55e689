package compose

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/ironsheep/image-framer-mcp/internal/imaging"
)

// ErrInvalidBorder is returned for negative border thickness.
var ErrInvalidBorder = errors.New("invalid border")

// Border is the solid padding drawn around a crop.
type Border struct {
	// Thickness is the padding in pixels on each side.
	Thickness int

	// Color is always opaque.
	Color color.NRGBA
}

// DefaultBorder is a 10px white border.
var DefaultBorder = Border{Thickness: 10, Color: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}

// NewBorder builds a Border from a thickness and a hex color ("#RRGGBB" or
// "#RGB").
func NewBorder(thickness int, hex string) (Border, error) {
	c, err := imaging.ParseColor(hex)
	if err != nil {
		return Border{}, fmt.Errorf("%w: %v", ErrInvalidBorder, err)
	}
	b := Border{Thickness: thickness, Color: c}
	if err := b.Validate(); err != nil {
		return Border{}, err
	}
	return b, nil
}

// Validate rejects negative thickness.
func (b Border) Validate() error {
	if b.Thickness < 0 {
		return fmt.Errorf("%w: thickness must be non-negative, got %d", ErrInvalidBorder, b.Thickness)
	}
	return nil
}

// Hex returns the border color as "#RRGGBB".
func (b Border) Hex() string {
	return imaging.HexString(b.Color)
}

func (b Border) String() string {
	return fmt.Sprintf("%dpx %s", b.Thickness, b.Hex())
}
