package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBAColor represents an RGBA color with 8-bit components including alpha.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"` // 0 = fully transparent, 255 = opaque
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGB  RGBColor  `json:"rgb"`
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// ParseColor parses a border color written as "#RRGGBB" or "#RGB". The
// leading '#' is optional and case is ignored. The result is always opaque.
func ParseColor(hex string) (color.NRGBA, error) {
	s := strings.TrimSpace(hex)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: want #RGB or #RRGGBB", hex)
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexString formats c as "#RRGGBB", dropping alpha.
func HexString(c color.Color) string {
	r, g, b, _ := toNRGBA(c)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// SampleColor extracts the color at (x, y), measured from the image's
// top-left corner.
//
// # Color Conversion
//
// Translucent pixels are un-premultiplied before reporting, so RGB holds the
// straight color and RGBA.A its opacity.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	px, py := bounds.Min.X+x, bounds.Min.Y+y
	if x < 0 || y < 0 || px >= bounds.Max.X || py >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r8, g8, b8, a8 := toNRGBA(img.At(px, py))
	return newColorResult(r8, g8, b8, a8), nil
}

func newColorResult(r, g, b, a uint8) *ColorResult {
	return &ColorResult{
		Hex:  fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB:  RGBColor{R: r, G: g, B: b},
		RGBA: RGBAColor{R: r, G: g, B: b, A: a},
		HSL:  rgbToHSL(r, g, b),
	}
}

func toNRGBA(c color.Color) (r, g, b, a uint8) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B, n.A
}

// ColorFrequency represents a color and its occurrence frequency in an image.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64  `json:"percentage"` // Percentage of pixels with this color (0-100)
	RGB        RGBColor `json:"rgb"`
}

// DominantColors returns up to count of the most common colors in region of
// img, or in the whole image when region is nil.
//
// # Color Quantization
//
// Components are quantized to multiples of 16 so near-identical colors are
// counted together. Fully transparent pixels are skipped. Ties are broken by
// hex value so the result is deterministic.
func DominantColors(img image.Image, count int, region *CropRect) ([]ColorFrequency, error) {
	bounds := img.Bounds()
	if region != nil {
		if err := region.Validate(bounds); err != nil {
			return nil, err
		}
		bounds = region.Rect(bounds)
	}

	counts := make(map[RGBColor]int)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := toNRGBA(img.At(x, y))
			if a == 0 {
				continue
			}
			counts[RGBColor{R: r / 16 * 16, G: g / 16 * 16, B: b / 16 * 16}]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for c, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
			Percentage: float64(n) / float64(total) * 100,
			RGB:        c,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if count > 0 && len(colors) > count {
		colors = colors[:count]
	}
	return colors, nil
}

// BorderSuggestion is a candidate border color derived from a crop.
type BorderSuggestion struct {
	Hex    string `json:"hex"`
	Source string `json:"source"` // "dominant", "complement" or "neutral"
}

// SuggestBorders proposes border colors for the given crop of img: its count
// dominant colors, the hue complement of the most dominant one, and plain
// white and black. Duplicates are dropped, first occurrence wins.
func SuggestBorders(img image.Image, r CropRect, count int) ([]BorderSuggestion, error) {
	dominant, err := DominantColors(img, count, &r)
	if err != nil {
		return nil, err
	}

	var out []BorderSuggestion
	seen := make(map[string]bool)
	add := func(hex, source string) {
		if seen[hex] {
			return
		}
		seen[hex] = true
		out = append(out, BorderSuggestion{Hex: hex, Source: source})
	}

	for _, d := range dominant {
		add(d.Hex, "dominant")
	}
	if len(dominant) > 0 {
		c, _ := colorful.MakeColor(color.NRGBA{R: dominant[0].RGB.R, G: dominant[0].RGB.G, B: dominant[0].RGB.B, A: 255})
		h, s, l := c.Hsl()
		comp := colorful.Hsl(math.Mod(h+180, 360), s, l).Clamped()
		add(strings.ToUpper(comp.Hex()), "complement")
	}
	add("#FFFFFF", "neutral")
	add("#000000", "neutral")
	return out, nil
}

// rgbToHSL converts 8-bit RGB to HSL with hue in degrees and saturation and
// lightness in percent.
func rgbToHSL(r, g, b uint8) HSLColor {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}
