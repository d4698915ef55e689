package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input string
		want  color.NRGBA
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}},
		{"#ff0000", color.NRGBA{255, 0, 0, 255}},
		{"00FF00", color.NRGBA{0, 255, 0, 255}},
		{"#0000ff", color.NRGBA{0, 0, 255, 255}},
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"#F80", color.NRGBA{255, 136, 0, 255}},
		{" #123456 ", color.NRGBA{0x12, 0x34, 0x56, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if err != nil {
				t.Fatalf("ParseColor(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q): got %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, input := range []string{"", "#", "#FF", "#FF00", "#GGGGGG", "#FF000080", "red"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseColor(input); err == nil {
				t.Errorf("ParseColor(%q) should fail", input)
			}
		})
	}
}

func TestHexString(t *testing.T) {
	if got := HexString(color.NRGBA{0xAB, 0xCD, 0xEF, 255}); got != "#ABCDEF" {
		t.Errorf("HexString: got %s, want #ABCDEF", got)
	}
}

func TestSampleColor(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 128, 64, 255})

	result, err := SampleColor(img, 50, 50)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}

	if result.Hex != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", result.Hex)
	}
	if result.RGB.R != 255 || result.RGB.G != 128 || result.RGB.B != 64 {
		t.Errorf("RGB: got (%d,%d,%d), want (255,128,64)", result.RGB.R, result.RGB.G, result.RGB.B)
	}
	if result.RGBA.A != 255 {
		t.Errorf("RGBA.A: got %d, want 255", result.RGBA.A)
	}
}

func TestSampleColor_OffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 20, 30, 40))
	img.SetNRGBA(10, 20, color.NRGBA{1, 2, 3, 255})

	result, err := SampleColor(img, 0, 0)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if result.Hex != "#010203" {
		t.Errorf("Hex: got %s, want #010203", result.Hex)
	}
	if _, err := SampleColor(img, 20, 0); err == nil {
		t.Error("SampleColor should fail past the right edge")
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 50},
		{"negative y", 50, -1},
		{"x too large", 100, 50},
		{"y too large", 50, 100},
		{"both too large", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SampleColor(img, tt.x, tt.y)
			if err == nil {
				t.Error("SampleColor should fail for out-of-bounds coordinates")
			}
		})
	}
}

func TestDominantColors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 80 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255}) // 80% red
			} else {
				img.Set(x, y, color.RGBA{0, 255, 0, 255}) // 20% green
			}
		}
	}

	colors, err := DominantColors(img, 5, nil)
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}

	if len(colors) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(colors))
	}
	// 255/16*16 = 240
	if colors[0].Hex != "#F00000" {
		t.Errorf("dominant color: got %s, want #F00000", colors[0].Hex)
	}
	if colors[0].Percentage < 79.99 || colors[0].Percentage > 80.01 {
		t.Errorf("dominant percentage: got %f, want 80", colors[0].Percentage)
	}
}

func TestDominantColors_WithRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	colors, err := DominantColors(img, 5, &CropRect{X: 50, Y: 50, Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("DominantColors with region failed: %v", err)
	}

	if len(colors) != 1 || colors[0].Hex != "#F0F0F0" {
		t.Errorf("expected only quantized white in bottom-right region, got %+v", colors)
	}
}

func TestDominantColors_InvalidRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	if _, err := DominantColors(img, 5, &CropRect{X: 90, Y: 0, Width: 20, Height: 10}); err == nil {
		t.Error("DominantColors should fail for a region outside the image")
	}
}

func TestDominantColors_SkipsTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 255, 255})

	colors, err := DominantColors(img, 3, nil)
	if err != nil {
		t.Fatalf("DominantColors failed: %v", err)
	}
	if len(colors) != 1 || colors[0].Percentage != 100 {
		t.Errorf("expected single opaque color at 100%%, got %+v", colors)
	}
}

func TestSuggestBorders(t *testing.T) {
	img := createPatternImage(100, 100)

	suggestions, err := SuggestBorders(img, CropRect{X: 0, Y: 0, Width: 50, Height: 50}, 3)
	if err != nil {
		t.Fatalf("SuggestBorders failed: %v", err)
	}

	want := []BorderSuggestion{
		{Hex: "#F00000", Source: "dominant"},
		{Hex: "#00F0F0", Source: "complement"},
		{Hex: "#FFFFFF", Source: "neutral"},
		{Hex: "#000000", Source: "neutral"},
	}
	if len(suggestions) != len(want) {
		t.Fatalf("got %d suggestions, want %d: %+v", len(suggestions), len(want), suggestions)
	}
	for i := range want {
		if suggestions[i] != want[i] {
			t.Errorf("suggestion %d: got %+v, want %+v", i, suggestions[i], want[i])
		}
	}
}

func TestSuggestBorders_NoDuplicates(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{0, 0, 0, 255})

	suggestions, err := SuggestBorders(img, CropRect{X: 0, Y: 0, Width: 20, Height: 20}, 3)
	if err != nil {
		t.Fatalf("SuggestBorders failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, s := range suggestions {
		if seen[s.Hex] {
			t.Errorf("duplicate suggestion %s", s.Hex)
		}
		seen[s.Hex] = true
	}
	if suggestions[0].Hex != "#000000" || suggestions[0].Source != "dominant" {
		t.Errorf("first suggestion: got %+v, want dominant #000000", suggestions[0])
	}
}

func TestRgbToHSL(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		wantH   int
		wantS   int
		wantL   int
	}{
		{"red", 255, 0, 0, 0, 100, 50},
		{"green", 0, 255, 0, 120, 100, 50},
		{"blue", 0, 0, 255, 240, 100, 50},
		{"white", 255, 255, 255, 0, 0, 100},
		{"black", 0, 0, 0, 0, 0, 0},
		{"gray", 128, 128, 128, 0, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsl := rgbToHSL(tt.r, tt.g, tt.b)

			// Allow some tolerance for rounding
			if abs(hsl.H-tt.wantH) > 1 {
				t.Errorf("H: got %d, want %d", hsl.H, tt.wantH)
			}
			if abs(hsl.S-tt.wantS) > 1 {
				t.Errorf("S: got %d, want %d", hsl.S, tt.wantS)
			}
			if abs(hsl.L-tt.wantL) > 1 {
				t.Errorf("L: got %d, want %d", hsl.L, tt.wantL)
			}
		})
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
