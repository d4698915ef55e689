package compose

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// ErrUnsupportedFormat is returned for output formats other than PNG and JPEG.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat accepts "png", "jpeg" and "jpg" in any case. Empty selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return "png"
}

// MimeType returns the format's media type.
func (f Format) MimeType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Quality selects between the two JPEG quality levels offered to users.
// PNG output ignores it.
type Quality string

const (
	QualityLow  Quality = "low"  // 0.3
	QualityHigh Quality = "high" // 1.0
)

// ParseQuality accepts "low"/"high" or the equivalent fractions "0.3"/"1.0".
// Empty selects QualityHigh.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "high", "1", "1.0":
		return QualityHigh, nil
	case "low", "0.3":
		return QualityLow, nil
	}
	return "", fmt.Errorf("invalid quality %q: want low or high", s)
}

// JPEG returns the encoder quality on the 1-100 scale.
func (q Quality) JPEG() int {
	if q == QualityLow {
		return 30
	}
	return 100
}

// Encoder returns the bild encoder for f at quality q.
func Encoder(f Format, q Quality) (imgio.Encoder, error) {
	switch f {
	case PNG:
		return imgio.PNGEncoder(), nil
	case JPEG:
		return imgio.JPEGEncoder(q.JPEG()), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// Encode writes img to w as f.
func Encode(w io.Writer, img image.Image, f Format, q Quality) error {
	enc, err := Encoder(f, q)
	if err != nil {
		return err
	}
	if err := enc(w, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return nil
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(img image.Image, f Format, q Quality) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, q); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName returns the download name for a preset, e.g. "square-image.png".
func FileName(preset string, f Format) string {
	return fmt.Sprintf("%s-image.%s", preset, f.Ext())
}
