// Package session holds the state of one framing job: the source image, the
// border, and the crop chosen for each preset.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/image-framer-mcp/internal/compose"
	"github.com/ironsheep/image-framer-mcp/internal/imaging"
	"github.com/ironsheep/image-framer-mcp/internal/metrics"
	"github.com/ironsheep/image-framer-mcp/internal/preset"
)

var (
	// ErrNoImage means no source has been loaded yet.
	ErrNoImage = errors.New("no image loaded")

	// ErrNoCrop means the preset has no crop selected yet.
	ErrNoCrop = errors.New("no crop selected")
)

// Session is safe for concurrent use.
type Session struct {
	presets *preset.Table
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	source *imaging.Source
	border compose.Border
	crops  map[string]imaging.CropRect
	frames map[string]*image.NRGBA

	// generation changes whenever source, border or any crop changes, so a
	// composite computed against stale state is not stored.
	generation uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithMetrics records composites on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New returns an empty session using presets and the initial border.
func New(presets *preset.Table, border compose.Border, opts ...Option) *Session {
	s := &Session{
		presets: presets,
		logger:  zap.NewNop(),
		border:  border,
		crops:   make(map[string]imaging.CropRect),
		frames:  make(map[string]*image.NRGBA),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Presets returns the table the session was built with.
func (s *Session) Presets() *preset.Table {
	return s.presets
}

// SetSource replaces the image. Every crop is discarded because crop
// coordinates belong to the previous image.
func (s *Session) SetSource(src *imaging.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = src
	s.crops = make(map[string]imaging.CropRect)
	s.frames = make(map[string]*image.NRGBA)
	s.generation++
	s.logger.Debug("source replaced")
}

// Source returns the current source, or ErrNoImage.
func (s *Session) Source() (*imaging.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return nil, ErrNoImage
	}
	return s.source, nil
}

// Image waits for the current source to decode.
func (s *Session) Image(ctx context.Context) (image.Image, error) {
	src, err := s.Source()
	if err != nil {
		return nil, err
	}
	return src.Wait(ctx)
}

// SetCrop stores r for the named preset and returns the new composite.
// r must lie inside the decoded source.
func (s *Session) SetCrop(ctx context.Context, name string, r imaging.CropRect) (*image.NRGBA, error) {
	p, err := s.presets.Lookup(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	src := s.source
	s.mu.Unlock()
	if src == nil {
		return nil, ErrNoImage
	}

	img, err := src.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(img.Bounds()); err != nil {
		return nil, fmt.Errorf("invalid crop for %s: %w", p.Name, err)
	}
	if aspect := float64(r.Width) / float64(r.Height); math.Abs(aspect-p.Aspect()) > 0.01*p.Aspect() {
		s.logger.Debug("crop aspect differs from preset",
			zap.String("preset", p.Name),
			zap.Float64("crop_aspect", aspect),
			zap.Float64("preset_aspect", p.Aspect()))
	}

	s.mu.Lock()
	if s.source != src {
		s.mu.Unlock()
		return nil, fmt.Errorf("source changed while setting crop for %s", p.Name)
	}
	s.crops[p.Name] = r
	delete(s.frames, p.Name)
	s.generation++
	s.mu.Unlock()

	return s.Composite(ctx, p.Name)
}

// SetCropAnchored picks the largest crop of the preset's aspect ratio at
// the given anchor and stores it.
func (s *Session) SetCropAnchored(ctx context.Context, name, anchor string) (imaging.CropRect, *image.NRGBA, error) {
	p, err := s.presets.Lookup(name)
	if err != nil {
		return imaging.CropRect{}, nil, err
	}
	img, err := s.Image(ctx)
	if err != nil {
		return imaging.CropRect{}, nil, err
	}
	r, err := imaging.AnchoredCrop(img.Bounds(), p.Aspect(), anchor)
	if err != nil {
		return imaging.CropRect{}, nil, err
	}
	out, err := s.SetCrop(ctx, p.Name, r)
	if err != nil {
		return imaging.CropRect{}, nil, err
	}
	return r, out, nil
}

// Crop returns the stored crop for the named preset.
func (s *Session) Crop(name string) (imaging.CropRect, error) {
	p, err := s.presets.Lookup(name)
	if err != nil {
		return imaging.CropRect{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return imaging.CropRect{}, ErrNoImage
	}
	r, ok := s.crops[p.Name]
	if !ok {
		return imaging.CropRect{}, ErrNoCrop
	}
	return r, nil
}

// Border returns the current border.
func (s *Session) Border() compose.Border {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.border
}

// SetBorder recomposites every preset that has a crop with b, then stores b.
// Crop positions are kept. It returns the presets that were recomposited.
// If any composite fails the session keeps its previous border.
func (s *Session) SetBorder(ctx context.Context, b compose.Border) ([]string, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	src, gen := s.source, s.generation
	crops := make(map[string]imaging.CropRect, len(s.crops))
	for name, r := range s.crops {
		crops[name] = r
	}
	s.mu.Unlock()

	var names []string
	frames := make(map[string]*image.NRGBA, len(crops))
	for _, name := range s.presets.Names() {
		r, ok := crops[name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failed to recomposite %s: %w", name, err)
		}
		start := time.Now()
		out, err := compose.CompositeSource(ctx, src, r, b)
		if err != nil {
			return nil, fmt.Errorf("failed to recomposite %s: %w", name, err)
		}
		s.metrics.ObserveComposite(name, time.Since(start))
		frames[name] = out
		names = append(names, name)
	}

	s.mu.Lock()
	s.border = b
	if s.generation == gen {
		s.frames = frames
	} else {
		s.frames = make(map[string]*image.NRGBA)
	}
	s.generation++
	s.mu.Unlock()

	s.logger.Debug("border updated", zap.Stringer("border", b), zap.Strings("recomposited", names))
	return names, nil
}

// Composite returns the framed image for the named preset, computing it if
// needed. It waits for the source to finish decoding.
func (s *Session) Composite(ctx context.Context, name string) (*image.NRGBA, error) {
	p, err := s.presets.Lookup(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return nil, ErrNoImage
	}
	r, ok := s.crops[p.Name]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoCrop
	}
	if out, ok := s.frames[p.Name]; ok {
		s.mu.Unlock()
		return out, nil
	}
	src, border, gen := s.source, s.border, s.generation
	s.mu.Unlock()

	start := time.Now()
	out, err := compose.CompositeSource(ctx, src, r, border)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveComposite(p.Name, time.Since(start))

	s.mu.Lock()
	if s.generation == gen {
		s.frames[p.Name] = out
	}
	s.mu.Unlock()

	return out, nil
}

// Cropped returns the presets that have a crop, in table order.
func (s *Session) Cropped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, name := range s.presets.Names() {
		if _, ok := s.crops[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// IsSkip reports whether err means the operation had nothing to act on.
func IsSkip(err error) bool {
	return errors.Is(err, ErrNoImage) || errors.Is(err, ErrNoCrop)
}

// SkipReason returns a short label for a skip error, for logs and metrics.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrNoImage):
		return "no_image"
	case errors.Is(err, ErrNoCrop):
		return "no_crop"
	}
	return ""
}
