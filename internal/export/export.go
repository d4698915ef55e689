// Package export encodes framed composites into downloadable files.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"go.uber.org/zap"

	"github.com/ironsheep/image-framer-mcp/internal/compose"
	"github.com/ironsheep/image-framer-mcp/internal/metrics"
	"github.com/ironsheep/image-framer-mcp/internal/session"
)

// Artifact is one encoded composite.
type Artifact struct {
	Preset   string         `json:"preset"`
	FileName string         `json:"file_name"`
	MimeType string         `json:"mime_type"`
	Format   compose.Format `json:"format"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Bytes    []byte         `json:"-"`
}

// Exporter encodes the composites held by a session.
type Exporter struct {
	session *session.Session
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New returns an Exporter for s. m may be nil.
func New(s *session.Session, logger *zap.Logger, m *metrics.Metrics) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{session: s, logger: logger, metrics: m}
}

// Export encodes the named preset's composite. It returns session.ErrNoImage
// or session.ErrNoCrop when there is nothing to export.
func (e *Exporter) Export(ctx context.Context, name string, f compose.Format, q compose.Quality) (*Artifact, error) {
	img, err := e.session.Composite(ctx, name)
	if err != nil {
		return nil, err
	}
	data, err := compose.EncodeBytes(img, f, q)
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		Preset:   name,
		FileName: compose.FileName(name, f),
		MimeType: f.MimeType(),
		Format:   f,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Bytes:    data,
	}
	e.metrics.ObserveExport(name, string(f))
	e.logger.Debug("exported",
		zap.String("file", a.FileName),
		zap.Int("bytes", len(data)),
		zap.String("quality", string(q)))
	return a, nil
}

// ExportAll exports every preset in table order, one after another. Presets
// without a crop are skipped. With no image loaded it returns
// session.ErrNoImage.
func (e *Exporter) ExportAll(ctx context.Context, f compose.Format, q compose.Quality) ([]*Artifact, error) {
	if _, err := e.session.Source(); err != nil {
		return nil, err
	}

	var out []*Artifact
	for _, name := range e.session.Presets().Names() {
		a, err := e.Export(ctx, name, f, q)
		if errors.Is(err, session.ErrNoCrop) {
			e.metrics.ObserveSkipped(session.SkipReason(err))
			continue
		}
		if err != nil {
			return out, fmt.Errorf("failed to export %s: %w", name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Save writes a to dir under its file name and returns the full path.
func Save(a *Artifact, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, a.FileName)
	if err := os.WriteFile(path, a.Bytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteFile composites the named preset and encodes it straight to a file in
// dir, returning the full path.
func (e *Exporter) WriteFile(ctx context.Context, name string, f compose.Format, q compose.Quality, dir string) (string, error) {
	img, err := e.session.Composite(ctx, name)
	if err != nil {
		return "", err
	}
	enc, err := compose.Encoder(f, q)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(dir, compose.FileName(name, f))
	if err := imgio.Save(path, img, enc); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	e.metrics.ObserveExport(name, string(f))
	e.logger.Info("wrote framed image", zap.String("path", path))
	return path, nil
}
