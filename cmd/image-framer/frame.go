package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/image-framer-mcp/internal/compose"
	"github.com/ironsheep/image-framer-mcp/internal/config"
	"github.com/ironsheep/image-framer-mcp/internal/export"
	"github.com/ironsheep/image-framer-mcp/internal/imaging"
	"github.com/ironsheep/image-framer-mcp/internal/preset"
	"github.com/ironsheep/image-framer-mcp/internal/session"
)

type frameOptions struct {
	in      string
	preset  string
	crop    string
	anchor  string
	border  int
	color   string
	format  string
	quality string
	out     string
}

func parseFrameFlags(args []string, cfg *config.Config) (*frameOptions, error) {
	opts := &frameOptions{}
	fs := flag.NewFlagSet("frame", flag.ContinueOnError)
	fs.StringVar(&opts.in, "in", "", "source image file (required)")
	fs.StringVar(&opts.preset, "preset", "", "preset name (required)")
	fs.StringVar(&opts.crop, "crop", "", "crop rectangle as x,y,w,h; overrides -anchor")
	fs.StringVar(&opts.anchor, "anchor", "center", "place the largest crop of the preset's aspect: "+strings.Join(imaging.Anchors, ", "))
	fs.IntVar(&opts.border, "border", cfg.BorderSize, "border thickness in pixels")
	fs.StringVar(&opts.color, "color", cfg.BorderColor, "border color, #RRGGBB or #RGB")
	fs.StringVar(&opts.format, "format", cfg.Format, "output format: png or jpeg")
	fs.StringVar(&opts.quality, "quality", cfg.Quality, "JPEG quality: low or high")
	fs.StringVar(&opts.out, "out", cfg.OutputDir, "output directory")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.in == "" || opts.preset == "" {
		fs.Usage()
		return nil, errors.New("-in and -preset are required")
	}
	return opts, nil
}

// parseCropSpec reads "x,y,w,h".
func parseCropSpec(s string) (imaging.CropRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return imaging.CropRect{}, fmt.Errorf("invalid crop %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return imaging.CropRect{}, fmt.Errorf("invalid crop %q: %w", s, err)
		}
		v[i] = n
	}
	return imaging.CropRect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func runFrame(ctx context.Context, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts, err := parseFrameFlags(args, cfg)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	presets, err := cfg.Presets()
	if err != nil {
		return err
	}
	path, err := frameFile(ctx, opts, presets, logger)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// frameFile frames opts.in for one preset and writes the result, returning
// the written path.
func frameFile(ctx context.Context, opts *frameOptions, presets *preset.Table, logger *zap.Logger) (string, error) {
	border, err := compose.NewBorder(opts.border, opts.color)
	if err != nil {
		return "", err
	}
	format, err := compose.ParseFormat(opts.format)
	if err != nil {
		return "", err
	}
	quality, err := compose.ParseQuality(opts.quality)
	if err != nil {
		return "", err
	}

	f, err := os.Open(opts.in)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}

	sess := session.New(presets, border, session.WithLogger(logger))
	sess.SetSource(imaging.Decode(f))

	if opts.crop != "" {
		r, err := parseCropSpec(opts.crop)
		if err != nil {
			return "", err
		}
		if _, err := sess.SetCrop(ctx, opts.preset, r); err != nil {
			return "", err
		}
	} else {
		r, _, err := sess.SetCropAnchored(ctx, opts.preset, opts.anchor)
		if err != nil {
			return "", err
		}
		logger.Debug("anchored crop", zap.String("anchor", opts.anchor), zap.Any("crop", r))
	}

	return export.New(sess, logger, nil).WriteFile(ctx, opts.preset, format, quality, opts.out)
}
