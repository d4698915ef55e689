package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ironsheep/image-framer-mcp/internal/config"
	"github.com/ironsheep/image-framer-mcp/internal/logging"
	"github.com/ironsheep/image-framer-mcp/internal/metrics"
	"github.com/ironsheep/image-framer-mcp/internal/server"
	"github.com/ironsheep/image-framer-mcp/internal/share"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-framer %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "frame":
			if err := runFrame(context.Background(), os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "image-framer: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := runServer(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "image-framer: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("image-framer - crop images to preset shapes and add a solid border")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  image-framer [options]         Run the MCP server on stdin/stdout")
	fmt.Println("  image-framer frame [flags]     Frame one image and write it to disk")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Run 'image-framer frame -h' for the frame flags.")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  FRAMER_LOG_LEVEL=info          debug, info, warn or error")
	fmt.Println("  FRAMER_OUTPUT_DIR=.            Where exports are written")
	fmt.Println("  FRAMER_BORDER_SIZE=10          Border thickness in pixels")
	fmt.Println("  FRAMER_BORDER_COLOR=#ffffff    Border color")
	fmt.Println("  FRAMER_FORMAT=png              png or jpeg")
	fmt.Println("  FRAMER_QUALITY=high            JPEG quality: low or high")
	fmt.Println("  FRAMER_PRESETS=                name:WxH,... replaces the built-in presets")
	fmt.Println("  FRAMER_METRICS_ADDR=           Serve Prometheus metrics here, e.g. :9090")
	fmt.Println("  FRAMER_SHARE_ENDPOINT=         S3-compatible endpoint; enables frame_share")
	fmt.Println("  FRAMER_SHARE_BUCKET=           Bucket for shared images")
	fmt.Println()
	fmt.Println("The MCP server communicates over stdin/stdout.")
	fmt.Println("Configure it in your MCP client.")
}

// setup loads configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServer(ctx context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		m = metrics.InitializeMetrics(registry, prometheus.Labels{"service": "image-framer"})
		go serveMetrics(cfg.MetricsAddr, registry, logger)
	}

	sharer, err := newSharer(cfg, logger)
	if err != nil {
		return err
	}

	// Validated by config.Load.
	presets, _ := cfg.Presets()
	border, _ := cfg.Border()
	format, _ := cfg.OutputFormat()
	quality, _ := cfg.OutputQuality()

	srv, err := server.New(server.Options{
		Presets:      presets,
		Border:       &border,
		Format:       format,
		Quality:      quality,
		OutputDir:    cfg.OutputDir,
		CacheMaxCost: cfg.CacheCost(),
		Sharer:       sharer,
		Logger:       logger,
		Metrics:      m,
		Version:      Version,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	logger.Debug("image framer started",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit),
		zap.Strings("presets", presets.Names()),
		zap.Bool("sharing", cfg.ShareEnabled()))

	return srv.Run(ctx)
}

func newSharer(cfg *config.Config, logger *zap.Logger) (share.Sharer, error) {
	if !cfg.ShareEnabled() {
		return share.Unsupported{}, nil
	}
	return share.NewMinio(cfg.ShareOptions(), logger.Named("share"))
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("serving metrics", zap.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
