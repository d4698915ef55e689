// Package config reads framer settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ironsheep/image-framer-mcp/internal/compose"
	"github.com/ironsheep/image-framer-mcp/internal/imaging"
	"github.com/ironsheep/image-framer-mcp/internal/preset"
	"github.com/ironsheep/image-framer-mcp/internal/share"
)

// Config holds the FRAMER_* environment settings.
type Config struct {
	LogLevel     string `env:"FRAMER_LOG_LEVEL" envDefault:"info"`
	OutputDir    string `env:"FRAMER_OUTPUT_DIR" envDefault:"."`
	BorderSize   int    `env:"FRAMER_BORDER_SIZE" envDefault:"10"`
	BorderColor  string `env:"FRAMER_BORDER_COLOR" envDefault:"#ffffff"`
	Format       string `env:"FRAMER_FORMAT" envDefault:"png"`
	Quality      string `env:"FRAMER_QUALITY" envDefault:"high"`
	PresetList   string `env:"FRAMER_PRESETS"`
	CacheMaxCost int64  `env:"FRAMER_CACHE_MAX_COST" envDefault:"536870912"`
	MetricsAddr  string `env:"FRAMER_METRICS_ADDR"`

	Share ShareConfig `envPrefix:"FRAMER_SHARE_"`
}

// ShareConfig holds the FRAMER_SHARE_* settings for uploading shared images.
type ShareConfig struct {
	Endpoint  string        `env:"ENDPOINT"`
	AccessKey string        `env:"ACCESS_KEY"`
	SecretKey string        `env:"SECRET_KEY"`
	Bucket    string        `env:"BUCKET"`
	Prefix    string        `env:"PREFIX" envDefault:"frames"`
	UseSSL    bool          `env:"USE_SSL" envDefault:"true"`
	URLExpiry time.Duration `env:"URL_EXPIRY" envDefault:"24h"`
}

// Load reads the optional .env files (default ".env") and then the
// environment. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every derived setting.
func (c *Config) Validate() error {
	if _, err := c.Presets(); err != nil {
		return err
	}
	if _, err := c.Border(); err != nil {
		return err
	}
	if _, err := c.OutputFormat(); err != nil {
		return err
	}
	if _, err := c.OutputQuality(); err != nil {
		return err
	}
	if c.CacheMaxCost <= 0 {
		return fmt.Errorf("FRAMER_CACHE_MAX_COST must be positive, got %d", c.CacheMaxCost)
	}
	if c.Share.Endpoint != "" && c.Share.Bucket == "" {
		return errors.New("FRAMER_SHARE_BUCKET is required when FRAMER_SHARE_ENDPOINT is set")
	}
	return nil
}

// Presets returns the configured preset table, or the defaults when
// FRAMER_PRESETS is empty.
func (c *Config) Presets() (*preset.Table, error) {
	if c.PresetList == "" {
		return preset.DefaultTable(), nil
	}
	list, err := preset.Parse(c.PresetList)
	if err != nil {
		return nil, fmt.Errorf("FRAMER_PRESETS: %w", err)
	}
	t, err := preset.NewTable(list)
	if err != nil {
		return nil, fmt.Errorf("FRAMER_PRESETS: %w", err)
	}
	return t, nil
}

// Border returns the default border.
func (c *Config) Border() (compose.Border, error) {
	return compose.NewBorder(c.BorderSize, c.BorderColor)
}

// OutputFormat returns the default export format.
func (c *Config) OutputFormat() (compose.Format, error) {
	return compose.ParseFormat(c.Format)
}

// OutputQuality returns the default JPEG quality.
func (c *Config) OutputQuality() (compose.Quality, error) {
	return compose.ParseQuality(c.Quality)
}

// CacheCost returns the image cache budget, falling back to the default.
func (c *Config) CacheCost() int64 {
	if c.CacheMaxCost <= 0 {
		return imaging.DefaultCacheMaxCost
	}
	return c.CacheMaxCost
}

// ShareEnabled reports whether a share endpoint is configured. Validate
// requires a bucket alongside it.
func (c *Config) ShareEnabled() bool {
	return c.Share.Endpoint != ""
}

// ShareOptions converts the share settings for share.NewMinio.
func (c *Config) ShareOptions() share.Options {
	return share.Options{
		Endpoint:  c.Share.Endpoint,
		AccessKey: c.Share.AccessKey,
		SecretKey: c.Share.SecretKey,
		Bucket:    c.Share.Bucket,
		Prefix:    c.Share.Prefix,
		UseSSL:    c.Share.UseSSL,
		URLExpiry: c.Share.URLExpiry,
	}
}
