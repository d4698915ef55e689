package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-framer-mcp/internal/compose"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.False(t, cfg.ShareEnabled())

	b, err := cfg.Border()
	require.NoError(t, err)
	assert.Equal(t, compose.DefaultBorder, b)

	f, err := cfg.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, compose.PNG, f)

	q, err := cfg.OutputQuality()
	require.NoError(t, err)
	assert.Equal(t, compose.QualityHigh, q)

	table, err := cfg.Presets()
	require.NoError(t, err)
	assert.Equal(t, []string{"square", "portrait", "landscape", "story"}, table.Names())

	assert.Equal(t, int64(512<<20), cfg.CacheCost())
	assert.Equal(t, 24*time.Hour, cfg.ShareOptions().URLExpiry)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("FRAMER_BORDER_SIZE", "4")
	t.Setenv("FRAMER_BORDER_COLOR", "000")
	t.Setenv("FRAMER_FORMAT", "jpg")
	t.Setenv("FRAMER_QUALITY", "low")
	t.Setenv("FRAMER_PRESETS", "banner:1500x500, icon:64x64")
	t.Setenv("FRAMER_SHARE_ENDPOINT", "localhost:9000")
	t.Setenv("FRAMER_SHARE_BUCKET", "frames")
	t.Setenv("FRAMER_SHARE_USE_SSL", "false")
	t.Setenv("FRAMER_SHARE_URL_EXPIRY", "90m")

	cfg, err := Parse()
	require.NoError(t, err)

	b, err := cfg.Border()
	require.NoError(t, err)
	assert.Equal(t, compose.Border{Thickness: 4, Color: color.NRGBA{A: 255}}, b)

	f, _ := cfg.OutputFormat()
	assert.Equal(t, compose.JPEG, f)
	q, _ := cfg.OutputQuality()
	assert.Equal(t, compose.QualityLow, q)

	table, err := cfg.Presets()
	require.NoError(t, err)
	assert.Equal(t, []string{"banner", "icon"}, table.Names())

	assert.True(t, cfg.ShareEnabled())
	opts := cfg.ShareOptions()
	assert.Equal(t, "frames", opts.Bucket)
	assert.Equal(t, "frames", opts.Prefix)
	assert.False(t, opts.UseSSL)
	assert.Equal(t, 90*time.Minute, opts.URLExpiry)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"FRAMER_BORDER_SIZE":    "-1",
		"FRAMER_BORDER_COLOR":   "teal",
		"FRAMER_FORMAT":         "gif",
		"FRAMER_QUALITY":        "medium",
		"FRAMER_PRESETS":        "square:0x10",
		"FRAMER_CACHE_MAX_COST": "0",
		"FRAMER_SHARE_ENDPOINT": "localhost:9000",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framer.env")
	require.NoError(t, os.WriteFile(path, []byte("FRAMER_OUTPUT_DIR=/tmp/frames\n"), 0o644))
	t.Setenv("FRAMER_OUTPUT_DIR", "")
	os.Unsetenv("FRAMER_OUTPUT_DIR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/frames", cfg.OutputDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
