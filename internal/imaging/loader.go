package imaging

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// DefaultCacheMaxCost bounds the cache at 512 MiB of decoded pixel data.
const DefaultCacheMaxCost = 512 << 20

// ImageCache keeps decoded images in memory, keyed by file path or upload id.
//
// Entries are weighted by their decoded size (4 bytes per pixel) and the
// cache evicts the least valuable entries once MaxCost is exceeded, so a long
// framing session over many large photos cannot grow without bound.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache, err := imaging.NewImageCache(imaging.DefaultCacheMaxCost)
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//	img, err := cache.Load(ctx, "/path/to/photo.jpg")
type ImageCache struct {
	images *ristretto.Cache[string, image.Image]
}

// NewImageCache creates an empty cache holding at most maxCost bytes of
// decoded pixels. A non-positive maxCost selects DefaultCacheMaxCost.
func NewImageCache(maxCost int64) (*ImageCache, error) {
	if maxCost <= 0 {
		maxCost = DefaultCacheMaxCost
	}
	images, err := ristretto.NewCache(&ristretto.Config[string, image.Image]{
		NumCounters: 1e4,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	return &ImageCache{images: images}, nil
}

// Load returns the cached image for path, decoding it from disk on a miss.
//
// Supported formats are PNG, JPEG, GIF, WebP, BMP and TIFF. The decode is
// awaited through a Source, so ctx cancellation abandons the wait (the
// background decode still runs to completion and is discarded).
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
//   - Returns ctx.Err() if ctx ends first
func (c *ImageCache) Load(ctx context.Context, path string) (image.Image, error) {
	if img, ok := c.images.Get(path); ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, err := Decode(f).Wait(ctx)
	if err != nil {
		return nil, err
	}

	c.Put(path, img)
	return img, nil
}

// Put stores img under key. It reports false when the cache refused the
// entry, which happens for images larger than the whole cache.
func (c *ImageCache) Put(key string, img image.Image) bool {
	ok := c.images.Set(key, img, imageCost(img))
	c.images.Wait()
	return ok
}

// Get returns the image stored under key without touching the disk.
func (c *ImageCache) Get(key string) (image.Image, bool) {
	return c.images.Get(key)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.images.Clear()
}

// Evict removes the image stored under key. Missing keys are ignored.
func (c *ImageCache) Evict(key string) {
	c.images.Del(key)
}

// Close stops the cache's background goroutines.
func (c *ImageCache) Close() {
	c.images.Close()
}

func imageCost(img image.Image) int64 {
	b := img.Bounds()
	cost := int64(b.Dx()) * int64(b.Dy()) * 4
	if cost < 1 {
		return 1
	}
	return cost
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is detected from the file extension: "png", "jpeg", "gif",
	// "webp", "bmp", "tiff" or "unknown".
	Format string `json:"format"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and reports its metadata.
func LoadImageInfo(ctx context.Context, cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewImageInfo(img, path)
}

// NewImageInfo reports metadata for img, already decoded from the file at
// path.
func NewImageInfo(img image.Image, path string) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        formatFromExt(path),
		HasAlpha:      hasAlpha(img),
		FileSizeBytes: stat.Size(),
	}, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	}
	return "unknown"
}

func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Paletted:
		return true
	}
	return false
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of the image stored under key, loading
// it from disk when key is a path that is not yet cached.
func GetDimensions(ctx context.Context, cache *ImageCache, key string) (*DimensionsResult, error) {
	img, ok := cache.Get(key)
	if !ok {
		var err error
		img, err = cache.Load(ctx, key)
		if err != nil {
			return nil, err
		}
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
