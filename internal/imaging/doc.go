// Package imaging provides the image plumbing behind the framing tools:
// decoding, caching, crop geometry, color handling and crop previews.
//
// All operations work with standard Go image.Image values. Crop rectangles
// are expressed relative to the source's top-left corner, so images whose
// bounds do not start at (0,0) are handled transparently.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - A CropRect covers X..X+Width-1 horizontally and Y..Y+Height-1 vertically
//
// # Decoding
//
// Decode returns a Source immediately and decodes on a background goroutine.
// Consumers call Source.Wait, which returns once the decode has finished or
// the context ends. Nothing in this package sequences work with timers.
//
// Registered formats: PNG, JPEG, GIF (standard library) and WebP, BMP, TIFF
// (golang.org/x/image).
//
// # Thread Safety
//
// ImageCache and Source are safe for concurrent use. The remaining functions
// are stateless and never modify their input images.
//
// # Colors
//
// Border colors are parsed from "#RRGGBB" or "#RGB" strings and are always
// opaque. Sampled colors are reported as hex, RGB, RGBA and HSL.
package imaging
