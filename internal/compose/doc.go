// Package compose produces framed images: a crop of a source image centered
// on a solid border, and the PNG or JPEG bytes that get downloaded or shared.
//
// # Geometry
//
// For a crop of w×h pixels and a border thickness t the output is
// (w+2t)×(h+2t). Every pixel within t of an edge is the border color; the
// crop is copied unscaled to offset (t,t). Opaque source pixels are copied
// exactly. Translucent pixels are blended over the border color.
//
// # Sources
//
// CompositeSource accepts an imaging.Source whose decode may still be
// running and waits for it, so callers never need to sleep or poll before
// compositing.
//
// # Determinism
//
// Composite and Encode are pure functions of their inputs: identical inputs
// yield byte-identical PNG output.
package compose
