// Package server implements the MCP (Model Context Protocol) server for image framing.
//
// This package provides a JSON-RPC 2.0 server that lets an MCP client load an
// image, choose a crop for each output preset, set a border, and export or
// share the framed results.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Requests are handled one at a time in arrival order.
//
// # Available Tools
//
// Source Image:
//   - frame_load: Load the source from a path or base64 upload
//   - image_dimensions: Get width and height of a file or upload
//   - frame_presets: List presets, their crops and the border
//
// Cropping:
//   - frame_set_crop: Set a preset's crop explicitly or by anchor
//   - frame_preview: Outline a crop over the source
//
// Border:
//   - frame_set_border: Change thickness and color, recompositing every crop
//   - frame_suggest_border: Propose colors from a crop
//   - frame_sample_color: Read one source pixel
//
// Output:
//   - frame_composite: Return a framed image inline
//   - frame_export: Write {preset}-image.png or .jpg
//   - frame_export_all: Export every cropped preset in turn
//   - frame_share: Upload and return a link
//
// # Session State
//
// One framing session lives for the lifetime of the process. Loading a new
// image discards all crops. Files and uploads are also kept in a
// size-bounded cache so repeated loads and dimension queries avoid decoding
// again.
//
// # Error Handling
//
// Tools that find no image or no crop to act on succeed with
// {"skipped": true, "reason": "..."}. Other failures are returned as JSON-RPC
// error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, e.g. "sharing is not supported"
//
// # Usage
//
//	srv, err := server.New(server.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
package server
