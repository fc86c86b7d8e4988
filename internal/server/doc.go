// Package server implements the MCP (Model Context Protocol) server for the
// palette tools.
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
// # Available Tools
//
// Image Information:
//   - image_load: Dimensions, format, alpha and distinct color count
//   - image_crop: Extract a rectangular region as PNG
//
// Color Sampling:
//   - image_sample_color: Color at one pixel
//   - image_sample_colors_multi: Colors at several labeled pixels
//
// Palettes:
//   - image_exact_palette: Every distinct color, if there are few enough
//   - image_quantize_palette: Median-cut palette with populations
//   - image_dominant_colors: Median-cut palette ordered by population
//   - image_quantize: Image remapped onto a median-cut palette
//   - palette_swatch: Median-cut palette drawn as labeled squares
//   - palette_history: Previously generated palettes
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the server.
//
// # Palette History
//
// When the server is configured with a store, image_quantize_palette saves
// each palette it returns and palette_history reads them back. Without a
// store palette_history fails and nothing is recorded.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
