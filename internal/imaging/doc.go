// Package imaging provides the image-side plumbing around the color quantizer.
//
// It loads and caches decoded images, samples individual pixel colors, crops
// regions, and builds the color histograms that seed median-cut quantization.
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Histograms
//
// Histogram reduces an image to its distinct colors and their pixel counts.
// Pixels are normalized to non-premultiplied 8-bit RGBA before counting, so
// the packed 0xAARRGGBB keys match what the quantize package expects. The
// histogram can be restricted to a region, computed on a downscaled copy, and
// coarsened bit by bit until it fits a distinct-color budget.
//
// # Swatches
//
// RenderSwatches draws a set of colors as a grid of squares, optionally
// labeled with basicfont text, for previewing a palette.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The remaining functions are
// stateless and can be called concurrently on different images.
//
// # Supported Formats
//
// PNG, JPEG and GIF are decoded by the standard library; BMP, TIFF and WebP are
// registered from golang.org/x/image.
package imaging
