// Package palette turns color histograms into palettes and applies them.
//
// A Quantizer counts the colors of an image, reduces them with the median-cut
// engine in package quantize and builds a Palette whose entries are the
// population-weighted representatives of each final box. Palettes built this
// way keep the split tree, so mapping a pixel to its palette entry replays the
// cuts instead of searching for the nearest color. Palettes built from an
// exact color count have no tree and fall back to a nearest-color search in
// CIE-Lab space.
//
// The package also remaps images onto a palette (plainly or with
// Floyd-Steinberg error diffusion), reads and writes Microsoft RIFF palette
// files and stores indexed images in a small zstd-compressed container.
package palette
