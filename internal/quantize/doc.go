// Package quantize implements adaptive median-cut color quantization.
//
// The engine reduces a set of distinct color samples into a bounded number of
// boxes by repeatedly splitting one box into two along a single channel. Each
// terminal box later becomes one palette entry.
//
// # Data Model
//
// A ColorSample is one distinct color together with the number of pixels that
// share it. A ColorBox owns an ordered slice of samples and caches its total
// population, the per-channel value ranges, and the largest of those ranges
// (MaxDiff). A box with MaxDiff == 0 is a leaf and is never split again.
//
// # Splitting
//
// A SplitStrategy picks the next box to split and mutates the caller's box
// slice in place. MostPopulatedBoxStrategy always targets the most populous
// splittable box and chooses, among the red, green, blue and (optionally)
// alpha channels, the weighted-median cut with the smallest population
// imbalance. Every committed split is recorded on the parent box as a
// SplitResult, which palette lookups later walk as a binary tree.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A Driver run owns its box
// slice exclusively; quantize independent images with independent boxes.
package quantize
