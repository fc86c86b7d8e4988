package quantize

import (
	"fmt"
	"slices"
)

// ColorBox is one partition of color space: a set of samples together with
// aggregates derived from them when the box is built.
type ColorBox struct {
	samples     []*ColorSample
	ignoreAlpha bool

	totalPoints int
	ranges      [4]int
	maxDiff     int

	cut *SplitResult
}

// NewColorBox builds a box that takes ownership of samples.
//
// It fails with ErrEmptyBox when samples is empty and with ErrNegativeCount
// when a sample has a negative count. When ignoreAlpha is set the alpha range
// is reported as zero and never makes a box splittable.
func NewColorBox(samples []*ColorSample, ignoreAlpha bool) (*ColorBox, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBox
	}

	box := &ColorBox{
		samples:     samples,
		ignoreAlpha: ignoreAlpha,
	}

	var lo, hi [4]uint8
	for i := range lo {
		lo[i] = 0xFF
	}
	for _, s := range samples {
		if s == nil {
			return nil, fmt.Errorf("%w: nil sample", ErrEmptyBox)
		}
		if s.Count < 0 {
			return nil, fmt.Errorf("%w: %d for color %#08x", ErrNegativeCount, s.Count, s.argb)
		}
		box.totalPoints += s.Count
		for _, c := range allChannels {
			v := s.value(c)
			lo[c] = min(lo[c], v)
			hi[c] = max(hi[c], v)
		}
	}

	for _, c := range Channels(ignoreAlpha) {
		box.ranges[c] = int(hi[c]) - int(lo[c])
		box.maxDiff = max(box.maxDiff, box.ranges[c])
	}

	return box, nil
}

// TotalPoints is the sum of the sample counts.
func (b *ColorBox) TotalPoints() int { return b.totalPoints }

// MaxDiff is the widest channel range in the box.
func (b *ColorBox) MaxDiff() int { return b.maxDiff }

// IsLeaf reports whether the box has zero range on every considered channel.
func (b *ColorBox) IsLeaf() bool { return b.maxDiff == 0 }

// IgnoresAlpha reports whether the box was built with alpha excluded.
func (b *ColorBox) IgnoresAlpha() bool { return b.ignoreAlpha }

// Range returns max-min of channel c over the box's samples.
func (b *ColorBox) Range(c Channel) int {
	if !c.Valid() {
		return 0
	}
	return b.ranges[c]
}

// Len returns the number of distinct samples in the box.
func (b *ColorBox) Len() int { return len(b.samples) }

// Samples returns the box's samples in their current order. The returned
// slice is a copy; the samples themselves are shared.
func (b *ColorBox) Samples() []*ColorSample {
	return slices.Clone(b.samples)
}

// Cut returns how the box was split, or nil if it never was.
func (b *ColorBox) Cut() *SplitResult { return b.cut }

func (b *ColorBox) String() string {
	return fmt.Sprintf("ColorBox{samples: %d, points: %d, maxDiff: %d}", len(b.samples), b.totalPoints, b.maxDiff)
}
