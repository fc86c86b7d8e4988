package quantize

import "fmt"

// ColorSample is one distinct color and the number of pixels that share it.
//
// The channel values are fixed at construction. Count may be accumulated while
// a histogram is built but is treated as read-only once the sample is placed
// in a ColorBox.
type ColorSample struct {
	argb  uint32
	Count int

	red   uint8
	green uint8
	blue  uint8
	alpha uint8
}

// NewColorSample decomposes a packed 0xAARRGGBB value into a sample.
func NewColorSample(argb uint32, count int) *ColorSample {
	return &ColorSample{
		argb:  argb,
		Count: count,
		alpha: uint8(argb >> 24),
		red:   uint8(argb >> 16),
		green: uint8(argb >> 8),
		blue:  uint8(argb),
	}
}

// PackARGB packs 8-bit components into the 0xAARRGGBB layout used by samples.
func PackARGB(r, g, b, a uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// ARGB returns the packed color, which is also the sample's identity.
func (s *ColorSample) ARGB() uint32 { return s.argb }

// RGBA returns the four channel values.
func (s *ColorSample) RGBA() (r, g, b, a uint8) {
	return s.red, s.green, s.blue, s.alpha
}

// Value returns the sample's value on channel c.
func (s *ColorSample) Value(c Channel) (int, error) {
	switch c {
	case Red:
		return int(s.red), nil
	case Green:
		return int(s.green), nil
	case Blue:
		return int(s.blue), nil
	case Alpha:
		return int(s.alpha), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, int(c))
	}
}

// value is Value for channels already known to be valid.
func (s *ColorSample) value(c Channel) uint8 {
	switch c {
	case Red:
		return s.red
	case Green:
		return s.green
	case Blue:
		return s.blue
	default:
		return s.alpha
	}
}
