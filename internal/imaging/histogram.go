package imaging

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/palette-tools-mcp/internal/quantize"
)

// maxDroppedBits is the coarsest precision reduction Histogram will try; one
// significant bit per channel remains.
const maxDroppedBits = 7

// HistogramOptions controls how pixels are gathered into color samples.
type HistogramOptions struct {
	// Region restricts counting to part of the image. Nil means the whole image.
	Region *Region

	// MaxDimension downsamples the image so neither side exceeds it before
	// counting. Zero disables downsampling.
	MaxDimension int

	// IgnoreAlpha stores every color as fully opaque.
	IgnoreAlpha bool

	// MaxDistinct caps the number of distinct colors. When the image has more,
	// low-order bits of every channel are masked off until it fits. Zero means
	// no cap.
	MaxDistinct int
}

// HistogramResult is the distinct colors of an image with their pixel counts.
type HistogramResult struct {
	// Samples are sorted by packed ARGB value, ascending.
	Samples []*quantize.ColorSample

	// TotalPixels is the number of pixels counted.
	TotalPixels int

	// DroppedBits is how many low-order bits per channel were masked off to
	// satisfy MaxDistinct.
	DroppedBits int

	// Mask is the per-pixel mask that produced the sample keys. Lookups
	// against a palette built from Samples apply the same mask.
	Mask uint32

	// Width and Height are the dimensions actually sampled, after region
	// cropping and downsampling.
	Width  int
	Height int
}

// ErrNoPixels is returned for images or regions without any pixels.
var ErrNoPixels = errors.New("image has no pixels")

// Histogram counts the distinct colors of img.
func Histogram(img image.Image, opts HistogramOptions) (*HistogramResult, error) {
	if img.Bounds().Empty() {
		return nil, ErrNoPixels
	}

	var src image.Image = img
	if opts.Region != nil {
		cropped, err := Crop(img, *opts.Region)
		if err != nil {
			return nil, err
		}
		src = cropped
	}

	if limit := opts.MaxDimension; limit > 0 {
		b := src.Bounds()
		if b.Dx() > limit || b.Dy() > limit {
			src = imaging.Fit(src, limit, limit, imaging.Box)
		}
	}

	pixels := imaging.Clone(src)
	bounds := pixels.Bounds()

	for bits := 0; bits <= maxDroppedBits; bits++ {
		counts, ok := countColors(pixels, channelMask(bits), opts.IgnoreAlpha, opts.MaxDistinct)
		if !ok {
			continue
		}

		samples := make([]*quantize.ColorSample, 0, len(counts))
		for argb, n := range counts {
			samples = append(samples, quantize.NewColorSample(argb, n))
		}
		sort.Slice(samples, func(i, j int) bool {
			return samples[i].ARGB() < samples[j].ARGB()
		})

		return &HistogramResult{
			Samples:     samples,
			TotalPixels: bounds.Dx() * bounds.Dy(),
			DroppedBits: bits,
			Mask:        channelMask(bits),
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
		}, nil
	}

	return nil, fmt.Errorf("cannot reduce image to %d distinct colors", opts.MaxDistinct)
}

// channelMask clears the low bits of every channel of a packed color.
func channelMask(bits int) uint32 {
	m := uint32(0xFF<<bits) & 0xFF
	return m<<24 | m<<16 | m<<8 | m
}

// countColors tallies masked colors. It gives up and returns false as soon as
// more than limit distinct colors are seen; limit <= 0 means unlimited.
func countColors(img *image.NRGBA, mask uint32, ignoreAlpha bool, limit int) (map[uint32]int, bool) {
	counts := make(map[uint32]int)
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			a := row[x+3]
			if ignoreAlpha {
				a = 0xFF
			}
			argb := quantize.PackARGB(row[x], row[x+1], row[x+2], a) & mask
			if ignoreAlpha {
				argb |= 0xFF000000
			}
			counts[argb]++
			if limit > 0 && len(counts) > limit {
				return nil, false
			}
		}
	}
	return counts, true
}
