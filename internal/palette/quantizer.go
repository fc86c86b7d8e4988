package palette

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"

	"github.com/ironsheep/palette-tools-mcp/internal/imaging"
	"github.com/ironsheep/palette-tools-mcp/internal/quantize"
)

// Quantizer builds palettes of at most MaxColors entries.
type Quantizer struct {
	// MaxColors is the palette size limit. It must be at least 1.
	MaxColors int

	// IgnoreAlpha treats every pixel as opaque.
	IgnoreAlpha bool

	Aggregation Aggregation

	// Strategy chooses splits. Nil means quantize.MostPopulatedBoxStrategy.
	Strategy quantize.SplitStrategy

	// Histogram controls pixel counting. Its IgnoreAlpha field is overridden
	// by the Quantizer's.
	Histogram imaging.HistogramOptions

	Logger *slog.Logger
}

var _ draw.Quantizer = (*Quantizer)(nil)

func (q *Quantizer) logger() *slog.Logger {
	if q.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return q.Logger
}

// Process builds a palette for img.
//
// Images with no more distinct colors than MaxColors get an exact palette
// holding each color once, in ascending ARGB order. Otherwise the colors are
// reduced by median cut and each final box contributes one entry.
func (q *Quantizer) Process(img image.Image) (*Palette, error) {
	if q.MaxColors < 1 {
		return nil, fmt.Errorf("%w: max colors %d", quantize.ErrInvalidTarget, q.MaxColors)
	}

	opts := q.Histogram
	opts.IgnoreAlpha = q.IgnoreAlpha
	hist, err := imaging.Histogram(img, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to count colors: %w", err)
	}

	log := q.logger()
	log.Debug("histogram ready",
		"distinct", len(hist.Samples),
		"pixels", hist.TotalPixels,
		"dropped_bits", hist.DroppedBits)

	if len(hist.Samples) <= q.MaxColors {
		log.Debug("using exact palette", "colors", len(hist.Samples))
		return newExactPalette(hist.Samples, q.IgnoreAlpha, hist.Mask), nil
	}

	root, err := quantize.NewColorBox(hist.Samples, q.IgnoreAlpha)
	if err != nil {
		return nil, fmt.Errorf("failed to create color box: %w", err)
	}

	boxes, err := quantize.NewDriver(q.Strategy, log).ReduceTo(q.MaxColors, root, q.IgnoreAlpha)
	if err != nil {
		return nil, fmt.Errorf("failed to reduce colors: %w", err)
	}

	p, err := Build(root, boxes, q.Aggregation, q.IgnoreAlpha)
	if err != nil {
		return nil, fmt.Errorf("failed to build palette: %w", err)
	}
	p.mask = hist.Mask

	log.Debug("median cut palette ready", "colors", p.Len(), "requested", q.MaxColors)
	return p, nil
}

// Quantize implements draw.Quantizer. It appends up to cap(p)-len(p) colors
// to p, further limited by MaxColors when that is set. On failure p is
// returned unchanged.
func (q *Quantizer) Quantize(p color.Palette, m image.Image) color.Palette {
	room := cap(p) - len(p)
	if room <= 0 {
		return p
	}

	sub := *q
	if sub.MaxColors <= 0 || sub.MaxColors > room {
		sub.MaxColors = room
	}

	pal, err := sub.Process(m)
	if err != nil {
		q.logger().Warn("quantization failed", "error", err)
		return p
	}
	return append(p, pal.ColorPalette()...)
}

// ExactPalette returns a palette holding every distinct color of img, with
// alpha ignored, when there are at most limit of them. The second result is
// false when img has more colors than limit.
func ExactPalette(img image.Image, limit int) (*Palette, bool, error) {
	hist, err := imaging.Histogram(img, imaging.HistogramOptions{IgnoreAlpha: true})
	if err != nil {
		return nil, false, fmt.Errorf("failed to count colors: %w", err)
	}
	if len(hist.Samples) > limit {
		return nil, false, nil
	}
	return newExactPalette(hist.Samples, true, hist.Mask), true, nil
}
