package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/ironsheep/palette-tools-mcp/internal/imaging"
	"github.com/ironsheep/palette-tools-mcp/internal/quantize"
)

var (
	// ErrNoBoxes is returned when a palette is built from zero boxes.
	ErrNoBoxes = errors.New("no color boxes")

	// ErrTreeMismatch is returned when the leaves of a split tree are not
	// exactly the boxes a palette is built from.
	ErrTreeMismatch = errors.New("split tree leaves do not match boxes")

	// ErrTooManyColors is returned when a palette cannot be used for an
	// 8-bit indexed image.
	ErrTooManyColors = errors.New("palette has more than 256 colors")

	// ErrInvalidAggregation is returned by ParseAggregation for unknown names.
	ErrInvalidAggregation = errors.New("invalid aggregation")
)

// Aggregation selects how the colors of a box collapse into one entry.
type Aggregation int

const (
	// Mean averages every channel weighted by population.
	Mean Aggregation = iota
	// Mode picks the most populous color of the box.
	Mode
)

func (a Aggregation) String() string {
	switch a {
	case Mean:
		return "mean"
	case Mode:
		return "mode"
	default:
		return fmt.Sprintf("Aggregation(%d)", int(a))
	}
}

// ParseAggregation accepts "mean" or "mode" in any case.
func ParseAggregation(name string) (Aggregation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean", "":
		return Mean, nil
	case "mode":
		return Mode, nil
	default:
		return Mean, fmt.Errorf("%w: %q", ErrInvalidAggregation, name)
	}
}

// Palette is an ordered set of representative colors with the pixel
// population each one stands for.
type Palette struct {
	colors      []color.NRGBA
	populations []int
	total       int
	ignoreAlpha bool

	// mask is applied to a color before lookup so it matches the precision
	// the palette was built at.
	mask uint32

	root   *quantize.ColorBox
	leaves map[*quantize.ColorBox]int
	exact  map[uint32]int
}

// Entry describes one palette color.
type Entry struct {
	Index int `json:"index"`
	imaging.ColorResult
	Population int     `json:"population"`
	Percentage float64 `json:"percentage"`
}

// Build creates a palette with one entry per box, in box order.
//
// root, when non-nil, must be the box the boxes were split from; its cut
// tree is used by Index. Every box must hold at least one counted pixel.
func Build(root *quantize.ColorBox, boxes []*quantize.ColorBox, agg Aggregation, ignoreAlpha bool) (*Palette, error) {
	if len(boxes) == 0 {
		return nil, ErrNoBoxes
	}

	p := &Palette{
		colors:      make([]color.NRGBA, 0, len(boxes)),
		populations: make([]int, 0, len(boxes)),
		ignoreAlpha: ignoreAlpha,
		mask:        0xFFFFFFFF,
		leaves:      make(map[*quantize.ColorBox]int, len(boxes)),
	}

	for i, b := range boxes {
		if b == nil || b.TotalPoints() == 0 {
			return nil, fmt.Errorf("%w: box %d has no pixels", quantize.ErrEmptyBox, i)
		}
		p.colors = append(p.colors, aggregate(b, agg, ignoreAlpha))
		p.populations = append(p.populations, b.TotalPoints())
		p.total += b.TotalPoints()
		p.leaves[b] = i
	}

	if root != nil {
		if err := checkLeaves(root, p.leaves); err != nil {
			return nil, err
		}
		p.root = root
	}

	return p, nil
}

// newExactPalette has one entry per sample.
func newExactPalette(samples []*quantize.ColorSample, ignoreAlpha bool, mask uint32) *Palette {
	p := &Palette{
		colors:      make([]color.NRGBA, 0, len(samples)),
		populations: make([]int, 0, len(samples)),
		ignoreAlpha: ignoreAlpha,
		mask:        mask,
		exact:       make(map[uint32]int, len(samples)),
	}
	for i, s := range samples {
		r, g, b, a := s.RGBA()
		if ignoreAlpha {
			a = 0xFF
		}
		p.colors = append(p.colors, color.NRGBA{R: r, G: g, B: b, A: a})
		p.populations = append(p.populations, s.Count)
		p.total += s.Count
		p.exact[s.ARGB()] = i
	}
	return p
}

func checkLeaves(root *quantize.ColorBox, leaves map[*quantize.ColorBox]int) error {
	seen := 0
	stack := []*quantize.ColorBox{root}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cut := b.Cut(); cut != nil {
			stack = append(stack, cut.Upper, cut.Lower)
			continue
		}
		if _, ok := leaves[b]; !ok {
			return ErrTreeMismatch
		}
		seen++
	}
	if seen != len(leaves) {
		return ErrTreeMismatch
	}
	return nil
}

// aggregate picks the representative color of b.
func aggregate(b *quantize.ColorBox, agg Aggregation, ignoreAlpha bool) color.NRGBA {
	samples := b.Samples()

	var c color.NRGBA
	if agg == Mode {
		best := samples[0]
		for _, s := range samples[1:] {
			if s.Count > best.Count {
				best = s
			}
		}
		c.R, c.G, c.B, c.A = best.RGBA()
	} else {
		var sr, sg, sb, sa int
		for _, s := range samples {
			r, g, bl, a := s.RGBA()
			sr += int(r) * s.Count
			sg += int(g) * s.Count
			sb += int(bl) * s.Count
			sa += int(a) * s.Count
		}
		total := b.TotalPoints()
		c = color.NRGBA{
			R: roundDiv(sr, total),
			G: roundDiv(sg, total),
			B: roundDiv(sb, total),
			A: roundDiv(sa, total),
		}
	}

	if ignoreAlpha {
		c.A = 0xFF
	}
	return c
}

// roundDiv divides and rounds halves up.
func roundDiv(sum, n int) uint8 {
	return uint8((2*sum + n) / (2 * n))
}

// Len returns the number of entries.
func (p *Palette) Len() int { return len(p.colors) }

// Color returns entry i.
func (p *Palette) Color(i int) color.NRGBA { return p.colors[i] }

// Population returns the number of pixels entry i represents.
func (p *Palette) Population(i int) int { return p.populations[i] }

// TotalPixels returns the number of pixels the palette was built from.
func (p *Palette) TotalPixels() int { return p.total }

// IgnoresAlpha reports whether entries are all opaque and lookups disregard
// alpha.
func (p *Palette) IgnoresAlpha() bool { return p.ignoreAlpha }

// HasTree reports whether lookups replay the median-cut split tree.
func (p *Palette) HasTree() bool { return p.root != nil }

// ColorPalette returns the entries as a color.Palette for image.Paletted.
func (p *Palette) ColorPalette() color.Palette {
	pal := make(color.Palette, len(p.colors))
	for i, c := range p.colors {
		pal[i] = c
	}
	return pal
}

// Index returns the entry that represents c.
func (p *Palette) Index(c color.Color) int {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if p.ignoreAlpha {
		n.A = 0xFF
	}
	key := quantize.PackARGB(n.R, n.G, n.B, n.A) & p.mask
	if p.ignoreAlpha {
		key |= 0xFF000000
	}

	if p.root != nil {
		box := p.root
		for cut := box.Cut(); cut != nil; cut = box.Cut() {
			if channelValue(key, cut.Channel) <= cut.Threshold {
				box = cut.Lower
			} else {
				box = cut.Upper
			}
		}
		if i, ok := p.leaves[box]; ok {
			return i
		}
	}

	if i, ok := p.exact[key]; ok {
		return i
	}
	return p.nearest(n)
}

// Convert implements color.Model.
func (p *Palette) Convert(c color.Color) color.Color {
	return p.colors[p.Index(c)]
}

// nearest finds the closest entry by CIE-Lab distance, with alpha difference
// added as a fraction of full opacity. Ties go to the lowest index.
func (p *Palette) nearest(n color.NRGBA) int {
	target := imaging.ToColorful(n)
	best, bestDist := 0, math.MaxFloat64
	for i, c := range p.colors {
		d := target.DistanceLab(imaging.ToColorful(c))
		if !p.ignoreAlpha {
			d += math.Abs(float64(c.A)-float64(n.A)) / 255
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func channelValue(argb uint32, c quantize.Channel) int {
	switch c {
	case quantize.Alpha:
		return int(argb >> 24 & 0xFF)
	case quantize.Red:
		return int(argb >> 16 & 0xFF)
	case quantize.Green:
		return int(argb >> 8 & 0xFF)
	default:
		return int(argb & 0xFF)
	}
}

// Entries describes every entry in palette order.
func (p *Palette) Entries() []Entry {
	entries := make([]Entry, len(p.colors))
	for i, c := range p.colors {
		pct := 0.0
		if p.total > 0 {
			pct = math.Round(float64(p.populations[i])*10000/float64(p.total)) / 100
		}
		entries[i] = Entry{
			Index:       i,
			ColorResult: imaging.NewColorResult(c),
			Population:  p.populations[i],
			Percentage:  pct,
		}
	}
	return entries
}

// Dominant returns the entries ordered by population, most common first.
// Entries with equal population keep palette order.
func (p *Palette) Dominant() []Entry {
	entries := p.Entries()
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Population - a.Population
	})
	return entries
}

// Swatches returns one swatch per entry in palette order, labeled with the
// entry's hex color.
func (p *Palette) Swatches() []imaging.Swatch {
	swatches := make([]imaging.Swatch, len(p.colors))
	for i, c := range p.colors {
		swatches[i] = imaging.Swatch{Color: c, Label: imaging.NewColorResult(c).Hex}
	}
	return swatches
}
