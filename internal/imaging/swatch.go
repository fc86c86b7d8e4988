package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Swatch layout defaults.
const (
	DefaultSwatchCell    = 64
	DefaultSwatchColumns = 8

	minSwatchCell = 8
	maxSwatchCell = 512
	labelHeight   = 16
)

// ErrNoSwatches is returned when there is nothing to render.
var ErrNoSwatches = errors.New("no swatches to render")

// Swatch is one color cell of a swatch sheet.
type Swatch struct {
	Color color.NRGBA
	Label string
}

// SwatchOptions controls the layout of RenderSwatches.
type SwatchOptions struct {
	// CellSize is the side of each color square. 0 means DefaultSwatchCell.
	CellSize int

	// Columns is the number of cells per row. 0 means DefaultSwatchColumns.
	Columns int

	// Background fills the gaps and label strips, as "#RRGGBB" or
	// "#RRGGBBAA". Empty means white.
	Background string

	// ShowLabels draws each swatch's label under its cell.
	ShowLabels bool
}

// RenderSwatches lays the swatches out in a grid, left to right and top to
// bottom. Translucent colors are composited over the background.
func RenderSwatches(swatches []Swatch, opts SwatchOptions) (*image.NRGBA, error) {
	if len(swatches) == 0 {
		return nil, ErrNoSwatches
	}

	cell := opts.CellSize
	if cell == 0 {
		cell = DefaultSwatchCell
	}
	if cell < minSwatchCell || cell > maxSwatchCell {
		return nil, fmt.Errorf("cell size must be between %d and %d, got %d", minSwatchCell, maxSwatchCell, cell)
	}
	cols := opts.Columns
	if cols == 0 {
		cols = DefaultSwatchColumns
	}
	if cols < 0 {
		return nil, fmt.Errorf("invalid column count: %d", cols)
	}
	cols = min(cols, len(swatches))

	bg := color.NRGBA{255, 255, 255, 255}
	if opts.Background != "" {
		var err error
		if bg, err = parseHexColor(opts.Background); err != nil {
			return nil, fmt.Errorf("invalid background %q: %w", opts.Background, err)
		}
	}

	rowHeight := cell
	if opts.ShowLabels {
		rowHeight += labelHeight
	}
	rows := (len(swatches) + cols - 1) / cols

	sheet := image.NewNRGBA(image.Rect(0, 0, cols*cell, rows*rowHeight))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	ink := labelInk(bg)
	for i, s := range swatches {
		x, y := (i%cols)*cell, (i/cols)*rowHeight
		r := image.Rect(x, y, x+cell, y+cell)
		draw.Draw(sheet, r, image.NewUniform(s.Color), image.Point{}, draw.Over)

		if opts.ShowLabels && s.Label != "" {
			strip := sheet.SubImage(image.Rect(x, y+cell, x+cell, y+rowHeight)).(*image.NRGBA)
			drawLabel(strip, s.Label, ink)
		}
	}

	return sheet, nil
}

// drawLabel writes text into dst, left aligned on the strip's baseline.
// Text past the strip's right edge is clipped.
func drawLabel(dst *image.NRGBA, text string, ink color.Color) {
	b := dst.Bounds()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(b.Min.X+2, b.Max.Y-4),
	}
	d.DrawString(text)
}

// labelInk picks black or white, whichever reads better on bg.
func labelInk(bg color.NRGBA) color.Color {
	l, _, _ := ToColorful(bg).Lab()
	if l > 0.5 {
		return color.Black
	}
	return color.White
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color length %d", len(hex))
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, err
	}
	if len(hex) == 6 {
		val = val<<8 | 0xFF
	}
	return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
}
