package palette

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Remap maps every pixel of img to the entry Index selects for it.
func Remap(img image.Image, p *Palette) (*image.Paletted, error) {
	if p.Len() > 256 {
		return nil, ErrTooManyColors
	}

	sr := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, sr.Dx(), sr.Dy()), p.ColorPalette())

	// Images tend to repeat colors; remember each lookup.
	seen := make(map[color.NRGBA]uint8)
	for y := 0; y < sr.Dy(); y++ {
		for x := 0; x < sr.Dx(); x++ {
			n := color.NRGBAModel.Convert(img.At(sr.Min.X+x, sr.Min.Y+y)).(color.NRGBA)
			idx, ok := seen[n]
			if !ok {
				idx = uint8(p.Index(n))
				seen[n] = idx
			}
			dst.Pix[y*dst.Stride+x] = idx
		}
	}
	return dst, nil
}

// Dither maps img onto the palette with Floyd-Steinberg error diffusion.
// Each pixel picks the entry nearest in RGB after the propagated error is
// added, so the split tree is not consulted.
func Dither(img image.Image, p *Palette) (*image.Paletted, error) {
	if p.Len() > 256 {
		return nil, ErrTooManyColors
	}

	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	dst := image.NewPaletted(dr, p.ColorPalette())
	draw.FloydSteinberg.Draw(dst, dr, img, sr.Min)
	return dst, nil
}
