package palette

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/ironsheep/palette-tools-mcp/internal/imaging"
	"github.com/ironsheep/palette-tools-mcp/internal/quantize"
)

func TestQuantizer_PaletteSizes(t *testing.T) {
	tests := []struct {
		name  string
		img   image.Image
		limit int
		want  int
	}{
		{"white", createStripeImage(10, 10, white), 10, 1},
		{"white and black", createStripeImage(10, 10, white, black), 10, 2},
		{"rainbow", createStripeImage(9, 10, red, green, blue), 10, 3},
		{"rainbow limited", createStripeImage(9, 10, red, green, blue), 2, 2},
		{"white and black to one", createStripeImage(10, 10, white, black), 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Quantizer{MaxColors: tt.limit, IgnoreAlpha: true}
			p, err := q.Process(tt.img)
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if p.Len() != tt.want {
				t.Errorf("Len: got %d, want %d", p.Len(), tt.want)
			}

			remapped, err := Remap(tt.img, p)
			if err != nil {
				t.Fatalf("Remap failed: %v", err)
			}
			if used := distinctIndices(remapped); used != tt.want {
				t.Errorf("remapped image uses %d entries, want %d", used, tt.want)
			}
		})
	}
}

func TestQuantizer_ExactPaletteKeepsPixels(t *testing.T) {
	img := createStripeImage(9, 10, red, green, blue)

	p, err := (&Quantizer{MaxColors: 10, IgnoreAlpha: true}).Process(img)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if p.HasTree() {
		t.Error("exact palette should not carry a split tree")
	}

	remapped, err := Remap(img, p)
	if err != nil {
		t.Fatalf("Remap failed: %v", err)
	}
	dithered, err := Dither(img, p)
	if err != nil {
		t.Fatalf("Dither failed: %v", err)
	}

	for y := 0; y < 10; y++ {
		for x := 0; x < 9; x++ {
			want := color.NRGBAModel.Convert(img.At(x, y))
			if got := color.NRGBAModel.Convert(remapped.At(x, y)); got != want {
				t.Fatalf("remap (%d,%d): got %v, want %v", x, y, got, want)
			}
			if got := color.NRGBAModel.Convert(dithered.At(x, y)); got != want {
				t.Fatalf("dither (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestQuantizer_MedianCutMean(t *testing.T) {
	img := createStripeImage(10, 10, white, black)

	p, err := (&Quantizer{MaxColors: 1, IgnoreAlpha: true}).Process(img)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := p.Color(0); got != (color.NRGBA{R: 128, G: 128, B: 128, A: 255}) {
		t.Errorf("got %v, want mid gray", got)
	}
	if p.Population(0) != 100 {
		t.Errorf("population: got %d, want 100", p.Population(0))
	}
}

func TestQuantizer_Alpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 200, A: 0})
	img.SetNRGBA(3, 0, color.NRGBA{R: 200, A: 0})

	p, err := (&Quantizer{MaxColors: 1}).Process(img)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := p.Color(0); got != (color.NRGBA{R: 200, A: 128}) {
		t.Errorf("with alpha: got %v, want {200 0 0 128}", got)
	}

	p, err = (&Quantizer{MaxColors: 1, IgnoreAlpha: true}).Process(img)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := p.Color(0); got != (color.NRGBA{R: 200, A: 255}) {
		t.Errorf("ignoring alpha: got %v, want {200 0 0 255}", got)
	}
}

func TestQuantizer_ReducedPrecision(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 1))
	for x := 0; x < 256; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: uint8(x), G: uint8(x), B: uint8(x), A: 255})
	}

	q := &Quantizer{
		MaxColors:   4,
		IgnoreAlpha: true,
		Histogram:   imaging.HistogramOptions{MaxDistinct: 32},
	}
	p, err := q.Process(img)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if p.Len() != 4 {
		t.Fatalf("Len: got %d, want 4", p.Len())
	}

	// Every pixel must land in the entry built from its own masked color.
	remapped, err := Remap(img, p)
	if err != nil {
		t.Fatalf("Remap failed: %v", err)
	}
	assigned := make(map[int]int)
	for _, idx := range remapped.Pix {
		assigned[int(idx)]++
	}
	for i := 0; i < p.Len(); i++ {
		if assigned[i] != p.Population(i) {
			t.Errorf("entry %d: remap assigned %d pixels, palette counted %d", i, assigned[i], p.Population(i))
		}
	}
}

func TestQuantizer_Errors(t *testing.T) {
	if _, err := (&Quantizer{}).Process(createStripeImage(2, 2, red)); !errors.Is(err, quantize.ErrInvalidTarget) {
		t.Errorf("zero max colors: got %v, want ErrInvalidTarget", err)
	}

	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := (&Quantizer{MaxColors: 4}).Process(empty); !errors.Is(err, imaging.ErrNoPixels) {
		t.Errorf("empty image: got %v, want ErrNoPixels", err)
	}
}

type failingStrategy struct{}

func (failingStrategy) PerformNextSplit(*[]*quantize.ColorBox, bool) (bool, error) {
	return false, errors.New("boom")
}

func TestQuantizer_StrategyError(t *testing.T) {
	q := &Quantizer{MaxColors: 2, Strategy: failingStrategy{}}
	if _, err := q.Process(createStripeImage(9, 3, red, green, blue)); err == nil {
		t.Error("Process should report strategy failures")
	}

	// draw.Quantizer has no error return, so the palette comes back unchanged.
	p := q.Quantize(make(color.Palette, 0, 4), createStripeImage(9, 3, red, green, blue))
	if len(p) != 0 {
		t.Errorf("Quantize after failure: got %d colors, want 0", len(p))
	}
}

func TestQuantizer_DrawQuantizer(t *testing.T) {
	img := createStripeImage(9, 10, red, green, blue)
	q := &Quantizer{IgnoreAlpha: true}

	p := q.Quantize(make(color.Palette, 0, 2), img)
	if len(p) != 2 {
		t.Errorf("Quantize: got %d colors, want 2", len(p))
	}

	full := make(color.Palette, 1, 1)
	if got := q.Quantize(full, img); len(got) != 1 {
		t.Errorf("Quantize without room: got %d colors, want 1", len(got))
	}

	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, &gif.Options{NumColors: 256, Quantizer: q}); err != nil {
		t.Fatalf("gif.Encode failed: %v", err)
	}
	decoded, err := gif.Decode(&buf)
	if err != nil {
		t.Fatalf("gif.Decode failed: %v", err)
	}
	paletted, ok := decoded.(*image.Paletted)
	if !ok {
		t.Fatalf("decoded gif is %T, want *image.Paletted", decoded)
	}
	if used := distinctIndices(paletted); used != 3 {
		t.Errorf("gif uses %d colors, want 3", used)
	}
}

func TestExactPalette(t *testing.T) {
	img := createStripeImage(8, 2, red, green, blue, white)

	if _, ok, err := ExactPalette(img, 3); err != nil || ok {
		t.Errorf("limit 3: got ok=%v err=%v, want ok=false", ok, err)
	}

	p, ok, err := ExactPalette(img, 4)
	if err != nil || !ok {
		t.Fatalf("limit 4: got ok=%v err=%v", ok, err)
	}
	if p.Len() != 4 {
		t.Errorf("Len: got %d, want 4", p.Len())
	}
	if p.Index(white) != 3 {
		t.Errorf("white should sort last, got index %d", p.Index(white))
	}
}

func TestRemap_TooManyColors(t *testing.T) {
	samples := make([]*quantize.ColorSample, 257)
	for i := range samples {
		samples[i] = quantize.NewColorSample(0xFF000000|uint32(i), 1)
	}
	p := newExactPalette(samples, true, 0xFFFFFFFF)

	img := createStripeImage(2, 2, red)
	if _, err := Remap(img, p); !errors.Is(err, ErrTooManyColors) {
		t.Errorf("Remap: got %v, want ErrTooManyColors", err)
	}
	if _, err := Dither(img, p); !errors.Is(err, ErrTooManyColors) {
		t.Errorf("Dither: got %v, want ErrTooManyColors", err)
	}
}

func distinctIndices(img *image.Paletted) int {
	seen := make(map[uint8]bool)
	for _, idx := range img.Pix {
		seen[idx] = true
	}
	return len(seen)
}
