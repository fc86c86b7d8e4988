package palette

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestIndexed_RoundTrip(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, A: 255},
		color.NRGBA{G: 255, A: 128},
		color.NRGBA{B: 255, A: 0},
	}
	img := image.NewPaletted(image.Rect(0, 0, 37, 11), pal)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 3)
	}

	var buf bytes.Buffer
	if err := EncodeIndexed(&buf, img); err != nil {
		t.Fatalf("EncodeIndexed failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("PLIX")) {
		t.Errorf("missing magic: % x", buf.Bytes()[:4])
	}

	got, err := DecodeIndexed(&buf)
	if err != nil {
		t.Fatalf("DecodeIndexed failed: %v", err)
	}
	if got.Bounds() != img.Bounds() {
		t.Errorf("bounds: got %v, want %v", got.Bounds(), img.Bounds())
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Error("index plane differs after round trip")
	}
	for i := range pal {
		if got.Palette[i] != pal[i] {
			t.Errorf("palette %d: got %v, want %v", i, got.Palette[i], pal[i])
		}
	}
}

func TestIndexed_SubImage(t *testing.T) {
	pal := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	img.SetColorIndex(2, 2, 1)
	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.Paletted)

	var buf bytes.Buffer
	if err := EncodeIndexed(&buf, sub); err != nil {
		t.Fatalf("EncodeIndexed failed: %v", err)
	}
	got, err := DecodeIndexed(&buf)
	if err != nil {
		t.Fatalf("DecodeIndexed failed: %v", err)
	}
	if got.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("bounds: got %v, want 2x2 at origin", got.Bounds())
	}
	if !bytes.Equal(got.Pix, []byte{1, 0, 0, 0}) {
		t.Errorf("pixels: got %v, want [1 0 0 0]", got.Pix)
	}
}

func TestDecodeIndexed_Errors(t *testing.T) {
	pal := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, 3, 3), pal)
	var buf bytes.Buffer
	if err := EncodeIndexed(&buf, img); err != nil {
		t.Fatalf("EncodeIndexed failed: %v", err)
	}
	valid := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		b := bytes.Clone(valid)
		copy(b, "GIF8")
		if _, err := DecodeIndexed(bytes.NewReader(b)); !errors.Is(err, ErrNotIndexed) {
			t.Errorf("got %v, want ErrNotIndexed", err)
		}
	})

	t.Run("truncated header", func(t *testing.T) {
		if _, err := DecodeIndexed(bytes.NewReader(valid[:10])); err == nil {
			t.Error("DecodeIndexed should fail")
		}
	})

	t.Run("truncated pixels", func(t *testing.T) {
		if _, err := DecodeIndexed(bytes.NewReader(valid[:14+8])); err == nil {
			t.Error("DecodeIndexed should fail")
		}
	})

	t.Run("index outside palette", func(t *testing.T) {
		bad := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
		bad.Pix[1] = 5
		var b bytes.Buffer
		if err := EncodeIndexed(&b, bad); err != nil {
			t.Fatalf("EncodeIndexed failed: %v", err)
		}
		if _, err := DecodeIndexed(&b); err == nil {
			t.Error("DecodeIndexed should reject out-of-range indices")
		}
	})
}
