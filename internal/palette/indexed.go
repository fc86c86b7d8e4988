package palette

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/klauspost/compress/zstd"
)

// The indexed container stores a paletted image as
//
//	"PLIX" width:u32 height:u32 colors:u16 {R G B A}... zstd(index plane)
//
// with big-endian integers and non-premultiplied colors. The index plane is
// width*height bytes, row by row.

var indexedMagic = [4]byte{'P', 'L', 'I', 'X'}

// ErrNotIndexed is returned when a stream does not start with the indexed
// container magic.
var ErrNotIndexed = errors.New("not an indexed image stream")

// maxIndexedSide bounds decoded dimensions so a corrupt header cannot request
// an absurd allocation.
const maxIndexedSide = 1 << 16

// EncodeIndexed writes img in the indexed container format.
func EncodeIndexed(w io.Writer, img *image.Paletted) error {
	b := img.Bounds()
	if len(img.Palette) > 256 {
		return ErrTooManyColors
	}

	header := make([]byte, 0, 14+len(img.Palette)*4)
	header = append(header, indexedMagic[:]...)
	header = binary.BigEndian.AppendUint32(header, uint32(b.Dx()))
	header = binary.BigEndian.AppendUint32(header, uint32(b.Dy()))
	header = binary.BigEndian.AppendUint16(header, uint16(len(img.Palette)))
	for _, c := range img.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		header = append(header, n.R, n.G, n.B, n.A)
	}
	if err := writeBytes(w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if _, err := enc.Write(img.Pix[off : off+b.Dx()]); err != nil {
			enc.Close()
			return fmt.Errorf("failed to compress row %d: %w", y-b.Min.Y, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish compression: %w", err)
	}
	return nil
}

// DecodeIndexed reads an image written by EncodeIndexed.
func DecodeIndexed(r io.Reader) (*image.Paletted, error) {
	var header [14]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !bytes.Equal(header[:4], indexedMagic[:]) {
		return nil, ErrNotIndexed
	}

	width := int(binary.BigEndian.Uint32(header[4:8]))
	height := int(binary.BigEndian.Uint32(header[8:12]))
	count := int(binary.BigEndian.Uint16(header[12:14]))
	if width > maxIndexedSide || height > maxIndexedSide {
		return nil, fmt.Errorf("image too large: %dx%d", width, height)
	}
	if count > 256 {
		return nil, ErrTooManyColors
	}

	entries := make([]byte, count*4)
	if _, err := io.ReadFull(r, entries); err != nil {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}
	pal := make(color.Palette, count)
	for i := 0; i < count; i++ {
		e := entries[i*4 : i*4+4]
		pal[i] = color.NRGBA{R: e[0], G: e[1], B: e[2], A: e[3]}
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	img := image.NewPaletted(image.Rect(0, 0, width, height), pal)
	if _, err := io.ReadFull(dec, img.Pix); err != nil {
		return nil, fmt.Errorf("failed to decompress pixels: %w", err)
	}
	for i, idx := range img.Pix {
		if int(idx) >= count {
			return nil, fmt.Errorf("pixel %d uses index %d of a %d color palette", i, idx, count)
		}
	}
	return img, nil
}
