package palette

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/riff"
)

// Microsoft RIFF palette layout:
//
//	"RIFF" <size> "PAL " "data" <size> palVersion(0x0300) palNumEntries {R G B flags}...
//
// All integers are little-endian.

var (
	riffType = riff.FourCC{'R', 'I', 'F', 'F'}
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

const palVersion = 0x0300

// ErrNoPaletteData is returned when a RIFF palette file has no data chunk.
var ErrNoPaletteData = errors.New("no palette data chunk")

// WriteRIFF writes pal as a RIFF palette. Alpha is not stored.
func WriteRIFF(w io.Writer, pal color.Palette) error {
	if len(pal) > 0xFFFF {
		return fmt.Errorf("palette too large for RIFF: %d colors", len(pal))
	}

	dataSize := 4 + len(pal)*4
	formSize := 4 + 8 + dataSize

	buf := make([]byte, 0, 8+formSize)
	buf = append(buf, riffType[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(formSize))
	buf = append(buf, palType[:]...)
	buf = append(buf, dataType[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	buf = binary.LittleEndian.AppendUint16(buf, palVersion)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(pal)))
	for _, c := range pal {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		buf = append(buf, n.R, n.G, n.B, 0x00)
	}

	if err := writeBytes(w, buf); err != nil {
		return fmt.Errorf("failed to write RIFF palette: %w", err)
	}
	return nil
}

// ReadRIFF reads the first palette of a RIFF palette stream. Colors are
// returned opaque.
func ReadRIFF(r io.Reader) (color.Palette, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	}
	if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type: %q", string(formType[:]))
	}

	for {
		id, size, data, err := rd.Next()
		if err == io.EOF {
			return nil, ErrNoPaletteData
		}
		if err != nil {
			return nil, fmt.Errorf("could not read chunk: %w", err)
		}
		if id != dataType {
			continue
		}
		return readPalette(data, size)
	}
}

func readPalette(r io.Reader, size uint32) (color.Palette, error) {
	if size < 4 {
		return nil, fmt.Errorf("palette chunk too short: %d bytes", size)
	}

	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("could not read palette header: %w", err)
	}
	if ver := binary.LittleEndian.Uint16(header[0:2]); ver != palVersion {
		return nil, fmt.Errorf("unsupported palette version: %#04x", ver)
	}

	count := int(binary.LittleEndian.Uint16(header[2:4]))
	if want := uint32(4 + count*4); size < want {
		return nil, fmt.Errorf("palette chunk holds %d bytes, need %d for %d colors", size, want, count)
	}

	entries := make([]byte, count*4)
	if _, err := io.ReadFull(r, entries); err != nil {
		return nil, fmt.Errorf("could not read %d colors: %w", count, err)
	}

	pal := make(color.Palette, count)
	for i := 0; i < count; i++ {
		e := entries[i*4 : i*4+4]
		pal[i] = color.NRGBA{R: e[0], G: e[1], B: e[2], A: 0xFF}
	}
	return pal, nil
}

func writeBytes(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("wrote only %d/%d bytes", n, len(b))
	}
	return nil
}
