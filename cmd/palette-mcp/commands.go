package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/palette-tools-mcp/internal/imaging"
	"github.com/ironsheep/palette-tools-mcp/internal/palette"
	"github.com/ironsheep/palette-tools-mcp/internal/server"
	"github.com/ironsheep/palette-tools-mcp/internal/store"
)

const maxPaletteColors = 256

var errUnsupportedOutput = errors.New("unsupported output format")

type serveCmd struct {
	DB string `help:"SQLite database recording every generated palette. Empty disables history" type:"path" env:"PALETTE_MCP_DB"`
}

func (c *serveCmd) Run(g *globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := server.Config{Logger: g.logger, Version: Version}
	if c.DB != "" {
		history, err := store.Open(c.DB)
		if err != nil {
			return err
		}
		defer history.Close()
		cfg.History = history
		g.logger.Info("palette history enabled", "db", c.DB)
	}

	err := server.New(cfg).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// quantizeFlags are shared by the commands that build a palette.
type quantizeFlags struct {
	MaxColors    int    `short:"n" help:"Maximum number of palette colors (1-256)" default:"16" env:"PALETTE_MCP_MAX_COLORS"`
	IgnoreAlpha  bool   `help:"Treat every pixel as fully opaque"`
	Aggregation  string `help:"How each color box becomes one palette color" enum:"mean,mode" default:"mean"`
	MaxDimension int    `help:"Downsample so neither side exceeds this before counting colors. 0 disables downsampling" default:"512"`
}

func (f *quantizeFlags) check() error {
	if f.MaxColors < 1 || f.MaxColors > maxPaletteColors {
		return fmt.Errorf("max colors must be between 1 and %d, got %d", maxPaletteColors, f.MaxColors)
	}
	if f.MaxDimension < 0 {
		return fmt.Errorf("invalid max dimension: %d", f.MaxDimension)
	}
	return nil
}

func (f *quantizeFlags) quantizer(g *globals) (*palette.Quantizer, error) {
	agg, err := palette.ParseAggregation(f.Aggregation)
	if err != nil {
		return nil, err
	}
	return &palette.Quantizer{
		MaxColors:   f.MaxColors,
		IgnoreAlpha: f.IgnoreAlpha,
		Aggregation: agg,
		Histogram:   imaging.HistogramOptions{MaxDimension: f.MaxDimension},
		Logger:      g.logger,
	}, nil
}

type quantizeCmd struct {
	quantizeFlags

	Input   string `arg:"" type:"existingfile" help:"Image to quantize"`
	Output  string `arg:"" type:"path" help:"Destination file. The extension picks the format: .png, .jpg, .bmp, .gif or .plix"`
	Dither  bool   `help:"Apply Floyd-Steinberg error diffusion instead of plain remapping"`
	Quality int    `help:"JPEG quality (1-100)" default:"90"`
}

func (c *quantizeCmd) Validate(kctx *kong.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	if _, err := outputFormat(c.Output); err != nil {
		return err
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("invalid JPEG quality: %d", c.Quality)
	}
	return nil
}

func (c *quantizeCmd) Run(g *globals) error {
	img, err := imaging.NewImageCache().Load(c.Input)
	if err != nil {
		return err
	}
	q, err := c.quantizer(g)
	if err != nil {
		return err
	}
	p, err := q.Process(img)
	if err != nil {
		return err
	}

	var out *image.Paletted
	if c.Dither {
		out, err = palette.Dither(img, p)
	} else {
		out, err = palette.Remap(img, p)
	}
	if err != nil {
		return err
	}

	if err := writeImage(c.Output, out, c.Quality); err != nil {
		return err
	}
	g.logger.Info("quantized", "input", c.Input, "output", c.Output, "colors", p.Len(), "dithered", c.Dither)
	return nil
}

type paletteCmd struct {
	quantizeFlags

	Input string `arg:"" type:"existingfile" help:"Image to analyze"`
	Pal    string `help:"Also write the palette to this RIFF PAL file" type:"path"`
	Swatch string `help:"Also render the palette as a PNG sheet of labeled squares" type:"path"`
}

func (c *paletteCmd) Validate(kctx *kong.Context) error {
	return c.check()
}

func (c *paletteCmd) Run(g *globals) error {
	img, err := imaging.NewImageCache().Load(c.Input)
	if err != nil {
		return err
	}
	q, err := c.quantizer(g)
	if err != nil {
		return err
	}
	p, err := q.Process(img)
	if err != nil {
		return err
	}

	if err := printEntries(os.Stdout, p.Entries()); err != nil {
		return err
	}

	if c.Swatch != "" {
		sheet, err := imaging.RenderSwatches(p.Swatches(), imaging.SwatchOptions{ShowLabels: true})
		if err != nil {
			return err
		}
		if err := imgio.Save(c.Swatch, sheet, imgio.PNGEncoder()); err != nil {
			return fmt.Errorf("failed to write swatch: %w", err)
		}
	}

	if c.Pal == "" {
		return nil
	}
	f, err := os.Create(c.Pal)
	if err != nil {
		return fmt.Errorf("failed to create palette file: %w", err)
	}
	if err := palette.WriteRIFF(f, p.ColorPalette()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printEntries(w io.Writer, entries []palette.Entry) error {
	for _, e := range entries {
		_, err := fmt.Fprintf(w, "%3d  %s  alpha %3d  %6.2f%%  %d\n",
			e.Index, e.Hex, e.RGBA.A, e.Percentage, e.Population)
		if err != nil {
			return err
		}
	}
	return nil
}

// outputFormat maps a file extension to the encoder name used by writeImage.
func outputFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	case ".bmp":
		return "bmp", nil
	case ".gif":
		return "gif", nil
	case ".plix":
		return "plix", nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedOutput, ext)
	}
}

func writeImage(path string, img *image.Paletted, quality int) error {
	format, err := outputFormat(path)
	if err != nil {
		return err
	}

	switch format {
	case "png":
		return imgio.Save(path, img, imgio.PNGEncoder())
	case "jpeg":
		return imgio.Save(path, img, imgio.JPEGEncoder(quality))
	case "bmp":
		return imgio.Save(path, img, imgio.BMPEncoder())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if format == "gif" {
		err = gif.Encode(f, img, &gif.Options{NumColors: len(img.Palette)})
	} else {
		err = palette.EncodeIndexed(f, img)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
