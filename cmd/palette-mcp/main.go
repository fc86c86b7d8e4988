package main

import (
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type cli struct {
	LogLevel string `help:"Minimum level of log records written to stderr" enum:"debug,info,warn,error" default:"info" env:"PALETTE_MCP_LOG_LEVEL"`
	NoColor  bool   `help:"Disable colored log output" env:"PALETTE_MCP_NO_COLOR"`

	Serve    serveCmd    `cmd:"" default:"withargs" help:"Run the MCP server on stdin/stdout (default)"`
	Quantize quantizeCmd `cmd:"" help:"Reduce an image to a median-cut palette and write the remapped image"`
	Palette  paletteCmd  `cmd:"" help:"Print the median-cut palette of an image"`
	Version  versionCmd  `cmd:"" help:"Print version information"`
}

// globals is bound into every command's Run method.
type globals struct {
	logger *slog.Logger
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("palette-mcp"),
		kong.Description("Median-cut palette tools, served over MCP or run from the command line."),
		kong.UsageOnError(),
	)

	// stdout carries the MCP protocol, so logs go to stderr.
	logger, err := newLogger(c.LogLevel, c.NoColor)
	kctx.FatalIfErrorf(err)

	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit, "command", kctx.Command())

	if err := kctx.Run(&globals{logger: logger}); err != nil {
		logger.Error("command failed", "command", kctx.Command(), tint.Err(err))
		os.Exit(1)
	}
}

func newLogger(level string, noColor bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	})), nil
}

type versionCmd struct{}

func (c *versionCmd) Run() error {
	fmt.Printf("palette-tools-mcp %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	return nil
}
