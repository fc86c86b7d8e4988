package quantize

import (
	"fmt"
	"io"
	"log/slog"
)

// Driver runs a SplitStrategy until the requested number of boxes exists or no
// further split is possible.
type Driver struct {
	Strategy SplitStrategy
	Logger   *slog.Logger
}

// NewDriver returns a Driver using strategy. A nil strategy selects
// MostPopulatedBoxStrategy and a nil logger discards output.
func NewDriver(strategy SplitStrategy, logger *slog.Logger) *Driver {
	if strategy == nil {
		strategy = MostPopulatedBoxStrategy{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Driver{Strategy: strategy, Logger: logger}
}

// ReduceTo splits initial until target boxes exist or the strategy reports
// that nothing is left to split.
//
// The result may hold fewer than target boxes when the input has too few
// distinct colors; that is not an error. At most target-1 splits are made.
// initial stays the root of the split tree and can be walked through Cut.
func (d *Driver) ReduceTo(target int, initial *ColorBox, ignoreAlpha bool) ([]*ColorBox, error) {
	if target < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTarget, target)
	}
	if initial == nil {
		return nil, ErrEmptyBox
	}

	strategy := d.Strategy
	if strategy == nil {
		strategy = MostPopulatedBoxStrategy{}
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	boxes := []*ColorBox{initial}
	for len(boxes) < target {
		split, err := strategy.PerformNextSplit(&boxes, ignoreAlpha)
		if err != nil {
			return nil, fmt.Errorf("failed to split at %d boxes: %w", len(boxes), err)
		}
		if !split {
			logger.Debug("no splittable box left", "boxes", len(boxes), "target", target)
			break
		}
		logger.Debug("split committed", "boxes", len(boxes), "target", target)
	}

	return boxes, nil
}
