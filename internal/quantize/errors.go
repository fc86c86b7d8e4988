package quantize

import "errors"

var (
	// ErrEmptyBox is returned when a box would be built from no samples.
	ErrEmptyBox = errors.New("empty color box")

	// ErrNegativeCount is returned when a sample carries a negative count.
	ErrNegativeCount = errors.New("negative sample count")

	// ErrInvalidChannel signals a channel outside the Red..Alpha enumeration.
	// It indicates a programming error and is never retried.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidTarget is returned by Driver.ReduceTo for a target below one.
	ErrInvalidTarget = errors.New("target box count must be at least 1")
)
