package quantize

import "fmt"

// SplitResult records how a box was divided. It is attached to the parent box
// when the split commits and is not consulted by later split steps.
type SplitResult struct {
	// Lower holds the samples at or below Threshold on Channel.
	Lower *ColorBox
	// Upper holds the remaining samples.
	Upper *ColorBox
	// Channel is the dimension the box was cut along.
	Channel Channel
	// Threshold is the Channel value of the sample at the median index.
	Threshold int
}

func (r *SplitResult) String() string {
	return fmt.Sprintf("split on %s at %d (%d/%d points)", r.Channel, r.Threshold,
		r.Lower.TotalPoints(), r.Upper.TotalPoints())
}

// SplitStrategy chooses and performs the next split of a box collection.
//
// PerformNextSplit mutates boxes in place. It returns false with a nil error
// when no box can be split; this is the normal end of quantization. On error
// the collection is left exactly as it was.
type SplitStrategy interface {
	PerformNextSplit(boxes *[]*ColorBox, ignoreAlpha bool) (bool, error)
}
