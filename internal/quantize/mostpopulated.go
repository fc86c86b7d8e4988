package quantize

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// MostPopulatedBoxStrategy splits the splittable box holding the most pixels,
// cutting it at the weighted median of whichever channel leaves the two halves
// closest in population.
type MostPopulatedBoxStrategy struct{}

var _ SplitStrategy = MostPopulatedBoxStrategy{}

// PerformNextSplit implements SplitStrategy.
//
// The selected box has its samples re-sorted in place while channels are
// evaluated; afterwards they are left in the order of the winning channel.
// Apart from that, the collection is only touched once both children have been
// built successfully.
func (MostPopulatedBoxStrategy) PerformNextSplit(boxes *[]*ColorBox, ignoreAlpha bool) (bool, error) {
	if boxes == nil {
		return false, nil
	}

	target := -1
	maxPoints := 0
	for i, b := range *boxes {
		// Strict comparison: the first of several equally populous boxes wins.
		if b.maxDiff > 0 && b.totalPoints > maxPoints {
			target = i
			maxPoints = b.totalPoints
		}
	}
	if target < 0 {
		return false, nil
	}

	box := (*boxes)[target]
	samples := box.samples

	bestScore := math.MaxFloat64
	bestChannel := Channel(-1)
	bestMedian := -1
	for _, c := range Channels(ignoreAlpha) {
		sortByChannel(samples, c)
		median := medianIndex(samples, box.totalPoints)

		lower, upper := samples[:median+1], samples[median+1:]
		if len(lower) == 0 || len(upper) == 0 {
			continue
		}

		lowerBox, err := NewColorBox(slices.Clone(lower), ignoreAlpha)
		if err != nil {
			return false, fmt.Errorf("failed to build lower box on %s: %w", c, err)
		}
		upperBox, err := NewColorBox(slices.Clone(upper), ignoreAlpha)
		if err != nil {
			return false, fmt.Errorf("failed to build upper box on %s: %w", c, err)
		}

		score := imbalance(lowerBox.totalPoints, upperBox.totalPoints)
		if score < bestScore {
			bestScore = score
			bestChannel = c
			bestMedian = median
		}
	}

	if bestMedian < 0 {
		return false, nil
	}

	sortByChannel(samples, bestChannel)
	lowerBox, err := NewColorBox(slices.Clone(samples[:bestMedian+1]), ignoreAlpha)
	if err != nil {
		return false, fmt.Errorf("failed to build lower box: %w", err)
	}
	upperBox, err := NewColorBox(slices.Clone(samples[bestMedian+1:]), ignoreAlpha)
	if err != nil {
		return false, fmt.Errorf("failed to build upper box: %w", err)
	}
	threshold, err := samples[bestMedian].Value(bestChannel)
	if err != nil {
		return false, fmt.Errorf("failed to resolve split threshold: %w", err)
	}

	rest := slices.Delete(*boxes, target, target+1)
	*boxes = append(rest, lowerBox, upperBox)

	box.cut = &SplitResult{
		Lower:     lowerBox,
		Upper:     upperBox,
		Channel:   bestChannel,
		Threshold: threshold,
	}
	return true, nil
}

// sortByChannel orders samples ascending on c. Equal values keep their
// previous relative order.
func sortByChannel(samples []*ColorSample, c Channel) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].value(c) < samples[j].value(c)
	})
}

// medianIndex returns the last index of the lower partition for samples
// already sorted on the channel being evaluated. A result of -1 means the
// lower partition would be empty.
func medianIndex(samples []*ColorSample, totalPoints int) int {
	// Round half up, matching floor(x + 0.5) for the exact .5 case.
	half := int(math.Floor(float64(totalPoints)/2 + 0.5))

	last := len(samples) - 1
	median := last
	oldCount, newCount := 0, 0
	for i, s := range samples {
		newCount += s.Count
		if newCount >= half {
			median = i
			break
		}
		oldCount = newCount
	}

	switch {
	case median == last:
		// Never cut after the final sample; the upper half must not be empty.
		median--
	case median > 0:
		if abs(half-oldCount) < abs(newCount-half) {
			median--
		}
	}
	return median
}

// imbalance scores a candidate cut in [0, 1); 0 is a perfect halving.
// Two empty halves yield NaN, which never beats a real score.
func imbalance(lowerPoints, upperPoints int) float64 {
	return float64(abs(lowerPoints-upperPoints)) / float64(max(lowerPoints, upperPoints))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
