package quantize

import (
	"errors"
	"math"
	"testing"
)

func TestMedianIndex(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   int
	}{
		{"balanced pair", []int{5, 5}, 0},
		{"odd total rounds half up", []int{1, 2}, 0},
		{"end clamp", []int{1, 1, 10}, 1},
		{"moves one earlier", []int{3, 5, 2}, 0},
		{"stays on exact half", []int{2, 3, 5}, 1},
		{"tie keeps index", []int{1, 1, 2}, 1},
		{"zero counts", []int{0, 0}, 0},
		{"single sample", []int{7}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]*ColorSample, len(tt.counts))
			total := 0
			for i, c := range tt.counts {
				samples[i] = NewColorSample(uint32(i), c)
				total += c
			}
			if got := medianIndex(samples, total); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestImbalance(t *testing.T) {
	if got := imbalance(5, 5); got != 0 {
		t.Errorf("imbalance(5,5): got %v, want 0", got)
	}
	if got := imbalance(2, 10); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("imbalance(2,10): got %v, want 0.8", got)
	}
	if got := imbalance(10, 2); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("imbalance(10,2): got %v, want 0.8", got)
	}
	if got := imbalance(0, 0); !math.IsNaN(got) {
		t.Errorf("imbalance(0,0): got %v, want NaN", got)
	}
}

func TestPerformNextSplit_SingleUniformColor(t *testing.T) {
	boxes := []*ColorBox{mustBox(t, false, 0x01010101, 10)}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, false)
	if err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}
	if split {
		t.Error("a single color must not be split")
	}
	if len(boxes) != 1 {
		t.Errorf("boxes: got %d, want 1", len(boxes))
	}
}

func TestPerformNextSplit_ZeroWeightSample(t *testing.T) {
	boxes := []*ColorBox{mustBox(t, false, 0x01010101, 0)}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, false)
	if err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}
	if split {
		t.Error("a zero-weight box must not be split")
	}
}

func TestPerformNextSplit_EmptyCollection(t *testing.T) {
	var boxes []*ColorBox

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, false)
	if err != nil || split {
		t.Errorf("empty collection: got (%v, %v), want (false, nil)", split, err)
	}
	if len(boxes) != 0 {
		t.Errorf("boxes: got %d, want 0", len(boxes))
	}

	split, err = MostPopulatedBoxStrategy{}.PerformNextSplit(nil, false)
	if err != nil || split {
		t.Errorf("nil collection: got (%v, %v), want (false, nil)", split, err)
	}
}

func TestPerformNextSplit_OnlyLeavesIsNoOp(t *testing.T) {
	a := mustBox(t, false, 0xFF000000, 4)
	b := mustBox(t, false, 0xFFFFFFFF, 9, 0xFFFFFFFF, 1)
	c := mustBox(t, true, 0x00112233, 2, 0xFF112233, 2)
	boxes := []*ColorBox{a, b, c}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, true)
	if err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}
	if split {
		t.Fatal("leaf-only collection must not be split")
	}
	if len(boxes) != 3 || boxes[0] != a || boxes[1] != b || boxes[2] != c {
		t.Error("collection changed on a no-op call")
	}
	if b.Samples()[0].Count != 9 {
		t.Error("leaf sample order changed on a no-op call")
	}
}

func TestPerformNextSplit_TwoColorBalanced(t *testing.T) {
	root := mustBox(t, false,
		0xFFFFFFFF, 50,
		0xFF000000, 50,
	)
	boxes := []*ColorBox{root}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, false)
	if err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}
	if !split {
		t.Fatal("expected a split")
	}
	if len(boxes) != 2 {
		t.Fatalf("boxes: got %d, want 2", len(boxes))
	}

	for i, b := range boxes {
		if b.Len() != 1 || b.TotalPoints() != 50 {
			t.Errorf("box %d: got %d samples / %d points, want 1 / 50", i, b.Len(), b.TotalPoints())
		}
	}

	cut := root.Cut()
	if cut == nil {
		t.Fatal("split result not recorded on parent")
	}
	if cut.Channel != Red || cut.Threshold != 0 {
		t.Errorf("cut: got %s at %d, want red at 0", cut.Channel, cut.Threshold)
	}
	if cut.Lower != boxes[0] || cut.Upper != boxes[1] {
		t.Error("cut children should be the appended boxes in order")
	}
	if cut.Lower.Samples()[0].ARGB() != 0xFF000000 {
		t.Error("lower box should hold black")
	}
}

func TestPerformNextSplit_TailClamp(t *testing.T) {
	root := mustBox(t, true,
		0xFF100000, 1,
		0xFF200000, 1,
		0xFF300000, 10,
	)
	boxes := []*ColorBox{root}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, true)
	if err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}
	if !split {
		t.Fatal("expected a split")
	}

	cut := root.Cut()
	if cut.Channel != Red || cut.Threshold != 0x20 {
		t.Errorf("cut: got %s at %#x, want red at 0x20", cut.Channel, cut.Threshold)
	}
	if cut.Lower.Len() != 2 || cut.Lower.TotalPoints() != 2 {
		t.Errorf("lower: got %d samples / %d points, want 2 / 2", cut.Lower.Len(), cut.Lower.TotalPoints())
	}
	if cut.Upper.Len() != 1 || cut.Upper.TotalPoints() != 10 {
		t.Errorf("upper: got %d samples / %d points, want 1 / 10", cut.Upper.Len(), cut.Upper.TotalPoints())
	}
}

func TestPerformNextSplit_WeightedMedianAtTail(t *testing.T) {
	// Red, green and blue primaries with counts 1, 1, 2 and zero alpha.
	root := mustBox(t, false,
		0x00FF0000, 1,
		0x0000FF00, 1,
		0x000000FF, 2,
	)
	boxes := []*ColorBox{root}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, false)
	if err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}
	if !split {
		t.Fatal("expected a split")
	}

	cut := root.Cut()
	// Green scores a perfect 2/2 during evaluation; the commit re-sort of the
	// box's current order then places red alone below the median.
	if cut.Channel != Green || cut.Threshold != 0 {
		t.Errorf("cut: got %s at %d, want green at 0", cut.Channel, cut.Threshold)
	}
	if cut.Lower.Len() == 0 || cut.Upper.Len() == 0 {
		t.Fatal("split produced an empty partition")
	}
	if cut.Lower.TotalPoints() != 1 || cut.Upper.TotalPoints() != 3 {
		t.Errorf("points: got %d/%d, want 1/3", cut.Lower.TotalPoints(), cut.Upper.TotalPoints())
	}
	if cut.Lower.Samples()[0].ARGB() != 0x00FF0000 {
		t.Errorf("lower: got %#08x, want red", cut.Lower.Samples()[0].ARGB())
	}
}

func TestPerformNextSplit_ChannelOfVariation(t *testing.T) {
	root := mustBox(t, false,
		0x0000AA00, 3,
		0x0000FF00, 5,
		0x00008800, 2,
	)
	boxes := []*ColorBox{root}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, false)
	if err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}
	if !split {
		t.Fatal("expected a split")
	}

	cut := root.Cut()
	if cut.Channel != Green {
		t.Errorf("Channel: got %s, want green", cut.Channel)
	}
	if cut.Threshold != 0xAA {
		t.Errorf("Threshold: got %#x, want 0xaa", cut.Threshold)
	}
	if cut.Lower.TotalPoints() != 5 || cut.Upper.TotalPoints() != 5 {
		t.Errorf("points: got %d/%d, want 5/5", cut.Lower.TotalPoints(), cut.Upper.TotalPoints())
	}
}

func TestPerformNextSplit_EarlierChannelWinsTies(t *testing.T) {
	// The red channel is flat, but its stable order already splits 5/5, so it
	// ties with green and wins by coming first.
	root := mustBox(t, false,
		0x0000AA00, 3,
		0x00008800, 2,
		0x0000FF00, 5,
	)
	boxes := []*ColorBox{root}

	if _, err := (MostPopulatedBoxStrategy{}).PerformNextSplit(&boxes, false); err != nil {
		t.Fatalf("PerformNextSplit failed: %v", err)
	}

	cut := root.Cut()
	if cut.Channel != Red || cut.Threshold != 0 {
		t.Errorf("cut: got %s at %d, want red at 0", cut.Channel, cut.Threshold)
	}
	if cut.Lower.TotalPoints() != 5 || cut.Upper.TotalPoints() != 5 {
		t.Errorf("points: got %d/%d, want 5/5", cut.Lower.TotalPoints(), cut.Upper.TotalPoints())
	}
}

func TestPerformNextSplit_CandidateSelection(t *testing.T) {
	t.Run("first of equal boxes", func(t *testing.T) {
		a := mustBox(t, true, 0xFF000000, 2, 0xFFFF0000, 2)
		b := mustBox(t, true, 0xFF00FF00, 2, 0xFF0000FF, 2)
		boxes := []*ColorBox{a, b}

		if _, err := (MostPopulatedBoxStrategy{}).PerformNextSplit(&boxes, true); err != nil {
			t.Fatalf("PerformNextSplit failed: %v", err)
		}
		if a.Cut() == nil || b.Cut() != nil {
			t.Fatal("expected the first equally populated box to be split")
		}
		if len(boxes) != 3 || boxes[0] != b {
			t.Errorf("expected [b, a.lower, a.upper], got %v", boxes)
		}
	})

	t.Run("leaves are skipped", func(t *testing.T) {
		leaf := mustBox(t, true, 0xFF808080, 100)
		small := mustBox(t, true, 0xFF000000, 1, 0xFFFFFFFF, 1)
		boxes := []*ColorBox{leaf, small}

		split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, true)
		if err != nil || !split {
			t.Fatalf("got (%v, %v), want (true, nil)", split, err)
		}
		if leaf.Cut() != nil || small.Cut() == nil {
			t.Error("expected the splittable box to be chosen over the leaf")
		}
		if boxes[0] != leaf {
			t.Error("leaf should keep its position")
		}
	})

	t.Run("most populous wins", func(t *testing.T) {
		a := mustBox(t, true, 0xFF000000, 1, 0xFFFF0000, 1)
		b := mustBox(t, true, 0xFF00FF00, 3, 0xFF0000FF, 4)
		boxes := []*ColorBox{a, b}

		if _, err := (MostPopulatedBoxStrategy{}).PerformNextSplit(&boxes, true); err != nil {
			t.Fatalf("PerformNextSplit failed: %v", err)
		}
		if b.Cut() == nil || a.Cut() != nil {
			t.Error("expected the more populous box to be split")
		}
	})
}

func TestPerformNextSplit_FailureLeavesCollection(t *testing.T) {
	samples := newSamples(0xFF000000, 5, 0xFFFFFFFF, 5)
	root, err := NewColorBox(samples, true)
	if err != nil {
		t.Fatalf("NewColorBox failed: %v", err)
	}
	// Corrupt a count after construction so rebuilding a child fails.
	samples[1].Count = -1

	other := mustBox(t, true, 0xFF123456, 1)
	boxes := []*ColorBox{other, root}

	split, err := MostPopulatedBoxStrategy{}.PerformNextSplit(&boxes, true)
	if !errors.Is(err, ErrNegativeCount) {
		t.Fatalf("got %v, want ErrNegativeCount", err)
	}
	if split {
		t.Error("failed call must not report a split")
	}
	if len(boxes) != 2 || boxes[0] != other || boxes[1] != root {
		t.Error("collection changed after a failed split")
	}
	if root.Cut() != nil {
		t.Error("failed split must not be recorded")
	}
}
