package thematic

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// Bounds of the numeric class count; requests outside are clamped.
const (
	MinSteps = 1
	MaxSteps = 1000
)

// Bin is one equal-width range of a numeric classification, closed on both ends.
type Bin struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Color Color   `json:"color" yaml:"color"`
}

// Contains reports whether v lies in [Start, End].
func (b Bin) Contains(v float64) bool {
	return v >= b.Start && v <= b.End
}

// NumericResult is the numeric variant of Result.
type NumericResult struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
	Bins []Bin   `json:"bins" yaml:"bins"`
}

func (*NumericResult) Kind() Kind { return KindNumeric }

// Resolver returns the lookup over the result bins.
func (r *NumericResult) Resolver() Resolver {
	return NumericResolver{bins: r.Bins}
}

func (*NumericResult) sealed() {}

// ClampSteps bounds a requested step count to [MinSteps, MaxSteps].
func ClampSteps(steps int) int {
	if steps < MinSteps {
		return MinSteps
	}
	if steps > MaxSteps {
		return MaxSteps
	}
	return steps
}

// ClassifyNumeric partitions [min, max] of values into steps equal-width bins colored
// along Ramp(Anchor, base, steps) with alpha opacity. Non-finite values are ignored.
// It returns nil when no finite value remains. A degenerate range gives one bin.
func ClassifyNumeric(values []float64, steps int, base Color, opacity float64) *NumericResult {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil
	}

	steps = ClampSteps(steps)
	lo, hi := stats.Bounds(finite)

	res := &NumericResult{
		Min:  lo,
		Max:  hi,
		Mean: stats.Mean(finite),
	}

	if hi == lo {
		res.Bins = []Bin{{
			Start: lo,
			End:   hi,
			Color: base.WithOpacity(opacity),
		}}
		return res
	}

	colors := Ramp(Anchor, base.WithOpacity(1), steps)
	size := (hi - lo) / float64(steps)
	// the range itself may exceed the float64 maximum
	overflow := math.IsInf(size, 0)

	res.Bins = make([]Bin, steps)
	start := lo
	for i := range res.Bins {
		var end float64
		switch {
		case i == steps-1:
			end = hi
		case overflow:
			t := float64(i+1) / float64(steps)
			end = math.Min(math.Max(lo*(1-t)+hi*t, start), hi)
		default:
			end = lo + float64(i+1)*size
		}

		res.Bins[i] = Bin{
			Start: start,
			End:   end,
			Color: colors[i].WithOpacity(opacity),
		}
		start = end
	}

	return res
}

// NumericResolver maps a raw value to the color of the first bin containing it.
type NumericResolver struct {
	bins []Bin
}

// Resolve coerces v to a number and looks it up; unclassifiable values get Fallback.
func (r NumericResolver) Resolve(v any) Color {
	f, ok := ToNumber(v)
	if !ok {
		return Fallback
	}
	if b, ok := r.Bin(f); ok {
		return b.Color
	}
	return Fallback
}

// Bin returns the first bin in ascending order whose range contains v.
func (r NumericResolver) Bin(v float64) (Bin, bool) {
	// Bins are contiguous and ascending, so the first bin whose End reaches v
	// is the first one that can contain it.
	idx := sort.Search(len(r.bins), func(i int) bool {
		return r.bins[i].End >= v
	})
	if idx == len(r.bins) || !r.bins[idx].Contains(v) {
		return Bin{}, false
	}
	return r.bins[idx], true
}
