package thematic_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/choromap/internal/thematic"
)

func TestClassifyNumericScenario(t *testing.T) {
	res := thematic.ClassifyNumeric(
		[]float64{10, 20, 30, 40, 50}, 5, thematic.HexOrGray("#6495ED"), 1.0)
	require.NotNil(t, res)

	assert.Equal(t, 10.0, res.Min)
	assert.Equal(t, 50.0, res.Max)
	assert.Equal(t, 30.0, res.Mean)
	require.Len(t, res.Bins, 5)

	for i, b := range res.Bins {
		assert.Equal(t, 10+8*float64(i), b.Start)
		assert.Equal(t, 18+8*float64(i), b.End)
		assert.Equal(t, 1.0, b.Color.A)
		if i > 0 {
			assert.Less(t, lightness(b.Color), lightness(res.Bins[i-1].Color))
		}
	}

	labels := make([]string, 0, len(res.Bins))
	for _, item := range thematic.BuildLegend(res) {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{"10 - 18", "18 - 26", "26 - 34", "34 - 42", "42 - 50"}, labels)
}

func TestClassifyNumericDegenerate(t *testing.T) {
	base := thematic.HexOrGray("#336699")
	res := thematic.ClassifyNumeric([]float64{7, 7, 7}, 10, base, 0.5)
	require.NotNil(t, res)
	require.Len(t, res.Bins, 1)

	assert.Equal(t, thematic.Bin{Start: 7, End: 7, Color: base.WithOpacity(0.5)}, res.Bins[0])

	r := res.Resolver()
	assert.Equal(t, res.Bins[0].Color, r.Resolve(7))
	assert.Equal(t, res.Bins[0].Color, r.Resolve("7"))
	assert.Equal(t, thematic.Fallback, r.Resolve(8))
}

func TestClassifyNumericNoFinite(t *testing.T) {
	assert.Nil(t, thematic.ClassifyNumeric(nil, 3, thematic.Gray, 1))
	assert.Nil(t, thematic.ClassifyNumeric([]float64{math.NaN(), math.Inf(1)}, 3, thematic.Gray, 1))
}

func TestClassifyNumericClampsSteps(t *testing.T) {
	values := []float64{0, 1}
	assert.Len(t, thematic.ClassifyNumeric(values, 0, thematic.Gray, 1).Bins, 1)
	assert.Len(t, thematic.ClassifyNumeric(values, -4, thematic.Gray, 1).Bins, 1)
	assert.Len(t, thematic.ClassifyNumeric(values, 5000, thematic.Gray, 1).Bins, thematic.MaxSteps)
}

func TestClassifyNumericProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 50; round++ {
		n := 2 + rng.Intn(200)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.NormFloat64()*1e3 + float64(i)*1e-3
		}
		k := 1 + rng.Intn(40)

		res := thematic.ClassifyNumeric(values, k, thematic.HexOrGray("#800026"), 0.7)
		require.NotNil(t, res)
		require.Len(t, res.Bins, k)

		assert.Equal(t, res.Min, res.Bins[0].Start)
		assert.Equal(t, res.Max, res.Bins[k-1].End)
		for i := 1; i < k; i++ {
			assert.Equal(t, res.Bins[i-1].End, res.Bins[i].Start)
		}

		r := res.Resolver().(thematic.NumericResolver)
		for _, v := range values {
			b, ok := r.Bin(v)
			require.True(t, ok, "value %v unresolved", v)
			assert.Equal(t, b.Color, r.Resolve(v))

			// the chosen bin is the first one containing v
			for _, earlier := range res.Bins {
				if earlier == b {
					break
				}
				assert.False(t, earlier.Contains(v))
			}
		}
	}
}

func TestClassifyNumericHugeRange(t *testing.T) {
	res := thematic.ClassifyNumeric([]float64{-1e308, 1e308}, 4, thematic.HexOrGray("#6495ED"), 1)
	require.NotNil(t, res)
	require.Len(t, res.Bins, 4)

	assert.Equal(t, -1e308, res.Bins[0].Start)
	assert.Equal(t, 1e308, res.Bins[3].End)
	for i, b := range res.Bins {
		assert.False(t, math.IsInf(b.Start, 0) || math.IsInf(b.End, 0), "bin %d: %v", i, b)
		assert.LessOrEqual(t, b.Start, b.End, "bin %d", i)
		if i > 0 {
			assert.Equal(t, res.Bins[i-1].End, b.Start)
		}
	}

	r := res.Resolver()
	assert.Equal(t, res.Bins[0].Color, r.Resolve(-1e308))
	assert.Equal(t, res.Bins[3].Color, r.Resolve(1e308))

	for _, item := range thematic.BuildLegend(res) {
		assert.NotContains(t, item.Label, "Inf")
	}
}

func TestNumericResolverBoundaries(t *testing.T) {
	res := thematic.ClassifyNumeric([]float64{0, 100}, 4, thematic.HexOrGray("#000000"), 1)
	require.NotNil(t, res)
	r := res.Resolver()

	// a shared boundary belongs to the lower bin
	assert.Equal(t, res.Bins[0].Color, r.Resolve(25))
	assert.Equal(t, res.Bins[1].Color, r.Resolve(25.0001))
	assert.Equal(t, res.Bins[3].Color, r.Resolve(100))
	assert.Equal(t, res.Bins[0].Color, r.Resolve(0))

	assert.Equal(t, thematic.Fallback, r.Resolve(-0.5))
	assert.Equal(t, thematic.Fallback, r.Resolve(100.5))
	assert.Equal(t, thematic.Fallback, r.Resolve(nil))
	assert.Equal(t, thematic.Fallback, r.Resolve("abc"))
	assert.Equal(t, thematic.Fallback, r.Resolve(math.NaN()))
}

func TestClassifyNumericDeterministic(t *testing.T) {
	values := []float64{3.5, -2, 19, 4, 4, 11.25}
	a := thematic.ClassifyNumeric(values, 6, thematic.HexOrGray("#2c7fb8"), 0.8)
	b := thematic.ClassifyNumeric(values, 6, thematic.HexOrGray("#2c7fb8"), 0.8)
	assert.Equal(t, a, b)
}
