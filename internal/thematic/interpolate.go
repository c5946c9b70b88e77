package thematic

import "math"

// Interpolate darkens base by DarknessFactor*ratio on every channel.
// Ratio is clamped to [0, 1]; alpha is kept. Each channel is non-increasing in ratio.
func Interpolate(base Color, ratio float64) Color {
	if math.IsNaN(ratio) {
		ratio = 0
	}
	ratio = clamp01(ratio)

	f := 1 - DarknessFactor*ratio
	shade := func(c uint8) uint8 {
		return uint8(math.Round(float64(c) * f))
	}

	return Color{
		R: shade(base.R),
		G: shade(base.G),
		B: shade(base.B),
		A: base.A,
	}
}

// Ramp returns n colors blended in CIE-Lab space from "from" to "to".
// Sample i sits at i/(n-1); a single sample is "to" itself. Returned colors are opaque.
func Ramp(from, to Color, n int) []Color {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []Color{to.WithOpacity(1)}
	}

	a, b := from.colorful(), to.colorful()
	out := make([]Color, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		out[i] = fromColorful(a.BlendLab(b, t), 1)
	}

	// Keep the endpoints exact regardless of Lab round trips.
	out[0] = from.WithOpacity(1)
	out[n-1] = to.WithOpacity(1)

	return out
}
