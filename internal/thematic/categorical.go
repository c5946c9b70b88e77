package thematic

import (
	"image/color"

	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-gg/palette/brewer"
)

// CategoryEntry is one distinct category key and its color.
type CategoryEntry struct {
	Key   string `json:"key" yaml:"key"`
	Color Color  `json:"color" yaml:"color"`
}

// CategoricalResult is the categorical variant of Result.
type CategoricalResult struct {
	Entries []CategoryEntry `json:"entries" yaml:"entries"`
}

func (*CategoricalResult) Kind() Kind { return KindCategorical }

// Resolver returns the key lookup over the result entries.
func (r *CategoricalResult) Resolver() Resolver {
	index := make(map[string]Color, len(r.Entries))
	for _, e := range r.Entries {
		index[e.Key] = e.Color
	}
	return CategoricalResolver{index: index}
}

func (*CategoricalResult) sealed() {}

// ClassifyCategorical assigns a color to every distinct key of values, in
// first-occurrence order. A non-empty palette is used cyclically, otherwise
// QualitativePalette sized to the key count. Every color gets alpha opacity.
func ClassifyCategorical(values []any, opacity float64, pal []Color) *CategoricalResult {
	var keys []string
	seen := make(map[string]bool)
	for _, v := range values {
		k := CategoryKey(v)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}

	if len(pal) == 0 {
		pal = QualitativePalette(len(keys))
	}

	res := &CategoricalResult{Entries: make([]CategoryEntry, len(keys))}
	for i, k := range keys {
		res.Entries[i] = CategoryEntry{
			Key:   k,
			Color: pal[i%len(pal)].WithOpacity(opacity),
		}
	}

	return res
}

// CategoricalResolver maps a raw value to the color of its category key.
type CategoricalResolver struct {
	index map[string]Color
}

// Resolve returns the key color, or Fallback for keys outside the classified sample.
func (r CategoricalResolver) Resolve(v any) Color {
	if c, ok := r.index[CategoryKey(v)]; ok {
		return c
	}
	return Fallback
}

// set3 is the 12-level ColorBrewer Set3 qualitative palette.
var set3 = func() []color.RGBA {
	src := brewer.Set3_12
	out := make([]color.RGBA, len(src))
	for i, c := range src {
		out[i] = color.RGBAModel.Convert(c).(color.RGBA)
	}
	return out
}()

// QualitativePalette returns n opaque colors sampled evenly along a gradient
// through Set3, from its first to its last color.
func QualitativePalette(n int) []Color {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []Color{fromRGBA(set3[0])}
	}

	grad := palette.RGBGradient{Colors: set3}
	out := make([]Color, n)
	for i := range out {
		c := grad.Map(float64(i) / float64(n-1))
		out[i] = fromRGBA(color.RGBAModel.Convert(c).(color.RGBA))
	}

	return out
}

func fromRGBA(c color.RGBA) Color {
	return Color{R: c.R, G: c.G, B: c.B, A: 1}
}
