package thematic

import (
	"math"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Style property names written by StyleFeatures.
const (
	FillProperty        = "fill"
	FillOpacityProperty = "fill-opacity"
)

// Result is a classification outcome: *NumericResult or *CategoricalResult.
type Result interface {
	Kind() Kind
	Resolver() Resolver
	sealed()
}

// Resolver maps one feature's raw attribute value to its display color.
// Implementations never panic on unknown values; they return Fallback.
type Resolver interface {
	Resolve(v any) Color
}

// FallbackResolver resolves everything to Fallback. It is the resolver of an
// empty classification.
type FallbackResolver struct{}

func (FallbackResolver) Resolve(any) Color { return Fallback }

// ResolveFeature resolves the attribute of f, treating a nil feature as absent.
func ResolveFeature(r Resolver, f *geojson.Feature, attribute string) Color {
	if f == nil {
		return r.Resolve(nil)
	}
	return r.Resolve(f.Properties[attribute])
}

// Params are the inputs of a classification run besides the collection.
type Params struct {
	Attribute   string   `json:"attribute" yaml:"attribute"`
	Color       string   `json:"color" yaml:"color"`
	Opacity     float64  `json:"opacity" yaml:"opacity"` // percent, [0, 100]
	Steps       int      `json:"steps" yaml:"steps"`
	Palette     []string `json:"palette,omitempty" yaml:"palette,omitempty"`
	NoDataLabel string   `json:"no_data_label,omitempty" yaml:"no_data_label,omitempty"`
}

// DefaultParams returns the parameters used when nothing else is configured.
func DefaultParams() Params {
	return Params{
		Color:       "#6495ED",
		Opacity:     80,
		Steps:       3,
		NoDataLabel: DefaultNoDataLabel,
	}
}

// Alpha normalizes the percent opacity to [0, 1].
func (p Params) Alpha() float64 {
	if math.IsNaN(p.Opacity) {
		return 1
	}
	return clamp01(p.Opacity / 100)
}

// PaletteColors decodes the palette; malformed entries become Gray.
func (p Params) PaletteColors() []Color {
	if len(p.Palette) == 0 {
		return nil
	}
	out := make([]Color, len(p.Palette))
	for i, s := range p.Palette {
		c, err := ParseColor(s)
		if err != nil {
			c = Gray
		}
		out[i] = c.WithOpacity(1)
	}
	return out
}

// Classification is the complete output of one run. It is never mutated after
// Classify returns; a change of any input produces a new Classification.
type Classification struct {
	Params   Params       `json:"params" yaml:"params"`
	Kind     Kind         `json:"kind" yaml:"kind"`
	Features int          `json:"features" yaml:"features"`
	Result   Result       `json:"result,omitempty" yaml:"result,omitempty"`
	Legend   []LegendItem `json:"legend" yaml:"legend"`
	Resolver Resolver     `json:"-" yaml:"-"`
}

// Empty reports whether no classification was performed.
func (c *Classification) Empty() bool {
	return c == nil || c.Result == nil
}

// Resolve is a nil-safe shortcut for c.Resolver.Resolve.
func (c *Classification) Resolve(v any) Color {
	if c == nil || c.Resolver == nil {
		return Fallback
	}
	return c.Resolver.Resolve(v)
}

// Classify samples p.Attribute over fc, infers its kind, runs the matching
// classifier and builds the legend. An empty collection or attribute yields an
// empty classification whose resolver returns Fallback.
func Classify(fc *geojson.FeatureCollection, p Params) *Classification {
	c := &Classification{
		Params:   p,
		Kind:     KindNone,
		Legend:   []LegendItem{},
		Resolver: FallbackResolver{},
	}
	if fc != nil {
		c.Features = len(fc.Features)
	}

	if p.Attribute == "" || c.Features == 0 {
		log.Debug().
			Str("attribute", p.Attribute).
			Int("features", c.Features).
			Msg("Nothing to classify")
		return c
	}

	sample := SampleAttribute(fc, p.Attribute)
	kind := InferKind(sample)

	switch kind {
	case KindNumeric:
		if res := ClassifyNumeric(sample.Numbers(), p.Steps, HexOrGray(p.Color), p.Alpha()); res != nil {
			c.Result = res
		}
	case KindCategorical:
		c.Result = ClassifyCategorical(sample.Values, p.Alpha(), p.PaletteColors())
	}

	if c.Result == nil {
		return c
	}

	c.Kind = c.Result.Kind()
	c.Resolver = c.Result.Resolver()
	c.Legend = LegendBuilder{NoDataLabel: p.NoDataLabel}.Build(c.Result)

	log.Trace().
		Str("attribute", p.Attribute).
		Str("kind", c.Kind.String()).
		Int("legend_items", len(c.Legend)).
		Msg("Attribute classified")

	return c
}

// StyleFeatures returns a shallow copy of fc whose features carry the resolved
// fill color and opacity as properties. Geometries are shared with fc.
func StyleFeatures(fc *geojson.FeatureCollection, c *Classification) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out
	}

	attribute := ""
	if c != nil {
		attribute = c.Params.Attribute
	}

	for _, f := range fc.Features {
		if f == nil {
			continue
		}

		styled := geojson.NewFeature(f.Geometry)
		styled.ID = f.ID
		styled.BBox = f.BBox
		styled.Properties = make(geojson.Properties, len(f.Properties)+2)
		for k, v := range f.Properties {
			styled.Properties[k] = v
		}

		col := c.Resolve(f.Properties[attribute])
		styled.Properties[FillProperty] = col.Hex()
		styled.Properties[FillOpacityProperty] = col.A

		out.Append(styled)
	}

	return out
}
