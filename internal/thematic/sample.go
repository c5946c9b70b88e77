// Package thematic classifies feature attributes and assigns colors for choropleth maps.
//
// The flow is Sample -> InferKind -> ClassifyNumeric | ClassifyCategorical ->
// legend and Resolver. Classify wires the whole flow for one set of Params.
package thematic

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// EmptyKey is the category key for null, absent and empty-string values.
const EmptyKey = "empty"

// Kind is the inferred classification strategy of an attribute.
type Kind int

const (
	// KindNone means no classification was performed.
	KindNone Kind = iota
	KindNumeric
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sample holds the values of one attribute across a collection, in feature order.
// Absent properties are stored as nil.
type Sample struct {
	Attribute string
	Values    []any
}

// Len returns the number of sampled values.
func (s Sample) Len() int {
	return len(s.Values)
}

// SampleAttribute extracts the named property from every feature.
// A nil or empty collection gives an empty sample.
func SampleAttribute(fc *geojson.FeatureCollection, attribute string) Sample {
	s := Sample{Attribute: attribute}
	if fc == nil || len(fc.Features) == 0 {
		return s
	}

	s.Values = make([]any, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		s.Values[i] = f.Properties[attribute]
	}

	return s
}

// Attributes lists the property names usable for classification: keys seen on any
// feature, in first-occurrence order, whose value on the first feature is a string,
// number or boolean. Keys of a single feature are visited in sorted order.
func Attributes(fc *geojson.FeatureCollection) []string {
	if fc == nil || len(fc.Features) == 0 || fc.Features[0] == nil {
		return nil
	}

	first := fc.Features[0].Properties
	seen := make(map[string]bool)
	var out []string

	for _, f := range fc.Features {
		if f == nil {
			continue
		}

		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if seen[k] {
				continue
			}
			seen[k] = true

			if isScalar(first[k]) {
				out = append(out, k)
			}
		}
	}

	return out
}

// InferKind picks one strategy for the whole sample: numeric when at least one value
// coerces to a finite number, categorical otherwise. An empty sample has KindNone.
func InferKind(s Sample) Kind {
	if len(s.Values) == 0 {
		return KindNone
	}
	if len(s.Numbers()) > 0 {
		return KindNumeric
	}
	return KindCategorical
}

// Numbers returns the finite numeric coercions of the sample, in order.
func (s Sample) Numbers() []float64 {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if f, ok := ToNumber(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// ToNumber coerces a raw attribute value to a finite number.
// Strings are trimmed and parsed; nil, empty strings, booleans and composite values fail.
func ToNumber(v any) (float64, bool) {
	var f float64

	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		t := strings.TrimSpace(x)
		if t == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// CategoryKey returns the string key of a raw value, EmptyKey for nil and "".
func CategoryKey(v any) string {
	switch x := v.(type) {
	case nil:
		return EmptyKey
	case string:
		if x == "" {
			return EmptyKey
		}
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
