package thematic

import (
	"math"
	"strconv"
	"strings"
)

// DefaultNoDataLabel is the legend label of the sentinel category.
const DefaultNoDataLabel = "No data"

var noDataLabels = map[string]string{
	"en": DefaultNoDataLabel,
	"tr": "Veri Yok",
	"de": "Keine Daten",
	"fr": "Aucune donnée",
}

// NoDataLabel returns the localized sentinel label for a language tag such as
// "tr" or "de-AT". Unknown languages get DefaultNoDataLabel.
func NoDataLabel(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if l, ok := noDataLabels[lang]; ok {
		return l
	}
	return DefaultNoDataLabel
}

// LegendItem is one row of a legend.
type LegendItem struct {
	Label string `json:"label" yaml:"label"`
	Color Color  `json:"color" yaml:"color"`
}

// LegendBuilder renders classification results as legends.
type LegendBuilder struct {
	// NoDataLabel replaces the sentinel key; empty means DefaultNoDataLabel.
	NoDataLabel string
}

// BuildLegend renders r with the default no-data label.
func BuildLegend(r Result) []LegendItem {
	return LegendBuilder{}.Build(r)
}

// Build returns one item per bin or category entry, in classifier order.
// A nil result gives an empty legend.
func (lb LegendBuilder) Build(r Result) []LegendItem {
	switch res := r.(type) {
	case *NumericResult:
		if res == nil {
			return nil
		}
		items := make([]LegendItem, len(res.Bins))
		for i, b := range res.Bins {
			items[i] = LegendItem{
				Label: RangeLabel(b.Start, b.End),
				Color: b.Color,
			}
		}
		return items

	case *CategoricalResult:
		if res == nil {
			return nil
		}
		noData := lb.NoDataLabel
		if noData == "" {
			noData = DefaultNoDataLabel
		}
		items := make([]LegendItem, len(res.Entries))
		for i, e := range res.Entries {
			label := e.Key
			if label == EmptyKey {
				label = noData
			}
			items[i] = LegendItem{Label: label, Color: e.Color}
		}
		return items
	}

	return nil
}

// RangeLabel formats a bin as "<start> - <end>" with integer-rounded bounds.
func RangeLabel(start, end float64) string {
	return roundLabel(start) + " - " + roundLabel(end)
}

func roundLabel(v float64) string {
	r := math.Round(v)
	if r == 0 {
		// no "-0"
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}
