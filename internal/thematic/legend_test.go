package thematic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/woozymasta/choromap/internal/thematic"
)

func TestRangeLabel(t *testing.T) {
	assert.Equal(t, "10 - 18", thematic.RangeLabel(10, 18))
	assert.Equal(t, "3 - 4", thematic.RangeLabel(2.5, 3.7))
	assert.Equal(t, "0 - 1", thematic.RangeLabel(-0.4, 0.6))
	assert.Equal(t, "-3 - -1", thematic.RangeLabel(-2.5, -1.2))
}

func TestNoDataLabel(t *testing.T) {
	assert.Equal(t, "Veri Yok", thematic.NoDataLabel("tr"))
	assert.Equal(t, "Keine Daten", thematic.NoDataLabel("de-AT"))
	assert.Equal(t, "No data", thematic.NoDataLabel("xx"))
	assert.Equal(t, "No data", thematic.NoDataLabel(""))
}

func TestLegendBuilderNoDataLabel(t *testing.T) {
	res := thematic.ClassifyCategorical([]any{"a", nil}, 1, nil)
	items := thematic.LegendBuilder{NoDataLabel: "Veri Yok"}.Build(res)
	assert.Equal(t, "a", items[0].Label)
	assert.Equal(t, "Veri Yok", items[1].Label)
	assert.Equal(t, res.Entries[1].Color, items[1].Color)
}

func TestLegendNilResult(t *testing.T) {
	assert.Empty(t, thematic.BuildLegend(nil))

	var num *thematic.NumericResult
	assert.Empty(t, thematic.BuildLegend(num))
}
