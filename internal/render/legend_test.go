package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/choromap/internal/render"
	"github.com/woozymasta/choromap/internal/thematic"
)

func TestLegendSVG(t *testing.T) {
	items := []thematic.LegendItem{
		{Label: "0 - 10", Color: thematic.Color{R: 10, G: 20, B: 30, A: 0.8}},
		{Label: "a<b", Color: thematic.Color{R: 200, G: 100, B: 50, A: 0.8}},
		{Label: "No data", Color: thematic.Fallback},
	}

	data, err := render.LegendSVG("Population", items)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, "<svg")
	assert.Contains(t, s, "Population")
	assert.Contains(t, s, "0 - 10")
	assert.Contains(t, s, "No data")
	assert.NotContains(t, s, "a<b")
}

func TestLegendSVGEmpty(t *testing.T) {
	data, err := render.LegendSVG("", nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}
