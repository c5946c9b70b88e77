package thematic_test

import (
	"encoding/json"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/choromap/internal/thematic"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want thematic.Color
	}{
		{"#6495ED", thematic.Color{R: 100, G: 149, B: 237, A: 1}},
		{"6495ed", thematic.Color{R: 100, G: 149, B: 237, A: 1}},
		{"#ccc", thematic.Color{R: 0xcc, G: 0xcc, B: 0xcc, A: 1}},
		{"#fdfb6fff", thematic.Color{R: 0xfd, G: 0xfb, B: 0x6f, A: 1}},
		{" #000000 ", thematic.Color{A: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := thematic.ParseHex(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHexAlpha(t *testing.T) {
	got, err := thematic.ParseHex("#ff000080")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), got.R)
	assert.InDelta(t, 128.0/255, got.A, 1e-9)
}

func TestParseHexMalformed(t *testing.T) {
	for _, in := range []string{"", "#", "#12345", "#12345g", "blue", "#1234567"} {
		_, err := thematic.ParseHex(in)
		assert.ErrorIs(t, err, thematic.ErrMalformedColor, in)
		assert.Equal(t, thematic.Gray, thematic.HexOrGray(in), in)
	}
}

func TestParseColorCSS(t *testing.T) {
	got, err := thematic.ParseColor("rgba(10, 20, 30, 0.5)")
	require.NoError(t, err)
	assert.Equal(t, thematic.Color{R: 10, G: 20, B: 30, A: 0.5}, got)

	got, err = thematic.ParseColor("RGB(1,2,3)")
	require.NoError(t, err)
	assert.Equal(t, thematic.Color{R: 1, G: 2, B: 3, A: 1}, got)

	_, err = thematic.ParseColor("rgb(256, 0, 0)")
	assert.ErrorIs(t, err, thematic.ErrMalformedColor)
}

func TestColorStrings(t *testing.T) {
	c := thematic.Color{R: 100, G: 149, B: 237, A: 1}
	assert.Equal(t, "#6495ed", c.Hex())
	assert.Equal(t, "rgb(100, 149, 237)", c.CSS())
	assert.Equal(t, "rgba(100, 149, 237, 0.8)", c.WithOpacity(0.8).CSS())
	assert.Equal(t, "rgba(100, 149, 237, 0)", c.WithOpacity(-3).String())
}

func TestColorTextRoundTrip(t *testing.T) {
	in := []thematic.Color{{R: 1, G: 2, B: 3, A: 0.25}, {R: 255, A: 1}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `["rgba(1, 2, 3, 0.25)", "rgb(255, 0, 0)"]`, string(data))

	var out []thematic.Color
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestColorRGBAPremultiplied(t *testing.T) {
	c := thematic.Color{R: 255, G: 0, B: 0, A: 0.5}
	got := color.RGBAModel.Convert(c).(color.RGBA)
	assert.Equal(t, uint8(128), got.A)
	assert.Equal(t, uint8(128), got.R)
	assert.Equal(t, uint8(0), got.G)
}
