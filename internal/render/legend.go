package render

import (
	"bytes"
	"strconv"
	"text/template"

	"github.com/woozymasta/choromap/internal/thematic"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
)

const (
	legendWidth  = 220
	legendRow    = 22
	legendHeader = 34
)

var legendTemplate = template.Must(template.New("legend").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="{{ .Width }}" height="{{ .Height }}" viewBox="0 0 {{ .Width }} {{ .Height }}">
  <rect x="0" y="0" width="{{ .Width }}" height="{{ .Height }}" rx="8" ry="8" fill="#ffffff"/>
  <text x="12" y="22" font-family="sans-serif" font-size="14" font-weight="bold">{{ html .Title }}</text>
  {{- range .Rows }}
  <rect x="12" y="{{ .Y }}" width="24" height="16" fill="{{ .Fill }}" fill-opacity="{{ .Opacity }}" stroke="{{ .Stroke }}" stroke-width="1"/>
  <text x="44" y="{{ .TextY }}" font-family="sans-serif" font-size="13">{{ html .Label }}</text>
  {{- end }}
</svg>
`))

type legendRowData struct {
	Label   string
	Fill    string
	Stroke  string
	Opacity string
	Y       int
	TextY   int
}

// LegendSVG renders legend items as a minified SVG document. Swatch borders use
// the shaded variant of each color.
func LegendSVG(title string, items []thematic.LegendItem) ([]byte, error) {
	rows := make([]legendRowData, len(items))
	for i, it := range items {
		y := legendHeader + i*legendRow
		rows[i] = legendRowData{
			Label:   it.Label,
			Fill:    it.Color.Hex(),
			Stroke:  thematic.Interpolate(it.Color, 1).Hex(),
			Opacity: strconv.FormatFloat(it.Color.A, 'f', -1, 64),
			Y:       y,
			TextY:   y + 13,
		}
	}

	var buf bytes.Buffer
	err := legendTemplate.Execute(&buf, struct {
		Title  string
		Rows   []legendRowData
		Width  int
		Height int
	}{
		Title:  title,
		Rows:   rows,
		Width:  legendWidth,
		Height: legendHeader + len(items)*legendRow + 8,
	})
	if err != nil {
		return nil, err
	}

	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)

	return m.Bytes("image/svg+xml", buf.Bytes())
}
