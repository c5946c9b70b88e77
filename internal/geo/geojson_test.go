package geo_test

import (
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/choromap/internal/geo"
)

const districts = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Akyurt", "pop": 38000},
     "geometry": {"type": "Polygon", "coordinates": [[[32.9,40.1],[33.1,40.1],[33.1,40.2],[32.9,40.2],[32.9,40.1]]]}},
    {"type": "Feature", "properties": {"name": "Ayas", "pop": null},
     "geometry": {"type": "Point", "coordinates": [32.3, 40.0]}}
  ]
}`

const districtsYAML = `
type: FeatureCollection
features:
  - type: Feature
    properties: {name: Akyurt, pop: 38000}
    geometry: {type: Point, coordinates: [32.9, 40.1]}
`

func TestDecodeGeoJSON(t *testing.T) {
	fc, err := geo.Decode([]byte(districts), "geojson")
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	assert.Equal(t, "Akyurt", fc.Features[0].Properties["name"])
	assert.Equal(t, 38000.0, fc.Features[0].Properties["pop"])
	assert.Nil(t, fc.Features[1].Properties["pop"])
	assert.Equal(t, orb.Point{32.3, 40.0}, fc.Features[1].Geometry)
}

func TestDecodeYAML(t *testing.T) {
	fc, err := geo.Decode([]byte(districtsYAML), ".yml")
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, 38000.0, fc.Features[0].Properties["pop"])
}

func TestDecodeErrors(t *testing.T) {
	_, err := geo.Decode([]byte(districts), "kml")
	assert.ErrorIs(t, err, geo.ErrUnsupportedFormat)

	_, err = geo.Decode([]byte(`{"type":"Feature","properties":{}}`), "json")
	assert.ErrorIs(t, err, geo.ErrNotFeatureCollection)

	_, err = geo.Decode([]byte(`{`), "json")
	assert.Error(t, err)

	_, err = geo.FromInline(nil)
	assert.ErrorIs(t, err, geo.ErrNotFeatureCollection)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "districts.geojson")
	require.NoError(t, os.WriteFile(path, []byte(districts), 0644))

	fc, err := geo.Load(http.DefaultClient, path)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	_, err = geo.LoadFile(filepath.Join(dir, "missing.geojson"))
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/districts.geojson":
			_, _ = w.Write([]byte(districts))
		case "/districts.yaml":
			_, _ = w.Write([]byte(districtsYAML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fc, err := geo.Load(srv.Client(), srv.URL+"/districts.geojson")
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	fc, err = geo.Load(srv.Client(), srv.URL+"/districts.yaml")
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	_, err = geo.Fetch(srv.Client(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestBound(t *testing.T) {
	fc, err := geo.Decode([]byte(districts), "json")
	require.NoError(t, err)

	b, ok := geo.Bound(fc)
	require.True(t, ok)
	assert.Equal(t, orb.Point{32.3, 40.0}, b.Min)
	assert.Equal(t, orb.Point{33.1, 40.2}, b.Max)

	_, ok = geo.Bound(nil)
	assert.False(t, ok)
}

func TestMercator(t *testing.T) {
	x, y := geo.Mercator(0, 0)
	assert.InDelta(t, 0.5, x, 1e-12)
	assert.InDelta(t, 0.5, y, 1e-12)

	x, y = geo.Mercator(-180, geo.MaxLat)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-6)

	_, y = geo.Mercator(180, -90)
	assert.InDelta(t, 1, y, 1e-6)
	assert.False(t, math.IsNaN(y))

	// north is up
	_, north := geo.Mercator(32.85, 40)
	_, south := geo.Mercator(32.85, 39)
	assert.Less(t, north, south)
}
