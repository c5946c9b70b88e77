// Package geo handles feature-collection loading and coordinate projection.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for inputs other than GeoJSON or YAML.
	ErrUnsupportedFormat = errors.New("unsupported feature collection format")

	// ErrNotFeatureCollection is returned when the document is valid but not a FeatureCollection.
	ErrNotFeatureCollection = errors.New("document is not a FeatureCollection")
)

// Format names accepted by Decode.
const (
	FormatGeoJSON = "geojson"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatYML     = "yml"
)

// Decode parses a FeatureCollection encoded as GeoJSON or as its YAML equivalent.
func Decode(data []byte, format string) (*geojson.FeatureCollection, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case FormatGeoJSON, FormatJSON, "":
		return decodeJSON(data)

	case FormatYAML, FormatYML:
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return FromInline(doc)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// FromInline converts a generic document, such as a YAML node decoded from a
// config file, into a FeatureCollection.
func FromInline(doc map[string]interface{}) (*geojson.FeatureCollection, error) {
	if doc == nil {
		return nil, ErrNotFeatureCollection
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode inline features: %w", err)
	}

	return decodeJSON(data)
}

// LoadFile reads a FeatureCollection from disk, picking the format by extension.
func LoadFile(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return fc, nil
}

// Fetch downloads a GeoJSON FeatureCollection.
func Fetch(client *http.Client, url string) (*geojson.FeatureCollection, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	format := FormatGeoJSON
	if ext := strings.ToLower(filepath.Ext(resp.Request.URL.Path)); ext == ".yaml" || ext == ".yml" {
		format = FormatYAML
	}

	return Decode(data, format)
}

// Load reads source as an http(s) URL or a local path.
func Load(client *http.Client, source string) (*geojson.FeatureCollection, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		log.Debug().Str("url", source).Msg("Fetching feature collection")
		return Fetch(client, source)
	}

	log.Debug().Str("path", source).Msg("Reading feature collection")
	return LoadFile(source)
}

// Bound returns the union of the bounds of every non-nil geometry and false
// when the collection has no geometry at all.
func Bound(fc *geojson.FeatureCollection) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)

	if fc == nil {
		return b, false
	}

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		gb := f.Geometry.Bound()
		if !found {
			b, found = gb, true
			continue
		}
		b = b.Union(gb)
	}

	return b, found
}

func decodeJSON(data []byte) (*geojson.FeatureCollection, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if probe.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type %q", ErrNotFeatureCollection, probe.Type)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	return fc, nil
}
