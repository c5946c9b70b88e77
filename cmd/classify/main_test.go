package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const input = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"pop": 10, "zone": "a"}, "geometry": {"type": "Point", "coordinates": [1, 1]}},
    {"type": "Feature", "properties": {"pop": 20, "zone": "b"}, "geometry": {"type": "Point", "coordinates": [2, 2]}},
    {"type": "Feature", "properties": {"pop": 30, "zone": ""}, "geometry": {"type": "Point", "coordinates": [3, 3]}}
  ]
}`

func defaultOptions() Options {
	return Options{Format: "json", Color: "#6495ED", Opacity: 80, Steps: 3}
}

func TestRunList(t *testing.T) {
	opts := defaultOptions()
	opts.List = true

	var out bytes.Buffer
	require.NoError(t, run(opts, strings.NewReader(input), &out))
	assert.JSONEq(t, `["pop","zone"]`, out.String())
}

func TestRunNumeric(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(defaultOptions(), strings.NewReader(input), &out))

	var c struct {
		Kind   string `json:"kind"`
		Params struct {
			Attribute string `json:"attribute"`
		} `json:"params"`
		Legend []struct {
			Label string `json:"label"`
		} `json:"legend"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &c))
	assert.Equal(t, "numeric", c.Kind)
	assert.Equal(t, "pop", c.Params.Attribute)
	require.Len(t, c.Legend, 3)
	assert.Equal(t, "10 - 17", c.Legend[0].Label)
}

func TestRunCategoricalYAML(t *testing.T) {
	opts := defaultOptions()
	opts.Attribute = "zone"
	opts.Format = "yaml"
	opts.Lang = "tr"

	var out bytes.Buffer
	require.NoError(t, run(opts, strings.NewReader(input), &out))

	var c struct {
		Kind   string `yaml:"kind"`
		Legend []struct {
			Label string `yaml:"label"`
		} `yaml:"legend"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &c))
	assert.Equal(t, "categorical", c.Kind)
	require.Len(t, c.Legend, 3)
	assert.Equal(t, "Veri Yok", c.Legend[2].Label)
}

func TestRunStyledToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.geojson")
	require.NoError(t, os.WriteFile(in, []byte(input), 0644))

	opts := defaultOptions()
	opts.Input = in
	opts.Output = filepath.Join(dir, "out.geojson")
	opts.Styled = true

	require.NoError(t, run(opts, nil, nil))

	data, err := os.ReadFile(opts.Output)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 3)
	assert.Contains(t, fc.Features[0].Properties, "fill")
	assert.Contains(t, fc.Features[0].Properties, "fill-opacity")
}

func TestRunEmptyCollection(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(defaultOptions(), strings.NewReader(`{"type":"FeatureCollection","features":[]}`), &out))

	var c struct {
		Kind     string            `json:"kind"`
		Features int               `json:"features"`
		Legend   []json.RawMessage `json:"legend"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &c))
	assert.Equal(t, "none", c.Kind)
	assert.Zero(t, c.Features)
	assert.NotNil(t, c.Legend)
	assert.Empty(t, c.Legend)
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(defaultOptions(), strings.NewReader("{"), &out))

	opts := defaultOptions()
	opts.Input = filepath.Join(t.TempDir(), "missing.geojson")
	assert.Error(t, run(opts, nil, &out))
}
