// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/woozymasta/choromap/internal/geo"
	"github.com/woozymasta/choromap/internal/thematic"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Default render settings applied by Normalize.
const (
	DefaultZoom     = 4
	DefaultSize     = 1024
	DefaultTileSize = 256
	DefaultCacheDir = "maps"
)

// Config represents the root configuration file structure.
type Config struct {
	Defaults  Style   `yaml:"defaults,omitempty" json:"defaults"`
	Layers    []Layer `yaml:"layers" json:"layers"`
	ZoomLimit int     `yaml:"zoom,omitempty" json:"zoom"`
	CacheDir  string  `yaml:"cache_dir,omitempty" json:"-"`
}

// Style holds the classification inputs shared by Config defaults and layers.
// Zero values inherit from the defaults.
type Style struct {
	Attribute   string   `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Color       string   `yaml:"color,omitempty" json:"color,omitempty"`
	NoDataLabel string   `yaml:"no_data_label,omitempty" json:"no_data_label,omitempty"`
	Palette     []string `yaml:"palette,omitempty" json:"palette,omitempty"`
	Opacity     *float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"` // percent
	Steps       int      `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Layer represents a single thematic layer.
type Layer struct {
	Index *int `yaml:"index,omitempty" json:"index,omitempty"`

	// defining GeoJSON directly in config.yaml
	FeaturesInline map[string]interface{} `yaml:"features_geojson,omitempty" json:"-"`

	Style `yaml:",inline"`

	Name      string   `yaml:"name" json:"name"`
	Source    string   `yaml:"source,omitempty" json:"-"`
	Title     string   `yaml:"title,omitempty" json:"title,omitempty"`
	Aliases   []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	ZoomLimit int      `yaml:"zoom,omitempty" json:"zoom"`
	Size      int      `yaml:"size,omitempty" json:"size"`
	TileSize  int      `yaml:"tile_size,omitempty" json:"tile_size"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills unset layer fields from the defaults and rejects layers
// without a name or features.
func (c *Config) Normalize() error {
	base := thematic.DefaultParams()
	if c.Defaults.Color == "" {
		c.Defaults.Color = base.Color
	}
	if c.Defaults.Opacity == nil {
		opacity := base.Opacity
		c.Defaults.Opacity = &opacity
	}
	if c.Defaults.Steps <= 0 {
		c.Defaults.Steps = base.Steps
	}
	if c.Defaults.NoDataLabel == "" {
		c.Defaults.NoDataLabel = base.NoDataLabel
	}
	if c.ZoomLimit <= 0 {
		c.ZoomLimit = DefaultZoom
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}

	seen := make(map[string]bool, len(c.Layers))
	for i := range c.Layers {
		layer := &c.Layers[i]

		if layer.Name == "" {
			return fmt.Errorf("layer #%d: name is required", i)
		}
		if seen[layer.Name] {
			return fmt.Errorf("layer %q: duplicate name", layer.Name)
		}
		seen[layer.Name] = true

		if layer.Source == "" && layer.FeaturesInline == nil {
			return fmt.Errorf("layer %q: source or features_geojson is required", layer.Name)
		}

		layer.Style = layer.Style.inherit(c.Defaults)

		if layer.ZoomLimit <= 0 {
			layer.ZoomLimit = c.ZoomLimit
		}
		if layer.Size <= 0 {
			layer.Size = DefaultSize
		}
		if layer.TileSize <= 0 {
			layer.TileSize = DefaultTileSize
		}
	}

	return nil
}

// LoadFeatures reads the layer collection from features_geojson or its source.
func (l Layer) LoadFeatures(client *http.Client) (*geojson.FeatureCollection, error) {
	if l.FeaturesInline != nil {
		return geo.FromInline(l.FeaturesInline)
	}
	return geo.Load(client, l.Source)
}

// ParamsFor returns the layer parameters, picking the first attribute of fc
// when none is configured.
func (l Layer) ParamsFor(fc *geojson.FeatureCollection) thematic.Params {
	p := l.Params()
	if p.Attribute != "" {
		return p
	}

	if attrs := thematic.Attributes(fc); len(attrs) > 0 {
		p.Attribute = attrs[0]
		log.Debug().
			Str("layer", l.Name).
			Str("attribute", p.Attribute).
			Msg("No attribute configured, using the first one")
	}

	return p
}

// Params converts the style into classification parameters.
func (s Style) Params() thematic.Params {
	p := thematic.Params{
		Attribute:   s.Attribute,
		Color:       s.Color,
		Steps:       s.Steps,
		Palette:     s.Palette,
		NoDataLabel: s.NoDataLabel,
		Opacity:     thematic.DefaultParams().Opacity,
	}
	if s.Opacity != nil {
		p.Opacity = *s.Opacity
	}
	return p
}

func (s Style) inherit(d Style) Style {
	if s.Attribute == "" {
		s.Attribute = d.Attribute
	}
	if s.Color == "" {
		s.Color = d.Color
	}
	if s.Opacity == nil {
		s.Opacity = d.Opacity
	}
	if s.Steps <= 0 {
		s.Steps = d.Steps
	}
	if len(s.Palette) == 0 {
		s.Palette = d.Palette
	}
	if s.NoDataLabel == "" {
		s.NoDataLabel = d.NoDataLabel
	}
	return s
}
