package server

import (
	"net/http"
	"sort"
	"sync/atomic"

	"github.com/woozymasta/choromap/internal/config"
	"github.com/woozymasta/choromap/internal/metrics"
	"github.com/woozymasta/choromap/internal/render"
	"github.com/woozymasta/choromap/internal/thematic"

	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Layer is a loaded thematic layer with its live classification.
type Layer struct {
	config.Layer

	Features   *geojson.FeatureCollection
	Attributes []string

	recomputer *thematic.Recomputer
	// set once a restyle was applied; pre-rendered tiles no longer match
	restyled atomic.Bool
}

// Classification returns the current classification of the layer.
func (l *Layer) Classification() *thematic.Classification {
	return l.recomputer.Current()
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config            *config.Config
	Layers            []*Layer
	LayerNameResolver map[string]*Layer
	TransparentTile   []byte
}

// NewServerContext loads the features of every configured layer and classifies them.
// Layers whose features fail to load are logged and skipped.
func NewServerContext(cfg *config.Config, client *http.Client) *ServerContext {
	log.Info().Int("config_layers_count", len(cfg.Layers)).Msg("Initializing server context")

	if client == nil {
		client = http.DefaultClient
	}

	resolver := make(map[string]*Layer)
	layers := make([]*Layer, 0, len(cfg.Layers))

	for i := range cfg.Layers {
		layer, err := loadLayer(client, cfg.Layers[i])
		if err != nil {
			log.Warn().
				Err(err).
				Str("layer", cfg.Layers[i].Name).
				Msg("Skipping layer: features could not be loaded")
			continue
		}

		resolver[layer.Name] = layer
		for _, alias := range layer.Aliases {
			resolver[alias] = layer
		}

		c := layer.Classification()
		log.Debug().
			Str("layer", layer.Name).
			Int("features", len(layer.Features.Features)).
			Str("attribute", c.Params.Attribute).
			Str("kind", c.Kind.String()).
			Msg("Layer loaded and classified")

		layers = append(layers, layer)
	}

	sort.Slice(layers, func(i, j int) bool {
		idxI, idxJ := 999999, 999999
		if layers[i].Index != nil {
			idxI = *layers[i].Index
		}
		if layers[j].Index != nil {
			idxJ = *layers[j].Index
		}
		if idxI != idxJ {
			return idxI < idxJ
		}

		return layers[i].Name < layers[j].Name
	})

	tile, err := render.TransparentTile(config.DefaultTileSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode transparent tile")
	}

	log.Info().
		Int("valid_layers_count", len(layers)).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:            cfg,
		Layers:            layers,
		LayerNameResolver: resolver,
		TransparentTile:   tile,
	}
}

func loadLayer(client *http.Client, cfg config.Layer) (*Layer, error) {
	fc, err := cfg.LoadFeatures(client)
	if err != nil {
		return nil, err
	}

	layer := &Layer{
		Layer:      cfg,
		Features:   fc,
		Attributes: thematic.Attributes(fc),
		recomputer: newRecomputer(cfg.Name),
	}

	timer := prometheus.NewTimer(metrics.ClassificationDuration)
	layer.recomputer.Recompute(fc, cfg.ParamsFor(fc))
	timer.ObserveDuration()

	return layer, nil
}

func newRecomputer(name string) *thematic.Recomputer {
	r := thematic.NewRecomputer()
	r.OnApply = func(c *thematic.Classification) {
		metrics.ClassificationsTotal.WithLabelValues(name, c.Kind.String()).Inc()
		metrics.LegendItems.WithLabelValues(name).Set(float64(len(c.Legend)))
	}
	r.OnDiscard = func(*thematic.Classification) {
		metrics.ClassificationsDiscarded.WithLabelValues(name).Inc()
	}
	return r
}
