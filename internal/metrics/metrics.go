// Package metrics exposes prometheus collectors of the map service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classification runs that became current, by kind
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_classifications_total",
		Help: "Total number of applied classifications by value kind",
	}, []string{"layer", "kind"})

	// Runs superseded by a newer request or canceled
	ClassificationsDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "choromap_classifications_discarded_total",
		Help: "Total number of classification runs discarded as stale",
	}, []string{"layer"})

	ClassificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "choromap_classification_duration_seconds",
		Help:    "Time taken to classify one layer",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~0.8s
	})

	LegendItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "choromap_legend_items",
		Help: "Number of legend items of the current classification",
	}, []string{"layer"})

	// Rendering
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "choromap_render_duration_seconds",
		Help:    "Time taken to rasterize a layer preview",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
	})

	TilesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "choromap_tiles_written_total",
		Help: "Total number of tiles written to the render cache",
	})
)
