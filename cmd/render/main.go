package main

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/woozymasta/choromap/internal/config"
	"github.com/woozymasta/choromap/internal/logger"
	"github.com/woozymasta/choromap/internal/render"
	"github.com/woozymasta/choromap/internal/thematic"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// largest world raster sliced into tiles
const maxWorldSize = 8192

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"       env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	Limit       []string `short:"l" long:"limit"        env:"LIMIT_NAMES"  description:"Limit processing to specific layer names"`
	Concurrency int      `short:"p" long:"concurrency"  env:"CONCURRENCY"  description:"Concurrency" default:"8"`
	ZoomLimit   int      `short:"z" long:"zoom-limit"   env:"ZOOM_LIMIT"   description:"Tiles zoom limit for layers without one"`
	OutputDir   string   `short:"o" long:"out"          env:"CACHE_DIR"    description:"Output directory, cache_dir of the config if empty"`
	PreviewOnly bool     `long:"preview-only"           description:"Render previews and legends only"`
	TilesOnly   bool     `long:"tiles-only"             description:"Render tiles only"`
	Force       bool     `short:"f" long:"force"        description:"Force overwrite of existing files"`
	FastCheck   bool     `short:"F" long:"fast-check"   description:"Skip layers whose output directory exists"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}

	if err := run(opts, cfg, client); err != nil {
		log.Fatal().Err(err).Msg("Render failed")
	}

	log.Info().Msg("Render finished successfully")
}

func run(opts Options, cfg *config.Config, client *http.Client) error {
	processTiles := true
	processPreview := true
	if opts.TilesOnly && !opts.PreviewOnly {
		processPreview = false
	} else if opts.PreviewOnly && !opts.TilesOnly {
		processTiles = false
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	outDir := cfg.CacheDir
	if opts.OutputDir != "" {
		outDir = opts.OutputDir
	}

	layers := selectLayers(cfg.Layers, opts.Limit)
	failed := 0

	log.Info().
		Int("layers_total", len(cfg.Layers)).
		Int("layers_queued", len(layers)).
		Bool("fast_check", opts.FastCheck).
		Str("out", outDir).
		Msg("Starting render")

	for _, layer := range layers {
		baseDir := filepath.Join(outDir, layer.Name)

		// Fast Check
		if opts.FastCheck {
			if _, err := os.Stat(baseDir); err == nil {
				log.Info().
					Str("layer", layer.Name).
					Msg("Layer directory exists, skipping (fast-check)")
				continue
			}
		}

		fc, err := layer.LoadFeatures(client)
		if err != nil {
			log.Error().Err(err).Str("layer", layer.Name).Msg("Failed to load features")
			failed++
			continue
		}

		c := thematic.Classify(fc, layer.ParamsFor(fc))
		log.Info().
			Str("layer", layer.Name).
			Str("attribute", c.Params.Attribute).
			Str("kind", c.Kind.String()).
			Int("features", c.Features).
			Msg("Layer classified")

		if processPreview {
			if err := writePreview(baseDir, layer, fc, c, opts.Force); err != nil {
				log.Error().Err(err).Str("layer", layer.Name).Msg("Failed to write preview")
				failed++
			}
		}

		if !processTiles {
			continue
		}

		zoomLimit := layer.ZoomLimit
		if opts.ZoomLimit > 0 && zoomLimit == cfg.ZoomLimit {
			zoomLimit = opts.ZoomLimit
		}

		worldSize := min(layer.TileSize<<zoomLimit, maxWorldSize)
		worldOpts := render.DefaultOptions(worldSize)
		worldOpts.World = true
		worldOpts.Padding = 0
		world := render.Render(fc, c.Params.Attribute, c.Resolver, worldOpts)

		n, err := render.SliceTiles(world, baseDir, zoomLimit, layer.TileSize, opts.Concurrency, opts.Force)
		if err != nil {
			log.Error().Err(err).Str("layer", layer.Name).Msg("Failed to slice tiles")
			failed++
		}
		log.Info().
			Str("layer", layer.Name).
			Int("zoom", zoomLimit).
			Int("tiles_written", n).
			Msg("Tiles rendered")
	}

	if failed > 0 {
		return fmt.Errorf("%d layer steps failed", failed)
	}

	return nil
}

// selectLayers filters layers by name in the order of names; unknown names are logged.
func selectLayers(layers []config.Layer, names []string) []config.Layer {
	if len(names) == 0 {
		return layers
	}

	available := make(map[string]config.Layer, len(layers))
	for _, l := range layers {
		available[l.Name] = l
	}

	out := make([]config.Layer, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		if l, ok := available[name]; ok {
			out = append(out, l)
		} else {
			log.Error().
				Str("name", name).
				Msg("Layer specified in --limit not found in configuration")
		}
	}

	return out
}

func writePreview(baseDir string, layer config.Layer, fc *geojson.FeatureCollection, c *thematic.Classification, force bool) error {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return err
	}

	previewPath := filepath.Join(baseDir, "preview.webp")
	if _, err := os.Stat(previewPath); err == nil && !force {
		log.Debug().Str("path", previewPath).Msg("Preview exists, skipping")
	} else {
		img := render.Render(fc, c.Params.Attribute, c.Resolver, render.DefaultOptions(layer.Size))
		f, err := os.Create(previewPath)
		if err != nil {
			return err
		}
		if err := render.Encode(f, img, render.FormatWebP); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	title := layer.Title
	if title == "" {
		title = layer.Name
	}
	legend, err := render.LegendSVG(title+": "+c.Params.Attribute, c.Legend)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(baseDir, "legend.svg"), legend, 0644)
}
