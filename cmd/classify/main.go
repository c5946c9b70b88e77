package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/woozymasta/choromap/internal/geo"
	"github.com/woozymasta/choromap/internal/logger"
	"github.com/woozymasta/choromap/internal/thematic"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input       string   `short:"i" long:"in"           description:"Input FeatureCollection (GeoJSON or YAML). Reads from stdin if empty"`
	InputFormat string   `long:"input-format"           description:"Input format, detected from the file extension if empty" choice:"geojson" choice:"json" choice:"yaml" choice:"yml"`
	Output      string   `short:"o" long:"out"          description:"Output file path. Writes to stdout if empty"`
	Format      string   `short:"f" long:"format"       description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Attribute   string   `short:"a" long:"attribute"    description:"Attribute to classify, the first one found if empty"`
	Color       string   `short:"c" long:"color"        description:"Base color of numeric classes" default:"#6495ED"`
	Opacity     float64  `long:"opacity"                description:"Fill opacity in percent" default:"80"`
	Steps       int      `short:"s" long:"steps"        description:"Number of numeric classes" default:"3"`
	Palette     []string `short:"P" long:"palette"      description:"Categorical palette color, repeatable"`
	Lang        string   `long:"lang"                   description:"Language of the no-data label (en, tr, de, fr)"`
	Styled      bool     `long:"styled"                 description:"Output the features with fill and fill-opacity properties"`
	List        bool     `long:"list"                   description:"List classifiable attributes and exit"`
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

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Classification failed")
	}
}

func run(opts Options, stdin io.Reader, stdout io.Writer) error {
	fc, err := readInput(opts, stdin)
	if err != nil {
		return err
	}

	var out any
	switch {
	case opts.List:
		attrs := thematic.Attributes(fc)
		if attrs == nil {
			attrs = []string{}
		}
		out = attrs

	default:
		p := params(opts)
		if p.Attribute == "" {
			if attrs := thematic.Attributes(fc); len(attrs) > 0 {
				p.Attribute = attrs[0]
				log.Info().Str("attribute", p.Attribute).Msg("No attribute given, using the first one")
			} else {
				log.Warn().Int("features", len(fc.Features)).Msg("No classifiable attribute found")
			}
		}

		c := thematic.Classify(fc, p)
		log.Info().
			Str("attribute", p.Attribute).
			Str("kind", c.Kind.String()).
			Int("features", c.Features).
			Int("legend_items", len(c.Legend)).
			Msg("Attribute classified")

		if opts.Styled {
			out = thematic.StyleFeatures(fc, c)
		} else {
			out = c
		}
	}

	data, err := marshal(out, opts.Format)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return err
		}
		log.Info().Str("path", opts.Output).Str("format", opts.Format).Msg("Output written")
		return nil
	}

	_, err = stdout.Write(data)
	return err
}

func readInput(opts Options, stdin io.Reader) (*geojson.FeatureCollection, error) {
	if opts.Input == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return geo.Decode(data, opts.InputFormat)
	}

	format := opts.InputFormat
	if format == "" {
		format = filepath.Ext(opts.Input)
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, err
	}
	return geo.Decode(data, format)
}

func params(opts Options) thematic.Params {
	p := thematic.DefaultParams()
	p.Attribute = opts.Attribute
	p.Color = opts.Color
	p.Opacity = opts.Opacity
	p.Steps = opts.Steps
	p.Palette = opts.Palette
	if opts.Lang != "" {
		p.NoDataLabel = thematic.NoDataLabel(opts.Lang)
	}
	return p
}

func marshal(v any, format string) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil || format != "yaml" {
		return append(data, '\n'), err
	}

	// GeoJSON types only carry json tags; go through a generic document
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
