package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/woozymasta/choromap/internal/config"
	"github.com/woozymasta/choromap/internal/logger"
	"github.com/woozymasta/choromap/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string        `short:"c" long:"config"        env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr         string        `short:"a" long:"addr"          env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port         int           `short:"p" long:"port"          env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	ZoomLimit    int           `short:"z" long:"zoom-limit"    env:"ZOOM_LIMIT"     description:"Tiles zoom limit for layers without one"`
	CacheDir     string        `long:"cache-dir"               env:"CACHE_DIR"      description:"Directory of pre-rendered tiles"`
	FetchTimeout time.Duration `long:"fetch-timeout"           env:"FETCH_TIMEOUT"  description:"Timeout of remote feature sources" default:"15s"`
	StyleTimeout time.Duration `long:"style-timeout"           env:"STYLE_TIMEOUT"  description:"Timeout of a restyle request"      default:"30s"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.ZoomLimit > 0 {
		for i := range cfg.Layers {
			if cfg.Layers[i].ZoomLimit == cfg.ZoomLimit {
				cfg.Layers[i].ZoomLimit = opts.ZoomLimit
			}
		}
		cfg.ZoomLimit = opts.ZoomLimit
	}
	if opts.CacheDir != "" {
		cfg.CacheDir = opts.CacheDir
	}
	if opts.StyleTimeout > 0 {
		server.StyleTimeout = opts.StyleTimeout
	}

	client := &http.Client{Timeout: opts.FetchTimeout}
	srvCtx := server.NewServerContext(cfg, client)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("layers_loaded", len(srvCtx.Layers)).
		Int("default_zoom", cfg.ZoomLimit).
		Str("cache_dir", cfg.CacheDir).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, srvCtx.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
