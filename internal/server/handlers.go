// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/choromap/internal/metrics"
	"github.com/woozymasta/choromap/internal/render"
	"github.com/woozymasta/choromap/internal/thematic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	etagCap = 64

	// upper bound of a style request body
	maxStyleBody = 64 << 10
)

// StyleTimeout bounds how long a style request waits for its classification.
var StyleTimeout = 30 * time.Second

// LayerInfo is the list view of a layer.
type LayerInfo struct {
	Name      string        `json:"name"`
	Title     string        `json:"title,omitempty"`
	Aliases   []string      `json:"aliases,omitempty"`
	Index     *int          `json:"index,omitempty"`
	ZoomLimit int           `json:"zoom"`
	Size      int           `json:"size"`
	TileSize  int           `json:"tile_size"`
	Features  int           `json:"features"`
	Attribute string        `json:"attribute"`
	Kind      thematic.Kind `json:"kind"`
}

// LayerDetail is a layer with its current classification.
type LayerDetail struct {
	LayerInfo
	Attributes     []string                 `json:"attributes"`
	Classification *thematic.Classification `json:"classification"`
}

// StyleRequest is a partial update of the classification parameters.
// Absent fields keep their current value.
type StyleRequest struct {
	Attribute   *string  `json:"attribute"`
	Color       *string  `json:"color"`
	Opacity     *float64 `json:"opacity"`
	Steps       *int     `json:"steps"`
	Palette     []string `json:"palette"`
	NoDataLabel *string  `json:"no_data_label"`
	Lang        string   `json:"lang"`
}

// Apply merges the request into p.
func (sr StyleRequest) Apply(p thematic.Params) thematic.Params {
	if sr.Attribute != nil {
		p.Attribute = *sr.Attribute
	}
	if sr.Color != nil {
		p.Color = *sr.Color
	}
	if sr.Opacity != nil {
		p.Opacity = *sr.Opacity
	}
	if sr.Steps != nil {
		p.Steps = *sr.Steps
	}
	if sr.Palette != nil {
		p.Palette = sr.Palette
	}
	switch {
	case sr.NoDataLabel != nil:
		p.NoDataLabel = *sr.NoDataLabel
	case sr.Lang != "":
		p.NoDataLabel = thematic.NoDataLabel(sr.Lang)
	}
	return p
}

// Routes registers all handlers on a new mux wrapped with the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/layers", s.HandleLayersList)
	mux.HandleFunc("GET /api/layers/{name}", s.HandleLayer)
	mux.HandleFunc("GET /api/layers/{name}/attributes", s.HandleAttributes)
	mux.HandleFunc("GET /api/layers/{name}/legend.svg", s.HandleLegend)
	mux.HandleFunc("GET /api/layers/{name}/features.geojson", s.HandleFeatures)
	mux.HandleFunc("POST /api/layers/{name}/style", s.HandleStyle)
	mux.HandleFunc("GET /maps/", s.HandleMaps)
	mux.Handle("GET /metrics", promhttp.Handler())

	return RequestLogger(mux)
}

func (s *ServerContext) info(l *Layer) LayerInfo {
	c := l.Classification()
	return LayerInfo{
		Name:      l.Name,
		Title:     l.Title,
		Aliases:   l.Aliases,
		Index:     l.Index,
		ZoomLimit: l.ZoomLimit,
		Size:      l.Size,
		TileSize:  l.TileSize,
		Features:  c.Features,
		Attribute: c.Params.Attribute,
		Kind:      c.Kind,
	}
}

// HandleLayersList serves the JSON list of available layers.
func (s *ServerContext) HandleLayersList(w http.ResponseWriter, r *http.Request) {
	out := make([]LayerInfo, len(s.Layers))
	for i, l := range s.Layers {
		out[i] = s.info(l)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleLayer serves one layer with its current classification.
func (s *ServerContext) HandleLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, LayerDetail{
		LayerInfo:      s.info(l),
		Attributes:     l.Attributes,
		Classification: l.Classification(),
	})
}

// HandleAttributes serves the classifiable attribute names of a layer.
func (s *ServerContext) HandleAttributes(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layer(w, r)
	if !ok {
		return
	}
	attrs := l.Attributes
	if attrs == nil {
		attrs = []string{}
	}
	writeJSON(w, http.StatusOK, attrs)
}

// HandleLegend serves the legend of the current classification as SVG.
func (s *ServerContext) HandleLegend(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layer(w, r)
	if !ok {
		return
	}

	c := l.Classification()
	title := l.Title
	if title == "" {
		title = l.Name
	}
	if c.Params.Attribute != "" {
		title += ": " + c.Params.Attribute
	}

	data, err := render.LegendSVG(title, c.Legend)
	if err != nil {
		log.Error().Err(err).Str("layer", l.Name).Msg("Failed to render legend")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// HandleFeatures serves the layer features with their resolved fill style.
func (s *ServerContext) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layer(w, r)
	if !ok {
		return
	}

	data, err := json.Marshal(thematic.StyleFeatures(l.Features, l.Classification()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// HandleStyle merges the posted parameters into the current ones and reclassifies
// the layer. A request overtaken by a newer one answers 409.
func (s *ServerContext) HandleStyle(w http.ResponseWriter, r *http.Request) {
	l, ok := s.layer(w, r)
	if !ok {
		return
	}

	var req StyleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStyleBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid style request: %w", err))
		return
	}

	p := req.Apply(l.Classification().Params)

	ctx, cancel := context.WithTimeout(r.Context(), StyleTimeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.ClassificationDuration)
	applied := <-l.recomputer.Submit(ctx, l.Features, p)
	timer.ObserveDuration()

	if !applied {
		log.Debug().Str("layer", l.Name).Msg("Style request superseded")
		writeError(w, http.StatusConflict, errors.New("superseded by a newer style request"))
		return
	}
	l.restyled.Store(true)

	writeJSON(w, http.StatusOK, LayerDetail{
		LayerInfo:      s.info(l),
		Attributes:     l.Attributes,
		Classification: l.Classification(),
	})
}

// HandleMaps serves rendered previews and tiles of a layer.
func (s *ServerContext) HandleMaps(w http.ResponseWriter, r *http.Request) {
	// Path: /maps/{layer}/...
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	if len(parts) < 3 {
		http.NotFound(w, r)
		return
	}

	l, ok := s.LayerNameResolver[parts[1]]
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Preview
	if len(parts) == 3 && strings.HasPrefix(parts[2], "preview.") {
		s.servePreview(w, l, strings.TrimPrefix(parts[2], "preview."))
		return
	}

	// WebP Tile
	if len(parts) == 5 && strings.HasSuffix(parts[4], ".webp") {
		// parts: maps, layer, z, x, y.webp
		z, errZ := strconv.Atoi(parts[2])
		x, errX := strconv.Atoi(parts[3])
		y, errY := strconv.Atoi(strings.TrimSuffix(parts[4], ".webp"))
		if errZ != nil || errX != nil || errY != nil {
			http.NotFound(w, r)
			return
		}
		s.serveTile(w, r, l, render.TileCoordinate{Z: z, X: x, Y: y})
		return
	}

	http.NotFound(w, r)
}

func (s *ServerContext) servePreview(w http.ResponseWriter, l *Layer, format string) {
	if format != render.FormatWebP && format != render.FormatPNG {
		http.Error(w, "unsupported preview format", http.StatusNotFound)
		return
	}

	c := l.Classification()
	timer := prometheus.NewTimer(metrics.RenderDuration)
	img := render.Render(l.Features, c.Params.Attribute, c.Resolver, render.DefaultOptions(l.Size))
	timer.ObserveDuration()

	var buf bytes.Buffer
	if err := render.Encode(&buf, img, format); err != nil {
		log.Error().Err(err).Str("layer", l.Name).Msg("Failed to encode preview")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *ServerContext) serveTile(w http.ResponseWriter, r *http.Request, l *Layer, t render.TileCoordinate) {
	grid := 1 << min(max(t.Z, 0), 30)
	if t.Z < 0 || t.Z > l.ZoomLimit || t.X < 0 || t.Y < 0 || t.X >= grid || t.Y >= grid {
		s.serveTransparent(w)
		return
	}

	// pre-rendered tiles only match the configured style
	if !l.restyled.Load() {
		path := t.Path(filepath.Join(s.Config.CacheDir, l.Name))
		if s.serveFile(w, r, path, "image/webp") {
			return
		}
	}

	c := l.Classification()
	opts := render.DefaultOptions(l.TileSize)
	opts.World = true
	img := render.Tile(l.Features, c.Params.Attribute, c.Resolver, t, l.TileSize, opts)

	var buf bytes.Buffer
	if err := render.Encode(&buf, img, render.FormatWebP); err != nil {
		log.Error().Err(err).Str("layer", l.Name).Msg("Failed to encode tile")
		s.serveTransparent(w)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *ServerContext) serveTransparent(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(s.TransparentTile)
}

func (s *ServerContext) layer(w http.ResponseWriter, r *http.Request) (*Layer, bool) {
	l, ok := s.LayerNameResolver[r.PathValue("name")]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("layer %q not found", r.PathValue("name")))
	}
	return l, ok
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
