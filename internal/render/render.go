// Package render rasterizes classified feature collections and encodes images, tiles and legends.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/woozymasta/choromap/internal/geo"
	"github.com/woozymasta/choromap/internal/thematic"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/image/vector"
)

// Options control the canvas and stroke sizes of Render.
type Options struct {
	// Background fills the canvas first; nil leaves it transparent.
	Background color.Color

	Width   int
	Height  int
	Padding int

	// PointRadius is the disc radius of Point geometries in pixels.
	PointRadius float64
	// LineWidth is the stroke width of LineString geometries in pixels.
	LineWidth float64
	// OutlineWidth strokes polygon rings with a darker shade of their fill; 0 disables it.
	OutlineWidth float64

	// World maps the whole Web-Mercator square onto the canvas instead of
	// fitting the collection bounds. Required for XYZ tile slicing.
	World bool
}

// DefaultOptions returns options for a square canvas of the given size.
func DefaultOptions(size int) Options {
	return Options{
		Width:        size,
		Height:       size,
		Padding:      size / 32,
		PointRadius:  math.Max(2, float64(size)/256),
		LineWidth:    math.Max(1, float64(size)/512),
		OutlineWidth: 1,
	}
}

type projector struct {
	scale, offX, offY float64
	x0, y0            float64
}

func (p projector) project(pt orb.Point) (float32, float32) {
	x, y := geo.Mercator(pt.Lon(), pt.Lat())
	return float32((x-p.x0)*p.scale + p.offX), float32((y-p.y0)*p.scale + p.offY)
}

func newProjector(fc *geojson.FeatureCollection, opts Options) projector {
	w, h := float64(opts.Width), float64(opts.Height)

	if opts.World {
		// non-square canvases stretch nothing: the square is fitted and centered
		s := math.Min(w, h)
		return projector{scale: s, offX: (w - s) / 2, offY: (h - s) / 2}
	}

	b, ok := geo.Bound(fc)
	if !ok {
		return projector{scale: 1}
	}

	x0, y1 := geo.Mercator(b.Min.Lon(), b.Min.Lat())
	x1, y0 := geo.Mercator(b.Max.Lon(), b.Max.Lat())
	dx, dy := x1-x0, y1-y0

	pad := float64(opts.Padding)
	availW, availH := math.Max(1, w-2*pad), math.Max(1, h-2*pad)

	var s float64
	switch {
	case dx <= 0 && dy <= 0:
		s = 1
	case dx <= 0:
		s = availH / dy
	case dy <= 0:
		s = availW / dx
	default:
		s = math.Min(availW/dx, availH/dy)
	}

	return projector{
		scale: s,
		x0:    x0,
		y0:    y0,
		offX:  (w - dx*s) / 2,
		offY:  (h - dy*s) / 2,
	}
}

type canvas struct {
	dst  *image.RGBA
	z    *vector.Rasterizer
	proj projector
	opts Options
}

// Render draws every feature of fc filled with the color resolved from its
// attribute value. Features without geometry are skipped.
func Render(fc *geojson.FeatureCollection, attribute string, r thematic.Resolver, opts Options) *image.RGBA {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1, 1
	}
	return paint(fc, attribute, r, opts, newProjector(fc, opts))
}

// Tile draws a single XYZ tile of the Web-Mercator world at size x size pixels.
func Tile(fc *geojson.FeatureCollection, attribute string, r thematic.Resolver, t TileCoordinate, size int, opts Options) *image.RGBA {
	if size <= 0 {
		size = 256
	}
	opts.Width, opts.Height = size, size

	world := float64(size) * math.Exp2(float64(t.Z))
	return paint(fc, attribute, r, opts, projector{
		scale: world,
		offX:  -float64(t.X * size),
		offY:  -float64(t.Y * size),
	})
}

func paint(fc *geojson.FeatureCollection, attribute string, r thematic.Resolver, opts Options, proj projector) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	if opts.Background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}
	if fc == nil {
		return dst
	}
	if r == nil {
		r = thematic.FallbackResolver{}
	}

	c := &canvas{
		dst:  dst,
		z:    vector.NewRasterizer(opts.Width, opts.Height),
		proj: proj,
		opts: opts,
	}
	c.z.DrawOp = draw.Over

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		c.geometry(f.Geometry, thematic.ResolveFeature(r, f, attribute))
	}

	return dst
}

func (c *canvas) geometry(g orb.Geometry, fill thematic.Color) {
	switch g := g.(type) {
	case orb.Point:
		c.disc(g, fill)
	case orb.MultiPoint:
		for _, p := range g {
			c.disc(p, fill)
		}
	case orb.LineString:
		c.stroke([]orb.Point(g), c.opts.LineWidth, fill)
	case orb.MultiLineString:
		for _, ls := range g {
			c.stroke([]orb.Point(ls), c.opts.LineWidth, fill)
		}
	case orb.Ring:
		c.polygon(orb.Polygon{g}, fill)
	case orb.Polygon:
		c.polygon(g, fill)
	case orb.MultiPolygon:
		for _, p := range g {
			c.polygon(p, fill)
		}
	case orb.Bound:
		c.polygon(g.ToPolygon(), fill)
	case orb.Collection:
		for _, sub := range g {
			c.geometry(sub, fill)
		}
	}
}

func (c *canvas) polygon(p orb.Polygon, fill thematic.Color) {
	c.z.Reset(c.opts.Width, c.opts.Height)
	for _, ring := range p {
		c.path(ring)
	}
	c.fill(fill)

	if c.opts.OutlineWidth > 0 {
		outline := thematic.Interpolate(fill, 1)
		for _, ring := range p {
			pts := []orb.Point(ring)
			if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
				pts = append(pts[:len(pts):len(pts)], pts[0])
			}
			c.stroke(pts, c.opts.OutlineWidth, outline)
		}
	}
}

func (c *canvas) path(ring orb.Ring) {
	if len(ring) < 3 {
		return
	}
	x, y := c.proj.project(ring[0])
	c.z.MoveTo(x, y)
	for _, pt := range ring[1:] {
		x, y = c.proj.project(pt)
		c.z.LineTo(x, y)
	}
	c.z.ClosePath()
}

// stroke adds one quad per segment; all quads share the same orientation so
// overlaps at joints do not cancel out.
func (c *canvas) stroke(pts []orb.Point, width float64, col thematic.Color) {
	if len(pts) < 2 || width <= 0 {
		return
	}

	c.z.Reset(c.opts.Width, c.opts.Height)
	half := float32(width / 2)

	for i := 1; i < len(pts); i++ {
		ax, ay := c.proj.project(pts[i-1])
		bx, by := c.proj.project(pts[i])

		dx, dy := bx-ax, by-ay
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half

		c.z.MoveTo(ax+nx, ay+ny)
		c.z.LineTo(bx+nx, by+ny)
		c.z.LineTo(bx-nx, by-ny)
		c.z.LineTo(ax-nx, ay-ny)
		c.z.ClosePath()
	}

	c.fill(col)
}

func (c *canvas) disc(p orb.Point, col thematic.Color) {
	const segments = 16

	r := c.opts.PointRadius
	if r <= 0 {
		return
	}

	c.z.Reset(c.opts.Width, c.opts.Height)
	cx, cy := c.proj.project(p)
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		x := cx + float32(r*math.Cos(a))
		y := cy + float32(r*math.Sin(a))
		if i == 0 {
			c.z.MoveTo(x, y)
			continue
		}
		c.z.LineTo(x, y)
	}
	c.z.ClosePath()
	c.fill(col)
}

func (c *canvas) fill(col thematic.Color) {
	c.z.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{})
}
