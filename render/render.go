// Package render draws the layered map page: water background, then
// land, parks, water features, buildings, and roads, in that order.
//
// Grounded on examples/groningen/main.go's boundsPath/polygonPath/
// colorOpacity helpers and canvas.Context usage, and on
// original_source/generate_pdf_map.py's fixed call order
// (render_coastline_and_background_water, render_parks,
// render_water_features, render_buildings, render_roads).
package render

import (
	"image/color"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tdewolff/canvas"

	"github.com/mjansen/cartograph/coast"
	"github.com/mjansen/cartograph/geo"
	"github.com/mjansen/cartograph/osm"
)

// Style pairs a fill and stroke color for one feature class.
type Style struct {
	Fill   color.RGBA
	Stroke color.RGBA
}

// Styles is the default palette, one entry per osm.Class, grounded on
// the fill/stroke pairs examples/groningen/main.go assigns per class and
// generalized to the additional classes original_source's feature
// handlers render (buildings, roads, parks, water).
var Styles = map[osm.Class]Style{
	osm.Coastline: {Fill: canvas.Hex("fbeedb"), Stroke: canvas.Transparent},
	osm.Water:     {Fill: canvas.Hex("30aee1"), Stroke: canvas.Hex("30aee1")},
	osm.Park:      {Fill: canvas.Hex("a8d5a0"), Stroke: canvas.Hex("a8d5a0")},
	osm.Building:  {Fill: canvas.Hex("d0c8bd"), Stroke: canvas.Hex("b0a89d")},
	osm.Road:      {Fill: canvas.Transparent, Stroke: canvas.Hex("ffffff")},
}

var WaterBackground = canvas.Hex("30aee1")

// Features groups the non-coastline geometry collected by a single
// classification pass.
type Features struct {
	Parks     []osm.Polygon
	Water     []osm.Polygon
	Buildings []osm.Polygon
	Roads     []osm.LineString
}

// ClipToBoundary drops every feature whose geometry never touches the
// given administrative boundary, so a map restricted to one boundary
// relation does not draw features belonging to a neighboring one that
// merely overlapped the query bounds. A feature is kept when its
// bounding box overlaps the boundary's and at least one of its points
// falls inside it, an approximation of full polygon/polygon
// intersection that mirrors the exterior-ring containment check
// original_source/src/rendering.py's FeatureRenderer performs with
// Shapely's intersects before drawing a feature.
func ClipToBoundary(f Features, boundary orb.Polygon) Features {
	bbound := boundary.Bound()

	touches := func(coords []coast.Coord) bool {
		if len(coords) == 0 {
			return false
		}
		for _, c := range coords {
			p := orb.Point{c.X, c.Y}
			if bbound.Contains(p) && planar.PolygonContains(boundary, p) {
				return true
			}
		}
		return false
	}

	polyTouches := func(poly osm.Polygon) bool {
		for _, ring := range poly.Coords {
			if touches(toCoastCoords(ring)) {
				return true
			}
		}
		return false
	}

	lineTouches := func(line osm.LineString) bool {
		for _, coords := range line.Coords {
			if touches(toCoastCoords(coords)) {
				return true
			}
		}
		return false
	}

	var out Features
	for _, p := range f.Parks {
		if polyTouches(p) {
			out.Parks = append(out.Parks, p)
		}
	}
	for _, p := range f.Water {
		if polyTouches(p) {
			out.Water = append(out.Water, p)
		}
	}
	for _, p := range f.Buildings {
		if polyTouches(p) {
			out.Buildings = append(out.Buildings, p)
		}
	}
	for _, l := range f.Roads {
		if lineTouches(l) {
			out.Roads = append(out.Roads, l)
		}
	}
	return out
}

func toCoastCoords(coords []osm.Coord) []coast.Coord {
	out := make([]coast.Coord, len(coords))
	for i, c := range coords {
		out[i] = coast.Coord{X: c.X, Y: c.Y}
	}
	return out
}

// Page draws the full layered map into a fresh canvas sized to fit
// projected, width wide.
func Page(land coast.Output, features Features, bounds geo.Rectangle, projector geo.Projector, width float64) *canvas.Canvas {
	projBounds := bounds.Project(projector)
	f := width / projBounds.W()
	height := f * projBounds.H()

	px := func(lon, lat float64) (float64, float64) {
		x, y := projector(lon, lat)
		return f * (x - projBounds[0].X), f * (y - projBounds[0].Y)
	}

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetStrokeWidth(1.0)

	ctx.SetFillColor(WaterBackground)
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(0, 0, rectanglePath(bounds, px))

	landStyle := Styles[osm.Coastline]
	ctx.SetFillColor(landStyle.Fill)
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(0, 0, landPath(land, px))

	drawPolygons(ctx, features.Parks, Styles[osm.Park], px)
	drawPolygons(ctx, features.Water, Styles[osm.Water], px)
	drawPolygons(ctx, features.Buildings, Styles[osm.Building], px)
	drawLines(ctx, features.Roads, Styles[osm.Road], px)

	c.Fit(1.0)
	return c
}

func rectanglePath(r geo.Rectangle, projector geo.Projector) *canvas.Path {
	p := &canvas.Path{}
	x, y := projector(r[0].X, r[0].Y)
	p.MoveTo(x, y)
	x, y = projector(r[1].X, r[0].Y)
	p.LineTo(x, y)
	x, y = projector(r[1].X, r[1].Y)
	p.LineTo(x, y)
	x, y = projector(r[0].X, r[1].Y)
	p.LineTo(x, y)
	p.Close()
	return p
}

func landPath(out coast.Output, projector geo.Projector) *canvas.Path {
	p := &canvas.Path{}
	for _, poly := range out.Land {
		if len(poly) < 2 {
			continue
		}
		x, y := projector(poly[0].X, poly[0].Y)
		p.MoveTo(x, y)
		for _, c := range poly[1:] {
			x, y := projector(c.X, c.Y)
			p.LineTo(x, y)
		}
		p.Close()
	}
	return p
}

func drawPolygons(ctx *canvas.Context, polys []osm.Polygon, style Style, projector geo.Projector) {
	if len(polys) == 0 {
		return
	}
	ctx.SetFillColor(style.Fill)
	ctx.SetStrokeColor(style.Stroke)
	p := &canvas.Path{}
	for _, poly := range polys {
		for _, ring := range poly.Coords {
			if len(ring) < 2 {
				continue
			}
			x, y := projector(ring[0].X, ring[0].Y)
			p.MoveTo(x, y)
			for _, c := range ring[1:] {
				x, y := projector(c.X, c.Y)
				p.LineTo(x, y)
			}
			p.Close()
		}
	}
	ctx.DrawPath(0, 0, p)
}

func drawLines(ctx *canvas.Context, lines []osm.LineString, style Style, projector geo.Projector) {
	if len(lines) == 0 {
		return
	}
	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(style.Stroke)
	p := &canvas.Path{}
	for _, line := range lines {
		for _, coords := range line.Coords {
			if len(coords) < 2 {
				continue
			}
			x, y := projector(coords[0].X, coords[0].Y)
			p.MoveTo(x, y)
			for _, c := range coords[1:] {
				x, y := projector(c.X, c.Y)
				p.LineTo(x, y)
			}
		}
	}
	ctx.DrawPath(0, 0, p)
}
