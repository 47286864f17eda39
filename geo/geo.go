// Package geo projects lon/lat coordinates onto a flat page and tracks
// the resulting page-space bounding rectangle.
//
// Grounded on examples/groningen/main.go's use of a root geo package
// (TransverseMercatorLambert, Bounds.Project, projBounds.W/H) and on
// osm/util.go's Coord/Bounds, generalized into its own package per
// SPEC_FULL.md's package layout rather than left on osm.Bounds, whose
// retrieved method set (Center, Contains only) does not cover what the
// example already assumes (Centre, ExpandByFactor, Project, W, H).
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Point is a page-space or lon/lat coordinate, depending on context.
type Point struct {
	X, Y float64
}

// Rectangle is a [min,max] axis-aligned box, used both for lon/lat
// windows and for the projected page-space bounds derived from them.
type Rectangle [2]Point

// NewRectangle validates and builds a lon/lat window, applying the same
// finiteness/ordering/range checks as coast.NewRectangle so a malformed
// -min-lon/-max-lat flag combination fails before any parsing begins.
func NewRectangle(minLon, minLat, maxLon, maxLat float64) (Rectangle, error) {
	switch {
	case math.IsNaN(minLon) || math.IsNaN(minLat) || math.IsNaN(maxLon) || math.IsNaN(maxLat):
		return Rectangle{}, errInvalidRectangle("coordinates must be finite")
	case math.IsInf(minLon, 0) || math.IsInf(minLat, 0) || math.IsInf(maxLon, 0) || math.IsInf(maxLat, 0):
		return Rectangle{}, errInvalidRectangle("coordinates must be finite")
	case minLon >= maxLon || minLat >= maxLat:
		return Rectangle{}, errInvalidRectangle("min must be strictly less than max")
	case minLat < -90 || maxLat > 90:
		return Rectangle{}, errInvalidRectangle("latitude must be within [-90, 90]")
	case minLon < -180 || maxLon > 180:
		return Rectangle{}, errInvalidRectangle("longitude must be within [-180, 180]")
	}
	return Rectangle{{minLon, minLat}, {maxLon, maxLat}}, nil
}

func errInvalidRectangle(msg string) error {
	return &RectangleError{Msg: msg}
}

// RectangleError reports why NewRectangle rejected a bounding box.
type RectangleError struct{ Msg string }

func (e *RectangleError) Error() string { return "geo: invalid rectangle: " + e.Msg }

// FromOrbBound converts an orb.Bound at the osm/coast boundary.
func FromOrbBound(b orb.Bound) Rectangle {
	return Rectangle{
		{b.Min.Lon(), b.Min.Lat()},
		{b.Max.Lon(), b.Max.Lat()},
	}
}

// ToOrbBound converts back to orb's representation.
func (r Rectangle) ToOrbBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r[0].X, r[0].Y},
		Max: orb.Point{r[1].X, r[1].Y},
	}
}

func (r Rectangle) Center() Point {
	return Point{(r[0].X + r[1].X) / 2, (r[0].Y + r[1].Y) / 2}
}

func (r Rectangle) W() float64 { return r[1].X - r[0].X }
func (r Rectangle) H() float64 { return r[1].Y - r[0].Y }

func (r Rectangle) Contains(p Point) bool {
	return r[0].X <= p.X && p.X <= r[1].X && r[0].Y <= p.Y && p.Y <= r[1].Y
}

// ExpandByFactor grows the rectangle around its center by factor, so
// factor 1.0 is a no-op and factor 2.0 doubles both dimensions.
func (r Rectangle) ExpandByFactor(factor float64) Rectangle {
	c := r.Center()
	hw, hh := r.W()/2*factor, r.H()/2*factor
	return Rectangle{
		{c.X - hw, c.Y - hh},
		{c.X + hw, c.Y + hh},
	}
}

// Project maps every corner of r through forward, returning the
// resulting page-space bounding box.
func (r Rectangle) Project(forward func(lon, lat float64) (x, y float64)) Rectangle {
	var out Rectangle
	x0, y0 := forward(r[0].X, r[0].Y)
	x1, y1 := forward(r[1].X, r[1].Y)
	out[0] = Point{math.Min(x0, x1), math.Min(y0, y1)}
	out[1] = Point{math.Max(x0, x1), math.Max(y0, y1)}
	return out
}

// Projector maps a lon/lat pair to a page-space (x, y) pair.
type Projector func(lon, lat float64) (x, y float64)

// TransverseMercator is a Transverse Mercator projection centered on a
// reference meridian, with a scale factor applied at that meridian (the
// "Lambert variant" used by UTM-like projections: k0 < 1 shrinks the
// central meridian so the projection is least distorted slightly off
// center, rather than exactly on it).
type TransverseMercator struct {
	lon0 float64
	k0   float64
}

// TransverseMercatorLambert constructs a Transverse Mercator projection
// centered on lon0 with scale factor k0 (UTM uses 0.9996).
func TransverseMercatorLambert(lon0, k0 float64) TransverseMercator {
	return TransverseMercator{lon0: lon0, k0: k0}
}

const earthRadius = 6371000.0 // meters

// Forward projects (lon, lat) in degrees to (x, y) in meters.
func (p TransverseMercator) Forward(lon, lat float64) (x, y float64) {
	latRad := lat * math.Pi / 180
	dLonRad := (lon - p.lon0) * math.Pi / 180

	b := math.Cos(latRad) * math.Sin(dLonRad)
	x = 0.5 * p.k0 * earthRadius * math.Log((1+b)/(1-b))
	y = p.k0 * earthRadius * (math.Atan(math.Tan(latRad)/math.Cos(dLonRad)) - 0)
	return x, y
}
