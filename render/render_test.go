package render

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/test"

	"github.com/mjansen/cartograph/osm"
)

func TestStylesCoversEveryRenderedClass(t *testing.T) {
	for _, class := range []osm.Class{osm.Coastline, osm.Water, osm.Park, osm.Building, osm.Road} {
		if _, ok := Styles[class]; !ok {
			t.Errorf("no style registered for class %v", class)
		}
	}
}

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestClipToBoundaryKeepsOverlappingFeatures(t *testing.T) {
	boundary := square(0, 0, 10, 10)

	inside := osm.Polygon{ID: 1, Coords: [][]osm.Coord{{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}}}
	outside := osm.Polygon{ID: 2, Coords: [][]osm.Coord{{{20, 20}, {22, 20}, {22, 22}, {20, 22}, {20, 20}}}}

	f := Features{Parks: []osm.Polygon{inside, outside}}
	clipped := ClipToBoundary(f, boundary)

	test.That(t, len(clipped.Parks) == 1, "expected exactly one park to survive clipping")
	test.T(t, clipped.Parks[0].ID, inside.ID)
}

func TestClipToBoundaryDropsLineOutsideBoundary(t *testing.T) {
	boundary := square(0, 0, 10, 10)
	road := osm.LineString{ID: 1, Coords: [][]osm.Coord{{{100, 100}, {101, 101}}}}

	clipped := ClipToBoundary(Features{Roads: []osm.LineString{road}}, boundary)
	test.That(t, len(clipped.Roads) == 0, "road entirely outside the boundary should be dropped")
}
