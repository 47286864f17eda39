package coast

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestWalkCornerWrap(t *testing.T) {
	r := rect01(t)
	open := map[SubChainID]OpenSubChain{
		1: {ID: 1, Coords: Chain{{0, 5}, {5, 5}, {10, 5}}},
	}
	var im IntersectionMap
	im[Left] = []IntersectionEvent{{Point: Coord{0, 5}, Side: Left, IsEntering: true, BoundedID: 1}}
	im[Right] = []IntersectionEvent{{Point: Coord{10, 5}, Side: Right, IsEntering: false, BoundedID: 1}}

	polys, err := Walk(open, im, r)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	test.T(t, len(polys), 1)

	want := LandPolygon{{10, 5}, {10, 10}, {0, 10}, {0, 5}, {5, 5}, {10, 5}}
	test.T(t, polys[0], want)
}

func TestWalkNoCornerWhenSubChainClosesDirectly(t *testing.T) {
	r := rect01(t)
	open := map[SubChainID]OpenSubChain{
		10: {ID: 10, Coords: Chain{{3, 10}, {3, 5}, {7, 5}, {7, 10}}},
	}
	var im IntersectionMap
	im[Top] = []IntersectionEvent{
		{Point: Coord{3, 10}, Side: Top, IsEntering: true, BoundedID: 10},
		{Point: Coord{7, 10}, Side: Top, IsEntering: false, BoundedID: 10},
	}

	polys, err := Walk(open, im, r)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	test.T(t, len(polys), 1)

	want := LandPolygon{{7, 10}, {3, 10}, {3, 5}, {7, 5}, {7, 10}}
	test.T(t, polys[0], want)
}

func TestWalkNestedIsland(t *testing.T) {
	r := rect01(t)
	open := map[SubChainID]OpenSubChain{
		1: {ID: 1, Coords: Chain{{0, 8}, {1, 8}, {1, 6}, {0, 6}}},
		2: {ID: 2, Coords: Chain{{0, 4}, {3, 4}, {3, 2}, {0, 2}}},
	}
	var im IntersectionMap
	im[Left] = []IntersectionEvent{
		{Point: Coord{0, 2}, Side: Left, IsEntering: false, BoundedID: 2},
		{Point: Coord{0, 4}, Side: Left, IsEntering: true, BoundedID: 2},
		{Point: Coord{0, 6}, Side: Left, IsEntering: false, BoundedID: 1},
		{Point: Coord{0, 8}, Side: Left, IsEntering: true, BoundedID: 1},
	}

	polys, err := Walk(open, im, r)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	test.T(t, len(polys), 1)

	want := LandPolygon{
		{0, 2}, {0, 0}, {10, 0}, {10, 10}, {0, 10},
		{0, 8}, {1, 8}, {1, 6}, {0, 6},
		{0, 4}, {3, 4}, {3, 2}, {0, 2},
	}
	test.T(t, polys[0], want)
}

func TestWalkReturnsNothingWhenMapHasNoIntersections(t *testing.T) {
	r := rect01(t)
	polys, err := Walk(map[SubChainID]OpenSubChain{}, IntersectionMap{}, r)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	test.T(t, len(polys), 0)
}
