package coast

import (
	"testing"

	"github.com/tdewolff/test"
)

// Coverage of documented edge cases: every land polygon is closed for an
// island entirely inside the rectangle, a peninsula crossing one side
// twice and a chain crossing two sides; a dataset entirely outside the
// rectangle yields no land; each open sub-chain enters and exits exactly
// once; and a degenerate rectangle is rejected.

func TestPropertyEveryLandPolygonIsClosed(t *testing.T) {
	r := rect01(t)
	cases := []struct {
		name string
		ways []CoastlineWay
	}{
		{
			name: "fully interior island",
			ways: []CoastlineWay{
				{WayID: 1, NodeRefs: []uint64{1, 2, 3, 1}, Coords: Chain{{2, 2}, {8, 2}, {5, 8}, {2, 2}}},
			},
		},
		{
			name: "peninsula crossing one side twice",
			ways: []CoastlineWay{
				{WayID: 1, NodeRefs: []uint64{1, 2, 3, 4, 1}, Coords: Chain{
					{3, 12}, {3, 5}, {7, 5}, {7, 12}, {3, 12},
				}},
			},
		},
		{
			name: "chain crossing two different sides",
			ways: []CoastlineWay{
				{WayID: 1, NodeRefs: []uint64{1, 2, 3}, Coords: Chain{{-5, 5}, {5, 5}, {15, 5}}},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := Compose(c.ways, r)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			for _, poly := range out.Land {
				test.That(t, Chain(poly).Closed(), "every land polygon must close")
				test.That(t, len(poly) >= 4, "a closed polygon needs at least 3 distinct vertices plus the repeated closing point")
			}
		})
	}
}

func TestPropertyEntireDatasetOutsideProducesNoLand(t *testing.T) {
	r := rect01(t)
	ways := []CoastlineWay{
		{WayID: 1, NodeRefs: []uint64{1, 2}, Coords: Chain{{-5, -5}, {-5, -1}}},
	}

	out, err := Compose(ways, r)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	test.T(t, len(out.Land), 0)
}

func TestPropertyEveryOpenSubChainEntersAndExitsExactlyOnce(t *testing.T) {
	r := rect01(t)
	chains := []Chain{
		{{-5, 5}, {5, 5}, {15, 5}},
		{{5, -5}, {5, 5}, {5, 15}},
	}

	result, err := ClipAll(chains, r)
	if err != nil {
		t.Fatalf("ClipAll: %v", err)
	}

	counts := map[SubChainID]struct{ enter, exit int }{}
	for _, side := range []Side{Top, Right, Bottom, Left} {
		for _, e := range result.Intersections[side] {
			c := counts[e.BoundedID]
			if e.IsEntering {
				c.enter++
			} else {
				c.exit++
			}
			counts[e.BoundedID] = c
		}
	}
	for id, c := range counts {
		test.T(t, c.enter, 1, "sub-chain", id, "must enter exactly once")
		test.T(t, c.exit, 1, "sub-chain", id, "must exit exactly once")
	}
}

func TestPropertyMalformedRectangleRejected(t *testing.T) {
	_, err := NewRectangle(5, 5, 5, 5)
	test.That(t, err != nil, "a degenerate rectangle must be rejected")
}
