package coast

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestComposeEndToEndSingleIsland(t *testing.T) {
	r := rect01(t)
	ways := []CoastlineWay{
		{WayID: 1, NodeRefs: []uint64{1, 2, 3, 4, 1}, Coords: Chain{{2, 2}, {5, 2}, {5, 5}, {2, 5}, {2, 2}}},
	}

	out, err := Compose(ways, r)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	test.T(t, len(out.Land), 1)
	test.That(t, Chain(out.Land[0]).Closed(), "land polygon should be closed")
}

func TestComposeEndToEndCrossingIsland(t *testing.T) {
	r := rect01(t)
	ways := []CoastlineWay{
		{WayID: 1, NodeRefs: []uint64{1, 2, 3, 4, 1}, Coords: Chain{
			{3, 12}, {3, 5}, {7, 5}, {7, 12}, {3, 12},
		}},
	}

	out, err := Compose(ways, r)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	test.T(t, len(out.Land), 1)
	test.That(t, Chain(out.Land[0]).Closed(), "land polygon should be closed")
}

func TestComposePropagatesClipError(t *testing.T) {
	r := rect01(t)
	ways := []CoastlineWay{
		{WayID: 1, NodeRefs: []uint64{1, 2}, Coords: Chain{{5, 5}, {5, 15}}},
	}

	_, err := Compose(ways, r)
	test.That(t, err != nil, "expected an error from an unbalanced crossing")
	cerr, ok := err.(*Error)
	test.That(t, ok, "expected a *coast.Error")
	test.T(t, cerr.Kind, IncompleteCoastline)
}
