package coast

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestAssembleJoinsSharedEndpoints(t *testing.T) {
	ways := []CoastlineWay{
		{WayID: 1, NodeRefs: []uint64{10, 11, 12}, Coords: Chain{{0, 0}, {1, 0}, {2, 0}}},
		{WayID: 2, NodeRefs: []uint64{12, 13}, Coords: Chain{{2, 0}, {3, 0}}},
		{WayID: 3, NodeRefs: []uint64{9, 10}, Coords: Chain{{-1, 0}, {0, 0}}},
	}

	chains, err := Assemble(ways)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	test.T(t, len(chains), 1)

	want := Chain{{-1, 0}, {0, 0}, {1, 0}, {2, 0}, {3, 0}}
	test.T(t, chains[0], want)
}

func TestAssembleSeedsFromLongestWay(t *testing.T) {
	ways := []CoastlineWay{
		{WayID: 1, NodeRefs: []uint64{1, 2}, Coords: Chain{{0, 0}, {1, 0}}},
		{WayID: 2, NodeRefs: []uint64{3, 4, 5, 6}, Coords: Chain{{5, 5}, {6, 5}, {7, 5}, {8, 5}}},
	}

	chains, err := Assemble(ways)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	test.T(t, len(chains), 2)
	test.T(t, chains[0], ways[1].Coords)
}

func TestAssembleClosesRing(t *testing.T) {
	ways := []CoastlineWay{
		{WayID: 1, NodeRefs: []uint64{1, 2, 3}, Coords: Chain{{0, 0}, {1, 1}, {2, 0}}},
		{WayID: 2, NodeRefs: []uint64{3, 1}, Coords: Chain{{2, 0}, {0, 0}}},
	}

	chains, err := Assemble(ways)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	test.T(t, len(chains), 1)
	test.That(t, chains[0].Closed(), "ring should close back to its start")
}
