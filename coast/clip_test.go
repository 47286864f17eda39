package coast

import (
	"testing"

	"github.com/tdewolff/test"
)

func rect01(t *testing.T) Rectangle {
	r, err := NewRectangle(0, 0, 10, 10)
	if err != nil {
		t.Fatalf("NewRectangle: %v", err)
	}
	return r
}

func TestNewRectangleRejectsInvertedBounds(t *testing.T) {
	_, err := NewRectangle(10, 0, 0, 10)
	test.That(t, err != nil, "expected an error for minLon >= maxLon")
}

func TestNewRectangleRejectsOutOfRangeLatitude(t *testing.T) {
	_, err := NewRectangle(0, -95, 10, 10)
	test.That(t, err != nil, "expected an error for latitude below -90")
}

func TestClipAllEntirelyInsideChainIsClosedDirectly(t *testing.T) {
	r := rect01(t)
	ring := Chain{{2, 2}, {5, 2}, {5, 5}, {2, 5}, {2, 2}}

	result, err := ClipAll([]Chain{ring}, r)
	if err != nil {
		t.Fatalf("ClipAll: %v", err)
	}
	test.T(t, len(result.ClosedChains), 1)
	test.T(t, len(result.OpenSubChains), 0)
	test.T(t, result.ClosedChains[0], ring)
}

func TestClipAllSingleCrossingTwoSides(t *testing.T) {
	r := rect01(t)
	// Enters through LEFT at (0,5), exits through RIGHT at (10,5).
	chain := Chain{{-5, 5}, {5, 5}, {15, 5}}

	result, err := ClipAll([]Chain{chain}, r)
	if err != nil {
		t.Fatalf("ClipAll: %v", err)
	}
	test.T(t, len(result.OpenSubChains), 1)

	var sub OpenSubChain
	for _, o := range result.OpenSubChains {
		sub = o
	}
	test.T(t, sub.Coords, Chain{{0, 5}, {5, 5}, {10, 5}})

	test.T(t, len(result.Intersections[Left]), 1)
	test.That(t, result.Intersections[Left][0].IsEntering, "LEFT crossing should be entering")
	test.T(t, len(result.Intersections[Right]), 1)
	test.That(t, !result.Intersections[Right][0].IsEntering, "RIGHT crossing should be exiting")
}

func TestClipAllReportsImbalance(t *testing.T) {
	r := rect01(t)
	// Exits through TOP and never re-enters.
	chain := Chain{{5, 5}, {5, 15}}

	_, err := ClipAll([]Chain{chain}, r)
	test.That(t, err != nil, "expected an IncompleteCoastline error")
	cerr, ok := err.(*Error)
	test.That(t, ok, "expected a *coast.Error")
	test.T(t, cerr.Kind, IncompleteCoastline)
}

func TestClassifySegmentThroughRectangleWithBothEndpointsOutsideIsOutside(t *testing.T) {
	r := rect01(t)
	// Both endpoints lie strictly outside the window, even though the
	// segment passes straight through it.
	inside, outside, cr, err := classify(Coord{-1, -1}, Coord{11, 11}, r)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	test.That(t, !inside, "segment with both endpoints outside should not classify as inside")
	test.That(t, outside, "segment with both endpoints outside should classify as outside")
	test.T(t, cr, crossing{})
}

func TestClipAllSkipsChainThatPassesThroughWithoutEitherEndpointInside(t *testing.T) {
	r := rect01(t)
	chain := Chain{{-1, -1}, {11, 11}}

	result, err := ClipAll([]Chain{chain}, r)
	if err != nil {
		t.Fatalf("ClipAll: %v", err)
	}
	test.T(t, len(result.ClosedChains), 0)
	test.T(t, len(result.OpenSubChains), 0)
	test.T(t, len(result.Intersections[Top])+len(result.Intersections[Right])+len(result.Intersections[Bottom])+len(result.Intersections[Left]), 0)
}

func TestClipAllMergesTrailingFragmentThatReclosesWithoutCrossing(t *testing.T) {
	r := rect01(t)
	// A ring that dips outside the rectangle through TOP twice forming a
	// single continuous chain that starts and ends at the same point
	// (inside the rectangle), with the final fragment looping back to
	// chain[0] without crossing again.
	chain := Chain{
		{5, 5}, // start, inside
		{5, 15}, {3, 15}, {3, 5}, // out through TOP, across, back in through TOP
		{5, 5}, // close, back at start, inside
	}

	result, err := ClipAll([]Chain{chain}, r)
	if err != nil {
		t.Fatalf("ClipAll: %v", err)
	}
	test.T(t, len(result.OpenSubChains), 1)
}
