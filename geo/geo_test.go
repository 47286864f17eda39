package geo

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestRectangleCenterAndExpand(t *testing.T) {
	r := Rectangle{{0, 0}, {10, 20}}
	test.T(t, r.Center(), Point{5, 10})
	test.T(t, r.W(), 10.0)
	test.T(t, r.H(), 20.0)

	expanded := r.ExpandByFactor(2.0)
	test.T(t, expanded[0], Point{-5, -10})
	test.T(t, expanded[1], Point{15, 30})
}

func TestRectangleContains(t *testing.T) {
	r := Rectangle{{0, 0}, {10, 10}}
	test.That(t, r.Contains(Point{5, 5}), "center should be contained")
	test.That(t, !r.Contains(Point{15, 5}), "point outside x range should not be contained")
}

func TestTransverseMercatorForwardAtOrigin(t *testing.T) {
	proj := TransverseMercatorLambert(0, 1.0)
	x, y := proj.Forward(0, 0)
	test.That(t, x > -1e-6 && x < 1e-6, "x at the projection origin should be ~0")
	test.That(t, y > -1e-6 && y < 1e-6, "y at the projection origin should be ~0")
}

func TestOrbBoundRoundTrip(t *testing.T) {
	r := Rectangle{{1, 2}, {3, 4}}
	got := FromOrbBound(r.ToOrbBound())
	test.T(t, got, r)
}
