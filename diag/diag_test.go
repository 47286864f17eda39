package diag

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/tdewolff/test"

	"github.com/mjansen/cartograph/coast"
)

func TestBoundingBox(t *testing.T) {
	points := []shp.Point{{X: 1, Y: 5}, {X: -2, Y: 3}, {X: 4, Y: -1}}
	box := boundingBox(points)
	test.T(t, box.MinX, -2.0)
	test.T(t, box.MaxX, 4.0)
	test.T(t, box.MinY, -1.0)
	test.T(t, box.MaxY, 5.0)
}

func TestDumpShapefileRejectsNilPartial(t *testing.T) {
	if err := DumpShapefile("/tmp/does-not-matter", nil); err == nil {
		t.Fatalf("expected an error for a nil partial result")
	}
}

func TestWriteChainSkipsDegenerateChains(t *testing.T) {
	if err := writeChain(nil, coast.Chain{{X: 0, Y: 0}}); err != nil {
		t.Fatalf("a chain with fewer than two points should be silently skipped, got %v", err)
	}
}
