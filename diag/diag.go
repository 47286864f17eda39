// Package diag writes out partial coastline geometry for post-mortem
// inspection when coast.Compose fails with an IncompleteCoastline error,
// the kind that carries a partial result. The dump is a shapefile so the offending
// chains and sub-chains can be opened directly in QGIS, mirroring how
// original_source/src/main.py writes a debug shapefile of whatever
// partial state is available before re-raising the triggering
// exception.
package diag

import (
	"fmt"

	"github.com/jonas-p/go-shp"

	"github.com/mjansen/cartograph/coast"
)

// DumpShapefile writes partial.ClosedChains and partial.OpenSubChains
// to path+".shp" (plus the .shx/.dbf go-shp creates alongside it), one
// polyline per chain/sub-chain, so the partial state behind a
// coast.Error can be inspected after the run aborts.
func DumpShapefile(path string, partial *coast.PartialResult) error {
	if partial == nil {
		return fmt.Errorf("diag: nil partial result")
	}

	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return fmt.Errorf("diag: create %s: %w", path, err)
	}
	defer w.Close()

	for _, chain := range partial.ClosedChains {
		if err := writeChain(w, chain); err != nil {
			return err
		}
	}
	for _, sub := range partial.OpenSubChains {
		if err := writeChain(w, sub.Coords); err != nil {
			return err
		}
	}
	return nil
}

func writeChain(w *shp.Writer, chain coast.Chain) error {
	if len(chain) < 2 {
		return nil
	}
	points := make([]shp.Point, len(chain))
	for i, c := range chain {
		points[i] = shp.Point{X: c.X, Y: c.Y}
	}
	line := shp.PolyLine{
		Box:       boundingBox(points),
		NumParts:  1,
		NumPoints: int32(len(points)),
		Parts:     []int32{0},
		Points:    points,
	}
	_, err := w.Write(&line)
	return err
}

func boundingBox(points []shp.Point) shp.Box {
	box := shp.Box{MinX: points[0].X, MaxX: points[0].X, MinY: points[0].Y, MaxY: points[0].Y}
	for _, p := range points[1:] {
		box.MinX = min(box.MinX, p.X)
		box.MaxX = max(box.MaxX, p.X)
		box.MinY = min(box.MinY, p.Y)
		box.MaxY = max(box.MaxY, p.Y)
	}
	return box
}
