// Command cartograph renders a coastline-aware vector map from an OSM
// PBF extract: parse, classify, assemble and clip the coastline against
// the requested bounds, project to the page, and draw land, parks,
// water, buildings and roads in that order.
//
// Adapted from examples/groningen/main.go's flag-free single-file
// pipeline, generalized to flag-driven input/output paths and bounds,
// and wired to the real osm.Parser.ExtractSimple callback signature
// (the groningen example predates ExtractSimple and calls an older,
// map-returning z.Extract).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers"

	"github.com/mjansen/cartograph/coast"
	"github.com/mjansen/cartograph/diag"
	"github.com/mjansen/cartograph/geo"
	"github.com/mjansen/cartograph/osm"
	"github.com/mjansen/cartograph/render"
)

func progress(ctx context.Context, z *osm.Parser, total int64) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pos := z.Pos()
			fmt.Fprintf(os.Stderr, "%d/%d  %.1f%%\n", pos, total, 100*float64(pos)/float64(total))
		}
	}
}

// Config is the validated input to a single render run: the PBF
// extract to read, the page window, and the optional administrative
// boundary relation features get clipped to.
type Config struct {
	PBFPath          string
	OutPath          string
	DiagPath         string
	Bounds           geo.Rectangle
	BoundaryRelation uint64
	Margin           float64
	Width            float64
}

func main() {
	var (
		pbfPath        = flag.String("pbf", "", "path to the .osm.pbf extract")
		outPath        = flag.String("out", "out.png", "output image path")
		minLon         = flag.Float64("min-lon", 0, "minimum longitude of the map window")
		minLat         = flag.Float64("min-lat", 0, "minimum latitude of the map window")
		maxLon         = flag.Float64("max-lon", 0, "maximum longitude of the map window")
		maxLat         = flag.Float64("max-lat", 0, "maximum latitude of the map window")
		boundary       = flag.Uint64("boundary-relation", 0, "if set, clip rendered features to this OSM relation id")
		listBoundaries = flag.Bool("list-boundaries", false, "print candidate administrative boundary relation ids and exit")
		stats          = flag.Bool("stats", false, "print extract-wide node/way/relation statistics and exit")
		margin         = flag.Float64("margin", 0.1, "fraction the coastline query window is expanded beyond the page bounds")
		width          = flag.Float64("width", 1200, "output page width in mm")
		cpuProf        = flag.String("cpuprofile", "", "write a CPU profile to this path")
		heapProf       = flag.String("memprofile", "", "write a heap profile to this path")
		diagPath       = flag.String("diag", "", "when the coastline is incomplete, write partial coastline geometry as a shapefile to this path")
	)
	flag.Parse()

	if *pbfPath == "" {
		fmt.Fprintln(os.Stderr, "cartograph: -pbf is required")
		os.Exit(2)
	}

	if *listBoundaries {
		if err := listBoundaryRelations(*pbfPath); err != nil {
			fmt.Fprintln(os.Stderr, "cartograph:", err)
			os.Exit(1)
		}
		return
	}

	if *stats {
		if err := printStats(*pbfPath); err != nil {
			fmt.Fprintln(os.Stderr, "cartograph:", err)
			os.Exit(1)
		}
		return
	}

	if *cpuProf != "" {
		f, err := os.Create(*cpuProf)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}
	if *heapProf != "" {
		defer func() {
			f, err := os.Create(*heapProf)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return
			}
			defer f.Close()
			runtime.GC()
			pprof.WriteHeapProfile(f)
		}()
	}

	bounds, err := geo.NewRectangle(*minLon, *minLat, *maxLon, *maxLat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cartograph:", err)
		os.Exit(2)
	}

	cfg := Config{
		PBFPath:          *pbfPath,
		OutPath:          *outPath,
		DiagPath:         *diagPath,
		Bounds:           bounds,
		BoundaryRelation: *boundary,
		Margin:           *margin,
		Width:            *width,
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "cartograph:", err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	r, err := os.Open(cfg.PBFPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.PBFPath, err)
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pageBounds := cfg.Bounds
	expanded := pageBounds.ExpandByFactor(1.0 + cfg.Margin)
	queryBounds := osm.Bounds{
		{expanded[0].X, expanded[0].Y},
		{expanded[1].X, expanded[1].Y},
	}

	z := osm.NewParser(r)
	go progress(ctx, z, int64(mustStat(r)))

	var coastWays []coast.CoastlineWay
	var features render.Features

	t := time.Now()
	err = z.ExtractSimple(ctx, queryBounds, osm.DefaultFilter,
		nil,
		func(class osm.Class, ls osm.LineString) {
			switch class {
			case osm.Coastline:
				if len(ls.Coords) == 0 {
					return
				}
				coastWays = append(coastWays, coast.CoastlineWay{
					WayID:  ls.ID,
					Coords: toChain(ls.Coords[0]),
				})
			case osm.Road:
				features.Roads = append(features.Roads, ls)
			}
		},
		func(class osm.Class, poly osm.Polygon) {
			switch class {
			case osm.Building:
				features.Buildings = append(features.Buildings, poly)
			case osm.Park:
				features.Parks = append(features.Parks, poly)
			case osm.Water:
				features.Water = append(features.Water, poly)
			}
		},
	)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	fmt.Fprintln(os.Stderr, "extract time:", time.Since(t))

	if cfg.BoundaryRelation != 0 {
		boundary, err := findBoundary(ctx, r, queryBounds, cfg.BoundaryRelation)
		if err != nil {
			return fmt.Errorf("boundary relation %d: %w", cfg.BoundaryRelation, err)
		}
		if boundary != nil {
			features = render.ClipToBoundary(features, *boundary)
		} else {
			fmt.Fprintf(os.Stderr, "boundary relation %d not found in bounds, skipping clip\n", cfg.BoundaryRelation)
		}
	}

	clipRect, err := coast.NewRectangle(pageBounds[0].X, pageBounds[0].Y, pageBounds[1].X, pageBounds[1].Y)
	if err != nil {
		return err
	}

	t = time.Now()
	land, err := coast.Compose(coastWays, clipRect)
	if err != nil {
		if cfg.DiagPath != "" {
			var cerr *coast.Error
			if errors.As(err, &cerr) && cerr.Partial != nil {
				if derr := diag.DumpShapefile(cfg.DiagPath, cerr.Partial); derr != nil {
					fmt.Fprintln(os.Stderr, "diag dump failed:", derr)
				} else {
					fmt.Fprintln(os.Stderr, "wrote partial coastline geometry to", cfg.DiagPath)
				}
			}
		}
		return fmt.Errorf("compose coastline: %w", err)
	}
	fmt.Fprintln(os.Stderr, "coastline assembly time:", time.Since(t))

	proj := geo.TransverseMercatorLambert(pageBounds.Center().X, 0.9996)
	c := render.Page(land, features, pageBounds, proj.Forward, cfg.Width)

	if err := renderers.Write(cfg.OutPath, c, canvas.Resolution(1.0)); err != nil {
		return fmt.Errorf("write %s: %w", cfg.OutPath, err)
	}
	return nil
}

// listBoundaryRelations prints every relation that has at least one
// relation member and carries an administrative boundary tag, as a
// way to discover a -boundary-relation value without already knowing
// it, using osm.Parser.FindSuperRelations.
func listBoundaryRelations(pbfPath string) error {
	f, err := os.Open(pbfPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", pbfPath, err)
	}
	defer f.Close()

	z := osm.NewParser(f)
	relations, err := z.FindSuperRelations(context.Background())
	if err != nil {
		return fmt.Errorf("find super relations: %w", err)
	}
	for _, rel := range relations {
		if rel.Tags.Find("boundary") == "administrative" {
			fmt.Printf("%d\t%s\n", rel.ID, rel.Tags.Find("name"))
		}
	}
	return nil
}

// printStats runs a full parse over the PBF extract and prints
// node/way/relation counts, ID ranges, and reference histograms,
// mirroring the z.Stats call examples/groningen/main.go leaves
// commented out next to its real extraction pass.
func printStats(pbfPath string) error {
	f, err := os.Open(pbfPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", pbfPath, err)
	}
	defer f.Close()

	z := osm.NewParser(f)
	t := time.Now()
	stats, err := z.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Println(stats)
	fmt.Println("Time:", time.Since(t))
	return nil
}

// findBoundary runs a second, relation-aware extraction pass over the
// same PBF to locate the polygon for a single administrative boundary
// relation, using osm.Parser.Extract (which resolves relation members
// into rings, unlike ExtractSimple) rather than re-deriving that logic
// here.
func findBoundary(ctx context.Context, r io.ReadSeeker, bounds osm.Bounds, relationID uint64) (*orb.Polygon, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	z := osm.NewParser(r)

	var found *orb.Polygon
	err := z.Extract(ctx, bounds, osm.BoundaryFilter, nil, nil,
		func(class osm.Class, poly osm.Polygon) {
			if class != osm.Boundary || poly.ID != relationID || found != nil {
				return
			}
			op := make(orb.Polygon, len(poly.Coords))
			for i, ring := range poly.Coords {
				oring := make(orb.Ring, len(ring))
				for j, c := range ring {
					oring[j] = orb.Point{c.X, c.Y}
				}
				op[i] = oring
			}
			found = &op
		},
	)
	if err != nil {
		return nil, err
	}
	return found, nil
}

func toChain(coords []osm.Coord) coast.Chain {
	chain := make(coast.Chain, len(coords))
	for i, c := range coords {
		chain[i] = coast.Coord{X: c.X, Y: c.Y}
	}
	return chain
}

func mustStat(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}
