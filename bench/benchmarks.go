// Command bench compares the adapted osm.Parser against two other PBF
// readers on the same extract: github.com/paulmach/osm/osmpbf and
// github.com/thomersch/gosmparse. Each scanner runs N times over the
// same file and reports mean/stddev wall time and allocated bytes.
//
// Adapted from test/benchmarks.go: same three-way comparison and
// printStats methodology, renamed to the module's own osm package and
// a configurable input path instead of a hardcoded groningen extract.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/paulmach/osm/osmpbf"
	"github.com/thomersch/gosmparse"

	"github.com/mjansen/cartograph/osm"
)

type dataHandler struct{}

func (d *dataHandler) ReadNode(n gosmparse.Node)         {}
func (d *dataHandler) ReadWay(w gosmparse.Way)           {}
func (d *dataHandler) ReadRelation(r gosmparse.Relation) {}

func printStats(name string, ts []time.Duration, ms []uint64) {
	var tMean, tStddev float64
	for _, t := range ts {
		tMean += t.Seconds()
	}
	tMean /= float64(len(ts))
	for _, t := range ts {
		tStddev += (t.Seconds() - tMean) * (t.Seconds() - tMean)
	}
	tStddev = math.Sqrt(tStddev / float64(len(ts)-1))

	var mMean, mStddev float64
	for _, m := range ms {
		mMean += float64(m) / 1024 / 1024
	}
	mMean /= float64(len(ms))
	for _, m := range ms {
		mStddev += (float64(m)/1024/1024 - mMean) * (float64(m)/1024/1024 - mMean)
	}
	mStddev = math.Sqrt(mStddev / float64(len(ms)-1))

	fmt.Printf("%v:\t t=%.2f±%.2f  m=%.2f±%.2f\n", name, tMean, tStddev, mMean, mStddev)
}

func main() {
	pbfPath := flag.String("pbf", "", "path to the .osm.pbf extract to scan repeatedly")
	n := flag.Int("n", 30, "number of scan iterations per parser")
	workers := flag.Int("workers", 4, "osmpbf and gosmparse decode worker count")
	cpuProf := flag.String("cpuprofile", "", "write a CPU profile to this path")
	flag.Parse()

	if *pbfPath == "" {
		fmt.Fprintln(os.Stderr, "bench: -pbf is required")
		os.Exit(2)
	}

	if *cpuProf != "" {
		prof, err := os.Create(*cpuProf)
		if err != nil {
			panic(err)
		}
		defer prof.Close()
		if err := pprof.StartCPUProfile(prof); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	f, err := os.Open(*pbfPath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	N := *n
	ts := make([]time.Duration, N)
	ms := make([]uint64, N)
	var memStats runtime.MemStats

	for i := 0; i < N; i++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			panic(err)
		}
		runtime.ReadMemStats(&memStats)
		t := time.Now()
		m := memStats.TotalAlloc
		scanner := osmpbf.New(context.Background(), f, *workers)
		for scanner.Scan() {
			_ = scanner.Object()
		}
		scanner.Close()
		ts[i] = time.Since(t)
		runtime.ReadMemStats(&memStats)
		ms[i] = memStats.TotalAlloc - m
	}
	printStats("paulmach", ts, ms)

	for i := 0; i < N; i++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			panic(err)
		}
		runtime.ReadMemStats(&memStats)
		t := time.Now()
		m := memStats.TotalAlloc
		scanner := osmpbf.New(context.Background(), f, *workers)
		scanner.SkipNodes = true
		scanner.SkipWays = true
		scanner.SkipRelations = true
		for scanner.Scan() {
			_ = scanner.Object()
		}
		scanner.Close()
		ts[i] = time.Since(t)
		runtime.ReadMemStats(&memStats)
		ms[i] = memStats.TotalAlloc - m
	}
	printStats("paulmach (skipping)", ts, ms)

	for i := 0; i < N; i++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			panic(err)
		}
		runtime.ReadMemStats(&memStats)
		t := time.Now()
		m := memStats.TotalAlloc
		dec := gosmparse.NewDecoder(f)
		dec.Workers = *workers
		if err := dec.Parse(&dataHandler{}); err != nil {
			panic(err)
		}
		ts[i] = time.Since(t)
		runtime.ReadMemStats(&memStats)
		ms[i] = memStats.TotalAlloc - m
	}
	printStats("thomersch", ts, ms)

	ctx := context.Background()
	nodeFunc := func(node osm.Node) {}
	wayFunc := func(way osm.Way) {}
	relationFunc := func(relation osm.Relation) {}

	for i := 0; i < N; i++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			panic(err)
		}
		runtime.ReadMemStats(&memStats)
		t := time.Now()
		m := memStats.TotalAlloc
		z := osm.NewParser(f)
		if err := z.Parse(ctx, nodeFunc, wayFunc, relationFunc); err != nil {
			panic(err)
		}
		ts[i] = time.Since(t)
		runtime.ReadMemStats(&memStats)
		ms[i] = memStats.TotalAlloc - m
	}
	printStats("cartograph", ts, ms)

	for i := 0; i < N; i++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			panic(err)
		}
		runtime.ReadMemStats(&memStats)
		t := time.Now()
		m := memStats.TotalAlloc
		z := osm.NewParser(f)
		if err := z.Parse(ctx, nil, nil, nil); err != nil {
			panic(err)
		}
		ts[i] = time.Since(t)
		runtime.ReadMemStats(&memStats)
		ms[i] = memStats.TotalAlloc - m
	}
	printStats("cartograph (skipping)", ts, ms)
}
