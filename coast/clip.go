package coast

import "fmt"

// crossing describes where and how a segment crosses a rectangle side.
type crossing struct {
	point      Coord
	side       Side
	isEntering bool
}

// classify determines whether the segment p1->p2 lies inside, outside,
// or crosses the rectangle boundary exactly once. Corner-touching
// segments can produce more than one candidate crossing; the candidate
// nearest p1 wins, with ties broken by side declaration order
// (Top, Right, Bottom, Left), matching
// original_source/src/features/coastline_handler.py's
// find_segment_intersection_with_boundary.
func classify(p1, p2 Coord, r Rectangle) (inside bool, outside bool, cr crossing, err error) {
	in1, in2 := r.Contains(p1), r.Contains(p2)
	if in1 && in2 {
		return true, false, crossing{}, nil
	}
	if !in1 && !in2 {
		return false, true, crossing{}, nil
	}

	var candidates []crossing
	// TOP: y = MaxLat
	if p1.Y != p2.Y {
		t := (r.MaxLat - p1.Y) / (p2.Y - p1.Y)
		if 0 <= t && t <= 1 {
			x := p1.X + t*(p2.X-p1.X)
			if r.MinLon <= x && x <= r.MaxLon {
				candidates = append(candidates, crossing{Coord{x, r.MaxLat}, Top, p1.Y > p2.Y})
			}
		}
	}
	// RIGHT: x = MaxLon
	if p1.X != p2.X {
		t := (r.MaxLon - p1.X) / (p2.X - p1.X)
		if 0 <= t && t <= 1 {
			y := p1.Y + t*(p2.Y-p1.Y)
			if r.MinLat <= y && y <= r.MaxLat {
				candidates = append(candidates, crossing{Coord{r.MaxLon, y}, Right, p1.X > p2.X})
			}
		}
	}
	// BOTTOM: y = MinLat
	if p1.Y != p2.Y {
		t := (r.MinLat - p1.Y) / (p2.Y - p1.Y)
		if 0 <= t && t <= 1 {
			x := p1.X + t*(p2.X-p1.X)
			if r.MinLon <= x && x <= r.MaxLon {
				candidates = append(candidates, crossing{Coord{x, r.MinLat}, Bottom, p1.Y < p2.Y})
			}
		}
	}
	// LEFT: x = MinLon
	if p1.X != p2.X {
		t := (r.MinLon - p1.X) / (p2.X - p1.X)
		if 0 <= t && t <= 1 {
			y := p1.Y + t*(p2.Y-p1.Y)
			if r.MinLat <= y && y <= r.MaxLat {
				candidates = append(candidates, crossing{Coord{r.MinLon, y}, Left, p1.X < p2.X})
			}
		}
	}

	if len(candidates) == 0 {
		return false, false, crossing{}, &Error{Kind: MalformedGeometry, Msg: "segment crosses rectangle boundary but no side yielded a valid intersection"}
	}

	best := candidates[0]
	bestDist := sqDist(p1, best.point)
	for _, c := range candidates[1:] {
		d := sqDist(p1, c.point)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return false, false, best, nil
}

func sqDist(a, b Coord) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// idGenerator hands out monotonically increasing SubChainIDs, scoped to
// one ClipAll invocation.
type idGenerator struct{ next SubChainID }

func (g *idGenerator) nextID() SubChainID {
	id := g.next
	g.next++
	return id
}

// ClipResult is the combined output of clipping every assembled chain
// against the rectangle: closed interior chains, every open sub-chain
// keyed by id, and the sorted, validated intersection map.
type ClipResult struct {
	ClosedChains  []Chain
	OpenSubChains map[SubChainID]OpenSubChain
	Intersections IntersectionMap
}

// ClipAll clips every assembled chain against r, accumulating closed
// interior chains, open sub-chains, and intersection events across all
// of them, then sorts and validates the resulting IntersectionMap. An
// imbalance is reported as an IncompleteCoastline *Error whose Partial
// holds the closed chains and open sub-chains found so far.
//
// Grounded on original_source/src/features/coastline_handler.py's
// bound_and_sort_complete_coastlines and validate_intersection_map.
func ClipAll(chains []Chain, r Rectangle) (ClipResult, error) {
	result := ClipResult{
		OpenSubChains: make(map[SubChainID]OpenSubChain),
	}
	gen := &idGenerator{}

	for _, chain := range chains {
		closed, open, events, err := clipOne(chain, r, gen)
		if err != nil {
			return ClipResult{}, err
		}
		if closed != nil {
			result.ClosedChains = append(result.ClosedChains, *closed)
		}
		for _, o := range open {
			result.OpenSubChains[o.ID] = o
		}
		for _, e := range events {
			result.Intersections[e.Side] = append(result.Intersections[e.Side], e)
		}
	}

	sortIntersectionMap(&result.Intersections)

	if err := validateIntersectionMap(result.Intersections); err != nil {
		if cerr, ok := err.(*Error); ok {
			partial := &PartialResult{ClosedChains: result.ClosedChains}
			for id := SubChainID(0); id < gen.next; id++ {
				if o, ok := result.OpenSubChains[id]; ok {
					partial.OpenSubChains = append(partial.OpenSubChains, o)
				}
			}
			cerr.Partial = partial
		}
		return ClipResult{}, err
	}

	return result, nil
}

// clipOne runs the boundary-clipper state machine over a single
// continuous chain.
func clipOne(chain Chain, r Rectangle, gen *idGenerator) (closed *Chain, open []OpenSubChain, events []IntersectionEvent, err error) {
	if len(chain) < 2 {
		return nil, nil, nil, nil
	}

	var acc Chain
	crossedAny := false
	currentID := gen.nextID()

	for i := 0; i < len(chain)-1; i++ {
		p1, p2 := chain[i], chain[i+1]
		inside, outside, cr, cerr := classify(p1, p2, r)
		if cerr != nil {
			return nil, nil, nil, cerr
		}

		switch {
		case inside:
			if len(acc) == 0 {
				acc = append(acc, p1)
			}
			acc = append(acc, p2)

		case outside:
			if len(acc) != 0 {
				return nil, nil, nil, &Error{Kind: InvariantViolation, Msg: "segment classified outside while accumulator was non-empty"}
			}

		default: // crossing
			crossedAny = true
			events = append(events, IntersectionEvent{
				Point:      cr.point,
				Side:       cr.side,
				IsEntering: cr.isEntering,
				BoundedID:  currentID,
			})
			if cr.isEntering {
				acc = Chain{cr.point, p2}
			} else {
				if len(acc) == 0 {
					acc = append(acc, p1)
				}
				acc = append(acc, cr.point)
				open = append(open, OpenSubChain{ID: currentID, Coords: acc})
				currentID = gen.nextID()
				acc = nil
			}
		}
	}

	if !crossedAny {
		if len(acc) != 0 {
			c := append(Chain{}, acc...)
			return &c, nil, nil, nil
		}
		return nil, nil, nil, nil
	}

	if len(acc) != 0 {
		if acc[len(acc)-1] == chain[0] && len(open) > 0 {
			// The trailing fragment loops back to the start of the
			// complete chain without crossing again: merge it onto the
			// front of the first open sub-chain produced by this chain,
			// and repoint every event tagged with the trailing
			// fragment's id at the merged sub-chain's id.
			first := open[0]
			merged := append(append(Chain{}, acc...), first.Coords[1:]...)
			mergedID := first.ID
			open[0] = OpenSubChain{ID: mergedID, Coords: merged}
			for i := range events {
				if events[i].BoundedID == currentID {
					events[i].BoundedID = mergedID
				}
			}
		} else {
			open = append(open, OpenSubChain{ID: currentID, Coords: append(Chain{}, acc...)})
		}
	}

	return nil, open, events, nil
}

func sortIntersectionMap(im *IntersectionMap) {
	for _, s := range []Side{Top, Right, Bottom, Left} {
		events := im[s]
		switch s {
		case Top: // ascending by longitude
			insertionSort(events, func(a, b IntersectionEvent) bool { return a.Point.X < b.Point.X })
		case Right: // descending by latitude
			insertionSort(events, func(a, b IntersectionEvent) bool { return a.Point.Y > b.Point.Y })
		case Bottom: // descending by longitude
			insertionSort(events, func(a, b IntersectionEvent) bool { return a.Point.X > b.Point.X })
		case Left: // ascending by latitude
			insertionSort(events, func(a, b IntersectionEvent) bool { return a.Point.Y < b.Point.Y })
		}
	}
}

// insertionSort is a small stable sort; intersection lists per side are
// short enough that this is both simple and fast, and stability matters
// for ties among corner-touching events.
func insertionSort(events []IntersectionEvent, less func(a, b IntersectionEvent) bool) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && less(events[j], events[j-1]); j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

// validateIntersectionMap checks invariant I1: the number of entering
// events equals the number of exiting events across the whole perimeter.
func validateIntersectionMap(im IntersectionMap) error {
	var totalEnter, totalExit int
	type tally struct{ enter, exit int }
	tallies := [numSides]tally{}
	for _, s := range []Side{Top, Right, Bottom, Left} {
		for _, e := range im[s] {
			if e.IsEntering {
				tallies[s].enter++
				totalEnter++
			} else {
				tallies[s].exit++
				totalExit++
			}
		}
	}
	if totalEnter == totalExit {
		return nil
	}

	worstSide := Top
	worstImbalance := 0
	for _, s := range []Side{Top, Right, Bottom, Left} {
		imbalance := tallies[s].enter - tallies[s].exit
		if abs(imbalance) > abs(worstImbalance) {
			worstSide, worstImbalance = s, imbalance
		}
	}

	return &Error{
		Kind: IncompleteCoastline,
		Msg: fmt.Sprintf(
			"entering and exiting intersection counts differ (total entering=%d, total exiting=%d); "+
				"%s carries the largest imbalance (%d): the coastline is incomplete within the current map boundaries",
			totalEnter, totalExit, worstSide, worstImbalance),
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
