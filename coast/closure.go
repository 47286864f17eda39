package coast

// cursor is a position within an IntersectionMap: a side and an index
// into that side's (already sorted) event list.
type cursor struct {
	side  Side
	index int
}

// Walk finds the first entering event in clockwise perimeter order
// (Top, Right, Bottom, Left, scanning each side's sorted events in
// order) and joins open sub-chains starting from it. If no entering
// event exists the map is fully closed already and Walk returns no
// polygons.
//
// Grounded on original_source/src/features/coastline_handler.py's
// find_intersection_map_starting_point and join_open_coastlines.
func Walk(open map[SubChainID]OpenSubChain, im IntersectionMap, r Rectangle) ([]LandPolygon, error) {
	start, ok := findStartingPoint(im)
	if !ok {
		return nil, nil
	}
	return walkFrom(open, im, start, r)
}

func findStartingPoint(im IntersectionMap) (cursor, bool) {
	for _, s := range []Side{Top, Right, Bottom, Left} {
		for i, e := range im[s] {
			if e.IsEntering {
				return cursor{side: s, index: i}, true
			}
		}
	}
	return cursor{}, false
}

const (
	lookingForExit = iota
	lookingForEnter
)

// walkFrom runs the closure state machine starting at the given cursor
// within im, producing one or more closed LandPolygons. A polygon
// closes each time the cursor rejoins the exit event it started from;
// an exit of a different id encountered while looking for that exit is
// a nested island and is spliced in directly (case 3 below); a second
// such exit while one nested entrance is already being tracked is an
// InvariantViolation. Entering events of other ids met while seeking
// that nested entrance are deferred to a later recursive pass over
// their own IntersectionMap (case 7). Running off the end of a side's
// event list while still seeking
// the root exit inserts that side's clockwise-next corner, so the
// polygon follows the rectangle edge across any stretch with no
// coastline crossings.
func walkFrom(open map[SubChainID]OpenSubChain, im IntersectionMap, start cursor, r Rectangle) ([]LandPolygon, error) {
	startEvent := im[start.side][start.index]
	startChain, ok := open[startEvent.BoundedID]
	if !ok {
		return nil, &Error{Kind: InvariantViolation, Msg: "starting intersection references an unknown open sub-chain"}
	}

	var polygons []LandPolygon
	var deferred []IntersectionMap

	lookingFor := lookingForExit
	exitID := startEvent.BoundedID
	haveExit := true
	var entranceID SubChainID
	haveEntrance := false

	acc := append(Chain{}, startChain.Coords...)

	current := newIntersectionMap()
	haveCurrentDeferred := false

	side, index := start.side, start.index+1

	for side != start.side || index != start.index {
		if index >= len(im[side]) {
			if lookingFor == lookingForExit && !haveEntrance {
				acc = append(Chain{r.ClockwiseCorner(side)}, acc...)
			}
			side, index = side.next(), 0
			continue
		}

		ev := im[side][index]
		evChain, ok := open[ev.BoundedID]
		if !ok {
			return nil, &Error{Kind: InvariantViolation, Msg: "intersection references an unknown open sub-chain"}
		}

		switch lookingFor {
		case lookingForExit:
			if ev.IsEntering {
				return nil, &Error{Kind: InvariantViolation, Msg: "found an entering intersection while looking for an exit"}
			}
			if !haveExit {
				return nil, &Error{Kind: InvariantViolation, Msg: "found an exiting intersection with no exit id being tracked"}
			}
			if ev.BoundedID == exitID {
				acc = append(Chain{evChain.Coords[len(evChain.Coords)-1]}, acc...)
				polygons = append(polygons, LandPolygon(acc))
				haveExit = false
				acc = nil
				lookingFor = lookingForEnter
				index++
				continue
			}
			if haveEntrance {
				return nil, &Error{Kind: InvariantViolation, Msg: "found a second nested exit while already tracking a nested entrance"}
			}
			entranceID = ev.BoundedID
			haveEntrance = true
			acc = append(append(Chain{}, evChain.Coords...), acc...)
			lookingFor = lookingForEnter
			index++
			continue

		case lookingForEnter:
			if !ev.IsEntering {
				return nil, &Error{Kind: InvariantViolation, Msg: "found an exiting intersection while looking for an entrance"}
			}
			if !haveExit {
				exitID = ev.BoundedID
				haveExit = true
				acc = append(Chain{}, evChain.Coords...)
				lookingFor = lookingForExit
				index++
				continue
			}
			if haveEntrance && ev.BoundedID == entranceID {
				haveEntrance = false
				if haveCurrentDeferred {
					deferred = append(deferred, current)
					current = newIntersectionMap()
					haveCurrentDeferred = false
				}
				lookingFor = lookingForExit
				index++
				continue
			}
			current[side] = append(current[side], ev)
			haveCurrentDeferred = true
			index++
			continue
		}
	}

	for _, dm := range deferred {
		dstart, ok := findStartingPoint(dm)
		if !ok {
			continue
		}
		sub, err := walkFrom(open, dm, dstart, r)
		if err != nil {
			return nil, err
		}
		polygons = append(polygons, sub...)
	}

	return polygons, nil
}
