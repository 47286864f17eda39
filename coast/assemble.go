package coast

// Assemble joins coastline ways into continuous chains by shared
// endpoint coordinates. Ways are consumed in the order: start from the
// longest unused way, repeatedly extend the growing chain by finding an
// unused way whose start or end coordinate matches the chain's current
// end or start; when no extension is found, emit the chain (if it has
// at least two points) and seed a new one from any remaining unused
// way. Matching on the endpoint coordinate rather than the OSM node id
// is equivalent here (two ways sharing a node resolve to the identical
// float Lon/Lat) and lets the assembler run on CoastlineWay values
// whose NodeRefs were never populated.
//
// Grounded on original_source/src/features/coastline_handler.py's
// convert_coastline_ways_into_continuous_lines, generalized from a
// single-pass dict-keyed-by-way-id scan to the same algorithm over a
// slice, and on osm/util.go's sortRelationWays, which performs the same
// shared-endpoint stitching for relation members.
func Assemble(ways []CoastlineWay) ([]Chain, error) {
	type section struct {
		coords Chain
		used   bool
		start  Coord
		end    Coord
	}

	sections := make([]*section, 0, len(ways))
	for _, w := range ways {
		if len(w.Coords) < 2 {
			continue
		}
		sections = append(sections, &section{
			coords: w.Coords,
			start:  w.Coords[0],
			end:    w.Coords[len(w.Coords)-1],
		})
	}

	var chains []Chain

	seed := func() *section {
		var longest *section
		for _, s := range sections {
			if s.used {
				continue
			}
			if longest == nil || len(s.coords) > len(longest.coords) {
				longest = s
			}
		}
		return longest
	}

	for {
		s := seed()
		if s == nil {
			break
		}
		s.used = true

		chain := append(Chain{}, s.coords...)
		chainStart := s.start
		chainEnd := s.end

		for {
			extended := false
			for _, cand := range sections {
				if cand.used {
					continue
				}
				switch {
				case cand.start == chainEnd:
					chain = append(chain, cand.coords[1:]...)
					chainEnd = cand.end
					cand.used = true
					extended = true
				case cand.end == chainStart:
					chain = append(append(Chain{}, cand.coords[:len(cand.coords)-1]...), chain...)
					chainStart = cand.start
					cand.used = true
					extended = true
				}
				if extended {
					break
				}
			}
			if !extended || chainStart == chainEnd {
				break
			}
		}

		if len(chain) >= 2 {
			chains = append(chains, chain)
		}
	}

	return chains, nil
}
