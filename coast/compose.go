package coast

// Output is the final product of the engine: every closed land area
// within the rectangle, whether it never touched the boundary or was
// assembled by the closure walker.
type Output struct {
	Land []LandPolygon
}

// Compose runs the full pipeline: assemble coastline ways into chains,
// clip them against r, and close any chains the boundary cut open.
// Closed interior chains and walker-produced polygons are concatenated
// in that order; no deduplication is performed.
func Compose(ways []CoastlineWay, r Rectangle) (Output, error) {
	chains, err := Assemble(ways)
	if err != nil {
		return Output{}, err
	}

	clipped, err := ClipAll(chains, r)
	if err != nil {
		return Output{}, err
	}

	closed, err := Walk(clipped.OpenSubChains, clipped.Intersections, r)
	if err != nil {
		return Output{}, err
	}

	out := Output{}
	for _, c := range clipped.ClosedChains {
		out.Land = append(out.Land, LandPolygon(c))
	}
	out.Land = append(out.Land, closed...)
	return out, nil
}
