package osm

import "testing"

func TestDefaultFilterBuilding(t *testing.T) {
	tags := Tags{{Key: "building", Val: "yes"}}
	if class := DefaultFilter(WayType, tags); class != Building {
		t.Errorf("got class %d, want Building", class)
	}
}

func TestDefaultFilterPrefersBuildingOverHighway(t *testing.T) {
	tags := Tags{{Key: "building", Val: "yes"}, {Key: "highway", Val: "residential"}}
	if class := DefaultFilter(WayType, tags); class != Building {
		t.Errorf("got class %d, want Building, tag-priority order broken", class)
	}
}

func TestDefaultFilterRoad(t *testing.T) {
	tags := Tags{{Key: "highway", Val: "residential"}}
	if class := DefaultFilter(WayType, tags); class != Road {
		t.Errorf("got class %d, want Road", class)
	}
}

func TestDefaultFilterIgnoresPlatformHighway(t *testing.T) {
	tags := Tags{{Key: "highway", Val: "platform"}}
	if class := DefaultFilter(WayType, tags); class != 0 {
		t.Errorf("got class %d, want 0 (unclassified)", class)
	}
}

func TestDefaultFilterWater(t *testing.T) {
	for _, tags := range []Tags{
		{{Key: "natural", Val: "water"}},
		{{Key: "natural", Val: "bay"}},
		{{Key: "waterway", Val: "riverbank"}},
	} {
		if class := DefaultFilter(WayType, tags); class != Water {
			t.Errorf("tags %v: got class %d, want Water", tags, class)
		}
	}
}

func TestDefaultFilterPark(t *testing.T) {
	for _, tags := range []Tags{
		{{Key: "landuse", Val: "park"}},
		{{Key: "leisure", Val: "garden"}},
	} {
		if class := DefaultFilter(WayType, tags); class != Park {
			t.Errorf("tags %v: got class %d, want Park", tags, class)
		}
	}
}

func TestDefaultFilterCoastline(t *testing.T) {
	tags := Tags{{Key: "natural", Val: "coastline"}}
	if class := DefaultFilter(WayType, tags); class != Coastline {
		t.Errorf("got class %d, want Coastline", class)
	}
}

func TestDefaultFilterUnrecognizedTagsAreSkipped(t *testing.T) {
	tags := Tags{{Key: "name", Val: "something"}}
	if class := DefaultFilter(WayType, tags); class != 0 {
		t.Errorf("got class %d, want 0 (unclassified)", class)
	}
}

func TestBoundaryFilterRequiresRelationType(t *testing.T) {
	tags := Tags{{Key: "boundary", Val: "administrative"}}
	if class := BoundaryFilter(WayType, tags); class != 0 {
		t.Errorf("got class %d, want 0 for a way carrying an administrative boundary tag", class)
	}
	if class := BoundaryFilter(RelationType, tags); class != Boundary {
		t.Errorf("got class %d, want Boundary for a relation carrying the tag", class)
	}
}
