package osm

import "testing"

func TestPackUnpackIndicesRoundTrip(t *testing.T) {
	cases := []struct{ wayIdx, posIdx int }{
		{0, 0},
		{1, 2},
		{1 << 20, 5000},
		{0, 1<<32 - 1},
	}
	for _, c := range cases {
		packed := packIndices(c.wayIdx, c.posIdx)
		wayIdx, posIdx := unpackIndices(packed)
		if wayIdx != c.wayIdx || posIdx != c.posIdx {
			t.Errorf("packIndices(%d, %d) round-tripped to (%d, %d)", c.wayIdx, c.posIdx, wayIdx, posIdx)
		}
	}
}
