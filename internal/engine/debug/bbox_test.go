package debug

import (
	"testing"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
)

func TestBoundsGeometry(t *testing.T) {
	b := mesh.Bounds{Min: [3]float32{-1, 0, -2}, Max: [3]float32{1, 4, 2}}
	g := BoundsGeometry(b, 0.5)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if n := g.VertexCount(); n != 8 {
		t.Fatalf("VertexCount() = %d, want 8", n)
	}
	if len(g.Indices) != 24 {
		t.Fatalf("got %d indices, want 24 (12 edges)", len(g.Indices))
	}

	pos := g.Attribute(mesh.AttrPosition).Data
	if pos[0] != -1.5 || pos[1] != -0.5 || pos[2] != -2.5 {
		t.Errorf("first corner = %v, want padded minimum", pos[:3])
	}
	if pos[18] != 1.5 || pos[19] != 4.5 || pos[20] != 2.5 {
		t.Errorf("corner 6 = %v, want padded maximum", pos[18:21])
	}

	// Every corner touches exactly three edges.
	degree := make(map[uint32]int)
	for _, idx := range g.Indices {
		degree[idx]++
	}
	for v := uint32(0); v < 8; v++ {
		if degree[v] != 3 {
			t.Errorf("corner %d has %d edges, want 3", v, degree[v])
		}
	}
}
