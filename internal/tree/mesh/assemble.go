package mesh

import (
	"fmt"

	"github.com/Faultbox/lsystree/pkg/turtle"
)

// Assembler defaults, used for zero fields.
const (
	DefaultRadialSegments = 8
	DefaultLeafRadius     = 0.3
	DefaultLeafSegments   = 8
)

// Assembler turns turtle events into one static mesh.
type Assembler struct {
	RadialSegments int     // sides of every branch frustum
	LeafRadius     float64 // radius of the leaf sphere
	LeafSegments   int     // width and height segments of the leaf sphere
}

// DefaultAssembler returns an Assembler with the default resolution.
func DefaultAssembler() Assembler {
	return Assembler{
		RadialSegments: DefaultRadialSegments,
		LeafRadius:     DefaultLeafRadius,
		LeafSegments:   DefaultLeafSegments,
	}
}

func (a Assembler) withDefaults() Assembler {
	if a.RadialSegments <= 0 {
		a.RadialSegments = DefaultRadialSegments
	}
	if a.LeafRadius <= 0 {
		a.LeafRadius = DefaultLeafRadius
	}
	if a.LeafSegments <= 0 {
		a.LeafSegments = DefaultLeafSegments
	}
	return a
}

// Segment builds the world-space frustum for one segment with the static
// attribute schema. Every vertex carries the segment's base radius.
func (a Assembler) Segment(seg turtle.SegmentPlaced) *Geometry {
	a = a.withDefaults()
	g := Frustum(seg.Base, seg.Orientation, seg.BaseRadius, seg.TopRadius, seg.Height(), a.RadialSegments)
	g.FillAttribute(AttrBranchRadius, float32(seg.BaseRadius))
	fillHeight(g)
	return g
}

// Leaf builds the leaf sphere with the same schema as Segment.
func (a Assembler) Leaf(leaf turtle.LeafPlaced) *Geometry {
	a = a.withDefaults()
	g := Sphere(leaf.Position, a.LeafRadius, a.LeafSegments, a.LeafSegments)
	g.FillAttribute(AttrBranchRadius, float32(leaf.Radius))
	fillHeight(g)
	return g
}

// fillHeight stores world Y per vertex; the sway shader gates on it.
func fillHeight(g *Geometry) {
	pos := g.Attribute(AttrPosition).Data
	heights := make([]float32, len(pos)/3)
	for i := range heights {
		heights[i] = pos[i*3+1]
	}
	g.SetAttribute(AttrHeight, 1, heights)
}

// PartFunc builds the geometry for one event. Decorators (the skeleton
// builder) wrap Assembler.Part to append attributes.
type PartFunc func(ev turtle.Event) (*Geometry, Part, bool)

// Part builds the geometry for a segment or leaf event.
func (a Assembler) Part(ev turtle.Event) (*Geometry, Part, bool) {
	switch e := ev.(type) {
	case turtle.SegmentPlaced:
		return a.Segment(e), Part{Kind: PartSegment, Segment: e.Index}, true
	case turtle.LeafPlaced:
		return a.Leaf(e), Part{Kind: PartLeaf, Segment: e.SegmentIndex}, true
	default:
		return nil, Part{}, false
	}
}

// Assemble builds one merged mesh from events. An empty event list yields an
// empty, valid mesh.
func (a Assembler) Assemble(events []turtle.Event) (*Mesh, error) {
	return Build(events, a.Part)
}

// Build merges the geometry produced by part for every event.
func Build(events []turtle.Event, part PartFunc) (*Mesh, error) {
	geoms := make([]*Geometry, 0, len(events))
	parts := make([]Part, 0, len(events))
	m := &Mesh{}

	vertex, index := 0, 0
	for _, ev := range events {
		g, p, ok := part(ev)
		if !ok {
			continue
		}
		p.FirstVertex, p.VertexCount = vertex, g.VertexCount()
		p.FirstIndex, p.IndexCount = index, len(g.Indices)
		vertex += p.VertexCount
		index += p.IndexCount

		if p.Kind == PartLeaf {
			m.Leaves++
		} else {
			m.Segments++
		}
		geoms = append(geoms, g)
		parts = append(parts, p)
	}

	merged, err := Merge(geoms...)
	if err != nil {
		return nil, fmt.Errorf("merge tree geometry: %w", err)
	}

	m.Geometry = *merged
	m.Parts = parts
	m.Bounds = computeBounds(m.Positions())
	return m, nil
}

func computeBounds(pos []float32) Bounds {
	if len(pos) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for i := 0; i+2 < len(pos); i += 3 {
		updateBounds(&b, [3]float32{pos[i], pos[i+1], pos[i+2]})
	}
	return b
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}
