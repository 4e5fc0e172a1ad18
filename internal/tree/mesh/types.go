// Package mesh builds the merged, indexed tree mesh from turtle events.
package mesh

import "fmt"

// Attribute names shared with the sway shader.
const (
	AttrPosition     = "position"
	AttrNormal       = "normal"
	AttrBranchRadius = "branchRadius"
	AttrHeight       = "height"
	AttrBoneIndex    = "boneIndex"
	AttrBoneWeight   = "boneWeight"
)

// AttributeSpec describes one attribute of a schema.
type AttributeSpec struct {
	Name     string
	ItemSize int
}

func (s AttributeSpec) String() string {
	return fmt.Sprintf("%s(%d)", s.Name, s.ItemSize)
}

// StaticSchema is the attribute layout of a static tree mesh.
var StaticSchema = []AttributeSpec{
	{AttrPosition, 3},
	{AttrNormal, 3},
	{AttrBranchRadius, 1},
	{AttrHeight, 1},
}

// SkinnedSchema extends StaticSchema with single-bone binding.
var SkinnedSchema = append(append([]AttributeSpec(nil), StaticSchema...),
	AttributeSpec{AttrBoneIndex, 1},
	AttributeSpec{AttrBoneWeight, 1},
)

// Attribute is a flat per-vertex float array.
type Attribute struct {
	Name     string
	ItemSize int
	Data     []float32
}

// Count returns the number of vertices the attribute covers.
func (a *Attribute) Count() int {
	if a.ItemSize == 0 {
		return 0
	}
	return len(a.Data) / a.ItemSize
}

// Geometry is an indexed triangle list with named attributes.
type Geometry struct {
	Attributes []Attribute
	Indices    []uint32
}

// PartKind says what produced a part of the mesh.
type PartKind uint8

const (
	PartSegment PartKind = iota
	PartLeaf
)

func (k PartKind) String() string {
	if k == PartLeaf {
		return "leaf"
	}
	return "segment"
}

// Part is the vertex and index range one event contributed to a merged mesh.
type Part struct {
	Kind        PartKind
	Segment     int // segment index, or owning segment for leaves (-1 for none)
	FirstVertex int
	VertexCount int
	FirstIndex  int
	IndexCount  int
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh is one assembled tree. Its buffers are never modified after assembly;
// rebuilding always produces a new Mesh.
type Mesh struct {
	Geometry
	Parts    []Part
	Bounds   Bounds
	Segments int
	Leaves   int
}

// Positions returns the position array (3 floats per vertex).
func (m *Mesh) Positions() []float32 {
	if a := m.Attribute(AttrPosition); a != nil {
		return a.Data
	}
	return nil
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return m.VertexCount() == 0
}

// Release drops the mesh buffers.
func (m *Mesh) Release() {
	m.Attributes = nil
	m.Indices = nil
	m.Parts = nil
}
