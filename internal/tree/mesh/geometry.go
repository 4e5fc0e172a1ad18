package mesh

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrAttributeSchemaMismatch is returned when geometries with different
	// attribute layouts are merged, or an attribute does not cover every vertex.
	ErrAttributeSchemaMismatch = errors.New("attribute schema mismatch")

	// ErrIndexOutOfRange is returned when an index refers past the last vertex.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// VertexCount returns the number of vertices, taken from the position attribute.
func (g *Geometry) VertexCount() int {
	if a := g.Attribute(AttrPosition); a != nil {
		return a.Count()
	}
	return 0
}

// Attribute returns the named attribute or nil.
func (g *Geometry) Attribute(name string) *Attribute {
	for i := range g.Attributes {
		if g.Attributes[i].Name == name {
			return &g.Attributes[i]
		}
	}
	return nil
}

// SetAttribute adds or replaces an attribute.
func (g *Geometry) SetAttribute(name string, itemSize int, data []float32) {
	if a := g.Attribute(name); a != nil {
		a.ItemSize = itemSize
		a.Data = data
		return
	}
	g.Attributes = append(g.Attributes, Attribute{Name: name, ItemSize: itemSize, Data: data})
}

// FillAttribute adds a scalar attribute holding value for every vertex.
func (g *Geometry) FillAttribute(name string, value float32) {
	data := make([]float32, g.VertexCount())
	for i := range data {
		data[i] = value
	}
	g.SetAttribute(name, 1, data)
}

// Schema returns the attribute layout in declaration order.
func (g *Geometry) Schema() []AttributeSpec {
	specs := make([]AttributeSpec, len(g.Attributes))
	for i, a := range g.Attributes {
		specs[i] = AttributeSpec{Name: a.Name, ItemSize: a.ItemSize}
	}
	return specs
}

// Validate checks that every attribute covers exactly VertexCount vertices
// and that every index is in range.
func (g *Geometry) Validate() error {
	if len(g.Attributes) == 0 {
		if len(g.Indices) > 0 {
			return fmt.Errorf("%w: %d indices without vertices", ErrIndexOutOfRange, len(g.Indices))
		}
		return nil
	}
	if g.Attribute(AttrPosition) == nil {
		return fmt.Errorf("%w: no %s attribute", ErrAttributeSchemaMismatch, AttrPosition)
	}

	n := g.VertexCount()
	for _, a := range g.Attributes {
		if a.ItemSize <= 0 || len(a.Data) != n*a.ItemSize {
			return fmt.Errorf("%w: %s has %d values, want %d",
				ErrAttributeSchemaMismatch, a.Name, len(a.Data), n*a.ItemSize)
		}
	}
	for i, idx := range g.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: index %d = %d, vertex count %d", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

// Merge concatenates geometries into one, offsetting indices. All parts must
// share the first part's schema; a mismatch fails the whole merge.
func Merge(parts ...*Geometry) (*Geometry, error) {
	out := &Geometry{}
	if len(parts) == 0 {
		return out, nil
	}

	schema := parts[0].Schema()
	totalVerts, totalIdx := 0, 0
	for i, p := range parts {
		if got := p.Schema(); !slices.Equal(got, schema) {
			return nil, fmt.Errorf("%w: part %d has %v, want %v", ErrAttributeSchemaMismatch, i, got, schema)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		totalVerts += p.VertexCount()
		totalIdx += len(p.Indices)
	}

	out.Attributes = make([]Attribute, len(schema))
	for i, s := range schema {
		out.Attributes[i] = Attribute{
			Name:     s.Name,
			ItemSize: s.ItemSize,
			Data:     make([]float32, 0, totalVerts*s.ItemSize),
		}
	}
	out.Indices = make([]uint32, 0, totalIdx)

	for _, p := range parts {
		offset := uint32(out.VertexCount())
		for i := range p.Attributes {
			out.Attributes[i].Data = append(out.Attributes[i].Data, p.Attributes[i].Data...)
		}
		for _, idx := range p.Indices {
			out.Indices = append(out.Indices, idx+offset)
		}
	}
	return out, nil
}

// Layout returns the byte offset of each attribute inside an interleaved
// vertex and the stride.
func (g *Geometry) Layout() (offsets []int, stride int) {
	offsets = make([]int, len(g.Attributes))
	for i, a := range g.Attributes {
		offsets[i] = stride
		stride += a.ItemSize * 4
	}
	return offsets, stride
}

// Interleave packs all attributes vertex by vertex for GPU upload.
func (g *Geometry) Interleave() []float32 {
	n := g.VertexCount()
	_, stride := g.Layout()
	floats := stride / 4

	out := make([]float32, 0, n*floats)
	for v := 0; v < n; v++ {
		for _, a := range g.Attributes {
			out = append(out, a.Data[v*a.ItemSize:(v+1)*a.ItemSize]...)
		}
	}
	return out
}
