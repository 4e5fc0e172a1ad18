package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
)

// Shader attribute locations. Bone attributes are CPU-only.
var attribLocations = map[string]uint32{
	mesh.AttrPosition:     0,
	mesh.AttrNormal:       1,
	mesh.AttrBranchRadius: 2,
	mesh.AttrHeight:       3,
}

// binding is one vertex attribute pointer inside the interleaved buffer.
type binding struct {
	location uint32
	size     int32
	offset   int
}

// bindings maps the geometry's attributes onto shader locations. Attributes
// the shader does not read are skipped but still occupy the stride.
func bindings(g *mesh.Geometry) ([]binding, int32, error) {
	offsets, stride := g.Layout()
	out := make([]binding, 0, len(attribLocations))
	for i, a := range g.Attributes {
		loc, ok := attribLocations[a.Name]
		if !ok {
			continue
		}
		out = append(out, binding{location: loc, size: int32(a.ItemSize), offset: offsets[i]})
	}
	if len(out) != len(attribLocations) {
		return nil, 0, fmt.Errorf("%w: shader needs %d attributes, geometry has %v",
			mesh.ErrAttributeSchemaMismatch, len(attribLocations), g.Schema())
	}
	return out, int32(stride), nil
}

// TreeMesh is a tree geometry resident on the GPU.
type TreeMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
	primitive     uint32
	dynamic       bool
	geom          mesh.Geometry // attribute layout for pose updates
}

// Upload copies g into GPU buffers. dynamic meshes accept UpdatePose.
func Upload(g *mesh.Geometry, dynamic bool) (*TreeMesh, error) {
	binds, stride, err := bindings(g)
	if err != nil {
		return nil, err
	}

	tm := &TreeMesh{indexCount: int32(len(g.Indices)), primitive: gl.TRIANGLES, dynamic: dynamic}
	if dynamic {
		tm.geom = mesh.Geometry{Attributes: append([]mesh.Attribute(nil), g.Attributes...)}
	}
	if tm.indexCount == 0 {
		return tm, nil
	}

	usage := uint32(gl.STATIC_DRAW)
	if dynamic {
		usage = gl.DYNAMIC_DRAW
	}
	vertices := g.Interleave()

	gl.GenVertexArrays(1, &tm.vao)
	gl.BindVertexArray(tm.vao)

	gl.GenBuffers(1, &tm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, tm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), usage)

	gl.GenBuffers(1, &tm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, tm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, gl.Ptr(g.Indices), gl.STATIC_DRAW)

	for _, b := range binds {
		gl.VertexAttribPointer(b.location, b.size, gl.FLOAT, false, stride, gl.PtrOffset(b.offset))
		gl.EnableVertexAttribArray(b.location)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return tm, nil
}

// UploadLines copies g as a line list; its indices are vertex pairs.
func UploadLines(g *mesh.Geometry) (*TreeMesh, error) {
	tm, err := Upload(g, false)
	if err != nil {
		return nil, err
	}
	tm.primitive = gl.LINES
	return tm, nil
}

// UpdatePose replaces positions and normals of a dynamic mesh, e.g. with
// skinned output.
func (tm *TreeMesh) UpdatePose(positions, normals []float32) error {
	if !tm.dynamic {
		return fmt.Errorf("update pose: mesh was uploaded static")
	}
	if tm.indexCount == 0 {
		return nil
	}
	tm.geom.SetAttribute(mesh.AttrPosition, 3, positions)
	if normals != nil {
		tm.geom.SetAttribute(mesh.AttrNormal, 3, normals)
	}
	if err := tm.geom.Validate(); err != nil {
		return fmt.Errorf("update pose: %w", err)
	}

	vertices := tm.geom.Interleave()
	gl.BindBuffer(gl.ARRAY_BUFFER, tm.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

// Delete frees the GPU buffers. Safe on nil.
func (tm *TreeMesh) Delete() {
	if tm == nil {
		return
	}
	if tm.vao != 0 {
		gl.DeleteVertexArrays(1, &tm.vao)
		tm.vao = 0
	}
	if tm.vbo != 0 {
		gl.DeleteBuffers(1, &tm.vbo)
		tm.vbo = 0
	}
	if tm.ebo != 0 {
		gl.DeleteBuffers(1, &tm.ebo)
		tm.ebo = 0
	}
	tm.indexCount = 0
}

func (tm *TreeMesh) draw() {
	if tm.vao == 0 {
		return
	}
	gl.BindVertexArray(tm.vao)
	gl.DrawElements(tm.primitive, tm.indexCount, gl.UNSIGNED_INT, nil)
}
