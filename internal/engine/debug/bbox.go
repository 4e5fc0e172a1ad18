// Package debug provides debug visualization utilities.
package debug

import "github.com/Faultbox/lsystree/internal/tree/mesh"

// boxEdges indexes the 8 box corners produced by BoundsGeometry into 12
// edges: bottom face, top face, then the verticals.
var boxEdges = []uint32{
	0, 1, 1, 2, 2, 3, 3, 0,
	4, 5, 5, 6, 6, 7, 7, 4,
	0, 4, 1, 5, 2, 6, 3, 7,
}

// BoundsGeometry creates a line-list box around b, grown by padding on all
// sides. The geometry carries the static tree schema so it can be drawn
// with the tree program; Indices are line pairs, not triangles.
func BoundsGeometry(b mesh.Bounds, padding float32) *mesh.Geometry {
	minX, minY, minZ := b.Min[0]-padding, b.Min[1]-padding, b.Min[2]-padding
	maxX, maxY, maxZ := b.Max[0]+padding, b.Max[1]+padding, b.Max[2]+padding

	positions := []float32{
		minX, minY, minZ, maxX, minY, minZ, maxX, minY, maxZ, minX, minY, maxZ,
		minX, maxY, minZ, maxX, maxY, minZ, maxX, maxY, maxZ, minX, maxY, maxZ,
	}
	normals := make([]float32, len(positions))
	for i := 1; i < len(normals); i += 3 {
		normals[i] = 1
	}

	return &mesh.Geometry{
		Attributes: []mesh.Attribute{
			{Name: mesh.AttrPosition, ItemSize: 3, Data: positions},
			{Name: mesh.AttrNormal, ItemSize: 3, Data: normals},
			{Name: mesh.AttrBranchRadius, ItemSize: 1, Data: make([]float32, 8)},
			{Name: mesh.AttrHeight, ItemSize: 1, Data: make([]float32, 8)},
		},
		Indices: append([]uint32(nil), boxEdges...),
	}
}
