package skeleton

import (
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/pkg/math"
)

// SkinMatrices returns, per bone, the matrix that carries a rest-pose vertex
// to its posed position. rotations[i] is bone i's local rotation about its
// head; missing entries are treated as identity.
func (s *Skeleton) SkinMatrices(rotations []math.Quat) []math.Mat4 {
	world := make([]math.Mat4, len(s.Bones))
	skin := make([]math.Mat4, len(s.Bones))

	for i, b := range s.Bones {
		local := math.Translate(s.LocalTranslation(i))
		if i < len(rotations) && !rotations[i].IsIdentity() {
			local = local.Mul(rotations[i].ToMat4())
		}
		if b.Parent >= 0 {
			world[i] = world[b.Parent].Mul(local)
		} else {
			world[i] = local
		}
		skin[i] = world[i].Mul(math.Translate(b.Head.Scale(-1)))
	}
	return skin
}

// Skin deforms the mesh positions and normals with single-bone linear blend
// skinning. The mesh itself is not modified.
func Skin(m *mesh.Mesh, matrices []math.Mat4) (positions, normals []float32) {
	pos := m.Attribute(mesh.AttrPosition)
	nrm := m.Attribute(mesh.AttrNormal)
	bones := m.Attribute(mesh.AttrBoneIndex)
	weights := m.Attribute(mesh.AttrBoneWeight)
	if pos == nil || bones == nil {
		return nil, nil
	}

	n := m.VertexCount()
	positions = make([]float32, n*3)
	if nrm != nil {
		normals = make([]float32, n*3)
	}

	for v := 0; v < n; v++ {
		bone := int(bones.Data[v])
		mat := math.Identity()
		if bone >= 0 && bone < len(matrices) {
			mat = matrices[bone]
		}
		w := 1.0
		if weights != nil {
			w = float64(weights.Data[v])
		}

		p := math.Vec3From([3]float32{pos.Data[v*3], pos.Data[v*3+1], pos.Data[v*3+2]})
		skinned := mat.TransformPoint(p).Scale(w).Add(p.Scale(1 - w)).Float32()
		copy(positions[v*3:], skinned[:])

		if nrm != nil {
			d := math.Vec3From([3]float32{nrm.Data[v*3], nrm.Data[v*3+1], nrm.Data[v*3+2]})
			rotated := mat.TransformDirection(d).Normalize().Float32()
			copy(normals[v*3:], rotated[:])
		}
	}
	return positions, normals
}
