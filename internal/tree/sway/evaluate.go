package sway

import (
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
	"github.com/Faultbox/lsystree/pkg/math"
)

// EvaluateVertices returns an xyz displacement per vertex of m. It reads the
// height and branchRadius attributes and never touches the mesh.
func EvaluateVertices(m *mesh.Mesh, t float64, w Wind, p ShaderParams, phase float64) []float32 {
	n := m.VertexCount()
	out := make([]float32, n*3)

	heights := m.Attribute(mesh.AttrHeight)
	radii := m.Attribute(mesh.AttrBranchRadius)
	if heights == nil {
		return out
	}

	for v := 0; v < n; v++ {
		var radius float64
		if radii != nil {
			radius = float64(radii.Data[v])
		}
		d := VertexSway(float64(heights.Data[v]), radius, t, w, p, phase).Float32()
		copy(out[v*3:], d[:])
	}
	return out
}

// Displace adds a displacement buffer to the mesh positions and returns the
// result as a new slice.
func Displace(m *mesh.Mesh, displacement []float32) []float32 {
	pos := m.Positions()
	out := make([]float32, len(pos))
	for i := range pos {
		out[i] = pos[i]
		if i < len(displacement) {
			out[i] += displacement[i]
		}
	}
	return out
}

// EvaluateBones returns a local rotation per bone. The root never sways.
func EvaluateBones(s *skeleton.Skeleton, t float64, w Wind, p BoneParams, phase float64) []math.Quat {
	out := make([]math.Quat, s.Len())
	for i, b := range s.Bones {
		if b.Parent < 0 {
			out[i] = math.QuatIdentity()
			continue
		}
		rx, rz := BoneSway(i, b.Radius, t, w, p, phase)
		out[i] = math.QuatFromEulerXYZ(rx, 0, rz)
	}
	return out
}
