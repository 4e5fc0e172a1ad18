package sway

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
	"github.com/Faultbox/lsystree/pkg/math"
	"github.com/Faultbox/lsystree/pkg/turtle"
)

var eastWind = Wind{Direction: math.Vec3{X: 1}, Strength: 1}

func TestVertexSwayMatchesReferenceFormula(t *testing.T) {
	p := DefaultShaderParams()
	w := eastWind
	w.Noise = 0.25

	for _, tc := range []struct{ height, time float64 }{
		{0, 0}, {1, 0.5}, {3.2, 10}, {7, -2},
	} {
		angle := tc.time*p.Speed + w.Noise*gomath.Pi
		wantX := gomath.Sin(angle) * p.Amplitude * tc.height
		wantZ := gomath.Cos(angle) * p.Amplitude * tc.height

		d := VertexSway(tc.height, 0.5, tc.time, w, p, 0)
		assert.InDelta(t, wantX, d.X, 1e-12)
		assert.InDelta(t, wantZ, d.Z, 1e-12)
		assert.Zero(t, d.Y)
	}
}

func TestVertexSwayBelowThresholdIsZero(t *testing.T) {
	p := DefaultShaderParams()
	p.BaseThreshold = 2

	assert.Equal(t, math.Vec3{}, VertexSway(1.9, 1, 3, eastWind, p, 0))
	assert.NotEqual(t, math.Vec3{}, VertexSway(2.5, 1, 3, eastWind, p, 0))
}

func TestVertexSwaySingleAxis(t *testing.T) {
	p := DefaultShaderParams()
	p.Circular = false

	d := VertexSway(4, 0, 1.3, eastWind, p, 0)
	assert.Zero(t, d.Z)
	assert.NotZero(t, d.X)
}

func TestVertexSwayFollowsWindDirection(t *testing.T) {
	p := DefaultShaderParams()
	p.Circular = false
	w := Wind{Direction: math.Vec3{Z: 2, Y: 5}}

	d := VertexSway(4, 0, 1.3, w, p, 0)
	assert.InDelta(t, 0, d.X, 1e-12)
	assert.InDelta(t, gomath.Sin(1.3)*p.Amplitude*4, d.Z, 1e-12)
}

func TestVertexSwayScaling(t *testing.T) {
	p := DefaultShaderParams()
	p.UseNoise = false
	base := VertexSway(4, 1, 0.7, eastWind, p, 0)

	p.ScaleByStrength = true
	strong := VertexSway(4, 1, 0.7, Wind{Direction: eastWind.Direction, Strength: 3}, p, 0)
	assert.InDelta(t, base.X*3, strong.X, 1e-12)

	p.ScaleByStrength = false
	p.RadiusFalloff = 1
	thick := VertexSway(4, 1, 0.7, eastWind, p, 0)
	assert.InDelta(t, base.X/2, thick.X, 1e-12)
}

func TestVertexSwayIsDeterministic(t *testing.T) {
	p := DefaultShaderParams()
	a := VertexSway(3, 0.2, 12.5, eastWind, p, 0.4)
	b := VertexSway(3, 0.2, 12.5, eastWind, p, 0.4)
	assert.Equal(t, a, b)

	c := VertexSway(3, 0.2, 12.5, eastWind, p, 1.7)
	assert.NotEqual(t, a, c, "phase offsets decorrelate instances")
}

func TestBoneSwayMatchesReferenceFormula(t *testing.T) {
	p := DefaultBoneParams()
	w := Wind{Direction: math.Vec3{X: 1, Z: 0.5}, Strength: 5}

	rx, rz := BoneSway(3, 0.4, 2, w, p, 0)

	s := 5 * 0.01
	infl := 1.0 / 1.4
	assert.InDelta(t, 1*s*infl*gomath.Sin(2+0.3), rx, 1e-12)
	assert.InDelta(t, 0.5*s*infl*gomath.Cos(2+0.3), rz, 1e-12)
}

func TestThinnerBonesSwayMore(t *testing.T) {
	p := DefaultBoneParams()
	thick, _ := BoneSway(1, 2, 1, eastWind, p, 0)
	thin, _ := BoneSway(1, 0.1, 1, eastWind, p, 0)
	assert.Greater(t, gomath.Abs(thin), gomath.Abs(thick))
}

func buildSkinned(t *testing.T) (*skeleton.Skeleton, *mesh.Mesh) {
	t.Helper()
	p := turtle.Params{StartRadius: 1, RadiusReduction: 0.8, BranchLength: 1, AngleDegrees: 30}
	res := turtle.Interpret("ff[+fl][-fl]f", p)
	skel, m, err := skeleton.Builder{Assembler: mesh.DefaultAssembler()}.Build(res.Events, p.Position)
	require.NoError(t, err)
	return skel, m
}

func TestEvaluateBonesKeepsRootStill(t *testing.T) {
	skel, _ := buildSkinned(t)
	w := Wind{Direction: math.Vec3{X: 1, Z: 1}, Strength: 50}

	rots := EvaluateBones(skel, 1.5, w, DefaultBoneParams(), 0)
	require.Len(t, rots, skel.Len())
	assert.True(t, rots[skeleton.RootBone].IsIdentity())
	for i := 1; i < len(rots); i++ {
		assert.False(t, rots[i].IsIdentity(), "bone %d", i)
	}
}

func TestEvaluateBonesDrivesSkinning(t *testing.T) {
	skel, m := buildSkinned(t)
	w := Wind{Direction: math.Vec3{X: 1, Z: 1}, Strength: 50}

	rest, _ := skeleton.Skin(m, skel.SkinMatrices(nil))
	posed, _ := skeleton.Skin(m, skel.SkinMatrices(EvaluateBones(skel, 1.5, w, DefaultBoneParams(), 0)))
	assert.NotEqual(t, rest, posed)

	calm, _ := skeleton.Skin(m, skel.SkinMatrices(EvaluateBones(skel, 1.5, Wind{}, DefaultBoneParams(), 0)))
	assert.InDeltaSlice(t, rest, calm, 1e-6)
}

func TestEvaluateVertices(t *testing.T) {
	res := turtle.Interpret("ff", turtle.Params{StartRadius: 1, RadiusReduction: 0.8, BranchLength: 1, AngleDegrees: 30})
	m, err := mesh.DefaultAssembler().Assemble(res.Events)
	require.NoError(t, err)

	p := DefaultShaderParams()
	d := EvaluateVertices(m, 0.8, eastWind, p, 0)
	require.Len(t, d, m.VertexCount()*3)

	heights := m.Attribute(mesh.AttrHeight).Data
	radii := m.Attribute(mesh.AttrBranchRadius).Data
	for v := 0; v < m.VertexCount(); v += 7 {
		want := VertexSway(float64(heights[v]), float64(radii[v]), 0.8, eastWind, p, 0).Float32()
		assert.Equal(t, want[:], d[v*3:v*3+3])
	}

	// Vertices at ground level never move.
	for v := 0; v < m.VertexCount(); v++ {
		if heights[v] == 0 {
			assert.Zero(t, d[v*3])
			assert.Zero(t, d[v*3+2])
		}
	}

	displaced := Displace(m, d)
	pos := m.Positions()
	require.Len(t, displaced, len(pos))
	assert.Equal(t, pos[3]+d[3], displaced[3])
}

func TestShadersEmbedded(t *testing.T) {
	assert.Contains(t, VertexShader, "uWindAxis")
	assert.Contains(t, VertexShader, "aBranchRadius")
	assert.Contains(t, FragmentShader, "FragColor")
}
