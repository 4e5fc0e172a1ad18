// Package sway evaluates the cosmetic wind motion of built trees. Static
// meshes sway per vertex (the same formula runs in the vertex shader); skinned
// meshes sway per bone. Both are pure functions of time and static inputs.
package sway

import (
	gomath "math"

	"github.com/Faultbox/lsystree/pkg/math"
)

// Wind is process-wide and shared by every tree instance.
type Wind struct {
	Direction math.Vec3 // only X and Z are used
	Strength  float64
	Noise     float64 // externally supplied sample, 0 when none
}

// HorizontalAxes returns the unit wind axis in the XZ plane and its
// horizontal perpendicular. A wind without horizontal component sways along X.
func (w Wind) HorizontalAxes() (axis, perp math.Vec3) {
	axis = math.Vec3{X: w.Direction.X, Z: w.Direction.Z}.Normalize()
	if axis == (math.Vec3{}) {
		axis = math.Vec3{X: 1}
	}
	return axis, math.Vec3{X: -axis.Z, Z: axis.X}
}

// ShaderParams controls the per-vertex sway of static meshes.
type ShaderParams struct {
	Speed           float64 // time multiplier
	Amplitude       float64 // displacement per unit of height
	BaseThreshold   float64 // vertices below this height stay still
	UseNoise        bool    // add Noise*π to the phase
	Circular        bool    // second, cosine axis for elliptical sway
	ScaleByStrength bool    // multiply Amplitude by Wind.Strength
	RadiusFalloff   float64 // thick branches sway less: 1/(1+falloff*radius), 0 disables
}

// DefaultShaderParams returns a gentle circular sway.
func DefaultShaderParams() ShaderParams {
	return ShaderParams{
		Speed:         1.0,
		Amplitude:     0.025,
		BaseThreshold: 0.0,
		UseNoise:      true,
		Circular:      true,
	}
}

// VertexSway returns the displacement of one vertex. phase is the
// per-instance offset.
func VertexSway(height, radius, t float64, w Wind, p ShaderParams, phase float64) math.Vec3 {
	factor := height
	if factor < p.BaseThreshold {
		return math.Vec3{}
	}

	amp := p.Amplitude * factor
	if p.ScaleByStrength {
		amp *= w.Strength
	}
	if p.RadiusFalloff > 0 {
		amp /= 1 + p.RadiusFalloff*radius
	}

	angle := t*p.Speed + phase
	if p.UseNoise {
		angle += w.Noise * gomath.Pi
	}

	axis, perp := w.HorizontalAxes()
	out := axis.Scale(gomath.Sin(angle) * amp)
	if p.Circular {
		out = out.Add(perp.Scale(gomath.Cos(angle) * amp))
	}
	return out
}

// BoneParams controls the per-bone sway of skinned meshes.
type BoneParams struct {
	Flexibility   float64 // overall bendiness
	PhaseStep     float64 // phase delay per bone index
	StrengthScale float64 // multiplier applied to Wind.Strength
}

// DefaultBoneParams returns the default bone sway.
func DefaultBoneParams() BoneParams {
	return BoneParams{
		Flexibility:   1.0,
		PhaseStep:     0.1,
		StrengthScale: 0.01,
	}
}

// BoneSway returns the local X and Z rotation (radians) of bone index with
// the given radius. Thinner bones get a larger influence.
func BoneSway(index int, radius, t float64, w Wind, p BoneParams, phase float64) (rx, rz float64) {
	strength := w.Strength * p.StrengthScale
	influence := p.Flexibility / (radius + 1)
	angle := t + float64(index)*p.PhaseStep + phase

	rx = w.Direction.X * strength * influence * gomath.Sin(angle)
	rz = w.Direction.Z * strength * influence * gomath.Cos(angle)
	return rx, rz
}
