package tree

import (
	"fmt"

	"github.com/Faultbox/lsystree/internal/tree/skeleton"
	"github.com/Faultbox/lsystree/internal/tree/sway"
	"github.com/Faultbox/lsystree/pkg/math"
)

// SwayOptions configures one sway evaluation.
type SwayOptions struct {
	Shader sway.ShaderParams
	Bones  sway.BoneParams
	Phase  float64 // per-instance offset
	Skin   bool    // also produce skinned positions for skinned assets
}

// DefaultSwayOptions returns the reference sway settings with CPU skinning on.
func DefaultSwayOptions() SwayOptions {
	return SwayOptions{
		Shader: sway.DefaultShaderParams(),
		Bones:  sway.DefaultBoneParams(),
		Skin:   true,
	}
}

// SwayFrame is the animation state of one asset at one instant. Static
// assets fill Displacements; skinned assets fill Rotations and, when
// requested, Positions and Normals.
type SwayFrame struct {
	Time          float64
	Displacements []float32
	Rotations     []math.Quat
	Positions     []float32
	Normals       []float32
}

// EvaluateSway computes the sway of a at time t. It is a pure function of
// its inputs and never modifies the asset.
func EvaluateSway(a *Asset, t float64, w sway.Wind, opts SwayOptions) (SwayFrame, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.released {
		return SwayFrame{}, fmt.Errorf("evaluate sway of %s: %w", a.ID, ErrReleased)
	}

	frame := SwayFrame{Time: t}
	switch a.Mode {
	case ModeSkinned:
		frame.Rotations = sway.EvaluateBones(a.Skeleton, t, w, opts.Bones, opts.Phase)
		if opts.Skin {
			frame.Positions, frame.Normals = skeleton.Skin(a.Mesh, a.Skeleton.SkinMatrices(frame.Rotations))
		}
	default:
		frame.Displacements = sway.EvaluateVertices(a.Mesh, t, w, opts.Shader, opts.Phase)
	}
	return frame, nil
}
