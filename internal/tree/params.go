// Package tree turns an expanded L-system string into a renderable tree
// asset and owns the single "current tree" slot of a viewer.
package tree

import (
	"errors"
	"fmt"
	gomath "math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/pkg/math"
	"github.com/Faultbox/lsystree/pkg/turtle"
)

// Errors returned by Build and EvaluateSway.
var (
	ErrMalformedParameter = errors.New("malformed tree parameter")
	ErrReleased           = errors.New("tree asset released")
)

// Mode selects static or skinned output.
type Mode int

const (
	ModeStatic Mode = iota
	ModeSkinned
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeSkinned:
		return "skinned"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "static" or "skinned".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "":
		return ModeStatic, nil
	case "skinned":
		return ModeSkinned, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrMalformedParameter, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Params are the build parameters of one tree.
type Params struct {
	StartRadius     float64   `yaml:"start_radius" validate:"gt=0"`
	RadiusReduction float64   `yaml:"radius_reduction" validate:"gt=0,lte=1"`
	BranchLength    float64   `yaml:"branch_length" validate:"gt=0"`
	AngleDegrees    float64   `yaml:"angle"`
	Mode            Mode      `yaml:"mode" validate:"gte=0,lte=1"`
	Position        math.Vec3 `yaml:"position"`

	// Mesh resolution, 0 means default.
	RadialSegments int     `yaml:"radial_segments" validate:"omitempty,gte=3,lte=256"`
	LeafRadius     float64 `yaml:"leaf_radius" validate:"gte=0"`
	LeafSegments   int     `yaml:"leaf_segments" validate:"omitempty,gte=3,lte=256"`
}

// DefaultParams returns the stock tree parameters.
func DefaultParams() Params {
	return Params{
		StartRadius:     1,
		RadiusReduction: 0.8,
		BranchLength:    1,
		AngleDegrees:    10,
		Mode:            ModeStatic,
		RadialSegments:  mesh.DefaultRadialSegments,
		LeafRadius:      mesh.DefaultLeafRadius,
		LeafSegments:    mesh.DefaultLeafSegments,
	}
}

var paramsValidate = validator.New()

// Validate reports the first malformed field, wrapped in ErrMalformedParameter.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"StartRadius", p.StartRadius},
		{"RadiusReduction", p.RadiusReduction},
		{"BranchLength", p.BranchLength},
		{"AngleDegrees", p.AngleDegrees},
		{"LeafRadius", p.LeafRadius},
		{"Position.X", p.Position.X},
		{"Position.Y", p.Position.Y},
		{"Position.Z", p.Position.Z},
	} {
		if gomath.IsNaN(f.v) || gomath.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrMalformedParameter, f.name)
		}
	}

	if err := paramsValidate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %s=%s (got %v)",
				ErrMalformedParameter, fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrMalformedParameter, err)
	}
	return nil
}

func (p Params) turtle() turtle.Params {
	return turtle.Params{
		StartRadius:     p.StartRadius,
		RadiusReduction: p.RadiusReduction,
		BranchLength:    p.BranchLength,
		AngleDegrees:    p.AngleDegrees,
		Position:        p.Position,
	}
}

func (p Params) assembler() mesh.Assembler {
	return mesh.Assembler{
		RadialSegments: p.RadialSegments,
		LeafRadius:     p.LeafRadius,
		LeafSegments:   p.LeafSegments,
	}
}
