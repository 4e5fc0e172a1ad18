// Package camera provides the orbit camera used by the tree viewers.
package camera

import (
	gomath "math"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float64
	Pitch    float64 // radians above the horizon
	Yaw      float64 // radians around +Y

	// Constraints
	MinDistance float64
	MaxDistance float64
	MinPitch    float64
	MaxPitch    float64

	// Sensitivity
	DragSensitivity float64
	ZoomSensitivity float64

	FovY      float64 // radians
	Near, Far float64
}

// NewOrbitCamera creates an orbit camera framing a default-sized tree.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Center:          math.Vec3{Y: 5},
		Distance:        20,
		Pitch:           0.3,
		MinDistance:     1,
		MaxDistance:     500,
		MinPitch:        -1.2,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FovY:            gomath.Pi / 4,
		Near:            0.1,
		Far:             1000,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	cp := gomath.Cos(c.Pitch)
	return c.Center.Add(math.Vec3{
		X: c.Distance * cp * gomath.Sin(c.Yaw),
		Y: c.Distance * gomath.Sin(c.Pitch),
		Z: c.Distance * cp * gomath.Cos(c.Yaw),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// Projection returns the perspective matrix for the given viewport aspect.
func (c *OrbitCamera) Projection(aspect float64) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return math.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// ViewProjection is Projection(aspect) × ViewMatrix().
func (c *OrbitCamera) ViewProjection(aspect float64) math.Mat4 {
	return c.Projection(aspect).Mul(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(dx, dy float64) {
	c.Yaw -= dx * c.DragSensitivity
	c.Pitch = clamp(c.Pitch+dy*c.DragSensitivity, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float64) {
	c.Distance = clamp(c.Distance-delta*c.Distance*c.ZoomSensitivity, c.MinDistance, c.MaxDistance)
}

// FitToBounds centers on the box and backs off until its bounding sphere
// fits the vertical field of view. Empty bounds keep the current framing.
func (c *OrbitCamera) FitToBounds(b mesh.Bounds) {
	lo, hi := math.Vec3From(b.Min), math.Vec3From(b.Max)
	radius := hi.Sub(lo).Length() / 2
	if radius == 0 {
		return
	}
	c.Center = lo.Add(hi).Scale(0.5)
	c.Distance = clamp(radius/gomath.Sin(c.FovY/2), c.MinDistance, c.MaxDistance)
	if c.Far < c.Distance+radius*2 {
		c.Far = c.Distance + radius*2
	}
}

func clamp(v, lo, hi float64) float64 {
	return gomath.Max(lo, gomath.Min(hi, v))
}
