// Package scene draws a forest of swaying trees, either to the window or to
// an offscreen framebuffer.
package scene

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/engine/camera"
	"github.com/Faultbox/lsystree/internal/engine/debug"
	"github.com/Faultbox/lsystree/internal/engine/framebuffer"
	"github.com/Faultbox/lsystree/internal/engine/renderer"
	"github.com/Faultbox/lsystree/internal/forest"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/tree"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
	"github.com/Faultbox/lsystree/internal/tree/sway"
	"github.com/Faultbox/lsystree/pkg/math"
)

// Config contains scene configuration options.
type Config struct {
	Width     int32
	Height    int32
	Offscreen bool // render into a framebuffer texture
}

// Draw is one tree instance to render. Positions and Normals are set for
// skinned assets; static assets are swayed on the GPU.
type Draw struct {
	Offset    math.Vec3
	Phase     float64
	Positions []float32
	Normals   []float32
}

// Scene keeps the GPU copy of the current asset.
type Scene struct {
	config      Config
	renderer    *renderer.Renderer
	framebuffer *framebuffer.Framebuffer

	asset *tree.Asset
	mode  tree.Mode
	mesh  *renderer.TreeMesh

	bounds    *renderer.TreeMesh
	boundsBox mesh.Bounds

	log *zap.Logger
}

// New creates a scene drawing with r.
func New(r *renderer.Renderer, cfg Config) (*Scene, error) {
	s := &Scene{config: cfg, renderer: r, log: logger.Named("scene")}
	if cfg.Offscreen {
		var err error
		s.framebuffer, err = framebuffer.New(cfg.Width, cfg.Height)
		if err != nil {
			return nil, fmt.Errorf("creating framebuffer: %w", err)
		}
	}
	return s, nil
}

// Sync uploads a when it differs from the asset on the GPU. It reports
// whether a new mesh was uploaded. A nil asset clears the scene.
func (s *Scene) Sync(a *tree.Asset) (bool, error) {
	if a == s.asset {
		return false, nil
	}

	var uploaded *renderer.TreeMesh
	if a != nil {
		err := a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
			var err error
			uploaded, err = renderer.Upload(&m.Geometry, a.Mode == tree.ModeSkinned)
			return err
		})
		if err != nil {
			return false, fmt.Errorf("upload tree %s: %w", a.ID, err)
		}
		s.mode = a.Mode
	}

	s.mesh.Delete()
	s.mesh = uploaded
	s.asset = a
	if a != nil {
		s.log.Debug("tree uploaded", zap.Stringer("id", a.ID), zap.Stringer("mode", a.Mode))
	}
	return true, nil
}

// boundsColor is the overlay colour of ShowBounds.
var boundsColor = math.Vec3{X: 1, Y: 0.85, Z: 0.2}

// ShowBounds outlines b on the next renders. nil hides the outline.
func (s *Scene) ShowBounds(b *mesh.Bounds) {
	if b == nil {
		s.bounds.Delete()
		s.bounds = nil
		return
	}
	if s.bounds != nil && *b == s.boundsBox {
		return
	}
	tm, err := renderer.UploadLines(debug.BoundsGeometry(*b, 0.05))
	if err != nil {
		s.log.Warn("bounds upload failed", zap.Error(err))
		return
	}
	s.bounds.Delete()
	s.bounds = tm
	s.boundsBox = *b
}

// Asset returns the asset currently on the GPU.
func (s *Scene) Asset() *tree.Asset {
	return s.asset
}

// Draws evaluates the forest at time t. Skinned forests are evaluated on
// the CPU in parallel; static forests only need their instance placements.
func Draws(ctx context.Context, f *forest.Forest, t float64, w sway.Wind) ([]Draw, error) {
	a := f.Asset()
	if a == nil {
		return nil, nil
	}
	if a.Mode != tree.ModeSkinned {
		instances := f.Instances()
		draws := make([]Draw, len(instances))
		for i, inst := range instances {
			draws[i] = Draw{Offset: inst.Offset, Phase: inst.Phase}
		}
		return draws, nil
	}

	frames, err := f.Evaluate(ctx, t, w)
	if err != nil {
		return nil, err
	}
	draws := make([]Draw, len(frames))
	for i, fr := range frames {
		draws[i] = Draw{Offset: fr.Offset, Phase: fr.Phase, Positions: fr.Positions, Normals: fr.Normals}
	}
	return draws, nil
}

// Render draws the ground and every instance. It returns the framebuffer
// texture for offscreen scenes and 0 otherwise.
func (s *Scene) Render(cam *camera.OrbitCamera, draws []Draw, t float64, w sway.Wind, p sway.ShaderParams) uint32 {
	aspect := s.renderer.Aspect()
	if s.framebuffer != nil {
		aspect = float64(s.config.Width) / float64(s.config.Height)
		restore := s.framebuffer.BindWithViewport()
		defer restore()
	}
	viewProj := cam.ViewProjection(aspect)

	s.renderer.Begin(viewProj)
	if s.mesh == nil {
		draws = nil
	}
	for _, d := range draws {
		o := renderer.DrawOptions{
			Model:  math.Translate(d.Offset),
			Time:   t,
			Wind:   w,
			Shader: p,
			Phase:  d.Phase,
			Sway:   s.mode != tree.ModeSkinned,
		}
		if d.Positions != nil {
			if err := s.mesh.UpdatePose(d.Positions, d.Normals); err != nil {
				s.log.Warn("pose update failed", zap.Error(err))
				continue
			}
		}
		s.renderer.DrawTree(s.mesh, viewProj, o)
	}
	s.renderer.DrawBounds(s.bounds, viewProj, boundsColor)
	s.renderer.End()

	if s.framebuffer == nil {
		return 0
	}
	return s.framebuffer.ColorTexture()
}

// Resize changes the offscreen target size.
func (s *Scene) Resize(width, height int32) {
	s.config.Width, s.config.Height = width, height
	if s.framebuffer != nil {
		s.framebuffer.Resize(width, height)
	}
}

// Size returns the offscreen target size.
func (s *Scene) Size() (int32, int32) {
	return s.config.Width, s.config.Height
}

// Destroy frees the GPU mesh and framebuffer.
func (s *Scene) Destroy() {
	s.mesh.Delete()
	s.mesh = nil
	s.asset = nil
	s.bounds.Delete()
	s.bounds = nil
	if s.framebuffer != nil {
		s.framebuffer.Destroy()
		s.framebuffer = nil
	}
}
