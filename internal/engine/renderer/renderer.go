// Package renderer draws tree meshes with the wind sway shader.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/engine/shader"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/sway"
	"github.com/Faultbox/lsystree/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	Background [3]float32
	Wireframe  bool
	GroundSize float64 // side of the ground plane, 0 hides it
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config  Config
	program *shader.Program
	ground  *TreeMesh
	log     *zap.Logger
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{config: cfg, log: logger.Named("renderer")}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.MULTISAMPLE)

	var err error
	r.program, err = shader.Compile(sway.VertexShader, sway.FragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create sway program: %w", err)
	}

	if cfg.GroundSize > 0 {
		r.ground, err = Upload(groundPlane(cfg.GroundSize), false)
		if err != nil {
			r.program.Delete()
			return nil, fmt.Errorf("failed to create ground plane: %w", err)
		}
	}
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	r.ground.Delete()
	r.program.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float64 {
	if r.config.Height == 0 {
		return 1
	}
	return float64(r.config.Width) / float64(r.config.Height)
}

// SetBackground sets the clear colour.
func (r *Renderer) SetBackground(c [3]float32) {
	r.config.Background = c
}

// SetWireframe toggles polygon line mode.
func (r *Renderer) SetWireframe(on bool) {
	r.config.Wireframe = on
}

// Begin clears the current target and draws the ground plane.
func (r *Renderer) Begin(viewProj math.Mat4) {
	bg := r.config.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.program.Use()
	if r.ground != nil {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
		r.program.SetBool("uFlat", true)
		r.program.SetVec3("uColor", math.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
		r.program.SetFloat("uAmplitude", 0)
		r.program.SetMat4("uModel", math.Identity())
		r.program.SetMat4("uMVP", viewProj)
		r.ground.draw()
	}
	r.program.SetBool("uFlat", false)

	mode := uint32(gl.FILL)
	if r.config.Wireframe {
		mode = gl.LINE
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, mode)
}

// End finishes the current frame.
func (r *Renderer) End() {
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	gl.BindVertexArray(0)
}

// DrawOptions describes one tree draw call.
type DrawOptions struct {
	Model  math.Mat4
	Time   float64
	Wind   sway.Wind
	Shader sway.ShaderParams
	Phase  float64
	Sway   bool // false for pre-posed (skinned) meshes
}

// DrawTree draws tm. Static meshes are swayed by the vertex shader with the
// same parameters sway.VertexSway uses on the CPU.
func (r *Renderer) DrawTree(tm *TreeMesh, viewProj math.Mat4, o DrawOptions) {
	if tm == nil || tm.indexCount == 0 {
		return
	}
	p := r.program
	p.SetMat4("uModel", o.Model)
	p.SetMat4("uMVP", viewProj.Mul(o.Model))

	amp := 0.0
	if o.Sway {
		amp = o.Shader.Amplitude
		if o.Shader.ScaleByStrength {
			amp *= o.Wind.Strength
		}
	}
	axis, _ := o.Wind.HorizontalAxes()

	p.SetFloat("uTime", o.Time)
	p.SetFloat("uSpeed", o.Shader.Speed)
	p.SetFloat("uAmplitude", amp)
	p.SetFloat("uBaseThreshold", o.Shader.BaseThreshold)
	p.SetFloat("uNoise", o.Wind.Noise)
	p.SetFloat("uPhase", o.Phase)
	p.SetFloat("uRadiusFalloff", o.Shader.RadiusFalloff)
	p.SetBool("uUseNoise", o.Shader.UseNoise)
	p.SetBool("uCircular", o.Shader.Circular)
	p.SetVec3("uWindAxis", axis)

	tm.draw()
}

// DrawBounds draws a line mesh from UploadLines in a flat colour.
func (r *Renderer) DrawBounds(tm *TreeMesh, viewProj math.Mat4, color math.Vec3) {
	if tm == nil || tm.indexCount == 0 {
		return
	}
	p := r.program
	p.SetBool("uFlat", true)
	p.SetVec3("uColor", color)
	p.SetFloat("uAmplitude", 0)
	p.SetMat4("uModel", math.Identity())
	p.SetMat4("uMVP", viewProj)
	tm.draw()
	p.SetBool("uFlat", false)
}

func groundPlane(size float64) *mesh.Geometry {
	h := float32(size / 2)
	return &mesh.Geometry{
		Attributes: []mesh.Attribute{
			{Name: mesh.AttrPosition, ItemSize: 3, Data: []float32{-h, 0, -h, h, 0, -h, h, 0, h, -h, 0, h}},
			{Name: mesh.AttrNormal, ItemSize: 3, Data: []float32{0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0}},
			{Name: mesh.AttrBranchRadius, ItemSize: 1, Data: make([]float32, 4)},
			{Name: mesh.AttrHeight, ItemSize: 1, Data: make([]float32, 4)},
		},
		Indices: []uint32{0, 2, 1, 0, 3, 2},
	}
}
