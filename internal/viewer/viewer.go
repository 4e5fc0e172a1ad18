// Package viewer implements the SDL tree viewer: it grows the configured
// preset, plants the forest and renders it swaying in the wind.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/config"
	"github.com/Faultbox/lsystree/internal/engine/audio"
	"github.com/Faultbox/lsystree/internal/engine/camera"
	"github.com/Faultbox/lsystree/internal/engine/debug"
	"github.com/Faultbox/lsystree/internal/engine/framebuffer"
	"github.com/Faultbox/lsystree/internal/engine/input"
	"github.com/Faultbox/lsystree/internal/engine/renderer"
	"github.com/Faultbox/lsystree/internal/engine/scene"
	"github.com/Faultbox/lsystree/internal/engine/window"
	"github.com/Faultbox/lsystree/internal/forest"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/session"
	"github.com/Faultbox/lsystree/internal/tree"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg *config.Config

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	scene    *scene.Scene
	camera   *camera.OrbitCamera
	audio    *audio.Manager
	shots    *debug.Screenshots

	session *session.Session
	forest  *forest.Forest
	lib     *preset.Library
	current preset.Preset

	reloads chan *preset.Library
	fitted  bool
	paused  bool
	clock   float64 // wind time in seconds, frozen while paused

	log *zap.Logger
}

// New creates the window, GL resources and the tree session. s may share a
// cache with other front ends.
func New(cfg *config.Config, s *session.Session) (*Viewer, error) {
	v := &Viewer{
		cfg:     cfg,
		session: s,
		camera:  camera.NewOrbitCamera(),
		reloads: make(chan *preset.Library, 1),
		shots:   debug.NewScreenshots(cfg.Capture.Dir, "lsystree", cfg.Capture.Format),
		log:     logger.Named("viewer"),
	}
	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Stringer("mode", cfg.Tree.Mode),
	)

	var err error
	v.lib, err = cfg.LSystem.Library()
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	v.current, err = cfg.LSystem.Resolve(v.lib)
	if err != nil {
		return nil, fmt.Errorf("resolve preset: %w", err)
	}

	v.window, err = window.New(window.Config{
		Title:      "lsystree",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		MSAA:       cfg.Graphics.MSAA,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	dw, dh := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:      dw,
		Height:     dh,
		Background: cfg.Graphics.Background,
		Wireframe:  cfg.Graphics.Wireframe,
		GroundSize: groundSize(cfg.Forest),
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.scene, err = scene.New(v.renderer, scene.Config{Width: int32(dw), Height: int32(dh)})
	if err != nil {
		v.Close()
		return nil, err
	}

	v.input = input.New()
	v.forest = forest.New(nil, cfg.Wind.SwayOptions())
	v.forest.SetLimit(cfg.Forest.Workers)
	v.forest.Grid(max(cfg.Forest.Rows, 1), max(cfg.Forest.Cols, 1), cfg.Forest.Spacing)

	if cfg.Audio.Enabled {
		v.startAudio()
	}

	v.log.Info("viewer initialized", zap.String("preset", v.current.Name), zap.Int("instances", v.forest.Len()))
	return v, nil
}

// groundSize covers the forest with a margin; the reference ground is 10.
func groundSize(f config.ForestConfig) float64 {
	span := float64(max(f.Rows, f.Cols)-1) * f.Spacing
	return span + 10
}

func (v *Viewer) startAudio() {
	v.audio = audio.New()
	if err := v.audio.Init(); err != nil {
		v.log.Warn("audio disabled", zap.Error(err))
		v.audio = nil
		return
	}
	v.audio.SetVolume(v.cfg.Audio.Volume)

	var err error
	if v.cfg.Audio.File != "" {
		var data []byte
		if data, err = os.ReadFile(v.cfg.Audio.File); err == nil {
			err = v.audio.PlayFile(data)
		}
	} else {
		err = v.audio.PlayNoise(uint64(time.Now().UnixNano()))
	}
	if err != nil {
		v.log.Warn("wind ambience failed", zap.Error(err))
	}
}

// Run grows the configured tree and runs the main loop until the window is
// closed or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if v.cfg.LSystem.AutoUpdate && v.cfg.LSystem.PresetFile != "" {
		v.watch(ctx, v.cfg.LSystem.PresetFile)
	}
	v.regenerate(ctx)

	last := time.Now()
	frames := 0
	fpsTimer := time.Now()

	v.log.Info("starting main loop")
	for ctx.Err() == nil {
		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		if v.input.Update() {
			break
		}
		v.handleEvents(ctx)

		select {
		case lib := <-v.reloads:
			v.applyLibrary(ctx, lib)
		default:
		}

		if !v.paused {
			v.clock += dt
		}
		if err := v.render(ctx); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		v.window.SwapBuffers()

		frames++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frames), zap.Float64("dt_ms", dt*1000))
			v.updateTitle(frames)
			frames = 0
			fpsTimer = time.Now()
		}
		v.limitFPS(now)
	}
	return nil
}

func (v *Viewer) limitFPS(frameStart time.Time) {
	if v.cfg.Graphics.FPSLimit <= 0 {
		return
	}
	budget := time.Second / time.Duration(v.cfg.Graphics.FPSLimit)
	if spent := time.Since(frameStart); spent < budget {
		time.Sleep(budget - spent)
	}
}

func (v *Viewer) updateTitle(fps int) {
	st := v.session.Status()
	title := fmt.Sprintf("lsystree | %s | gen %d/%d | %d symbols | %d fps",
		v.current.Name, st.Generation, st.Generations, st.Symbols, fps)
	if st.Err != nil {
		title += " | error: " + st.Err.Error()
	}
	v.window.SetTitle(title)
}

func (v *Viewer) handleEvents(ctx context.Context) {
	for _, e := range v.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			w, h := v.window.DrawableSize()
			v.renderer.Resize(w, h)
		case input.EventMouseDrag:
			v.camera.HandleDrag(e.DX, e.DY)
		case input.EventMouseWheel:
			v.camera.HandleZoom(e.DY)
		case input.EventFileDrop:
			v.openPresetFile(ctx, e.Path)
		case input.EventKeyDown:
			v.handleKey(ctx, e.Key)
		}
	}
}

func (v *Viewer) handleKey(ctx context.Context, key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_R:
		v.regenerate(ctx)
	case sdl.SCANCODE_N:
		v.nextPreset(ctx)
	case sdl.SCANCODE_M:
		if v.cfg.Tree.Mode == tree.ModeSkinned {
			v.cfg.Tree.Mode = tree.ModeStatic
		} else {
			v.cfg.Tree.Mode = tree.ModeSkinned
		}
		v.log.Info("mode changed", zap.Stringer("mode", v.cfg.Tree.Mode))
		v.regenerate(ctx)
	case sdl.SCANCODE_A:
		v.cfg.LSystem.Animated = !v.cfg.LSystem.Animated
		v.regenerate(ctx)
	case sdl.SCANCODE_W:
		v.cfg.Graphics.Wireframe = !v.cfg.Graphics.Wireframe
		v.renderer.SetWireframe(v.cfg.Graphics.Wireframe)
	case sdl.SCANCODE_B:
		v.cfg.Graphics.ShowBounds = !v.cfg.Graphics.ShowBounds
	case sdl.SCANCODE_G:
		v.cfg.Wind.Gusts = !v.cfg.Wind.Gusts
	case sdl.SCANCODE_SPACE:
		v.paused = !v.paused
		if v.audio != nil {
			v.audio.SetPaused(v.paused)
		}
	case sdl.SCANCODE_F:
		v.fitted = false
	case sdl.SCANCODE_BACKSPACE, sdl.SCANCODE_DELETE:
		v.session.Delete()
	case sdl.SCANCODE_P, sdl.SCANCODE_F12:
		v.screenshot()
	}
}

func (v *Viewer) regenerate(ctx context.Context) {
	v.fitted = false
	v.session.Regenerate(ctx, session.Request{
		Preset:   v.current,
		Params:   v.cfg.Tree,
		Animated: v.cfg.LSystem.Animated,
		Delay:    v.cfg.LSystem.AnimationDelay,
	})
}

func (v *Viewer) nextPreset(ctx context.Context) {
	names := v.lib.Names()
	if len(names) == 0 {
		return
	}
	next := names[0]
	for i, n := range names {
		if n == v.current.Name {
			next = names[(i+1)%len(names)]
			break
		}
	}
	v.selectPreset(ctx, next)
}

func (v *Viewer) selectPreset(ctx context.Context, name string) {
	lsys := v.cfg.LSystem
	lsys.Preset, lsys.Axiom, lsys.Rules = name, "", nil
	p, err := lsys.Resolve(v.lib)
	if err != nil {
		v.log.Warn("preset rejected", zap.String("preset", name), zap.Error(err))
		return
	}
	v.cfg.LSystem = lsys
	v.current = p
	v.log.Info("preset selected", zap.String("preset", name))
	v.regenerate(ctx)
}

func (v *Viewer) openPresetFile(ctx context.Context, path string) {
	lib, err := preset.LoadFile(path)
	if err != nil {
		v.log.Warn("dropped file is not a preset library", zap.String("path", path), zap.Error(err))
		return
	}
	v.cfg.LSystem.PresetFile = path
	v.applyLibrary(ctx, lib)
	if v.cfg.LSystem.AutoUpdate {
		v.watch(ctx, path)
	}
}

// applyLibrary overlays lib on the library and rebuilds: the current preset
// if lib redefines it, otherwise lib's first preset.
func (v *Viewer) applyLibrary(ctx context.Context, lib *preset.Library) {
	if len(lib.Presets) == 0 {
		return
	}
	name := lib.Presets[0].Name
	for _, p := range lib.Presets {
		v.lib.Put(p)
		if p.Name == v.current.Name {
			name = p.Name
		}
	}
	v.selectPreset(ctx, name)
}

func (v *Viewer) watch(ctx context.Context, path string) {
	w := preset.NewWatcher(path, 0, func(lib *preset.Library, err error) {
		if err != nil {
			v.log.Warn("preset reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		select {
		case v.reloads <- lib:
		default:
		}
	})
	if err := w.Start(ctx); err != nil {
		v.log.Warn("preset watch failed", zap.String("path", path), zap.Error(err))
	}
}

func (v *Viewer) render(ctx context.Context) error {
	a := v.session.Builder().Current()
	changed, err := v.scene.Sync(a)
	if err != nil {
		if !errors.Is(err, tree.ErrReleased) {
			return err
		}
		a = nil
	}
	v.forest.SetAsset(a)
	v.forest.SetOptions(v.cfg.Wind.SwayOptions())

	// Keep framing a tree while it grows.
	if a != nil && (!v.fitted || (changed && v.session.Status().Running)) {
		v.fitCamera(a)
	}
	v.showBounds(a)

	wind := v.cfg.Wind.WindAt(v.clock)
	if v.audio != nil {
		v.audio.SetWind(wind)
	}

	draws, err := scene.Draws(ctx, v.forest, v.clock, wind)
	if err != nil {
		if !errors.Is(err, tree.ErrReleased) {
			return err
		}
		draws = nil
	}
	v.scene.Render(v.camera, draws, v.clock, wind, v.cfg.Wind.SwayOptions().Shader)
	return nil
}

// fitCamera frames the whole forest.
func (v *Viewer) fitCamera(a *tree.Asset) {
	_ = a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
		v.camera.FitToBounds(v.forest.Bounds(m.Bounds))
		return nil
	})
	v.fitted = true
}

func (v *Viewer) showBounds(a *tree.Asset) {
	if a == nil || !v.cfg.Graphics.ShowBounds {
		v.scene.ShowBounds(nil)
		return
	}
	_ = a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
		b := v.forest.Bounds(m.Bounds)
		v.scene.ShowBounds(&b)
		return nil
	})
}

func (v *Viewer) screenshot() {
	w, h := v.window.DrawableSize()
	path, err := v.shots.Save(framebuffer.ReadViewport(w, h))
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")
	v.session.Stop()
	if v.audio != nil {
		v.audio.Close()
	}
	if v.scene != nil {
		v.scene.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
