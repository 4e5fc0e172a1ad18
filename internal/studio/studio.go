// Package studio is the interactive tree editor: an ImGui panel of tree,
// grammar and wind settings next to an offscreen render of the forest.
package studio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/config"
	"github.com/Faultbox/lsystree/internal/engine/audio"
	"github.com/Faultbox/lsystree/internal/engine/camera"
	"github.com/Faultbox/lsystree/internal/engine/debug"
	"github.com/Faultbox/lsystree/internal/engine/renderer"
	"github.com/Faultbox/lsystree/internal/engine/scene"
	"github.com/Faultbox/lsystree/internal/engine/ui"
	"github.com/Faultbox/lsystree/internal/forest"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/session"
	"github.com/Faultbox/lsystree/internal/tree"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
)

// Layout
const (
	panelWidth      = float32(340)
	statusBarHeight = float32(30)
	autoUpdateQuiet = 250 * time.Millisecond
	noticeDuration  = 2 * time.Second
)

// App is the studio application state. All methods except the dialog
// goroutines run on the main thread.
type App struct {
	cfg *config.Config

	backend  *ui.Backend
	renderer *renderer.Renderer
	scene    *scene.Scene
	camera   *camera.OrbitCamera
	audio    *audio.Manager
	shots    *debug.Screenshots

	session *session.Session
	forest  *forest.Forest
	lib     *preset.Library

	form   form
	settle settle

	ctx       context.Context
	last      time.Time
	clock     float64
	paused    bool
	fitted    bool
	lastMouse imgui.Vec2
	viewSize  [2]int32 // viewport panel size in pixels

	// Dialog and watcher results, drained on the main thread.
	opened  chan string
	saved   chan string
	reloads chan *preset.Library
	dropped chan string

	shotRequested bool
	notice        string
	noticeAt      time.Time

	log *zap.Logger
}

// New creates the window and GL resources. The scene is rendered offscreen
// at the configured graphics size and shown inside the viewport panel.
func New(cfg *config.Config, s *session.Session) (*App, error) {
	app := &App{
		cfg:     cfg,
		session: s,
		camera:  camera.NewOrbitCamera(),
		shots:   debug.NewScreenshots(cfg.Capture.Dir, "lsystree-studio", cfg.Capture.Format),
		settle:  settle{quiet: autoUpdateQuiet},
		opened:  make(chan string, 1),
		saved:   make(chan string, 1),
		reloads: make(chan *preset.Library, 1),
		dropped: make(chan string, 4),
		log:     logger.Named("studio"),
	}

	var err error
	app.lib, err = cfg.LSystem.Library()
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	current, err := cfg.LSystem.Resolve(app.lib)
	if err != nil {
		return nil, fmt.Errorf("resolve preset: %w", err)
	}
	app.form = newForm(cfg, current)

	app.backend, err = ui.NewBackend("lsystree studio", cfg.Graphics.Width+int(panelWidth), cfg.Graphics.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}
	if f := app.backend.Font(); f != "" {
		app.log.Debug("font loaded", zap.String("path", f))
	}
	app.backend.OnDrop(func(paths []string) {
		for _, p := range paths {
			select {
			case app.dropped <- p:
			default:
			}
		}
	})

	// renderer.New initialises the GL function pointers for the context the
	// backend just created.
	app.renderer, err = renderer.New(renderer.Config{
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Background: cfg.Graphics.Background,
		Wireframe:  cfg.Graphics.Wireframe,
		GroundSize: float64(max(cfg.Forest.Rows, cfg.Forest.Cols)-1)*cfg.Forest.Spacing + 10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	app.scene, err = scene.New(app.renderer, scene.Config{
		Width:     int32(cfg.Graphics.Width),
		Height:    int32(cfg.Graphics.Height),
		Offscreen: true,
	})
	if err != nil {
		app.renderer.Close()
		return nil, err
	}

	app.forest = forest.New(nil, cfg.Wind.SwayOptions())
	app.forest.SetLimit(cfg.Forest.Workers)
	app.forest.Grid(max(cfg.Forest.Rows, 1), max(cfg.Forest.Cols, 1), cfg.Forest.Spacing)

	if cfg.Audio.Enabled {
		app.startAudio()
	}
	return app, nil
}

func (app *App) startAudio() {
	app.audio = audio.New()
	if err := app.audio.Init(); err != nil {
		app.log.Warn("audio disabled", zap.Error(err))
		app.audio = nil
		return
	}
	app.audio.SetVolume(app.cfg.Audio.Volume)

	var err error
	if app.cfg.Audio.File != "" {
		var data []byte
		if data, err = os.ReadFile(app.cfg.Audio.File); err == nil {
			err = app.audio.PlayFile(data)
		}
	} else {
		err = app.audio.PlayNoise(uint64(time.Now().UnixNano()))
	}
	if err != nil {
		app.log.Warn("wind ambience failed", zap.Error(err))
	}
}

// Run builds the configured tree and runs the UI loop until the window is
// closed. Cancelling ctx closes the window.
func (app *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.ctx = ctx

	if app.cfg.LSystem.AutoUpdate && app.cfg.LSystem.PresetFile != "" {
		app.watch(app.cfg.LSystem.PresetFile)
	}
	app.regenerate()

	app.last = time.Now()
	app.backend.Run(app.frame)
}

// frame is called once per frame by the backend.
func (app *App) frame() {
	if app.ctx.Err() != nil {
		app.backend.Close()
		return
	}

	// Capture at the start of the frame to get the previous frame's pixels.
	if app.shotRequested {
		app.shotRequested = false
		app.captureScreenshot()
	}

	now := time.Now()
	dt := now.Sub(app.last).Seconds()
	app.last = now
	if !app.paused {
		app.clock += dt
	}

	app.drainEvents()
	app.handleShortcuts()
	if app.form.AutoUpdate && app.settle.due(now) {
		app.regenerate()
	}

	if w, h := app.viewSize[0], app.viewSize[1]; w > 0 && h > 0 {
		if sw, sh := app.scene.Size(); w != sw || h != sh {
			app.scene.Resize(w, h)
		}
	}
	texture := app.renderScene()
	app.layout(texture)
}

func (app *App) drainEvents() {
	for {
		select {
		case path := <-app.opened:
			app.openPresetFile(path)
		case path := <-app.dropped:
			app.openPresetFile(path)
		case path := <-app.saved:
			app.savePresetFile(path)
		case lib := <-app.reloads:
			app.applyLibrary(lib)
		default:
			return
		}
	}
}

func (app *App) handleShortcuts() {
	if ui.Pressed(imgui.KeyF12) {
		app.shotRequested = true
	}
	if ui.Pressed(imgui.KeyR, imgui.ModCtrl) {
		app.regenerate()
	}
	if ui.Pressed(imgui.KeyO, imgui.ModCtrl) {
		app.openPresetDialog()
	}
	if ui.Pressed(imgui.KeyS, imgui.ModCtrl) {
		app.savePresetDialog()
	}
	if !imgui.IsAnyItemActive() && ui.Pressed(imgui.KeySpace) {
		app.togglePause()
	}
}

func (app *App) togglePause() {
	app.paused = !app.paused
	if app.audio != nil {
		app.audio.SetPaused(app.paused)
	}
}

// changed records a panel edit. Grammar and tree edits rebuild when auto
// update is on; wind edits apply on the next frame either way.
func (app *App) changed(rebuild bool) {
	app.form.apply(app.cfg)
	app.renderer.SetWireframe(app.cfg.Graphics.Wireframe)
	if rebuild {
		app.settle.touch(time.Now())
	}
}

func (app *App) regenerate() {
	app.form.apply(app.cfg)
	app.fitted = false
	p := app.form.preset()
	if err := p.Validate(); err != nil {
		app.notify("Invalid rules: " + err.Error())
		return
	}
	app.session.Regenerate(app.ctx, session.Request{
		Preset:   p,
		Params:   app.cfg.Tree,
		Animated: app.cfg.LSystem.Animated,
		Delay:    app.cfg.LSystem.AnimationDelay,
	})
}

func (app *App) selectPreset(name string) {
	p, err := app.lib.Get(name)
	if err != nil {
		app.notify(err.Error())
		return
	}
	app.form.loadPreset(p)
	app.backend.SetWindowTitle("lsystree studio - " + name)
	app.log.Info("preset selected", zap.String("preset", name))
	app.changed(true)
	if !app.form.AutoUpdate {
		app.regenerate()
	}
}

// applyLibrary overlays lib on the library and selects the edited preset if
// lib redefines it, otherwise lib's first preset.
func (app *App) applyLibrary(lib *preset.Library) {
	if len(lib.Presets) == 0 {
		return
	}
	name := lib.Presets[0].Name
	for _, p := range lib.Presets {
		app.lib.Put(p)
		if p.Name == app.form.Preset {
			name = p.Name
		}
	}
	app.selectPreset(name)
}

func (app *App) watch(path string) {
	w := preset.NewWatcher(path, 0, func(lib *preset.Library, err error) {
		if err != nil {
			app.log.Warn("preset reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		select {
		case app.reloads <- lib:
		default:
		}
	})
	if err := w.Start(app.ctx); err != nil {
		app.log.Warn("preset watch failed", zap.String("path", path), zap.Error(err))
	}
}

// renderScene draws the forest offscreen and returns the colour texture.
func (app *App) renderScene() uint32 {
	a := app.session.Builder().Current()
	changed, err := app.scene.Sync(a)
	if err != nil {
		if !errors.Is(err, tree.ErrReleased) {
			app.log.Error("tree upload failed", zap.Error(err))
		}
		a = nil
	}
	app.forest.SetAsset(a)
	app.forest.SetOptions(app.cfg.Wind.SwayOptions())

	if a != nil && (!app.fitted || (changed && app.session.Status().Running)) {
		_ = a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
			app.camera.FitToBounds(app.forest.Bounds(m.Bounds))
			return nil
		})
		app.fitted = true
	}
	if a != nil && app.cfg.Graphics.ShowBounds {
		_ = a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
			b := app.forest.Bounds(m.Bounds)
			app.scene.ShowBounds(&b)
			return nil
		})
	} else {
		app.scene.ShowBounds(nil)
	}

	wind := app.cfg.Wind.WindAt(app.clock)
	if app.audio != nil {
		app.audio.SetWind(wind)
	}

	draws, err := scene.Draws(app.ctx, app.forest, app.clock, wind)
	if err != nil {
		if !errors.Is(err, tree.ErrReleased) && !errors.Is(err, context.Canceled) {
			app.log.Error("sway evaluation failed", zap.Error(err))
		}
		draws = nil
	}
	return app.scene.Render(app.camera, draws, app.clock, wind, app.cfg.Wind.SwayOptions().Shader)
}

func (app *App) notify(msg string) {
	app.notice = msg
	app.noticeAt = time.Now()
}

// Close releases GL resources and stops background work.
func (app *App) Close() {
	app.session.Stop()
	if app.audio != nil {
		app.audio.Close()
	}
	if app.scene != nil {
		app.scene.Destroy()
	}
	if app.renderer != nil {
		app.renderer.Close()
	}
}
