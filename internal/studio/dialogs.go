package studio

import (
	"errors"
	"path/filepath"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/engine/framebuffer"
	"github.com/Faultbox/lsystree/internal/preset"
)

// The dialogs run in goroutines so the UI keeps drawing. SDL and Cocoa
// window work must stay on the main thread, so they only hand the chosen
// path back through a channel.

func (app *App) openPresetDialog() {
	go func() {
		path, err := dialog.File().
			Filter("Preset Libraries", "yaml", "yml").
			Filter("All Files", "*").
			Title("Open Preset Library").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				app.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		app.opened <- path
	}()
}

func (app *App) savePresetDialog() {
	go func() {
		path, err := dialog.File().
			Filter("Preset Libraries", "yaml", "yml").
			Title("Save Preset Library").
			Save()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				app.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		if filepath.Ext(path) == "" {
			path += ".yaml"
		}
		app.saved <- path
	}()
}

func (app *App) openPresetFile(path string) {
	lib, err := preset.LoadFile(path)
	if err != nil {
		app.log.Warn("not a preset library", zap.String("path", path), zap.Error(err))
		app.notify("Not a preset library: " + filepath.Base(path))
		return
	}
	app.cfg.LSystem.PresetFile = path
	app.applyLibrary(lib)
	app.notify("Loaded " + filepath.Base(path))
	if app.form.AutoUpdate {
		app.watch(path)
	}
}

// savePresetFile stores the edited grammar in the library under its name
// and writes the whole library to path.
func (app *App) savePresetFile(path string) {
	p := app.form.preset()
	if err := p.Validate(); err != nil {
		app.notify("Invalid rules: " + err.Error())
		return
	}
	if app.form.Angle != 0 {
		p.Angle = float64(app.form.Angle)
	}
	app.lib.Put(p)

	if err := app.lib.SaveFile(path); err != nil {
		app.log.Warn("save presets failed", zap.String("path", path), zap.Error(err))
		app.notify("Save failed: " + err.Error())
		return
	}
	app.log.Info("presets saved", zap.String("path", path), zap.Int("count", len(app.lib.Presets)))
	app.notify("Saved " + filepath.Base(path))
}

// captureScreenshot saves the window as last presented, panels included.
func (app *App) captureScreenshot() {
	io := imgui.CurrentIO()
	displaySize := io.DisplaySize()
	fbScale := io.DisplayFramebufferScale()
	width := int(displaySize.X * fbScale.X)
	height := int(displaySize.Y * fbScale.Y)
	if width <= 0 || height <= 0 {
		app.notify("Screenshot failed: invalid viewport")
		return
	}

	path, err := app.shots.Save(framebuffer.ReadFront(width, height))
	if err != nil {
		app.log.Warn("screenshot failed", zap.Error(err))
		app.notify("Screenshot failed: " + err.Error())
		return
	}
	app.log.Info("screenshot saved", zap.String("path", path))
	app.notify("Screenshot: " + filepath.Base(path))
}
