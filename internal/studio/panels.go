package studio

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/engine/ui"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
)

var (
	colorOK    = imgui.NewVec4(0.4, 0.8, 0.4, 1)
	colorError = imgui.NewVec4(0.9, 0.35, 0.3, 1)
	colorMuted = imgui.NewVec4(0.6, 0.6, 0.6, 1)
)

// layout lays out the menu bar, the settings panel, the viewport and the
// status bar.
func (app *App) layout(texture uint32) {
	if imgui.BeginMainMenuBar() {
		if imgui.BeginMenu("File") {
			if imgui.MenuItemBool("Open Presets...") {
				app.openPresetDialog()
			}
			if imgui.MenuItemBool("Save Presets...") {
				app.savePresetDialog()
			}
			if imgui.MenuItemBool("Save Settings") {
				app.saveSettings()
			}
			imgui.Separator()
			if imgui.MenuItemBool("Screenshot") {
				app.shotRequested = true
			}
			imgui.Separator()
			if imgui.MenuItemBool("Exit") {
				app.backend.Close()
			}
			imgui.EndMenu()
		}
		imgui.EndMainMenuBar()
	}

	workPos, workSize := ui.WorkArea()
	contentHeight := workSize.Y - statusBarHeight

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	imgui.SetNextWindowPos(workPos)
	imgui.SetNextWindowSize(imgui.NewVec2(panelWidth, contentHeight))
	if imgui.BeginV("Tree", nil, flags) {
		app.renderSettings()
		app.renderTreeParams()
		app.renderGrammar()
		app.renderWind()
		app.renderActions()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+panelWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X-panelWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags|imgui.WindowFlagsNoScrollbar) {
		app.renderViewport(texture)
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X, workPos.Y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		app.renderStatusBar()
	}
	imgui.End()

	if app.notice != "" && time.Since(app.noticeAt) < noticeDuration {
		noticeFlags := imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoResize |
			imgui.WindowFlagsNoMove | imgui.WindowFlagsNoScrollbar |
			imgui.WindowFlagsAlwaysAutoResize | imgui.WindowFlagsNoFocusOnAppearing
		imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+panelWidth+10, workPos.Y+40))
		imgui.SetNextWindowBgAlpha(0.85)
		if imgui.BeginV("##Notice", nil, noticeFlags) {
			imgui.Text(app.notice)
		}
		imgui.End()
	}
}

func (app *App) renderSettings() {
	if !imgui.TreeNodeExStrV("Settings", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	if imgui.Checkbox("Auto Update", &app.form.AutoUpdate) {
		app.changed(false)
	}
	if imgui.Checkbox("Animated Growth", &app.form.Animated) {
		app.changed(true)
	}
	if imgui.SliderIntV("Delay (ms)", &app.form.DelayMs, 100, 2000, "%d", imgui.SliderFlagsNone) {
		app.changed(false)
	}
	if imgui.Checkbox("Skinned", &app.form.Skinned) {
		app.changed(true)
	}
	imgui.SameLine()
	if imgui.Checkbox("Wireframe", &app.form.Wireframe) {
		app.changed(false)
	}
	imgui.SameLine()
	if imgui.Checkbox("Bounds", &app.form.ShowBounds) {
		app.changed(false)
	}
	imgui.TreePop()
}

func (app *App) renderTreeParams() {
	if !imgui.TreeNodeExStrV("Tree Parameters", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	edited := false
	edited = imgui.SliderFloatV("Start Radius", &app.form.StartRadius, 0.1, 2, "%.2f", imgui.SliderFlagsNone) || edited
	edited = imgui.SliderFloatV("Radius Reduction", &app.form.RadiusReduction, 0.1, 1, "%.2f", imgui.SliderFlagsNone) || edited
	edited = imgui.SliderFloatV("Branch Length", &app.form.BranchLength, 0.1, 2, "%.2f", imgui.SliderFlagsNone) || edited
	edited = imgui.SliderFloatV("Angle", &app.form.Angle, 1, 90, "%.1f deg", imgui.SliderFlagsNone) || edited
	if edited {
		app.changed(true)
	}
	imgui.TreePop()
}

func (app *App) renderGrammar() {
	if !imgui.TreeNodeExStrV("L-System", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}

	names := app.lib.Names()
	if imgui.TreeNodeExStrV("Preset: "+app.form.Preset+"###Presets", imgui.TreeNodeFlagsNone) {
		for _, name := range names {
			if imgui.SelectableBoolV(name, name == app.form.Preset, 0, imgui.NewVec2(0, 0)) {
				app.selectPreset(name)
			}
		}
		imgui.TreePop()
	}

	edited := false
	imgui.SetNextItemWidth(-60)
	edited = imgui.InputTextWithHint("Axiom", "e.g. fA", &app.form.Axiom, 0, nil) || edited
	edited = imgui.SliderIntV("Iterations", &app.form.Iterations, 1, 10, "%d", imgui.SliderFlagsNone) || edited

	imgui.Separator()
	imgui.Text("Production Rules")
	for i, sym := range ruleSymbols {
		imgui.SetNextItemWidth(-60)
		edited = imgui.InputTextWithHint(sym+" ->", "(none)", &app.form.Rules[i], 0, nil) || edited
	}
	for _, sym := range app.form.extraSymbols() {
		imgui.TextColored(colorMuted, fmt.Sprintf("%s -> %s", sym, app.form.extra[sym]))
	}
	if edited {
		app.changed(true)
	}
	imgui.TreePop()
}

func (app *App) renderWind() {
	if !imgui.TreeNodeExStrV("Wind", imgui.TreeNodeFlagsDefaultOpen) {
		return
	}
	edited := false
	edited = imgui.SliderFloatV("Strength", &app.form.WindStrength, 0, 0.5, "%.3f", imgui.SliderFlagsNone) || edited
	edited = imgui.SliderFloatV("Speed", &app.form.WindSpeed, 0, 5, "%.2f", imgui.SliderFlagsNone) || edited
	edited = imgui.SliderFloatV("Amplitude", &app.form.WindAmplitude, 0, 1, "%.2f", imgui.SliderFlagsNone) || edited
	edited = imgui.SliderFloatV("Flexibility", &app.form.Flexibility, 0, 2, "%.2f", imgui.SliderFlagsNone) || edited
	edited = imgui.Checkbox("Gusts", &app.form.Gusts) || edited
	imgui.SameLine()
	edited = imgui.Checkbox("Noise", &app.form.UseNoise) || edited
	imgui.SameLine()
	edited = imgui.Checkbox("Circular", &app.form.Circular) || edited
	if edited {
		app.changed(false)
	}

	label := "Pause"
	if app.paused {
		label = "Resume"
	}
	if imgui.Button(label) {
		app.togglePause()
	}
	imgui.TreePop()
}

func (app *App) renderActions() {
	imgui.Separator()
	full := imgui.NewVec2(-1, 0)
	if imgui.ButtonV("Re-Render Tree", full) {
		app.regenerate()
	}
	if imgui.ButtonV("Delete Tree", full) {
		app.session.Delete()
	}
	if imgui.ButtonV("Log Mesh Count", full) {
		app.logMeshCount()
	}
}

// logMeshCount logs the size of the current tree.
func (app *App) logMeshCount() {
	a := app.session.Builder().Current()
	if a == nil {
		app.log.Info("no tree")
		return
	}
	bones := a.BoneCount()
	_ = a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
		app.log.Info("tree meshes",
			zap.Int("segments", m.Segments),
			zap.Int("leaves", m.Leaves),
			zap.Int("vertices", m.VertexCount()),
			zap.Int("triangles", m.TriangleCount()),
			zap.Int("bones", bones),
			zap.Int("instances", app.forest.Len()),
		)
		return nil
	})
}

func (app *App) renderViewport(texture uint32) {
	avail := imgui.ContentRegionAvail()
	// Applied before the next render; the texture is still in use this frame.
	app.viewSize = [2]int32{int32(avail.X), int32(avail.Y)}
	if texture == 0 {
		return
	}

	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(texture))
	imgui.ImageWithBgV(
		*texRef,
		avail,
		imgui.NewVec2(0, 1), // UV flipped
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0.15, 0.15, 0.15, 1.0),
		imgui.NewVec4(1, 1, 1, 1),
	)

	if imgui.IsItemHovered() {
		mousePos := imgui.MousePos()
		if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
			app.camera.HandleDrag(float64(mousePos.X-app.lastMouse.X), float64(mousePos.Y-app.lastMouse.Y))
		}
		app.lastMouse = mousePos

		if wheel := imgui.CurrentIO().MouseWheel(); wheel != 0 {
			app.camera.HandleZoom(float64(wheel))
		}
		if imgui.IsMouseDoubleClicked(imgui.MouseButtonLeft) {
			app.fitted = false
		}
	}
}

func (app *App) renderStatusBar() {
	st := app.session.Status()
	switch {
	case st.Err != nil:
		imgui.TextColored(colorError, "Error: "+st.Err.Error())
	case st.Running:
		imgui.TextColored(colorOK, fmt.Sprintf("Growing %d/%d", st.Generation, st.Generations))
		imgui.SameLine()
		fraction := float32(0)
		if st.Generations > 0 {
			fraction = float32(st.Generation) / float32(st.Generations)
		}
		imgui.ProgressBarV(fraction, imgui.NewVec2(160, 0), "")
	default:
		imgui.Text(fmt.Sprintf("%s | gen %d | %d symbols", app.form.Preset, st.Generation, st.Symbols))
	}

	if a := app.session.Builder().Current(); a != nil {
		imgui.SameLine()
		imgui.TextColored(colorMuted, fmt.Sprintf("| %s | built in %s", a.Mode, a.Duration.Round(time.Millisecond)))
		if a.Stats.Underflows > 0 {
			imgui.SameLine()
			imgui.TextColored(colorError, fmt.Sprintf("| %d unmatched ]", a.Stats.Underflows))
		}
	}
	if app.paused {
		imgui.SameLine()
		imgui.TextColored(colorMuted, "| paused")
	}
	imgui.SameLine()
	imgui.TextColored(colorMuted, fmt.Sprintf("| %.0f fps", imgui.CurrentIO().Framerate()))
}

// saveSettings writes the edited settings to the user config file.
func (app *App) saveSettings() {
	app.form.apply(app.cfg)
	if err := app.cfg.Save(); err != nil {
		app.notify("Save failed: " + err.Error())
		return
	}
	app.notify("Settings saved")
	app.log.Info("settings saved")
}
