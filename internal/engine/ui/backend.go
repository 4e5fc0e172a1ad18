// Package ui wraps the ImGui SDL backend used by the studio.
package ui

import (
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
)

// glyphRanges covers Latin text, the arrows used in rule labels and
// general punctuation, as [start, end] pairs terminated by 0.
var glyphRanges = []imgui.Wchar{
	0x0020, 0x00FF, // Basic Latin + Latin Supplement
	0x0100, 0x024F, // Latin Extended-A and B
	0x2000, 0x206F, // General Punctuation
	0x2190, 0x21FF, // Arrows
	0,
}

// fontPaths are tried in order; the first that exists is loaded.
var fontPaths = []string{
	"/Library/Fonts/Arial Unicode.ttf",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	"C:\\Windows\\Fonts\\segoeui.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",
}

// Backend owns the SDL window and the ImGui context.
type Backend struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	font    string
}

// NewBackend creates the window. The caller initialises GL afterwards, on
// the same thread.
func NewBackend(title string, width, height int) (*Backend, error) {
	b := &Backend{}

	var err error
	b.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	// Fonts must be added before the first frame builds the atlas.
	b.backend.SetAfterCreateContextHook(b.loadFont)
	b.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	b.backend.CreateWindow(title, width, height)
	return b, nil
}

func (b *Backend) loadFont() {
	for _, path := range fontPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fontCfg := imgui.NewFontConfig()
		defer fontCfg.Destroy()
		if imgui.CurrentIO().Fonts().AddFontFromFileTTFV(path, 16.0, fontCfg, &glyphRanges[0]) != nil {
			b.font = path
		}
		return
	}
}

// Font returns the loaded font file, or "" when ImGui's default is used.
func (b *Backend) Font() string {
	return b.font
}

// Run calls frame once per frame until the window closes.
func (b *Backend) Run(frame func()) {
	b.backend.Run(frame)
}

// Close asks the loop to exit after the current frame.
func (b *Backend) Close() {
	b.backend.SetShouldClose(true)
}

// SetWindowTitle updates the window title.
func (b *Backend) SetWindowTitle(title string) {
	b.backend.SetWindowTitle(title)
}

// OnDrop calls fn with the paths of files dropped on the window.
func (b *Backend) OnDrop(fn func(paths []string)) {
	b.backend.SetDropCallback(fn)
}

// WorkArea returns the main viewport work area, below the menu bar.
func WorkArea() (pos, size imgui.Vec2) {
	viewport := imgui.MainViewport()
	return viewport.WorkPos(), viewport.WorkSize()
}

// Pressed reports whether key, with all of mods held, was pressed this frame.
func Pressed(key imgui.Key, mods ...imgui.Key) bool {
	chord := imgui.KeyChord(key)
	for _, m := range mods {
		chord |= imgui.KeyChord(m)
	}
	return imgui.IsKeyChordPressed(chord)
}
