package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/tree"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Tree.Validate(); err != nil {
		t.Fatalf("default tree params invalid: %v", err)
	}
	if cfg.Tree.StartRadius != 1 || cfg.Tree.RadiusReduction != 0.8 || cfg.Tree.AngleDegrees != 10 {
		t.Errorf("unexpected tree defaults: %+v", cfg.Tree)
	}
	if cfg.LSystem.Preset != "Default" {
		t.Errorf("expected preset Default, got %s", cfg.LSystem.Preset)
	}
	if cfg.LSystem.AnimationDelay != 200*time.Millisecond {
		t.Errorf("expected animation delay 200ms, got %v", cfg.LSystem.AnimationDelay)
	}

	opts := cfg.Wind.SwayOptions()
	if opts.Shader.Amplitude != 0.025 || !opts.Shader.Circular || !opts.Shader.UseNoise {
		t.Errorf("unexpected shader defaults: %+v", opts.Shader)
	}
	if opts.Bones.PhaseStep != 0.1 || opts.Bones.StrengthScale != 0.01 {
		t.Errorf("unexpected bone defaults: %+v", opts.Bones)
	}
	if w := cfg.Wind.SwayWind(); w.Direction.X != 1 || w.Strength != 0.05 {
		t.Errorf("unexpected wind: %+v", w)
	}

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Cache.Dir != "" || cfg.Metrics.Listen != "" {
		t.Error("cache and metrics should be off by default")
	}
	if cfg.Audio.Enabled || cfg.Wind.Gusts {
		t.Error("audio and gusts should be off by default")
	}
}

func TestWindAt(t *testing.T) {
	cfg := Default()
	if w := cfg.Wind.WindAt(3); w.Noise != cfg.Wind.Noise {
		t.Errorf("without gusts Noise = %v, want %v", w.Noise, cfg.Wind.Noise)
	}

	cfg.Wind.Gusts = true
	g, ok := cfg.Wind.Gust()
	if !ok {
		t.Fatal("Gust() reported disabled")
	}
	if w := cfg.Wind.WindAt(3); w.Noise != g.Sample(3) {
		t.Errorf("with gusts Noise = %v, want %v", w.Noise, g.Sample(3))
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
tree:
  start_radius: 0.5
  radius_reduction: 0.7
  branch_length: 1.5
  angle: 25
  mode: skinned
  position: {x: 1, y: 0, z: -2}

lsystem:
  preset: "Preset 3"
  iterations: 4
  animated: true
  animation_delay: 1s

wind:
  direction: [0, 0, 1]
  strength: 3
  circular: false

forest:
  rows: 2
  cols: 5

graphics:
  width: 1920
  height: 1080
  vsync: false

cache:
  dir: /tmp/lsystree-cache
  ttl: 24h

metrics:
  listen: ":9090"

logging:
  level: "debug"
  log_file: "lsystree.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Tree.Mode != tree.ModeSkinned {
		t.Errorf("expected skinned mode, got %v", cfg.Tree.Mode)
	}
	if cfg.Tree.StartRadius != 0.5 || cfg.Tree.AngleDegrees != 25 {
		t.Errorf("unexpected tree params: %+v", cfg.Tree)
	}
	if cfg.Tree.Position.X != 1 || cfg.Tree.Position.Z != -2 {
		t.Errorf("unexpected position: %+v", cfg.Tree.Position)
	}
	if cfg.Tree.RadialSegments != 8 {
		t.Errorf("unset fields keep defaults, got %d radial segments", cfg.Tree.RadialSegments)
	}
	if cfg.LSystem.Preset != "Preset 3" || cfg.LSystem.Iterations != 4 || !cfg.LSystem.Animated {
		t.Errorf("unexpected lsystem: %+v", cfg.LSystem)
	}
	if cfg.LSystem.AnimationDelay != time.Second {
		t.Errorf("expected 1s delay, got %v", cfg.LSystem.AnimationDelay)
	}
	if cfg.Wind.Circular || cfg.Wind.Strength != 3 || cfg.Wind.Direction[2] != 1 {
		t.Errorf("unexpected wind: %+v", cfg.Wind)
	}
	if cfg.Wind.Amplitude != 0.025 {
		t.Errorf("unset wind amplitude should keep default, got %v", cfg.Wind.Amplitude)
	}
	if cfg.Forest.Rows != 2 || cfg.Forest.Cols != 5 || cfg.Forest.Spacing != 12 {
		t.Errorf("unexpected forest: %+v", cfg.Forest)
	}
	if cfg.Graphics.Width != 1920 || cfg.Graphics.VSync {
		t.Errorf("unexpected graphics: %+v", cfg.Graphics)
	}
	if cfg.Cache.TTL != 24*time.Hour || cfg.Metrics.Listen != ":9090" {
		t.Errorf("unexpected cache/metrics: %+v %+v", cfg.Cache, cfg.Metrics)
	}
	if cfg.Logging.LogFile != "lsystree.log" {
		t.Errorf("expected log file 'lsystree.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	cases := map[string]string{
		"syntax":     "graphics:\n  width: not a number\n  invalid syntax here\n",
		"bad radius": "tree:\n  start_radius: -1\n",
		"bad mode":   "tree:\n  mode: wobbly\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name+".yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Tree.Mode = tree.ModeSkinned
	cfg.LSystem.Rules = map[string]string{"A": "f[+A]"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Tree.Mode != tree.ModeSkinned || loaded.LSystem.Rules["A"] != "f[+A]" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("lsystree.yaml", []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find lsystree.yaml in current directory")
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{"debug", []string{"-debug"}, func(t *testing.T, cfg *Config) {
			if cfg.Logging.Level != "debug" {
				t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
			}
		}},
		{"preset and iterations", []string{"-preset", "Preset 1", "-iterations", "3"}, func(t *testing.T, cfg *Config) {
			if cfg.LSystem.Preset != "Preset 1" || cfg.LSystem.Iterations != 3 {
				t.Errorf("unexpected lsystem: %+v", cfg.LSystem)
			}
		}},
		{"mode", []string{"-mode", "skinned"}, func(t *testing.T, cfg *Config) {
			if cfg.Tree.Mode != tree.ModeSkinned {
				t.Errorf("expected skinned, got %v", cfg.Tree.Mode)
			}
		}},
		{"fullscreen", []string{"-fullscreen"}, func(t *testing.T, cfg *Config) {
			if !cfg.Graphics.Fullscreen {
				t.Error("expected fullscreen")
			}
		}},
		{"size", []string{"-width", "2560", "-height", "1440"}, func(t *testing.T, cfg *Config) {
			if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
				t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
			}
		}},
		{"forest and metrics", []string{"-forest", "4", "-metrics", ":9100"}, func(t *testing.T, cfg *Config) {
			if cfg.Forest.Rows != 4 || cfg.Forest.Cols != 4 || cfg.Metrics.Listen != ":9100" {
				t.Errorf("unexpected forest/metrics: %+v %+v", cfg.Forest, cfg.Metrics)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fl := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse: %v", err)
			}
			cfg := Default()
			if err := fl.apply(cfg); err != nil {
				t.Fatalf("apply: %v", err)
			}
			tt.verify(t, cfg)
		})
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fl := RegisterFlags(fs)
	_ = fs.Parse([]string{"-mode", "wobbly"})
	if err := fl.apply(Default()); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 1600\n  height: 900\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fl := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-width", "1920"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg, err := Load(fl)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestResolvePreset(t *testing.T) {
	lib := preset.BuiltinLibrary()

	p, err := LSystemConfig{Preset: "Preset 3"}.Resolve(lib)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Axiom != "AB" || p.IterationCount() != preset.DefaultIterations {
		t.Errorf("unexpected preset: %+v", p)
	}

	p, err = LSystemConfig{Preset: "Default", Axiom: "fA", Iterations: 2, Rules: map[string]string{"A": "f[+A][-A]"}}.Resolve(lib)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	s, err := p.Expand()
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if s != "ff[+f[+A][-A]][-f[+A][-A]]" {
		t.Errorf("unexpected expansion %q", s)
	}

	if _, err := (LSystemConfig{Preset: "Oak"}).Resolve(lib); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestLibraryOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	file := &preset.Library{Presets: []preset.Preset{{Name: "Bush", Axiom: "A", Rules: map[string]string{"A": "f[+A]"}}}}
	if err := file.SaveFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	lib, err := LSystemConfig{PresetFile: path}.Library()
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if len(lib.Presets) != 5 {
		t.Errorf("expected 4 built-ins plus Bush, got %v", lib.Names())
	}
}
