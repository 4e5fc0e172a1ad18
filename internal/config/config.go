// Package config handles lsystree configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/tree"
	"github.com/Faultbox/lsystree/internal/tree/sway"
	"github.com/Faultbox/lsystree/pkg/math"
)

// Config holds all settings.
type Config struct {
	Tree     tree.Params    `yaml:"tree"`
	LSystem  LSystemConfig  `yaml:"lsystem"`
	Wind     WindConfig     `yaml:"wind"`
	Forest   ForestConfig   `yaml:"forest"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Audio    AudioConfig    `yaml:"audio"`
	Capture  CaptureConfig  `yaml:"capture"`
	Cache    CacheConfig    `yaml:"cache"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LSystemConfig selects the grammar. Axiom, Rules and Iterations override
// the chosen preset when set.
type LSystemConfig struct {
	Preset         string            `yaml:"preset"`
	PresetFile     string            `yaml:"preset_file"` // optional YAML preset library
	Axiom          string            `yaml:"axiom"`
	Rules          map[string]string `yaml:"rules"`
	Iterations     int               `yaml:"iterations"` // 0 keeps the preset's
	Animated       bool              `yaml:"animated"` // grow one generation at a time
	AnimationDelay time.Duration     `yaml:"animation_delay"`
	AutoUpdate     bool              `yaml:"auto_update"` // rebuild when the preset file changes
}

// WindConfig holds the shared wind and both sway models.
type WindConfig struct {
	Direction [3]float64 `yaml:"direction"`
	Strength  float64    `yaml:"strength"`
	Noise     float64    `yaml:"noise"`

	Gusts         bool    `yaml:"gusts"` // drive Noise from sway.Gust instead
	GustFrequency float64 `yaml:"gust_frequency"`
	GustAmplitude float64 `yaml:"gust_amplitude"`

	Speed           float64 `yaml:"speed"`
	Amplitude       float64 `yaml:"amplitude"`
	BaseThreshold   float64 `yaml:"base_threshold"`
	UseNoise        bool    `yaml:"use_noise"`
	Circular        bool    `yaml:"circular"`
	ScaleByStrength bool    `yaml:"scale_by_strength"`
	RadiusFalloff   float64 `yaml:"radius_falloff"`

	Flexibility   float64 `yaml:"flexibility"`
	PhaseStep     float64 `yaml:"phase_step"`
	StrengthScale float64 `yaml:"strength_scale"`
}

// ForestConfig lays out instances of the tree on a grid.
type ForestConfig struct {
	Rows    int     `yaml:"rows"`
	Cols    int     `yaml:"cols"`
	Spacing float64 `yaml:"spacing"`
	Workers int     `yaml:"workers"` // 0 means GOMAXPROCS
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	FPSLimit   int        `yaml:"fps_limit"`
	MSAA       int        `yaml:"msaa"`
	Background [3]float32 `yaml:"background"`
	Wireframe  bool       `yaml:"wireframe"`
	ShowBounds bool       `yaml:"show_bounds"` // outline the forest bounds
}

// AudioConfig configures the wind ambience. An empty File plays noise.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
	File    string  `yaml:"file"` // looped WAV
}

// CaptureConfig configures screenshots.
type CaptureConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png or bmp
}

// CacheConfig configures the expansion cache. An empty Dir disables it.
type CacheConfig struct {
	Dir string        `yaml:"dir"`
	TTL time.Duration `yaml:"ttl"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the classic look: sky background, one tree.
func Default() *Config {
	shader := sway.DefaultShaderParams()
	bones := sway.DefaultBoneParams()
	gust := sway.DefaultGust()

	return &Config{
		Tree: tree.DefaultParams(),
		LSystem: LSystemConfig{
			Preset:         "Default",
			AnimationDelay: 200 * time.Millisecond,
		},
		Wind: WindConfig{
			Direction:     [3]float64{1, 0, 0},
			Strength:      0.05,
			GustFrequency: gust.Frequency,
			GustAmplitude: gust.Amplitude,
			Speed:         shader.Speed,
			Amplitude:     shader.Amplitude,
			BaseThreshold: shader.BaseThreshold,
			UseNoise:      shader.UseNoise,
			Circular:      shader.Circular,
			Flexibility:   bones.Flexibility,
			PhaseStep:     bones.PhaseStep,
			StrengthScale: bones.StrengthScale,
		},
		Forest: ForestConfig{
			Rows:    1,
			Cols:    1,
			Spacing: 12,
		},
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			VSync:      true,
			MSAA:       4,
			Background: [3]float32{0.53, 0.81, 0.92},
		},
		Audio: AudioConfig{
			Volume: 0.6,
		},
		Capture: CaptureConfig{
			Dir:    "screenshots",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SwayWind returns the configured wind.
func (w WindConfig) SwayWind() sway.Wind {
	return sway.Wind{
		Direction: math.Vec3{X: w.Direction[0], Y: w.Direction[1], Z: w.Direction[2]},
		Strength:  w.Strength,
		Noise:     w.Noise,
	}
}

// Gust returns the gust generator, or false when gusts are off.
func (w WindConfig) Gust() (sway.Gust, bool) {
	g := sway.DefaultGust()
	g.Frequency, g.Amplitude = w.GustFrequency, w.GustAmplitude
	return g, w.Gusts
}

// WindAt returns the wind at time t, with gust noise applied when enabled.
func (w WindConfig) WindAt(t float64) sway.Wind {
	wind := w.SwayWind()
	if g, ok := w.Gust(); ok {
		wind = g.Apply(wind, t)
	}
	return wind
}

// SwayOptions returns the sway model settings for tree.EvaluateSway.
func (w WindConfig) SwayOptions() tree.SwayOptions {
	return tree.SwayOptions{
		Shader: sway.ShaderParams{
			Speed:           w.Speed,
			Amplitude:       w.Amplitude,
			BaseThreshold:   w.BaseThreshold,
			UseNoise:        w.UseNoise,
			Circular:        w.Circular,
			ScaleByStrength: w.ScaleByStrength,
			RadiusFalloff:   w.RadiusFalloff,
		},
		Bones: sway.BoneParams{
			Flexibility:   w.Flexibility,
			PhaseStep:     w.PhaseStep,
			StrengthScale: w.StrengthScale,
		},
		Skin: true,
	}
}

// Library returns the preset library: the built-ins, overlaid with
// PresetFile when one is configured.
func (l LSystemConfig) Library() (*preset.Library, error) {
	lib := preset.BuiltinLibrary()
	if l.PresetFile == "" {
		return lib, nil
	}
	file, err := preset.LoadFile(l.PresetFile)
	if err != nil {
		return nil, err
	}
	for _, p := range file.Presets {
		lib.Put(p)
	}
	return lib, nil
}

// Resolve picks the configured preset from lib and applies the overrides.
func (l LSystemConfig) Resolve(lib *preset.Library) (preset.Preset, error) {
	p := preset.Preset{Name: "custom"}
	if l.Preset != "" {
		var err error
		if p, err = lib.Get(l.Preset); err != nil {
			return preset.Preset{}, err
		}
	}
	if l.Axiom != "" {
		p.Axiom = l.Axiom
	}
	if len(l.Rules) > 0 {
		p.Rules = l.Rules
	}
	if l.Iterations > 0 {
		p.Iterations = l.Iterations
	}
	return p, p.Validate()
}
