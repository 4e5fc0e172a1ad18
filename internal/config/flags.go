package config

import (
	"flag"

	"github.com/Faultbox/lsystree/internal/tree"
)

// Flags are the command-line overrides of the viewer.
type Flags struct {
	config     *string
	debug      *bool
	preset     *string
	iterations *int
	mode       *string
	windowed   *bool
	fullscreen *bool
	width      *int
	height     *int
	forest     *int
	metrics    *string
}

// RegisterFlags defines the overrides on fs. Parse fs before Load.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		preset:     fs.String("preset", "", "Preset name"),
		iterations: fs.Int("iterations", 0, "L-system iterations"),
		mode:       fs.String("mode", "", "Tree mode: static or skinned"),
		windowed:   fs.Bool("windowed", false, "Run in windowed mode"),
		fullscreen: fs.Bool("fullscreen", false, "Run in fullscreen mode"),
		width:      fs.Int("width", 0, "Window width"),
		height:     fs.Int("height", 0, "Window height"),
		forest:     fs.Int("forest", 0, "Plant an NxN forest"),
		metrics:    fs.String("metrics", "", "Prometheus listen address, e.g. :9090"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.preset != "" {
		cfg.LSystem.Preset = *f.preset
	}
	if *f.iterations > 0 {
		cfg.LSystem.Iterations = *f.iterations
	}
	if *f.mode != "" {
		m, err := tree.ParseMode(*f.mode)
		if err != nil {
			return err
		}
		cfg.Tree.Mode = m
	}
	if *f.windowed {
		cfg.Graphics.Fullscreen = false
	}
	if *f.fullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *f.width > 0 {
		cfg.Graphics.Width = *f.width
	}
	if *f.height > 0 {
		cfg.Graphics.Height = *f.height
	}
	if *f.forest > 0 {
		cfg.Forest.Rows, cfg.Forest.Cols = *f.forest, *f.forest
	}
	if *f.metrics != "" {
		cfg.Metrics.Listen = *f.metrics
	}
	return nil
}
