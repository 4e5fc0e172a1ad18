package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/app"
	"github.com/Faultbox/lsystree/internal/cache"
	"github.com/Faultbox/lsystree/internal/config"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/session"
	"github.com/Faultbox/lsystree/internal/tree"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
)

// options are the flags shared by every command.
type options struct {
	configPath string
	presetFile string
	cacheDir   string
	verbose    bool

	preset     string
	axiom      string
	rules      map[string]string
	iterations int
	mode       string
	angle      float64

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "lsystree",
		Short:         "Grow L-system trees from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Path to config file")
	pf.StringVar(&o.presetFile, "presets", "", "YAML preset library overlaid on the built-ins")
	pf.StringVar(&o.cacheDir, "cache", "", "Expansion cache directory")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Log to the console at debug level")

	root.AddCommand(
		newExpandCmd(o),
		newGrowCmd(o),
		newBuildCmd(o),
		newExportCmd(o),
		newPresetsCmd(o),
		newWatchCmd(o),
	)
	return root
}

// grammarFlags registers the preset selection and override flags.
func grammarFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVarP(&o.preset, "preset", "p", "", "Preset name")
	f.StringVarP(&o.axiom, "axiom", "a", "", "Axiom, overrides the preset's")
	f.StringToStringVarP(&o.rules, "rule", "r", nil, "Production rule SYMBOL=REPLACEMENT, replaces the preset's rules")
	f.IntVarP(&o.iterations, "iterations", "n", 0, "Iterations, 0 keeps the preset's")
}

// treeFlags registers the build parameter flags.
func treeFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVar(&o.mode, "mode", "", "Tree mode: static or skinned")
	f.Float64Var(&o.angle, "angle", 0, "Branch angle in degrees, overrides config and preset")
}

// load reads the config and applies the flag overrides.
func (o *options) load() error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.LoadFile(o.configPath)
		if err != nil {
			return err
		}
	} else {
		o.cfg = config.Default()
	}

	cfg := o.cfg
	if o.presetFile != "" {
		cfg.LSystem.PresetFile = o.presetFile
	}
	if o.cacheDir != "" {
		cfg.Cache.Dir = o.cacheDir
	}
	if o.preset != "" {
		cfg.LSystem.Preset = o.preset
	}
	if o.axiom != "" {
		cfg.LSystem.Axiom = o.axiom
	}
	if len(o.rules) > 0 {
		cfg.LSystem.Rules = o.rules
	}
	if o.iterations > 0 {
		cfg.LSystem.Iterations = o.iterations
	}
	if o.mode != "" {
		if cfg.Tree.Mode, err = tree.ParseMode(o.mode); err != nil {
			return err
		}
	}

	level, fileCfg := cfg.Logging.Level, logger.FileConfig{}
	if o.verbose {
		level = "debug"
	}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	return logger.InitWithFileConfig(level, fileCfg, o.verbose)
}

// resolve returns the selected preset and the build parameters for it.
func (o *options) resolve() (preset.Preset, tree.Params, error) {
	lib, err := o.cfg.LSystem.Library()
	if err != nil {
		return preset.Preset{}, tree.Params{}, err
	}
	p, err := o.cfg.LSystem.Resolve(lib)
	if err != nil {
		return preset.Preset{}, tree.Params{}, err
	}

	params := o.cfg.Tree
	if p.Angle != 0 {
		params.AngleDegrees = p.Angle
	}
	if o.angle != 0 {
		params.AngleDegrees = o.angle
	}
	return p, params, nil
}

// expand returns the preset's expansion through the configured cache.
func (o *options) expand(p preset.Preset) (string, error) {
	g, err := p.Grammar()
	if err != nil {
		return "", err
	}
	c, err := cache.Open(cache.Config{Dir: o.cfg.Cache.Dir, TTL: o.cfg.Cache.TTL})
	if err != nil {
		return "", err
	}
	defer c.Close()
	return c.Expand(g, p.Axiom, p.IterationCount()), nil
}

func (o *options) build() (preset.Preset, *tree.Asset, error) {
	p, params, err := o.resolve()
	if err != nil {
		return p, nil, err
	}
	symbols, err := o.expand(p)
	if err != nil {
		return p, nil, err
	}
	a, err := tree.Build(symbols, params)
	return p, a, err
}

func newExpandCmd(o *options) *cobra.Command {
	var count bool
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print the expanded L-system string",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := o.resolve()
			if err != nil {
				return err
			}
			s, err := o.expand(p)
			if err != nil {
				return err
			}
			if count {
				fmt.Fprintln(cmd.OutOrStdout(), len(s))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	grammarFlags(cmd, o)
	cmd.Flags().BoolVarP(&count, "count", "c", false, "Print only the number of symbols")
	return cmd
}

func newGrowCmd(o *options) *cobra.Command {
	var (
		delay   time.Duration
		symbols bool
	)
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Print every generation of the expansion",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := o.resolve()
			if err != nil {
				return err
			}
			g, err := p.Grammar()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return preset.Grow(cmd.Context(), g, p.Axiom, p.IterationCount(), delay, func(gen int, s string) error {
				if symbols {
					_, err := fmt.Fprintf(out, "%d\t%s\n", gen, s)
					return err
				}
				_, err := fmt.Fprintf(out, "%d\t%d\n", gen, len(s))
				return err
			})
		},
	}
	grammarFlags(cmd, o)
	cmd.Flags().DurationVar(&delay, "delay", 0, "Pause between generations")
	cmd.Flags().BoolVarP(&symbols, "symbols", "s", false, "Print the strings instead of their lengths")
	return cmd
}

func newBuildCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the tree and print mesh statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, a, err := o.build()
			if err != nil {
				return err
			}
			defer a.Release()
			return writeStats(cmd.OutOrStdout(), p, a)
		},
	}
	grammarFlags(cmd, o)
	treeFlags(cmd, o)
	return cmd
}

func writeStats(w io.Writer, p preset.Preset, a *tree.Asset) error {
	bones := a.BoneCount()
	return a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		rows := []struct {
			k string
			v any
		}{
			{"preset", p.Name},
			{"mode", a.Mode},
			{"symbols", a.Symbols},
			{"segments", m.Segments},
			{"leaves", m.Leaves},
			{"vertices", m.VertexCount()},
			{"triangles", m.TriangleCount()},
			{"bones", bones},
			{"max depth", a.Stats.MaxStackDepth},
			{"unmatched pops", a.Stats.Underflows},
			{"bounds", fmt.Sprintf("%v .. %v", m.Bounds.Min, m.Bounds.Max)},
			{"build time", a.Duration.Round(time.Microsecond)},
		}
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%v\n", r.k, r.v)
		}
		return tw.Flush()
	})
}

func newExportCmd(o *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build the tree and write it as Wavefront OBJ",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, a, err := o.build()
			if err != nil {
				return err
			}
			defer a.Release()

			w := cmd.OutOrStdout()
			var file *os.File
			if output != "" && output != "-" {
				if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
					return err
				}
				if file, err = os.Create(output); err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			name := strings.ReplaceAll(p.Name, " ", "_")
			err = a.Use(func(m *mesh.Mesh, _ *skeleton.Skeleton) error {
				return mesh.WriteOBJ(w, &m.Geometry, name)
			})
			if err != nil || file == nil {
				return err
			}
			logger.Info("exported", zap.String("path", output), zap.Int("segments", a.Stats.Segments))
			return file.Sync()
		},
	}
	grammarFlags(cmd, o)
	treeFlags(cmd, o)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout when empty")
	return cmd
}

func newPresetsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List or save preset libraries",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := o.cfg.LSystem.Library()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tAXIOM\tRULES\tITERATIONS")
			for _, p := range lib.Presets {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.Name, p.Axiom, len(p.Rules), p.IterationCount())
			}
			return tw.Flush()
		},
	}

	save := &cobra.Command{
		Use:   "save FILE",
		Short: "Write the library, built-ins included, as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := o.cfg.LSystem.Library()
			if err != nil {
				return err
			}
			if err := lib.SaveFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d presets to %s\n", len(lib.Presets), args[0])
			return nil
		},
	}

	cmd.AddCommand(list, save)
	return cmd
}

func newWatchCmd(o *options) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Rebuild the selected preset whenever a preset library changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.cfg.LSystem.PresetFile = args[0]
			if metricsAddr != "" {
				o.cfg.Metrics.Listen = metricsAddr
			}
			return watch(cmd.Context(), cmd.OutOrStdout(), o, args[0])
		},
	}
	grammarFlags(cmd, o)
	treeFlags(cmd, o)
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "Prometheus listen address, e.g. :9090")
	return cmd
}

// watch builds once, then again on every change of path, until ctx is done.
func watch(ctx context.Context, out io.Writer, o *options, path string) error {
	env, err := app.Open(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	rebuild := func() {
		p, params, err := o.resolve()
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		env.Session.Regenerate(ctx, session.Request{Preset: p, Params: params})
		if err := env.Session.Wait(ctx); err != nil {
			return
		}
		st := env.Session.Status()
		if st.Err != nil {
			fmt.Fprintf(out, "error: %v\n", st.Err)
			return
		}
		if a := env.Session.Builder().Current(); a != nil {
			fmt.Fprintf(out, "%s  %s: %d symbols, %d segments, %d leaves\n",
				time.Now().Format("15:04:05"), p.Name, st.Symbols, a.Stats.Segments, a.Stats.Leaves)
		}
	}

	changes := make(chan struct{}, 1)
	w := preset.NewWatcher(path, 0, func(_ *preset.Library, err error) {
		if err != nil {
			fmt.Fprintf(out, "reload failed: %v\n", err)
			return
		}
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err := w.Start(ctx); err != nil {
		return err
	}

	rebuild()
	for {
		select {
		case <-ctx.Done():
			<-w.Done()
			return nil
		case <-changes:
			rebuild()
		}
	}
}
