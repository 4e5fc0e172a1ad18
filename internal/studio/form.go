package studio

import (
	"sort"
	"time"

	"github.com/Faultbox/lsystree/internal/config"
	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/tree"
)

// ruleSymbols are the rule slots shown in the panel.
var ruleSymbols = [...]string{"A", "B", "C", "D"}

// form is the editable state behind the parameter panel. Widgets work on
// float32 and int32, so values are mirrored here and converted on submit.
type form struct {
	StartRadius     float32
	RadiusReduction float32
	BranchLength    float32
	Angle           float32
	Skinned         bool
	Wireframe       bool
	ShowBounds      bool

	Preset     string
	Axiom      string
	Iterations int32
	Rules      [len(ruleSymbols)]string
	extra      map[string]string // rules for symbols without a slot

	Animated   bool
	DelayMs    int32
	AutoUpdate bool

	WindStrength  float32
	WindSpeed     float32
	WindAmplitude float32
	Gusts         bool
	UseNoise      bool
	Circular      bool
	Flexibility   float32
}

func newForm(cfg *config.Config, p preset.Preset) form {
	f := form{
		StartRadius:     float32(cfg.Tree.StartRadius),
		RadiusReduction: float32(cfg.Tree.RadiusReduction),
		BranchLength:    float32(cfg.Tree.BranchLength),
		Angle:           float32(cfg.Tree.AngleDegrees),
		Skinned:         cfg.Tree.Mode == tree.ModeSkinned,
		Wireframe:       cfg.Graphics.Wireframe,
		ShowBounds:      cfg.Graphics.ShowBounds,
		Animated:        cfg.LSystem.Animated,
		DelayMs:         int32(cfg.LSystem.AnimationDelay / time.Millisecond),
		AutoUpdate:      cfg.LSystem.AutoUpdate,
		WindStrength:    float32(cfg.Wind.Strength),
		WindSpeed:       float32(cfg.Wind.Speed),
		WindAmplitude:   float32(cfg.Wind.Amplitude),
		Gusts:           cfg.Wind.Gusts,
		UseNoise:        cfg.Wind.UseNoise,
		Circular:        cfg.Wind.Circular,
		Flexibility:     float32(cfg.Wind.Flexibility),
	}
	f.loadPreset(p)
	return f
}

// loadPreset fills the grammar fields from p. A preset angle replaces the
// angle slider.
func (f *form) loadPreset(p preset.Preset) {
	f.Preset = p.Name
	f.Axiom = p.Axiom
	f.Iterations = int32(p.IterationCount())
	f.Rules = [len(ruleSymbols)]string{}
	f.extra = nil
	for k, v := range p.Rules {
		if i := slot(k); i >= 0 {
			f.Rules[i] = v
			continue
		}
		if f.extra == nil {
			f.extra = make(map[string]string)
		}
		f.extra[k] = v
	}
	if p.Angle != 0 {
		f.Angle = float32(p.Angle)
	}
}

func slot(symbol string) int {
	for i, s := range ruleSymbols {
		if s == symbol {
			return i
		}
	}
	return -1
}

// preset returns the grammar as edited. Empty rule slots are dropped.
func (f *form) preset() preset.Preset {
	p := preset.Preset{
		Name:       f.Preset,
		Axiom:      f.Axiom,
		Iterations: int(f.Iterations),
		Rules:      make(map[string]string, len(ruleSymbols)+len(f.extra)),
	}
	if p.Name == "" {
		p.Name = "custom"
	}
	for k, v := range f.extra {
		p.Rules[k] = v
	}
	for i, v := range f.Rules {
		if v != "" {
			p.Rules[ruleSymbols[i]] = v
		}
	}
	return p
}

// extraSymbols returns the symbols of rules without a slot, sorted.
func (f *form) extraSymbols() []string {
	keys := make([]string, 0, len(f.extra))
	for k := range f.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// apply writes the form into cfg.
func (f *form) apply(cfg *config.Config) {
	cfg.Tree.StartRadius = float64(f.StartRadius)
	cfg.Tree.RadiusReduction = float64(f.RadiusReduction)
	cfg.Tree.BranchLength = float64(f.BranchLength)
	cfg.Tree.AngleDegrees = float64(f.Angle)
	cfg.Tree.Mode = tree.ModeStatic
	if f.Skinned {
		cfg.Tree.Mode = tree.ModeSkinned
	}
	cfg.Graphics.Wireframe = f.Wireframe
	cfg.Graphics.ShowBounds = f.ShowBounds

	cfg.LSystem.Preset = f.Preset
	cfg.LSystem.Animated = f.Animated
	cfg.LSystem.AnimationDelay = time.Duration(f.DelayMs) * time.Millisecond
	cfg.LSystem.AutoUpdate = f.AutoUpdate

	cfg.Wind.Strength = float64(f.WindStrength)
	cfg.Wind.Speed = float64(f.WindSpeed)
	cfg.Wind.Amplitude = float64(f.WindAmplitude)
	cfg.Wind.Gusts = f.Gusts
	cfg.Wind.UseNoise = f.UseNoise
	cfg.Wind.Circular = f.Circular
	cfg.Wind.Flexibility = float64(f.Flexibility)
}

// settle delays rebuilds until the inputs have been quiet for a while, so
// dragging a slider does not queue one build per frame.
type settle struct {
	quiet   time.Duration
	pending bool
	changed time.Time
}

// touch records a change at now.
func (s *settle) touch(now time.Time) {
	s.pending = true
	s.changed = now
}

// due reports, once, that the last change is older than the quiet period.
func (s *settle) due(now time.Time) bool {
	if !s.pending || now.Sub(s.changed) < s.quiet {
		return false
	}
	s.pending = false
	return true
}
