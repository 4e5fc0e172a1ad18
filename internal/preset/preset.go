// Package preset provides named L-system presets, YAML preset libraries,
// stepwise growth and a file watcher that reloads a library when it changes.
package preset

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/Faultbox/lsystree/pkg/lsystem"
)

// DefaultIterations is used when a preset does not set its own.
const DefaultIterations = 6

var (
	ErrNotFound    = errors.New("preset not found")
	ErrInvalidRule = errors.New("invalid preset rule")
)

// Preset is a named axiom plus production rules. Rules map a one-symbol key
// to its replacement; empty replacements are ignored.
type Preset struct {
	Name       string            `yaml:"name"`
	Axiom      string            `yaml:"axiom"`
	Iterations int               `yaml:"iterations,omitempty"`
	Angle      float64           `yaml:"angle,omitempty"` // 0 keeps the configured angle
	Rules      map[string]string `yaml:"rules"`
}

// Builtin returns the stock presets.
func Builtin() []Preset {
	return []Preset{
		{
			Name:  "Default",
			Axiom: "fffffA",
			Rules: map[string]string{"A": "^fB+^^B+vvB<<<<B", "B": "[^^ff--A]"},
		},
		{
			Name:  "Preset 1",
			Axiom: "fA",
			Rules: map[string]string{"A": "f[^Bl]>>[^Bl]>>A", "B": "f[-Bl]B"},
		},
		{
			Name:  "Preset 2",
			Axiom: "B",
			Rules: map[string]string{"A": "f[^B][-B]B", "B": "f[+B]F"},
		},
		{
			Name:  "Preset 3",
			Axiom: "AB",
			Rules: map[string]string{"A": "f[+B]A", "B": "f[-A]B"},
		},
	}
}

// Validate checks that every rule key is a single symbol.
func (p Preset) Validate() error {
	for k := range p.Rules {
		if utf8.RuneCountInString(k) != 1 {
			return fmt.Errorf("%w: %q in %q must be one symbol", ErrInvalidRule, k, p.Name)
		}
	}
	if p.Iterations < 0 {
		return fmt.Errorf("%w: negative iterations in %q", ErrInvalidRule, p.Name)
	}
	return nil
}

// IterationCount returns Iterations or DefaultIterations when unset.
func (p Preset) IterationCount() int {
	if p.Iterations == 0 {
		return DefaultIterations
	}
	return p.Iterations
}

// Grammar builds a fresh grammar from the preset rules.
func (p Preset) Grammar() (*lsystem.Grammar, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g := lsystem.New()
	keys := make([]string, 0, len(p.Rules))
	for k := range p.Rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := p.Rules[k]; v != "" {
			r, _ := utf8.DecodeRuneInString(k)
			g.AddRule(r, v)
		}
	}
	return g, nil
}

// Expand returns the preset's string after IterationCount generations.
func (p Preset) Expand() (string, error) {
	g, err := p.Grammar()
	if err != nil {
		return "", err
	}
	return g.Generate(p.Axiom, p.IterationCount()), nil
}
