package preset

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// Library is an ordered set of presets, as stored in a YAML file.
type Library struct {
	Presets []Preset `yaml:"presets"`
}

// BuiltinLibrary returns a library holding the stock presets.
func BuiltinLibrary() *Library {
	return &Library{Presets: Builtin()}
}

// Get returns the preset with the given name. An exact match wins;
// otherwise names are compared case-folded, so "preset 1" finds "Preset 1".
func (l *Library) Get(name string) (Preset, error) {
	for _, p := range l.Presets {
		if p.Name == name {
			return p, nil
		}
	}
	fold := cases.Fold()
	want := fold.String(name)
	for _, p := range l.Presets {
		if fold.String(p.Name) == want {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Names returns preset names in library order.
func (l *Library) Names() []string {
	names := make([]string, len(l.Presets))
	for i, p := range l.Presets {
		names[i] = p.Name
	}
	return names
}

// Put inserts p, replacing a preset of the same name.
func (l *Library) Put(p Preset) {
	for i := range l.Presets {
		if l.Presets[i].Name == p.Name {
			l.Presets[i] = p
			return
		}
	}
	l.Presets = append(l.Presets, p)
}

// Validate checks every preset.
func (l *Library) Validate() error {
	seen := make(map[string]bool, len(l.Presets))
	for _, p := range l.Presets {
		if p.Name == "" {
			return fmt.Errorf("%w: preset without a name", ErrInvalidRule)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate preset %q", ErrInvalidRule, p.Name)
		}
		seen[p.Name] = true
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads and validates a YAML preset library.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := lib.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &lib, nil
}

// SaveFile writes the library as YAML, creating parent directories.
func (l *Library) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
