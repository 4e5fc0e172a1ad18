package preset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/lsystree/pkg/lsystem"
)

func TestBuiltinPresets(t *testing.T) {
	lib := BuiltinLibrary()
	assert.Equal(t, []string{"Default", "Preset 1", "Preset 2", "Preset 3"}, lib.Names())
	require.NoError(t, lib.Validate())

	def, err := lib.Get("Default")
	require.NoError(t, err)
	assert.Equal(t, "fffffA", def.Axiom)
	assert.Equal(t, DefaultIterations, def.IterationCount())

	_, err = lib.Get("Oak")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLibraryGetFoldsCase(t *testing.T) {
	lib := BuiltinLibrary()
	p, err := lib.Get("preset 2")
	require.NoError(t, err)
	assert.Equal(t, "Preset 2", p.Name)

	lib.Put(Preset{Name: "preset 2", Axiom: "A"})
	p, err = lib.Get("preset 2")
	require.NoError(t, err)
	assert.Equal(t, "A", p.Axiom, "exact match wins")
}

func TestPresetGrammar(t *testing.T) {
	p := Preset{Name: "x", Axiom: "fA", Iterations: 2, Rules: map[string]string{"A": "f[+A][-A]", "C": ""}}
	g, err := p.Grammar()
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len(), "empty rules are skipped")

	s, err := p.Expand()
	require.NoError(t, err)
	assert.Equal(t, "ff[+f[+A][-A]][-f[+A][-A]]", s)
}

func TestPresetRejectsLongKeys(t *testing.T) {
	p := Preset{Name: "bad", Rules: map[string]string{"AB": "f"}}
	_, err := p.Grammar()
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestLibraryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "presets.yaml")
	lib := BuiltinLibrary()
	lib.Put(Preset{Name: "Bush", Axiom: "A", Iterations: 4, Angle: 22.5, Rules: map[string]string{"A": "f[+A]l[-A]"}})
	lib.Put(Preset{Name: "Preset 2", Axiom: "f", Rules: map[string]string{"F": "ff"}})

	require.NoError(t, lib.SaveFile(path))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, lib, loaded)

	p2, _ := loaded.Get("Preset 2")
	assert.Equal(t, "f", p2.Axiom)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("presets:\n  - name: a\n    axiom: f\n  - name: a\n    axiom: f\n"), 0644))
	_, err = LoadFile(dup)
	assert.ErrorIs(t, err, ErrInvalidRule)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("presets: [\n"), 0644))
	_, err = LoadFile(broken)
	assert.Error(t, err)
}

func TestGrowVisitsEveryGeneration(t *testing.T) {
	g := lsystem.New()
	g.AddRule('A', "fA")

	var got []string
	err := Grow(context.Background(), g, "A", 3, 0, func(i int, s string) error {
		assert.Equal(t, len(got), i)
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "fA", "ffA", "fffA"}, got)
	assert.Equal(t, g.Generate("A", 3), got[3])
}

func TestGrowStops(t *testing.T) {
	g := lsystem.New()
	g.AddRule('A', "fA")

	stop := errors.New("stop")
	calls := 0
	err := Grow(context.Background(), g, "A", 10, 0, func(i int, s string) error {
		calls++
		if i == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, calls)

	ctx, cancel := context.WithCancel(context.Background())
	calls = 0
	err = Grow(ctx, g, "A", 10, time.Hour, func(int, string) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, BuiltinLibrary().SaveFile(path))

	type result struct {
		lib *Library
		err error
	}
	results := make(chan result, 8)
	w := NewWatcher(path, 75*time.Millisecond, func(l *Library, err error) {
		results <- result{l, err}
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	lib := BuiltinLibrary()
	lib.Put(Preset{Name: "Willow", Axiom: "f", Rules: map[string]string{"f": "f[-f]"}})
	require.NoError(t, lib.SaveFile(path))

	select {
	case r := <-results:
		require.NoError(t, r.err)
		_, err := r.lib.Get("Willow")
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("[", 3)), 0644))
	select {
	case r := <-results:
		assert.Error(t, r.err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after broken write")
	}

	cancel()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
