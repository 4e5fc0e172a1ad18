package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/lsystree/internal/preset"
)

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExpand(t *testing.T) {
	out, err := run(t, "expand", "--axiom", "A", "--rule", "A=AB", "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, "ABBB\n", out)

	out, err = run(t, "expand", "--axiom", "A", "--rule", "A=AB", "-n", "3", "--count")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestExpandThroughCache(t *testing.T) {
	dir := t.TempDir()
	first, err := run(t, "--cache", dir, "expand", "-p", "Preset 3", "-n", "4")
	require.NoError(t, err)
	second, err := run(t, "--cache", dir, "expand", "-p", "Preset 3", "-n", "4")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, strings.TrimSpace(first))
}

func TestExpandUnknownPreset(t *testing.T) {
	_, err := run(t, "expand", "-p", "no such preset")
	assert.ErrorIs(t, err, preset.ErrNotFound)
}

func TestGrow(t *testing.T) {
	out, err := run(t, "grow", "--axiom", "A", "--rule", "A=AB", "-n", "2", "--symbols")
	require.NoError(t, err)
	assert.Equal(t, "0\tA\n1\tAB\n2\tABB\n", out)
}

func TestBuildStats(t *testing.T) {
	out, err := run(t, "build", "--axiom", "ff[+fl]]", "--rule", "X=X", "-n", "1", "--mode", "skinned")
	require.NoError(t, err)
	assert.Contains(t, out, "mode")
	assert.Contains(t, out, "skinned")
	assert.Regexp(t, `segments\s+3`, out)
	assert.Regexp(t, `leaves\s+1`, out)
	assert.Regexp(t, `unmatched pops\s+1`, out)
}

func TestBuildRejectsBadMode(t *testing.T) {
	_, err := run(t, "build", "--mode", "wobbly")
	assert.Error(t, err)
}

func TestExportOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tree.obj")
	_, err := run(t, "export", "-p", "Preset 3", "-n", "2", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	obj := string(data)
	assert.True(t, strings.HasPrefix(obj, "# lsystree\no Preset_3\n"))
	assert.Contains(t, obj, "\nv ")
	assert.Contains(t, obj, "\nvn ")
	assert.Contains(t, obj, "\nf ")
}

func TestPresetsListAndSave(t *testing.T) {
	out, err := run(t, "presets", "list")
	require.NoError(t, err)
	for _, name := range preset.BuiltinLibrary().Names() {
		assert.Contains(t, out, name)
	}

	path := filepath.Join(t.TempDir(), "presets.yaml")
	_, err = run(t, "presets", "save", path)
	require.NoError(t, err)

	lib, err := preset.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, preset.BuiltinLibrary().Names(), lib.Names())

	// The saved file overlays cleanly.
	out, err = run(t, "--presets", path, "presets", "list")
	require.NoError(t, err)
	assert.Equal(t, len(lib.Presets)+1, strings.Count(out, "\n"))
}

func TestWatchBuildsUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	lib := &preset.Library{Presets: []preset.Preset{{
		Name:       "Watched",
		Axiom:      "fA",
		Iterations: 2,
		Rules:      map[string]string{"A": "f[+A]"},
	}}}
	require.NoError(t, lib.SaveFile(path))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"watch", path, "-p", "Watched"})
	require.NoError(t, root.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "Watched: ")
	assert.Contains(t, out.String(), "segments")
}
