package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/lsystree/internal/cache"
	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/tree"
)

func small() preset.Preset {
	return preset.Preset{
		Name:       "small",
		Axiom:      "fA",
		Iterations: 3,
		Rules:      map[string]string{"A": "f[+A][-A]"},
	}
}

func wait(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestRegenerateBuildsFinalGeneration(t *testing.T) {
	c, err := cache.OpenInMemory()
	require.NoError(t, err)
	defer c.Close()

	s := New(tree.NewBuilder(), c)
	p := small()
	s.Regenerate(context.Background(), Request{Preset: p, Params: tree.DefaultParams()})
	wait(t, s)

	want, err := p.Expand()
	require.NoError(t, err)

	st := s.Status()
	assert.False(t, st.Running)
	assert.NoError(t, st.Err)
	assert.Equal(t, 3, st.Generation)
	assert.Equal(t, len(want), st.Symbols)

	a := s.Builder().Current()
	require.NotNil(t, a)
	assert.Equal(t, len(want), a.Symbols)
}

func TestAnimatedGrowthBuildsEveryGeneration(t *testing.T) {
	b := tree.NewBuilder()
	s := New(b, nil)

	s.Regenerate(context.Background(), Request{Preset: small(), Params: tree.DefaultParams(), Animated: true})
	wait(t, s)

	a := b.Current()
	require.NotNil(t, a)
	// Generation n of fA has 2^n segments; only the last one stays current.
	assert.Equal(t, 8, a.Stats.Segments)
	assert.Equal(t, 3, s.Status().Generation)
}

func TestNewRequestSupersedesRunning(t *testing.T) {
	b := tree.NewBuilder()
	s := New(b, nil)

	slow := small()
	slow.Iterations = 50
	s.Regenerate(context.Background(), Request{Preset: slow, Params: tree.DefaultParams(), Animated: true, Delay: time.Hour})

	final := preset.Preset{Name: "final", Axiom: "ff"}
	s.Regenerate(context.Background(), Request{Preset: final, Params: tree.DefaultParams()})
	wait(t, s)

	a := b.Current()
	require.NotNil(t, a)
	assert.Equal(t, 2, a.Stats.Segments)
	assert.Equal(t, 2, s.Status().Symbols)
}

func TestInvalidParamsReported(t *testing.T) {
	b := tree.NewBuilder()
	s := New(b, nil)

	s.Regenerate(context.Background(), Request{Preset: small(), Params: tree.DefaultParams()})
	wait(t, s)
	prev := b.Current()

	bad := tree.DefaultParams()
	bad.RadiusReduction = 2
	s.Regenerate(context.Background(), Request{Preset: small(), Params: bad})
	wait(t, s)

	assert.ErrorIs(t, s.Status().Err, tree.ErrMalformedParameter)
	assert.Same(t, prev, b.Current())
}

func TestPresetAngleOverridesParams(t *testing.T) {
	b := tree.NewBuilder()
	s := New(b, nil)

	p := small()
	p.Angle = 33
	s.Regenerate(context.Background(), Request{Preset: p, Params: tree.DefaultParams()})
	wait(t, s)

	require.NotNil(t, b.Current())
	assert.Equal(t, 33.0, b.Current().Params.AngleDegrees)
}

func TestDeleteReleasesTree(t *testing.T) {
	b := tree.NewBuilder()
	s := New(b, nil)

	s.Regenerate(context.Background(), Request{Preset: small(), Params: tree.DefaultParams()})
	wait(t, s)
	a := b.Current()
	require.NotNil(t, a)

	s.Delete()
	assert.Nil(t, b.Current())
	assert.True(t, a.Released())
	assert.False(t, s.Status().Running)
	assert.Zero(t, s.Status().Symbols)
}

func TestStopCancelsAnimation(t *testing.T) {
	s := New(tree.NewBuilder(), nil)
	slow := small()
	slow.Iterations = 50
	s.Regenerate(context.Background(), Request{Preset: slow, Params: tree.DefaultParams(), Animated: true, Delay: time.Hour})

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, s.Status().Running)
	assert.NoError(t, s.Status().Err)
}
