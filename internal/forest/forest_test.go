package forest

import (
	"context"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/lsystree/internal/tree"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/sway"
	"github.com/Faultbox/lsystree/pkg/math"
)

var wind = sway.Wind{Direction: math.Vec3{X: 1, Z: 0.3}, Strength: 10}

func newAsset(t *testing.T, mode tree.Mode) *tree.Asset {
	t.Helper()
	p := tree.DefaultParams()
	p.Mode = mode
	p.AngleDegrees = 25
	a, err := tree.Build("ff[+f[-fl]][-fl]f", p)
	require.NoError(t, err)
	return a
}

func TestPhasesAreDistinctAndBounded(t *testing.T) {
	seen := map[float64]bool{}
	for i := 0; i < 200; i++ {
		p := PhaseFor(i)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.Less(t, p, 2*gomath.Pi)
		assert.False(t, seen[p], "phase %d repeats", i)
		seen[p] = true
	}
	assert.Zero(t, PhaseFor(0))
}

func TestGridLayout(t *testing.T) {
	f := New(newAsset(t, tree.ModeStatic), tree.DefaultSwayOptions())
	f.Grid(2, 3, 4)

	inst := f.Instances()
	require.Len(t, inst, 6)
	assert.Equal(t, math.Vec3{X: -4, Z: -2}, inst[0].Offset)
	assert.Equal(t, math.Vec3{X: 4, Z: 2}, inst[5].Offset)
	assert.NotEqual(t, inst[0].ID, inst[1].ID)
}

func TestEvaluateMatchesSequential(t *testing.T) {
	for _, mode := range []tree.Mode{tree.ModeStatic, tree.ModeSkinned} {
		t.Run(mode.String(), func(t *testing.T) {
			a := newAsset(t, mode)
			opts := tree.DefaultSwayOptions()
			f := New(a, opts)
			f.Grid(4, 4, 3)
			f.AddWithPhase(math.Vec3{Y: 1}, 1.25)
			f.SetLimit(3)

			frames, err := f.Evaluate(context.Background(), 3.7, wind)
			require.NoError(t, err)
			require.Len(t, frames, f.Len())

			for i, inst := range f.Instances() {
				o := opts
				o.Phase = inst.Phase
				want, err := tree.EvaluateSway(a, 3.7, wind, o)
				require.NoError(t, err)
				assert.Equal(t, inst, frames[i].Instance)
				assert.Equal(t, want, frames[i].SwayFrame)
			}
			assert.Equal(t, 1.25, frames[16].Phase)
		})
	}
}

func TestInstancesSwayDifferently(t *testing.T) {
	f := New(newAsset(t, tree.ModeStatic), tree.DefaultSwayOptions())
	f.Add(math.Vec3{})
	f.Add(math.Vec3{X: 5})

	frames, err := f.Evaluate(context.Background(), 1, wind)
	require.NoError(t, err)
	assert.NotEqual(t, frames[0].Displacements, frames[1].Displacements)
}

func TestEvaluateReleasedAsset(t *testing.T) {
	a := newAsset(t, tree.ModeStatic)
	f := New(a, tree.DefaultSwayOptions())
	f.Grid(2, 2, 1)
	a.Release()

	_, err := f.Evaluate(context.Background(), 0, wind)
	assert.ErrorIs(t, err, tree.ErrReleased)
}

func TestEvaluateCancelled(t *testing.T) {
	f := New(newAsset(t, tree.ModeStatic), tree.DefaultSwayOptions())
	f.Grid(3, 3, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Evaluate(ctx, 0, wind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetAssetKeepsInstances(t *testing.T) {
	f := New(newAsset(t, tree.ModeStatic), tree.DefaultSwayOptions())
	f.Grid(1, 2, 1)
	b := newAsset(t, tree.ModeSkinned)
	f.SetAsset(b)

	assert.Same(t, b, f.Asset())
	frames, err := f.Evaluate(context.Background(), 0.5, wind)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.NotNil(t, frames[0].Rotations)
}

func TestSetOptionsAndClear(t *testing.T) {
	f := New(newAsset(t, tree.ModeStatic), tree.DefaultSwayOptions())
	f.Add(math.Vec3{})

	before, err := f.Evaluate(context.Background(), 1, wind)
	require.NoError(t, err)

	opts := tree.DefaultSwayOptions()
	opts.Shader.Amplitude = 0
	f.SetOptions(opts)
	after, err := f.Evaluate(context.Background(), 1, wind)
	require.NoError(t, err)

	assert.NotEqual(t, before[0].Displacements, after[0].Displacements)
	for _, d := range after[0].Displacements {
		assert.Zero(t, d)
	}

	f.Clear()
	assert.Zero(t, f.Len())
}

func TestBoundsCoversInstances(t *testing.T) {
	local := mesh.Bounds{Min: [3]float32{-1, 0, -1}, Max: [3]float32{1, 5, 1}}

	f := New(nil, tree.DefaultSwayOptions())
	assert.Equal(t, local, f.Bounds(local))

	f.Grid(1, 3, 10)
	b := f.Bounds(local)
	assert.Equal(t, [3]float32{-11, 0, -1}, b.Min)
	assert.Equal(t, [3]float32{11, 5, 1}, b.Max)
}
