// Package forest animates many instances of one tree asset. Instances share
// the asset and the wind but each sways with its own phase.
package forest

import (
	"context"
	gomath "math"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/lsystree/internal/tree"
	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/sway"
	"github.com/Faultbox/lsystree/pkg/math"
)

// goldenFraction spaces phases so neighbouring instances never line up.
const goldenFraction = 0.6180339887498949

// PhaseFor returns the default phase of the i-th instance in [0, 2π).
func PhaseFor(i int) float64 {
	_, frac := gomath.Modf(float64(i) * goldenFraction)
	return frac * 2 * gomath.Pi
}

// Instance is one placement of the shared asset.
type Instance struct {
	ID     uuid.UUID
	Offset math.Vec3
	Phase  float64
}

// Frame is the sway of one instance at one instant.
type Frame struct {
	Instance
	tree.SwayFrame
}

// Forest holds instances of a single asset.
type Forest struct {
	mu        sync.RWMutex
	asset     *tree.Asset
	instances []Instance
	opts      tree.SwayOptions
	limit     int
}

// New returns an empty forest of asset.
func New(asset *tree.Asset, opts tree.SwayOptions) *Forest {
	return &Forest{asset: asset, opts: opts, limit: runtime.GOMAXPROCS(0)}
}

// Asset returns the shared asset.
func (f *Forest) Asset() *tree.Asset {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.asset
}

// SetAsset swaps the shared asset, e.g. after a rebuild. Instances are kept.
func (f *Forest) SetAsset(a *tree.Asset) {
	f.mu.Lock()
	f.asset = a
	f.mu.Unlock()
}

// SetOptions replaces the sway settings used by Evaluate.
func (f *Forest) SetOptions(opts tree.SwayOptions) {
	f.mu.Lock()
	f.opts = opts
	f.mu.Unlock()
}

// Clear removes every instance.
func (f *Forest) Clear() {
	f.mu.Lock()
	f.instances = nil
	f.mu.Unlock()
}

// SetLimit bounds the number of concurrent evaluations; n <= 0 means no limit.
func (f *Forest) SetLimit(n int) {
	f.mu.Lock()
	f.limit = n
	f.mu.Unlock()
}

// Add places an instance at offset with the default phase for its index.
func (f *Forest) Add(offset math.Vec3) Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst := Instance{ID: uuid.New(), Offset: offset, Phase: PhaseFor(len(f.instances))}
	f.instances = append(f.instances, inst)
	return inst
}

// AddWithPhase places an instance with an explicit phase.
func (f *Forest) AddWithPhase(offset math.Vec3, phase float64) Instance {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst := Instance{ID: uuid.New(), Offset: offset, Phase: phase}
	f.instances = append(f.instances, inst)
	return inst
}

// Grid plants rows*cols instances spaced apart on the XZ plane, centred on
// the origin.
func (f *Forest) Grid(rows, cols int, spacing float64) {
	x0 := -float64(cols-1) * spacing / 2
	z0 := -float64(rows-1) * spacing / 2
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f.Add(math.Vec3{X: x0 + float64(c)*spacing, Z: z0 + float64(r)*spacing})
		}
	}
}

// Instances returns a copy of the instance list.
func (f *Forest) Instances() []Instance {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Instance(nil), f.instances...)
}

// Len returns the number of instances.
func (f *Forest) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.instances)
}

// Bounds returns the union of local placed at every instance offset. An
// empty forest returns local unchanged.
func (f *Forest) Bounds(local mesh.Bounds) mesh.Bounds {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.instances) == 0 {
		return local
	}
	var b mesh.Bounds
	for n, inst := range f.instances {
		off := inst.Offset.Float32()
		for i := 0; i < 3; i++ {
			lo, hi := local.Min[i]+off[i], local.Max[i]+off[i]
			if n == 0 || lo < b.Min[i] {
				b.Min[i] = lo
			}
			if n == 0 || hi > b.Max[i] {
				b.Max[i] = hi
			}
		}
	}
	return b
}

// Evaluate computes every instance's sway at time t in parallel. Each
// worker writes only its own frame. The first error cancels the rest.
func (f *Forest) Evaluate(ctx context.Context, t float64, w sway.Wind) ([]Frame, error) {
	f.mu.RLock()
	asset, opts, limit := f.asset, f.opts, f.limit
	instances := append([]Instance(nil), f.instances...)
	f.mu.RUnlock()

	frames := make([]Frame, len(instances))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, inst := range instances {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o := opts
			o.Phase = inst.Phase
			sf, err := tree.EvaluateSway(asset, t, w, o)
			if err != nil {
				return err
			}
			frames[i] = Frame{Instance: inst, SwayFrame: sf}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}
