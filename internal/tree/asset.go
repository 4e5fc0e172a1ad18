package tree

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/lsystree/internal/tree/mesh"
	"github.com/Faultbox/lsystree/internal/tree/skeleton"
	"github.com/Faultbox/lsystree/pkg/turtle"
)

// Asset is one built tree: a mesh, plus a skeleton in skinned mode.
// Assets are immutable once built; Release drops their buffers.
type Asset struct {
	ID       uuid.UUID
	Mode     Mode
	Params   Params
	Mesh     *mesh.Mesh
	Skeleton *skeleton.Skeleton // nil in static mode
	Stats    turtle.Stats
	Symbols  int
	BuiltAt  time.Time
	Duration time.Duration

	mu       sync.RWMutex
	released bool
}

// Released reports whether Release has been called.
func (a *Asset) Released() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.released
}

// Release frees the mesh and skeleton. It waits for in-flight sway
// evaluations and is safe to call more than once.
func (a *Asset) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}
	a.released = true
	if a.Mesh != nil {
		a.Mesh.Release()
	}
	a.Skeleton = nil
}

// Use runs fn with the mesh and skeleton while holding the asset live, so a
// concurrent Release waits for it. It returns ErrReleased for a released
// asset.
func (a *Asset) Use(fn func(m *mesh.Mesh, s *skeleton.Skeleton) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.released {
		return fmt.Errorf("use %s: %w", a.ID, ErrReleased)
	}
	return fn(a.Mesh, a.Skeleton)
}

// BoneCount returns the number of bones, 0 for static or released assets.
// It must not be called from inside Use.
func (a *Asset) BoneCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.Skeleton == nil {
		return 0
	}
	return a.Skeleton.Len()
}

// Build interprets symbols and assembles a new asset. It does not touch any
// Builder slot; use Builder.Build for the replace-current lifecycle.
func Build(symbols string, p Params) (*Asset, error) {
	if err := p.Validate(); err != nil {
		buildsTotal.WithLabelValues(p.Mode.String(), "invalid").Inc()
		return nil, err
	}

	start := time.Now()
	res := turtle.Interpret(symbols, p.turtle())

	a := &Asset{
		ID:      uuid.New(),
		Mode:    p.Mode,
		Params:  p,
		Stats:   res.Stats,
		Symbols: res.Stats.Symbols,
		BuiltAt: start,
	}

	var err error
	switch p.Mode {
	case ModeSkinned:
		a.Skeleton, a.Mesh, err = skeleton.Builder{Assembler: p.assembler()}.Build(res.Events, p.Position)
	default:
		a.Mesh, err = p.assembler().Assemble(res.Events)
	}
	if err != nil {
		buildsTotal.WithLabelValues(p.Mode.String(), "error").Inc()
		return nil, err
	}

	a.Duration = time.Since(start)
	observeBuild(a)
	return a, nil
}
