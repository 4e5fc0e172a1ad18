package tree

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/logger"
)

// Builder owns the current tree. At most one asset is current; replacing it
// releases the previous one.
type Builder struct {
	buildMu sync.Mutex // serialises builds
	mu      sync.Mutex // guards current
	current *Asset
	log     *zap.Logger
}

// NewBuilder returns a Builder with an empty slot.
func NewBuilder() *Builder {
	return &Builder{log: logger.Named("tree")}
}

// Build builds a new asset from symbols and makes it current. On any error
// the previous asset stays current and untouched. Current keeps returning
// the previous asset while the new one is being built; Clear waits for the
// build to finish.
func (b *Builder) Build(symbols string, p Params) (*Asset, error) {
	b.buildMu.Lock()
	defer b.buildMu.Unlock()

	a, err := Build(symbols, p)
	if err != nil {
		b.zlog().Warn("tree build failed", zap.Error(err), zap.Int("symbols", len(symbols)))
		return nil, err
	}

	// a is private until published, so read everything logged now.
	fields := []zap.Field{
		zap.Stringer("id", a.ID),
		zap.Stringer("mode", a.Mode),
		zap.Int("symbols", a.Symbols),
		zap.Int("segments", a.Stats.Segments),
		zap.Int("leaves", a.Stats.Leaves),
		zap.Int("vertices", a.Mesh.VertexCount()),
		zap.Int("bones", a.BoneCount()),
		zap.Duration("took", a.Duration),
	}
	underflows := a.Stats.Underflows

	b.mu.Lock()
	prev := b.current
	b.current = a
	b.mu.Unlock()

	if prev != nil {
		b.zlog().Debug("released previous tree", zap.Stringer("id", prev.ID))
		prev.Release()
	}

	b.zlog().Info("tree built", fields...)
	if underflows > 0 {
		b.zlog().Warn("unbalanced ']' ignored", zap.Int("count", underflows))
	}
	return a, nil
}

func (b *Builder) zlog() *zap.Logger {
	if b.log == nil {
		return logger.Named("tree")
	}
	return b.log
}

// Clear releases the current asset, if any. A build in progress finishes
// first, so its asset is the one cleared.
func (b *Builder) Clear() {
	b.buildMu.Lock()
	defer b.buildMu.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	b.zlog().Debug("tree cleared", zap.Stringer("id", b.current.ID))
	b.current.Release()
	b.current = nil
}

// Current returns the current asset or nil.
func (b *Builder) Current() *Asset {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
