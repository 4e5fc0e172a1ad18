// Package session runs tree regenerations in the background for the
// interactive front ends. A new request supersedes the running one.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/cache"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/preset"
	"github.com/Faultbox/lsystree/internal/tree"
)

// Request describes one regeneration.
type Request struct {
	Preset   preset.Preset
	Params   tree.Params
	Animated bool          // build every generation, Delay apart
	Delay    time.Duration // pause between animated generations
}

// Status is a snapshot of the latest regeneration.
type Status struct {
	Running     bool
	Generation  int // last generation built
	Generations int // target generation
	Symbols     int
	Err         error
	Updated     time.Time
}

// Session serialises regenerations into one tree.Builder.
type Session struct {
	builder *tree.Builder
	cache   *cache.Cache // nil disables caching
	log     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	seq    int // id of the newest run
	status Status
}

// New returns a session building into b. c may be nil.
func New(b *tree.Builder, c *cache.Cache) *Session {
	done := make(chan struct{})
	close(done)
	return &Session{
		builder: b,
		cache:   c,
		log:     logger.Named("session"),
		cancel:  func() {},
		done:    done,
	}
}

// Builder returns the builder holding the current tree.
func (s *Session) Builder() *tree.Builder {
	return s.builder
}

// Regenerate cancels any running regeneration and starts req. It returns
// immediately; the new run starts once the previous one has stopped, so an
// older tree never replaces a newer one.
func (s *Session) Regenerate(ctx context.Context, req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	prev := s.done

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.seq++
	id := s.seq
	s.status = Status{Running: true, Generations: req.Preset.IterationCount(), Updated: time.Now()}

	go func() {
		defer close(done)
		defer cancel()
		<-prev

		err := s.run(ctx, id, req)
		if errors.Is(err, context.Canceled) {
			err = nil
		} else if err != nil {
			s.log.Warn("regeneration failed", zap.String("preset", req.Preset.Name), zap.Error(err))
		}
		s.update(id, func(st *Status) {
			st.Running = false
			st.Err = err
		})
	}()
}

func (s *Session) run(ctx context.Context, id int, req Request) error {
	g, err := req.Preset.Grammar()
	if err != nil {
		return err
	}
	n := req.Preset.IterationCount()
	params := req.Params
	if req.Preset.Angle != 0 {
		params.AngleDegrees = req.Preset.Angle
	}

	if !req.Animated {
		symbols := s.cache.Expand(g, req.Preset.Axiom, n)
		if err := ctx.Err(); err != nil {
			return err
		}
		return s.build(id, n, symbols, params)
	}

	return preset.Grow(ctx, g, req.Preset.Axiom, n, req.Delay, func(gen int, symbols string) error {
		return s.build(id, gen, symbols, params)
	})
}

func (s *Session) build(id, gen int, symbols string, p tree.Params) error {
	if _, err := s.builder.Build(symbols, p); err != nil {
		return err
	}
	s.update(id, func(st *Status) {
		st.Generation = gen
		st.Symbols = len(symbols)
	})
	return nil
}

// update applies fn unless a newer run has started since run id.
func (s *Session) update(id int, fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.seq {
		return
	}
	fn(&s.status)
	s.status.Updated = time.Now()
}

// Status returns the latest regeneration status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Wait blocks until the running regeneration finishes or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the running regeneration and waits for it.
func (s *Session) Stop() {
	s.mu.Lock()
	s.cancel()
	done := s.done
	s.mu.Unlock()
	<-done
}

// Delete stops any regeneration and releases the current tree.
func (s *Session) Delete() {
	s.Stop()
	s.builder.Clear()

	s.mu.Lock()
	s.status = Status{Updated: time.Now()}
	s.mu.Unlock()
}
