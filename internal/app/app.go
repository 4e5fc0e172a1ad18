// Package app wires the pieces every front end shares: the expansion cache,
// the tree session and the optional metrics endpoint.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/cache"
	"github.com/Faultbox/lsystree/internal/config"
	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/internal/metrics"
	"github.com/Faultbox/lsystree/internal/session"
	"github.com/Faultbox/lsystree/internal/tree"
)

// Env is the shared runtime of one process.
type Env struct {
	Cache   *cache.Cache
	Session *session.Session
	Metrics *metrics.Server // nil unless configured

	cancel context.CancelFunc
	done   chan struct{}
	log    *zap.Logger
}

// Open opens the cache, creates the session and starts serving metrics when
// cfg.Metrics.Listen is set. Close releases everything.
func Open(ctx context.Context, cfg *config.Config) (*Env, error) {
	e := &Env{done: make(chan struct{}), log: logger.Named("app")}

	c, err := cache.Open(cache.Config{Dir: cfg.Cache.Dir, TTL: cfg.Cache.TTL})
	if err != nil {
		return nil, err
	}
	e.Cache = c
	e.Session = session.New(tree.NewBuilder(), c)

	ctx, e.cancel = context.WithCancel(ctx)
	if cfg.Metrics.Listen == "" {
		close(e.done)
		return e, nil
	}

	e.Metrics, err = metrics.Listen(cfg.Metrics.Listen)
	if err != nil {
		e.cancel()
		c.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}
	go func() {
		defer close(e.done)
		if err := e.Metrics.Serve(ctx); err != nil {
			e.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return e, nil
}

// Close stops the session and the metrics server and closes the cache.
func (e *Env) Close() {
	e.Session.Stop()
	e.Session.Builder().Clear()
	e.cancel()
	<-e.done
	if err := e.Cache.Close(); err != nil {
		e.log.Warn("closing cache", zap.Error(err))
	}
}
