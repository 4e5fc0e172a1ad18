// Package cache stores expanded L-system strings in BadgerDB so that large
// expansions are computed once per (rules, axiom, iterations).
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Faultbox/lsystree/internal/logger"
	"github.com/Faultbox/lsystree/pkg/lsystem"
)

const keyPrefix = "exp/"

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lsystree_cache_lookups_total",
		Help: "Expansion cache lookups by result",
	}, []string{"result"})
)

// Config configures the cache.
type Config struct {
	Dir      string        // database directory, ignored in memory
	InMemory bool          // no disk persistence
	TTL      time.Duration // 0 keeps entries forever
}

// Cache is a persistent expansion cache. A nil *Cache is valid and caches
// nothing.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
	log *zap.Logger
}

// zapBadger adapts zap to badger's Logger interface.
type zapBadger struct {
	s *zap.SugaredLogger
}

func (l zapBadger) Errorf(f string, a ...interface{})   { l.s.Errorf(f, a...) }
func (l zapBadger) Warningf(f string, a ...interface{}) { l.s.Warnf(f, a...) }
func (l zapBadger) Infof(f string, a ...interface{})    { l.s.Debugf(f, a...) }
func (l zapBadger) Debugf(f string, a ...interface{})   { l.s.Debugf(f, a...) }

// Open opens the cache. An empty Dir without InMemory disables caching and
// returns a nil Cache.
func Open(cfg Config) (*Cache, error) {
	log := logger.Named("cache")

	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.Dir == "":
		return nil, nil
	default:
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(zapBadger{s: log.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open expansion cache: %w", err)
	}
	log.Debug("expansion cache opened", zap.String("dir", cfg.Dir), zap.Bool("in_memory", cfg.InMemory))
	return &Cache{db: db, ttl: cfg.TTL, log: log}, nil
}

// OpenInMemory opens a throwaway cache, mostly for tests.
func OpenInMemory() (*Cache, error) {
	return Open(Config{InMemory: true})
}

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Key returns the cache key of an expansion. Rules are hashed in symbol
// order so equal grammars give equal keys.
func Key(g *lsystem.Grammar, axiom string, iterations int) string {
	h := sha256.New()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(iterations))
	h.Write(n[:])
	h.Write([]byte(axiom))
	h.Write([]byte{0})
	for _, r := range g.Symbols() {
		rule, _ := g.Rule(r)
		fmt.Fprintf(h, "%c\x00%s\x00", r, rule)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached expansion for key.
func (c *Cache) Get(key string) (string, bool, error) {
	if c == nil {
		return "", false, nil
	}

	var out string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			out = string(v)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return out, true, nil
}

// Put stores an expansion.
func (c *Cache) Put(key, value string) error {
	if c == nil {
		return nil
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), []byte(value))
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Expand returns g.Generate(axiom, iterations), from the cache when
// possible. Cache failures are logged and fall back to generating.
func (c *Cache) Expand(g *lsystem.Grammar, axiom string, iterations int) string {
	if c == nil {
		return g.Generate(axiom, iterations)
	}

	key := Key(g, axiom, iterations)
	if s, ok, err := c.Get(key); err != nil {
		c.log.Warn("cache read failed", zap.Error(err))
	} else if ok {
		lookups.WithLabelValues("hit").Inc()
		return s
	}
	lookups.WithLabelValues("miss").Inc()

	s := g.Generate(axiom, iterations)
	if err := c.Put(key, s); err != nil {
		c.log.Warn("cache write failed", zap.Error(err), zap.Int("symbols", len(s)))
	}
	return s
}

// Purge removes every cached expansion.
func (c *Cache) Purge() error {
	if c == nil {
		return nil
	}
	return c.db.DropPrefix([]byte(keyPrefix))
}
