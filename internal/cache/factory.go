// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/nlpd/internal/metrics"
)

// Backend names accepted by New.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned by New for an unrecognized backend name.
var ErrUnknownBackend = errors.New("cache: unknown backend")

// Config selects and configures a backend.
type Config struct {
	Backend    string
	TTL        time.Duration
	MaxEntries int
	Redis      RedisConfig
	Path       string // badger directory or sqlite file
}

// New builds the configured backend wrapped with metrics. An empty backend
// name means none.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Backend {
	case "", BackendNone:
		return NewNoop(), nil
	case BackendMemory:
		c = NewMemory(time.Minute, cfg.MaxEntries)
	case BackendRedis:
		c, err = NewRedis(ctx, cfg.Redis, logger)
	case BackendBadger:
		c, err = NewBadger(cfg.Path, logger)
	case BackendSQLite:
		if cfg.Path == "" {
			return nil, errors.New("cache: sqlite backend requires a path")
		}
		c, err = NewSQLite(ctx, cfg.Path, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(c), nil
}

type instrumented struct {
	Cache
}

// Instrument records hits, misses and stores of c in Prometheus. Backends
// record their own errors.
func Instrument(c Cache) Cache {
	return instrumented{Cache: c}
}

func (i instrumented) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := i.Cache.Get(ctx, key)
	if ok {
		metrics.RecordCache(i.Name(), "hit")
	} else {
		metrics.RecordCache(i.Name(), "miss")
	}
	return v, ok
}

func (i instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	i.Cache.Set(ctx, key, value, ttl)
	metrics.RecordCache(i.Name(), "store")
}

func unwrap(c Cache) Cache {
	if i, ok := c.(instrumented); ok {
		return i.Cache
	}
	return c
}

// Probe returns the connectivity check of c's backend, if it has one.
func Probe(c Cache) (func(context.Context) error, bool) {
	p, ok := unwrap(c).(interface{ Ping(context.Context) error })
	if !ok {
		return nil, false
	}
	return p.Ping, true
}

// Sweeper returns the expired-entry sweep of c's backend when the backend
// does not expire entries by itself.
func Sweeper(c Cache) (func(context.Context) (int64, error), bool) {
	s, ok := unwrap(c).(interface {
		Sweep(context.Context) (int64, error)
	})
	if !ok {
		return nil, false
	}
	return s.Sweep, true
}
