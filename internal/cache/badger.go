// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/ManuGH/nlpd/internal/metrics"
)

// Badger is an embedded, disk-backed cache. Expiry uses Badger's native
// per-entry TTL; a background value-log GC runs while the cache is open.
type Badger struct {
	db     *badger.DB
	logger zerolog.Logger

	hits, misses, sets, errs atomic.Int64

	stop chan struct{}
	done chan struct{}
}

var _ Cache = (*Badger)(nil)

// NewBadger opens (or creates) a Badger database in dir. An empty dir opens
// an in-memory database.
func NewBadger(dir string, logger zerolog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	c := &Badger{
		db:     db,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.gc(5 * time.Minute)
	return c, nil
}

func (c *Badger) Name() string { return "badger" }

func (c *Badger) Get(_ context.Context, key string) ([]byte, bool) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.misses.Add(1)
		return nil, false
	}
	if err != nil {
		c.errs.Add(1)
		metrics.RecordCache(c.Name(), "error")
		c.misses.Add(1)
		c.logger.Warn().Err(err).Str("key", key).Msg("badger get failed")
		return nil, false
	}
	c.hits.Add(1)
	return out, true
}

func (c *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.errs.Add(1)
		metrics.RecordCache(c.Name(), "error")
		c.logger.Warn().Err(err).Str("key", key).Msg("badger set failed")
		return
	}
	c.sets.Add(1)
}

func (c *Badger) Delete(_ context.Context, key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		c.errs.Add(1)
		metrics.RecordCache(c.Name(), "error")
		c.logger.Warn().Err(err).Str("key", key).Msg("badger delete failed")
	}
}

// Stats counts live keys with a key-only iteration.
func (c *Badger) Stats() Stats {
	size := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			size++
		}
		return nil
	})
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Errors:      c.errs.Load(),
		CurrentSize: size,
	}
}

func (c *Badger) gc(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to collect.
			if err := c.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				c.logger.Debug().Err(err).Msg("badger value log gc")
			}
		case <-c.stop:
			return
		}
	}
}

func (c *Badger) Close() error {
	close(c.stop)
	<-c.done
	return c.db.Close()
}
