// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/nlpd/internal/metrics"
	"github.com/ManuGH/nlpd/internal/persistence/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS results (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS results_expires_at ON results(expires_at);
`

// SQLite is a single-file cache. Entries carry an expiry column (unix
// milliseconds, 0 for none); reads ignore expired rows and Sweep deletes them.
type SQLite struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time

	hits, misses, sets, errs, evictions atomic.Int64
}

var _ Cache = (*SQLite)(nil)

// NewSQLite opens the database at path, checks its integrity and creates
// the schema.
func NewSQLite(ctx context.Context, path string, logger zerolog.Logger) (*SQLite, error) {
	db, err := sqlite.Open(ctx, path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	issues, err := sqlite.QuickCheck(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if len(issues) > 0 {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite cache %s is corrupt: %s", path, strings.Join(issues, "; "))
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLite{db: db, logger: logger, now: time.Now}, nil
}

func (c *SQLite) Name() string { return "sqlite" }

func (c *SQLite) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM results WHERE key = ? AND (expires_at = 0 OR expires_at > ?)`,
		key, c.now().UnixMilli()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return nil, false
	}
	if err != nil {
		c.errs.Add(1)
		metrics.RecordCache(c.Name(), "error")
		c.misses.Add(1)
		c.logger.Warn().Err(err).Str("key", key).Msg("sqlite get failed")
		return nil, false
	}
	c.hits.Add(1)
	return value, true
}

func (c *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	var expires int64
	if ttl > 0 {
		expires = c.now().Add(ttl).UnixMilli()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO results(key, value, expires_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expires)
	if err != nil {
		c.errs.Add(1)
		metrics.RecordCache(c.Name(), "error")
		c.logger.Warn().Err(err).Str("key", key).Msg("sqlite set failed")
		return
	}
	c.sets.Add(1)
}

func (c *SQLite) Delete(ctx context.Context, key string) {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM results WHERE key = ?`, key); err != nil {
		c.errs.Add(1)
		metrics.RecordCache(c.Name(), "error")
		c.logger.Warn().Err(err).Str("key", key).Msg("sqlite delete failed")
	}
}

// Sweep deletes expired rows and returns how many were removed.
func (c *SQLite) Sweep(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM results WHERE expires_at != 0 AND expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	c.evictions.Add(n)
	return n, nil
}

func (c *SQLite) Stats() Stats {
	var size int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&size); err != nil {
		c.logger.Warn().Err(err).Msg("sqlite count failed")
	}
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		Errors:      c.errs.Load(),
		Evictions:   c.evictions.Load(),
		CurrentSize: size,
	}
}

func (c *SQLite) Close() error {
	return c.db.Close()
}
