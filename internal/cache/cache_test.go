// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseCache runs the behaviour every backend shares.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte("v1"), time.Minute)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	c.Set(ctx, "k", []byte("v2"), 0)
	got, ok = c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)

	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 2, stats.Misses)
	assert.EqualValues(t, 2, stats.Sets)
	assert.Zero(t, stats.Errors)
}

func TestKey(t *testing.T) {
	a := Key("rules@0123456789abcdef", "hello")
	assert.Equal(t, "rules@0123456789abcdef:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", a)
	assert.NotEqual(t, a, Key("rules@fedcba9876543210", "hello"))
}

func TestMemory(t *testing.T) {
	c := NewMemory(0, 0)
	defer func() { _ = c.Close() }()
	exerciseCache(t, c)
}

func TestMemoryExpiryAndJanitor(t *testing.T) {
	c := NewMemory(10*time.Millisecond, 0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	c.Set(ctx, "short", []byte("x"), 5*time.Millisecond)
	c.Set(ctx, "long", []byte("y"), time.Hour)

	require.Eventually(t, func() bool {
		return c.Stats().CurrentSize == 1
	}, time.Second, 5*time.Millisecond)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
	assert.GreaterOrEqual(t, c.Stats().Evictions, int64(1))
}

func TestMemoryMaxEntries(t *testing.T) {
	c := NewMemory(0, 2)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)
	c.Set(ctx, "c", []byte("3"), 0)

	assert.Equal(t, 2, c.Stats().CurrentSize)
	_, ok := c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCopiesValue(t *testing.T) {
	c := NewMemory(0, 0)
	ctx := context.Background()
	buf := []byte("abc")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'z'

	got, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryCloseIdempotent(t *testing.T) {
	c := NewMemory(time.Millisecond, 0)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := newRedisWithClient(client, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedis(t *testing.T) {
	_, c := setupMiniRedis(t)
	exerciseCache(t, c)
}

func TestRedisTTL(t *testing.T) {
	mr, c := setupMiniRedis(t)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"k"))

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisFailureIsAMiss(t *testing.T) {
	mr, c := setupMiniRedis(t)
	mr.Close()

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	c.Set(context.Background(), "k", []byte("v"), time.Minute)
	assert.EqualValues(t, 2, c.Stats().Errors)
}

func TestNewRedisFailsFast(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), RedisConfig{Addr: addr}, zerolog.Nop())
	assert.Error(t, err)
}

func TestBadger(t *testing.T) {
	c, err := NewBadger("", zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	exerciseCache(t, c)
	assert.Equal(t, 0, c.Stats().CurrentSize)
}

func TestBadgerPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := NewBadger(dir, zerolog.Nop())
	require.NoError(t, err)
	c.Set(ctx, "k", []byte("v"), time.Hour)
	require.NoError(t, c.Close())

	c, err = NewBadger(dir, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLite(t *testing.T) {
	c, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	exerciseCache(t, c)
}

func TestSQLiteExpiryAndSweep(t *testing.T) {
	c, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set(ctx, "k", []byte("v"), time.Second)
	c.Set(ctx, "forever", []byte("v"), 0)

	c.now = func() time.Time { return now.Add(2 * time.Second) }
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	n, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, c.Stats().CurrentSize)
}

func TestNewSelectsBackend(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "none", c.Name())
	c.Set(ctx, "k", []byte("v"), 0)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c, err = New(ctx, Config{Backend: BackendMemory}, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Equal(t, "memory", c.Name())
	c.Set(ctx, "k", []byte("v"), time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)

	mr := miniredis.RunT(t)
	rc, err := New(ctx, Config{Backend: BackendRedis, Redis: RedisConfig{Addr: mr.Addr()}}, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	assert.Equal(t, "redis", rc.Name())

	_, err = New(ctx, Config{Backend: BackendSQLite}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(ctx, Config{Backend: "memcached"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestProbeAndSweeperSeeThroughInstrumentation(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rc, err := New(ctx, Config{Backend: BackendRedis, Redis: RedisConfig{Addr: mr.Addr()}}, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	ping, ok := Probe(rc)
	require.True(t, ok)
	assert.NoError(t, ping(ctx))
	_, ok = Sweeper(rc)
	assert.False(t, ok)

	sc, err := New(ctx, Config{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "c.db")}, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = sc.Close() }()
	sweep, ok := Sweeper(sc)
	require.True(t, ok)
	n, err := sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok = Probe(NewNoop())
	assert.False(t, ok)
}
