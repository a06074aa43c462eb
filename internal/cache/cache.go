// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package cache stores annotation results keyed by annotator scope and
// input text. Every backend treats its own failures as misses: a broken
// cache slows requests down but never fails them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores opaque byte values with a TTL.
type Cache interface {
	// Get returns the value stored under key. Missing, expired and
	// unreadable entries all report false.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl. A non-positive ttl stores without
	// expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes key.
	Delete(ctx context.Context, key string)
	// Stats returns counters since construction.
	Stats() Stats
	// Name identifies the backend in logs and metrics.
	Name() string
	// Close releases the backend's resources.
	Close() error
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Errors      int64
	Evictions   int64
	CurrentSize int
}

// Key derives the cache key of the annotation of text under scope.
func Key(scope, text string) string {
	sum := sha256.Sum256([]byte(text))
	return scope + ":" + hex.EncodeToString(sum[:])
}
