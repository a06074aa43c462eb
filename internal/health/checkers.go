// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/nlpd/internal/cache"
	"github.com/ManuGH/nlpd/internal/resilience"
)

// FileChecker checks that every listed file exists and is readable.
type FileChecker struct {
	name  string
	paths []string
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name string, paths ...string) *FileChecker {
	return &FileChecker{name: name, paths: paths}
}

func (c *FileChecker) Name() string {
	return c.name
}

func (c *FileChecker) Check(_ context.Context) CheckResult {
	if len(c.paths) == 0 {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "not configured (optional)",
		}
	}

	result := CheckResult{Status: StatusHealthy, Message: "files exist and readable"}
	for _, p := range c.paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return CheckResult{Status: StatusUnhealthy, Error: "file not found", Message: p}
			}
			return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: p}
		}
		if info.IsDir() {
			return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory", Message: p}
		}
		if info.Size() == 0 {
			result = CheckResult{Status: StatusDegraded, Message: p + ": file is empty"}
		}
	}
	return result
}

// ProbeChecker adapts a func(ctx) error probe, such as a backend Ready
// or a cache Ping.
type ProbeChecker struct {
	name  string
	probe func(context.Context) error
}

// NewProbeChecker wraps probe under name. A failing probe is unhealthy.
func NewProbeChecker(name string, probe func(context.Context) error) *ProbeChecker {
	return &ProbeChecker{name: name, probe: probe}
}

func (c *ProbeChecker) Name() string { return c.name }

func (c *ProbeChecker) Check(ctx context.Context) CheckResult {
	if err := c.probe(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// BreakerChecker reports a circuit breaker: open is unhealthy, half-open degraded.
type BreakerChecker struct {
	name  string
	state func() resilience.State
}

// NewBreakerChecker creates a checker reading state on every probe.
func NewBreakerChecker(name string, state func() resilience.State) *BreakerChecker {
	return &BreakerChecker{name: name, state: state}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(_ context.Context) CheckResult {
	switch s := c.state(); s {
	case resilience.StateOpen:
		return CheckResult{Status: StatusUnhealthy, Message: "circuit " + string(s)}
	case resilience.StateHalfOpen:
		return CheckResult{Status: StatusDegraded, Message: "circuit " + string(s)}
	default:
		return CheckResult{Status: StatusHealthy, Message: "circuit " + string(s)}
	}
}

// CacheChecker reports result cache counters. A cache never makes the
// service unhealthy; its errors only turn the check degraded.
type CacheChecker struct {
	name  string
	stats func() cache.Stats
}

// NewCacheChecker creates a checker reading stats on every probe.
func NewCacheChecker(name string, stats func() cache.Stats) *CacheChecker {
	return &CacheChecker{name: name, stats: stats}
}

func (c *CacheChecker) Name() string { return c.name }

func (c *CacheChecker) Check(_ context.Context) CheckResult {
	st := c.stats()
	msg := fmt.Sprintf("hits=%d misses=%d sets=%d evictions=%d errors=%d entries=%d",
		st.Hits, st.Misses, st.Sets, st.Evictions, st.Errors, st.CurrentSize)
	if st.Errors > 0 {
		return CheckResult{Status: StatusDegraded, Message: msg}
	}
	return CheckResult{Status: StatusHealthy, Message: msg}
}
