// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/nlpd/internal/cache"
	"github.com/ManuGH/nlpd/internal/mediatype"
	"github.com/ManuGH/nlpd/internal/render"
	"github.com/ManuGH/nlpd/internal/validate"
)

// ErrNotRenderable is reported when defaultType names a media type no codec serves.
var ErrNotRenderable = errors.New("media type is not renderable")

// Validate checks cfg and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("host", cfg.Host)
	v.Port("port", cfg.Port)
	v.Custom("defaultType", cfg.DefaultType, func(any) error {
		_, err := ResolveDefaultType(cfg.DefaultType)
		return err
	})
	if cfg.Timeout != 0 {
		v.MinDuration("timeout", cfg.Timeout, time.Millisecond)
	}
	v.OneOf("errors.mode", cfg.Errors.Mode, []string{ErrorsModeProblem, ErrorsModeLegacy})

	v.NonNegative("server.maxHeaderBytes", cfg.Server.MaxHeaderBytes)
	if cfg.Server.ShutdownTimeout != 0 {
		v.MinDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout, minShutdownTimeout)
	}

	v.OneOf("pipeline.backend", cfg.Pipeline.Backend, []string{BackendRules, BackendCoreNLP})
	switch cfg.Pipeline.Backend {
	case BackendCoreNLP:
		c := cfg.Pipeline.CoreNLP
		v.URL("pipeline.corenlp.url", c.URL, []string{"http", "https"})
		v.NonNegative("pipeline.corenlp.burst", c.Burst)
		v.NonNegative("pipeline.corenlp.breakerThreshold", c.BreakerThreshold)
		if c.RPS < 0 {
			v.AddError("pipeline.corenlp.rps", "value cannot be negative", c.RPS)
		}
	case BackendRules:
		for _, f := range cfg.Pipeline.Rules.MappingFiles {
			v.File("pipeline.rules.mappingFiles", f)
		}
	}

	v.OneOf("cache.backend", cfg.Cache.Backend, []string{
		cache.BackendNone, cache.BackendMemory, cache.BackendRedis, cache.BackendBadger, cache.BackendSQLite,
	})
	v.NonNegative("cache.maxEntries", cfg.Cache.MaxEntries)
	switch cfg.Cache.Backend {
	case cache.BackendRedis:
		v.NotEmpty("cache.redis.addr", cfg.Cache.Redis.Addr)
		// Stock redis.conf ships 16 databases.
		v.Range("cache.redis.db", cfg.Cache.Redis.DB, 0, 15)
	case cache.BackendSQLite:
		v.NotEmpty("cache.path", cfg.Cache.Path)
	case cache.BackendBadger:
		if cfg.Cache.Path != "" {
			v.Directory("cache.path", cfg.Cache.Path, false)
		}
	}

	if cfg.Metrics.Enabled {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.Fraction("tracing.samplingRate", cfg.Tracing.SamplingRate)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requestsPerMinute", cfg.RateLimit.RequestsPerMinute)
	}

	v.LogLevel("log.level", cfg.Log.Level)

	return v.Err()
}

// ResolveDefaultType parses s and checks that a codec can render it.
// Format errors are returned, not swallowed.
func ResolveDefaultType(s string) (mediatype.MediaType, error) {
	mt, err := mediatype.FromType(s)
	if err != nil {
		return mediatype.Unknown, err
	}
	if mt == mediatype.Unknown {
		return mediatype.Unknown, fmt.Errorf("%w: %q", ErrNotRenderable, s)
	}
	if _, err := render.For(mt); err != nil {
		return mediatype.Unknown, fmt.Errorf("%w: %q", ErrNotRenderable, s)
	}
	return mt, nil
}
