// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon assembles the annotation service from its configuration and
// owns its lifecycle.
package daemon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/nlpd/internal/annotate"
	"github.com/ManuGH/nlpd/internal/annotate/corenlp"
	"github.com/ManuGH/nlpd/internal/annotate/rules"
	"github.com/ManuGH/nlpd/internal/api"
	"github.com/ManuGH/nlpd/internal/api/middleware"
	"github.com/ManuGH/nlpd/internal/cache"
	"github.com/ManuGH/nlpd/internal/config"
	"github.com/ManuGH/nlpd/internal/health"
	"github.com/ManuGH/nlpd/internal/log"
	"github.com/ManuGH/nlpd/internal/metrics"
	"github.com/ManuGH/nlpd/internal/telemetry"
	"github.com/ManuGH/nlpd/internal/version"
)

// Options tunes Bootstrap. The zero value is production behaviour.
type Options struct {
	// LogOutput defaults to os.Stdout.
	LogOutput io.Writer
}

// Bootstrap builds every component described by cfg and returns an App
// ready to Run. Resources built before a failure are released.
func Bootstrap(ctx context.Context, cfg config.AppConfig, opts Options) (_ *App, err error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	log.Configure(log.Config{
		Level:   cfg.Log.Level,
		Output:  out,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})
	logger := log.WithComponent("daemon")
	metrics.SetBuildInfo(version.Version, version.Commit)

	defaultType, err := config.ResolveDefaultType(cfg.DefaultType)
	if err != nil {
		return nil, fmt.Errorf("defaultType %q: %w", cfg.DefaultType, err)
	}

	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
		}
	}()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	cleanup = append(cleanup, func() { _ = tp.Shutdown(context.Background()) })

	hm := health.NewManager(cfg.Version)

	backend, err := buildAnnotator(cfg, hm)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { _ = backend.close() })

	c, err := cache.New(ctx, cache.Config{
		Backend:    cfg.Cache.Backend,
		TTL:        cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
		Path:       cfg.Cache.Path,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	cleanup = append(cleanup, func() { _ = c.Close() })
	if ping, ok := cache.Probe(c); ok {
		hm.RegisterChecker(health.NewProbeChecker("cache_"+c.Name(), ping))
	}
	if c.Name() != cache.BackendNone {
		hm.RegisterChecker(health.NewCacheChecker("cache_stats", c.Stats))
	}

	stack := middleware.StackConfig{
		EnableMetrics: cfg.Metrics.Enabled,
		EnableLogging: true,
	}
	if cfg.Tracing.Enabled {
		stack.TracingService = cfg.Log.Service
	}
	if cfg.RateLimit.Enabled {
		stack.RateLimitPerMinute = cfg.RateLimit.RequestsPerMinute
	}

	srv, err := api.New(api.Options{
		Annotator:    backend.annotator,
		Cache:        c,
		CacheTTL:     cfg.Cache.TTL,
		DefaultType:  defaultType,
		Timeout:      cfg.Timeout,
		LegacyErrors: cfg.Errors.Legacy(),
		Stack:        stack,
	})
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	mgr, err := NewManager(config.ServerConfigFor(cfg), Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
		OpsHandler: opsHandler(hm, cfg.Metrics.Enabled),
		OpsAddr:    cfg.Metrics.ListenAddr,
	})
	if err != nil {
		return nil, err
	}

	// Released in reverse: annotator, then cache, then the tracer flush.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("cache", func(context.Context) error { return c.Close() })
	mgr.RegisterShutdownHook("annotator", func(context.Context) error { return backend.close() })

	logger.Info().
		Str(log.FieldEvent, "daemon.bootstrapped").
		Str(log.FieldBackend, backend.annotator.Name()).
		Str("cache", c.Name()).
		Str("default_type", defaultType.String()).
		Dur("timeout", cfg.Timeout).
		Bool("legacy_errors", cfg.Errors.Legacy()).
		Msg("components ready")

	return &App{
		logger:  logger,
		manager: mgr,
		api:     srv,
		health:  hm,
		watch:   backend.watch,
		cache:   c,
	}, nil
}

// annotatorBackend is the selected annotator with its lifecycle hooks.
type annotatorBackend struct {
	annotator annotate.Annotator
	watch     func(context.Context) error
	close     func() error
}

func buildAnnotator(cfg config.AppConfig, hm *health.Manager) (annotatorBackend, error) {
	props := annotate.Properties(cfg.Pipeline.Properties)

	switch cfg.Pipeline.Backend {
	case "", config.BackendRules:
		opts := rules.OptionsFromProperties(props)
		opts.MappingFiles = append(opts.MappingFiles, cfg.Pipeline.Rules.MappingFiles...)
		opts.IgnoreCase = opts.IgnoreCase || cfg.Pipeline.Rules.IgnoreCase
		opts.Watch = cfg.Pipeline.Rules.Watch

		b, err := rules.New(opts)
		if err != nil {
			return annotatorBackend{}, err
		}
		if len(opts.MappingFiles) > 0 {
			hm.RegisterChecker(health.NewFileChecker("regexner_mappings", opts.MappingFiles...))
		}
		return annotatorBackend{annotator: b, watch: b.Watch, close: b.Close}, nil

	case config.BackendCoreNLP:
		c, err := corenlp.New(corenlp.Config{
			URL:              cfg.Pipeline.CoreNLP.URL,
			Timeout:          cfg.Pipeline.CoreNLP.Timeout,
			RPS:              cfg.Pipeline.CoreNLP.RPS,
			Burst:            cfg.Pipeline.CoreNLP.Burst,
			BreakerThreshold: cfg.Pipeline.CoreNLP.BreakerThreshold,
			BreakerReset:     cfg.Pipeline.CoreNLP.BreakerReset,
			Properties:       props,
		})
		if err != nil {
			return annotatorBackend{}, err
		}
		hm.RegisterChecker(health.NewProbeChecker("corenlp", c.Ready))
		hm.RegisterChecker(health.NewBreakerChecker("corenlp_breaker", c.BreakerState))
		return annotatorBackend{
			annotator: c,
			watch:     func(context.Context) error { return nil },
			close:     func() error { return nil },
		}, nil

	default:
		return annotatorBackend{}, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Pipeline.Backend)
	}
}

func opsHandler(hm *health.Manager, withMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if withMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/healthz", hm.ServeHealth)
	r.Get("/readyz", hm.ServeReady)
	return r
}
