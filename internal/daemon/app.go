// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/nlpd/internal/api"
	"github.com/ManuGH/nlpd/internal/cache"
	"github.com/ManuGH/nlpd/internal/health"
	"github.com/ManuGH/nlpd/internal/log"
)

const sweepInterval = 5 * time.Minute

// App owns the long-lived runtime (rule watcher, cache sweeper) and
// delegates server management to Manager.
type App struct {
	logger  zerolog.Logger
	manager Manager
	api     *api.Server
	health  *health.Manager
	watch   func(context.Context) error
	cache   cache.Cache
}

// NewApp wraps an already built manager. Bootstrap is the usual constructor.
func NewApp(logger zerolog.Logger, manager Manager) *App {
	return &App{logger: logger, manager: manager}
}

// API returns the request handler, nil for an App built with NewApp.
func (a *App) API() *api.Server { return a.api }

// Health returns the health manager, nil for an App built with NewApp.
func (a *App) Health() *health.Manager { return a.health }

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Rule hot reload is best-effort: the last good rules keep serving.
	if a.watch != nil {
		if err := a.watch(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "regexner.watcher_start_failed").Msg("failed to start rule watcher")
		}
	}

	if a.cache != nil {
		if sweep, ok := cache.Sweeper(a.cache); ok {
			g.Go(func() error {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						n, err := sweep(ctx)
						if err != nil {
							a.logger.Warn().Err(err).Str(log.FieldEvent, "cache.sweep_failed").Msg("cache sweep failed")
							continue
						}
						a.logger.Debug().Int64("removed", n).Str(log.FieldEvent, "cache.swept").Msg("expired cache entries removed")
					}
				}
			})
		}
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
