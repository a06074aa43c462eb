// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package regexner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	nlog "github.com/ManuGH/nlpd/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher recompiles a set of rule files when any of them changes and hands
// the new Ruleset to a callback. A reload that fails to parse or compile is
// logged and the previous ruleset stays in effect.
type Watcher struct {
	paths      []string
	ignoreCase bool
	onReload   func(*Ruleset)
	debounce   time.Duration
	logger     zerolog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	done    chan struct{}
}

// NewWatcher creates a watcher for paths. onReload is called from the
// watcher goroutine after every successful recompilation.
func NewWatcher(paths []string, ignoreCase bool, onReload func(*Ruleset)) *Watcher {
	return &Watcher{
		paths:      append([]string(nil), paths...),
		ignoreCase: ignoreCase,
		onReload:   onReload,
		debounce:   defaultDebounce,
		logger:     nlog.WithComponent("regexner"),
	}
}

// SetDebounce overrides the quiet period between a change and the reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Reload loads and compiles the rule files and publishes the result.
func (w *Watcher) Reload() error {
	ms, err := Load(w.paths...)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	rs, err := Compile(ms, w.ignoreCase)
	if err != nil {
		return fmt.Errorf("compile rules: %w", err)
	}
	if w.onReload != nil {
		w.onReload(rs)
	}
	w.logger.Info().
		Str(nlog.FieldEvent, "regexner.reloaded").
		Int("rules", rs.Len()).
		Msg("rule files reloaded")
	return nil
}

// Start begins watching. Directories are watched rather than the files so
// that editors replacing a file by rename are noticed. The watcher stops when
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if len(w.paths) == 0 {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for _, p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	w.mu.Lock()
	w.watcher = fw
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info().
		Str(nlog.FieldEvent, "regexner.watcher_started").
		Strs("paths", w.paths).
		Msg("watching rule files for changes")

	go w.loop(ctx, fw, w.done)
	return nil
}

func (w *Watcher) watched(name string) bool {
	name = filepath.Clean(name)
	for _, p := range w.paths {
		if filepath.Clean(p) == name {
			return true
		}
	}
	return false
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		_ = fw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(nlog.FieldEvent, "regexner.watcher_stopped").Msg("rule watcher stopped")
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.watched(ev.Name) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug().
				Str(nlog.FieldEvent, "regexner.file_changed").
				Str(nlog.FieldFile, ev.Name).
				Str("op", ev.Op.String()).
				Msg("rule file changed")

			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.debounce, func() {
				if err := w.Reload(); err != nil {
					w.logger.Error().
						Err(err).
						Str(nlog.FieldEvent, "regexner.reload_failed").
						Msg("rule reload failed, keeping previous rules")
				}
			})
			w.mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Str(nlog.FieldEvent, "regexner.watcher_error").Msg("rule watcher error")
		}
	}
}

// Stop closes the underlying watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()
	if fw == nil {
		return
	}
	_ = fw.Close()
	<-done
}
