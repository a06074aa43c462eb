// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api serves the annotation endpoint: every method on every path of
// the API listener is answered by Server.
package api

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/nlpd/internal/annotate"
	"github.com/ManuGH/nlpd/internal/api/middleware"
	"github.com/ManuGH/nlpd/internal/cache"
	"github.com/ManuGH/nlpd/internal/log"
	"github.com/ManuGH/nlpd/internal/mediatype"
	"github.com/ManuGH/nlpd/internal/render"
	"github.com/ManuGH/nlpd/internal/telemetry"
)

// HeaderRequestSeq carries the per-process request sequence number.
const HeaderRequestSeq = "X-Request-Seq"

// ErrNoAnnotator is returned by New without an annotator.
var ErrNoAnnotator = errors.New("api: annotator is required")

// Options configures a Server.
type Options struct {
	Annotator   annotate.Annotator
	Cache       cache.Cache
	CacheTTL    time.Duration
	DefaultType mediatype.MediaType
	Timeout     time.Duration
	// LegacyErrors answers timeouts and failures with 200 and an empty body.
	LegacyErrors bool
	Stack        middleware.StackConfig
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Server is the request handler. It owns the request counter.
type Server struct {
	seq atomic.Uint64

	annotator    annotate.Annotator
	cache        cache.Cache
	cacheTTL     time.Duration
	defaultType  mediatype.MediaType
	timeout      time.Duration
	legacyErrors bool
	now          func() time.Time

	logger  zerolog.Logger
	tracer  trace.Tracer
	handler http.Handler
}

// New validates opts and builds the routed handler.
func New(opts Options) (*Server, error) {
	if opts.Annotator == nil {
		return nil, ErrNoAnnotator
	}
	if _, err := render.For(opts.DefaultType); err != nil {
		return nil, err
	}

	s := &Server{
		annotator:    opts.Annotator,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		defaultType:  opts.DefaultType,
		timeout:      opts.Timeout,
		legacyErrors: opts.LegacyErrors,
		now:          opts.Clock,
		logger:       log.WithComponent("api"),
		tracer:       telemetry.Tracer("nlpd/api"),
	}
	if s.cache == nil {
		s.cache = cache.NewNoop()
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := middleware.NewRouter(opts.Stack)
	r.Handle("/*", http.HandlerFunc(s.ServeHTTP))
	s.handler = r
	return s, nil
}

// Handler returns the handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Requests returns how many requests have been received.
func (s *Server) Requests() uint64 {
	return s.seq.Load()
}
