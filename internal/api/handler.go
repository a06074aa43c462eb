// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/nlpd/internal/annotate"
	"github.com/ManuGH/nlpd/internal/cache"
	"github.com/ManuGH/nlpd/internal/deadline"
	"github.com/ManuGH/nlpd/internal/log"
	"github.com/ManuGH/nlpd/internal/mediatype"
	"github.com/ManuGH/nlpd/internal/metrics"
	"github.com/ManuGH/nlpd/internal/problem"
	"github.com/ManuGH/nlpd/internal/render"
	"github.com/ManuGH/nlpd/internal/resilience"
	"github.com/ManuGH/nlpd/internal/telemetry"
	"github.com/ManuGH/nlpd/internal/version"
)

const maxLoggedText = 200

var errRender = errors.New("render failed")

// ServeHTTP answers one request. HEAD is acknowledged without touching the
// pipeline; every other method annotates the text query parameter.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	seq := s.seq.Add(1)
	started := s.now()

	ctx := log.ContextWithRequestSeq(r.Context(), seq)
	r = r.WithContext(ctx)
	logger := log.WithContext(ctx, s.logger)

	logger.Info().
		Str(log.FieldEvent, "request.received").
		Str(log.FieldMethod, r.Method).
		Str(log.FieldPath, r.URL.Path).
		Str(log.FieldClient, clientHost(r)).
		Msg("request received")

	w.Header().Set(HeaderRequestSeq, strconv.FormatUint(seq, 10))

	outcome := metrics.OutcomeHead
	defer func() {
		metrics.RecordRequest(outcome)
		logger.Info().
			Str(log.FieldEvent, "request.done").
			Str(log.FieldOutcome, outcome).
			Int64(log.FieldDurationMS, s.now().Sub(started).Milliseconds()).
			Msg("request done")
	}()

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	text := norm.NFC.String(r.URL.Query().Get("text"))
	mt := mediatype.Negotiate(r.Header.Get("Accept"), s.defaultType, render.Supported()...)
	metrics.RecordMediaType(mt.String())

	h := w.Header()
	h.Set("Content-Type", mt.String())
	h.Set("Server", version.ServerName())
	date := started.UTC().Format(http.TimeFormat)
	h.Set("Date", date)
	h.Set("Last-Modified", date)

	res := s.invoke(ctx, seq, mt, text, started)

	switch res.Outcome {
	case deadline.Succeeded:
		outcome = metrics.OutcomeSucceeded
		if res.Value.cached {
			outcome = metrics.OutcomeCached
		}
		s.writeBody(w, res.Value.body, started)

	case deadline.TimedOut:
		outcome = metrics.OutcomeTimedOut
		logger.Warn().
			Str(log.FieldEvent, "pipeline.timeout").
			Str(log.FieldText, truncate(text)).
			Dur("timeout", s.timeout).
			Msg("pipeline timed out")
		s.fail(w, r, http.StatusGatewayTimeout, problem.CodePipelineTimeout,
			fmt.Sprintf("pipeline did not finish within %s", s.timeout))

	default:
		outcome = metrics.OutcomeFailed
		logger.Error().
			Err(res.Err).
			Str(log.FieldEvent, "pipeline.failed").
			Str(log.FieldText, truncate(text)).
			Msg("pipeline failed")
		status, code := classifyFailure(res.Err)
		s.fail(w, r, status, code, http.StatusText(status))
	}
}

// result is a rendered response body.
type result struct {
	body   []byte
	cached bool
}

// invoke runs annotate-then-render once under the configured timeout. Every
// response is stamped with its own request time, cached documents included.
func (s *Server) invoke(ctx context.Context, seq uint64, mt mediatype.MediaType, text string, started time.Time) deadline.Result[result] {
	backend := s.annotator.Name()
	ctx, span := s.tracer.Start(ctx, "pipeline.annotate",
		trace.WithAttributes(telemetry.RequestAttributes(seq, mt.String(), len(text))...),
	)
	defer span.End()

	res := deadline.Call(ctx, s.timeout, func(ctx context.Context) (result, error) {
		done := metrics.PipelineStarted()
		defer done()

		doc, cached, err := s.document(ctx, text)
		if err != nil {
			return result{}, err
		}
		annotate.Stamp(doc, started)

		body, err := render.Render(mt, doc)
		if err != nil {
			return result{}, fmt.Errorf("%w: %w", errRender, err)
		}
		return result{body: body, cached: cached}, nil
	})

	metrics.ObservePipeline(backend, res.Outcome.String(), res.Elapsed)
	span.SetAttributes(telemetry.PipelineAttributes(backend, res.Outcome.String(), s.timeout.Milliseconds())...)
	if res.Outcome != deadline.Succeeded {
		span.SetAttributes(telemetry.ErrorAttributes(res.Outcome.String())...)
		span.SetStatus(codes.Error, res.Outcome.String())
		if res.Err != nil {
			span.RecordError(res.Err)
		}
	}
	return res
}

// document returns the annotation of text, from the cache when an entry was
// stored under the annotator's current scope. Stored documents carry no
// identity fields. An entry that no longer decodes is dropped.
func (s *Server) document(ctx context.Context, text string) (*annotate.Document, bool, error) {
	caching := s.cache.Name() != cache.BackendNone
	key := cache.Key(annotate.Scope(s.annotator), text)
	if raw, ok := s.cache.Get(ctx, key); caching && ok {
		var doc annotate.Document
		if err := json.Unmarshal(raw, &doc); err == nil {
			return &doc, true, nil
		}
		s.cache.Delete(ctx, key)
	}

	doc, err := s.annotator.Annotate(ctx, text)
	if err != nil {
		return nil, false, err
	}
	if doc == nil {
		return nil, false, annotate.ErrEmptyResult
	}

	if caching {
		stored := *doc
		stored.DocID, stored.DocDate = "", ""
		if raw, err := json.Marshal(&stored); err == nil {
			s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
	}
	return doc, false, nil
}

func classifyFailure(err error) (int, string) {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, problem.CodePipelineUnavailable
	case errors.Is(err, errRender):
		return http.StatusInternalServerError, problem.CodeRenderFailed
	default:
		return http.StatusInternalServerError, problem.CodePipelineFailed
	}
}

func (s *Server) writeBody(w http.ResponseWriter, body []byte, started time.Time) {
	h := w.Header()
	h.Set("Processing-Time", strconv.FormatInt(s.now().Sub(started).Milliseconds(), 10))
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug().Err(err).Str(log.FieldEvent, "response.write_failed").Msg("client went away")
	}
}

// fail finalizes an unsuccessful request. In legacy mode the client gets an
// empty 200 response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	if s.legacyErrors {
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
		return
	}
	problem.Write(w, r, status, code, detail)
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxLoggedText {
		return text
	}
	return string(runes[:maxLoggedText]) + "…"
}
