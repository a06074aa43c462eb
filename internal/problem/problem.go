// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ManuGH/nlpd/internal/log"
)

const (
	// HeaderRequestID carries the request correlation ID.
	HeaderRequestID = "X-Request-ID"
	// ContentType is the media type of problem bodies.
	ContentType = "application/problem+json"
)

// Stable machine-readable codes.
const (
	CodePipelineTimeout     = "PIPELINE_TIMEOUT"
	CodePipelineFailed      = "PIPELINE_FAILED"
	CodePipelineUnavailable = "PIPELINE_UNAVAILABLE"
	CodeRenderFailed        = "RENDER_FAILED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
)

// Details is the response body.
type Details struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// TypeFor derives the problem type URI path from a code, e.g.
// PIPELINE_TIMEOUT becomes "nlpd/pipeline_timeout".
func TypeFor(code string) string {
	return "nlpd/" + strings.ToLower(code)
}

// Write writes a problem response. The title defaults to the status text.
func Write(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	d := Details{
		Type:   TypeFor(code),
		Title:  http.StatusText(status),
		Status: status,
		Code:   code,
		Detail: detail,
	}
	if r != nil {
		d.Instance = r.URL.EscapedPath()
		d.RequestID = log.RequestIDFromContext(r.Context())
	}
	if d.RequestID == "" {
		d.RequestID = w.Header().Get(HeaderRequestID)
	}
	if d.RequestID != "" {
		w.Header().Set(HeaderRequestID, d.RequestID)
	}

	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Del("Content-Length")
	h.Del("Processing-Time")
	w.WriteHeader(status)

	if r != nil && r.Method == http.MethodHead {
		return
	}
	if err := json.NewEncoder(w).Encode(d); err != nil {
		log.L().Error().
			Err(err).
			Str("code", code).
			Int(log.FieldStatus, status).
			Msg("failed to encode problem response")
	}
}
