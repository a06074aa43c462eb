// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	RequestSeqKey = "nlpd.request.seq"
	MediaTypeKey  = "nlpd.media_type"
	TextLengthKey = "nlpd.text.length"
	CacheHitKey   = "nlpd.cache.hit"

	PipelineBackendKey = "pipeline.backend"
	PipelineOutcomeKey = "pipeline.outcome"
	PipelineTimeoutKey = "pipeline.timeout_ms"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RequestAttributes describes one annotation request.
func RequestAttributes(seq uint64, mediaType string, textLen int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(RequestSeqKey, int64(seq)), // #nosec G115 -- counter stays far below MaxInt64
		attribute.String(MediaTypeKey, mediaType),
		attribute.Int(TextLengthKey, textLen),
	}
}

// PipelineAttributes describes one bounded pipeline call.
func PipelineAttributes(backend, outcome string, timeoutMS int64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(PipelineBackendKey, backend)}
	if outcome != "" {
		attrs = append(attrs, attribute.String(PipelineOutcomeKey, outcome))
	}
	if timeoutMS > 0 {
		attrs = append(attrs, attribute.Int64(PipelineTimeoutKey, timeoutMS))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// HTTPUserAgentAttr creates the user agent attribute.
func HTTPUserAgentAttr(ua string) attribute.KeyValue {
	return attribute.String(HTTPUserAgentKey, ua)
}
