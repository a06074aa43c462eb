// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldRequestSeq = "request"
	FieldDocID      = "doc_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldBackend   = "backend"
	FieldOutcome   = "outcome"

	// Request fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldClient     = "client"
	FieldMediaType  = "media_type"
	FieldText       = "text"
	FieldDurationMS = "duration_ms"
	FieldStatus     = "status"

	// File fields
	FieldFile = "file"
	FieldLine = "line"
)
