// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package annotate defines the pipeline capability the HTTP shim delegates to
// and the document model it returns.
package annotate

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrEmptyResult is returned by backends that produced no document.
var ErrEmptyResult = errors.New("annotate: pipeline returned no document")

// Annotator turns raw text into an annotated Document. Implementations are
// shared across requests and must be safe for concurrent use.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*Document, error)
	Name() string
}

// Fingerprinter is implemented by backends whose output depends on
// configuration that may differ between runs or change at runtime.
type Fingerprinter interface {
	Fingerprint() string
}

// Scope names the output space of a. Results produced under one scope must
// not be served under another.
func Scope(a Annotator) string {
	if f, ok := a.(Fingerprinter); ok {
		if fp := f.Fingerprint(); fp != "" {
			return a.Name() + "@" + fp
		}
	}
	return a.Name()
}

// Func adapts a plain function to Annotator.
type Func func(ctx context.Context, text string) (*Document, error)

func (f Func) Annotate(ctx context.Context, text string) (*Document, error) {
	return f(ctx, text)
}

func (Func) Name() string { return "func" }

// Properties is the opaque key/value configuration handed to a backend.
type Properties map[string]string

// Get returns the value for key or def when unset or blank.
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Stamp fills in the identity fields every returned document carries.
func Stamp(doc *Document, at time.Time) {
	if doc == nil {
		return
	}
	if doc.DocID == "" {
		doc.DocID = ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
	}
	if doc.DocDate == "" {
		doc.DocDate = at.UTC().Format(time.RFC3339)
	}
}
