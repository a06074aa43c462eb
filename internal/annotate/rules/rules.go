// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package rules is an in-process annotator that tokenizes text, splits
// sentences on terminal punctuation and labels entities from RegexNER rule
// files. It needs no external service and is the default backend.
package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ManuGH/nlpd/internal/annotate"
	"github.com/ManuGH/nlpd/internal/regexner"
)

// Property keys understood by the backend.
const (
	PropMapping    = "regexner.mapping"
	PropIgnoreCase = "regexner.ignorecase"
)

// Options configures a Backend.
type Options struct {
	MappingFiles []string
	IgnoreCase   bool
	Watch        bool
}

// OptionsFromProperties reads the regexner.* keys of props. Paths in
// regexner.mapping are comma separated.
func OptionsFromProperties(props annotate.Properties) Options {
	var opts Options
	for _, p := range strings.Split(props.Get(PropMapping, ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.MappingFiles = append(opts.MappingFiles, p)
		}
	}
	opts.IgnoreCase, _ = strconv.ParseBool(props.Get(PropIgnoreCase, "false"))
	return opts
}

// Backend implements annotate.Annotator.
type Backend struct {
	rules   atomic.Pointer[regexner.Ruleset]
	watcher *regexner.Watcher
}

var _ annotate.Annotator = (*Backend)(nil)

// New loads and compiles the mapping files. Without mapping files every
// token is labelled O.
func New(opts Options) (*Backend, error) {
	b := &Backend{}
	if len(opts.MappingFiles) == 0 {
		b.rules.Store(&regexner.Ruleset{})
		return b, nil
	}
	b.watcher = regexner.NewWatcher(opts.MappingFiles, opts.IgnoreCase, b.rules.Store)
	if err := b.watcher.Reload(); err != nil {
		return nil, fmt.Errorf("rules backend: %w", err)
	}
	if !opts.Watch {
		b.watcher = nil
	}
	return b, nil
}

// Name implements annotate.Annotator.
func (b *Backend) Name() string { return "rules" }

// Fingerprint implements annotate.Fingerprinter. It changes with every
// reload that alters the rules.
func (b *Backend) Fingerprint() string {
	return b.rules.Load().Fingerprint()
}

// Watch starts hot reloading of the mapping files when enabled.
func (b *Backend) Watch(ctx context.Context) error {
	if b.watcher == nil {
		return nil
	}
	return b.watcher.Start(ctx)
}

// Close stops the file watcher, if any.
func (b *Backend) Close() error {
	if b.watcher != nil {
		b.watcher.Stop()
	}
	return nil
}

// Annotate implements annotate.Annotator.
func (b *Backend) Annotate(ctx context.Context, text string) (*annotate.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rs := b.rules.Load()
	sentences := split(text, tokenize(text))

	docToken := 0
	for i := range sentences {
		s := &sentences[i]
		words := make([]string, len(s.Tokens))
		labels := make([]string, len(s.Tokens))
		for k, tok := range s.Tokens {
			words[k] = tok.Word
			labels[k] = tok.NER
		}
		rs.Label(words, labels)
		for k := range s.Tokens {
			s.Tokens[k].NER = labels[k]
		}
		s.EntityMentions = s.Mentions(text, docToken)
		docToken += len(s.Tokens)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if sentences == nil {
		sentences = []annotate.Sentence{}
	}
	return &annotate.Document{Text: text, Sentences: sentences}, nil
}
