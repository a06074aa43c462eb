// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package corenlp is an annotator backed by a remote CoreNLP server.
package corenlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/nlpd/internal/annotate"
	"github.com/ManuGH/nlpd/internal/platform/httpx"
	"github.com/ManuGH/nlpd/internal/resilience"
)

const maxResponseBytes = 32 << 20

var (
	// ErrStatus is returned when the server answers with a non-2xx status.
	ErrStatus = errors.New("corenlp: unexpected status")
	// ErrRateLimited is returned when the client-side limiter has no token
	// before the request context expires.
	ErrRateLimited = errors.New("corenlp: rate limited")
)

// DefaultProperties are sent with every request; configured properties
// override them key by key. outputFormat is always json.
var DefaultProperties = annotate.Properties{
	"annotators":   "tokenize,ssplit,pos,lemma,ner",
	"outputFormat": "json",
}

// Config configures a Client.
type Config struct {
	URL              string
	Timeout          time.Duration
	RPS              float64
	Burst            int
	BreakerThreshold int
	BreakerReset     time.Duration
	Properties       annotate.Properties
}

// Client implements annotate.Annotator against a CoreNLP server.
type Client struct {
	base    *url.URL
	query   string
	digest  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

var _ annotate.Annotator = (*Client)(nil)

// New validates cfg and builds a client. No request is made.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("corenlp: invalid url %q", cfg.URL)
	}

	props := DefaultProperties.Clone()
	for k, v := range cfg.Properties {
		props[k] = v
	}
	props["outputFormat"] = "json"
	encoded, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("corenlp: encode properties: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	sum := sha256.Sum256([]byte(u.String() + "?" + string(encoded)))

	return &Client{
		base:   u,
		query:  url.Values{"properties": {string(encoded)}}.Encode(),
		digest: hex.EncodeToString(sum[:8]),
		http: httpx.NewClient(timeout,
			httpx.WithTracing("corenlp.annotate"),
			httpx.WithResponseHeaderTimeout(timeout)),
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.NewCircuitBreaker("corenlp", cfg.BreakerThreshold, cfg.BreakerReset),
	}, nil
}

// Name implements annotate.Annotator.
func (c *Client) Name() string { return "corenlp" }

// Fingerprint implements annotate.Fingerprinter over the server URL and the
// properties sent with each request. Model changes on the server side are
// not visible to it.
func (c *Client) Fingerprint() string { return c.digest }

// Annotate posts text to the server and decodes its JSON answer.
func (c *Client) Annotate(ctx context.Context, text string) (*annotate.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	var doc annotate.Document
	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+"/?"+c.query, strings.NewReader(text))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("corenlp: request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body := io.LimitReader(resp.Body, maxResponseBytes)
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg, _ := io.ReadAll(io.LimitReader(body, 512))
			return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		if err := json.NewDecoder(body).Decode(&doc); err != nil {
			return fmt.Errorf("corenlp: decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// CoreNLP does not echo the input text.
	doc.Text = text
	if doc.Sentences == nil {
		doc.Sentences = []annotate.Sentence{}
	}
	return &doc, nil
}

// Ready probes the server's readiness endpoint.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/ready", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("corenlp: ready probe: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d from ready probe", ErrStatus, resp.StatusCode)
	}
	return nil
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}
