// Package httpx builds the outbound HTTP clients used for pipeline backends
// and readiness probes. Nothing in this module uses http.DefaultClient.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultClientTimeout         = 5 * time.Second
	defaultDialTimeout           = 3 * time.Second
	defaultResponseHeaderTimeout = 3 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 64
	defaultMaxIdleConnsPerHost   = 16
)

type options struct {
	tracing               bool
	spanName              string
	responseHeaderTimeout time.Duration
}

// Option tunes NewClient.
type Option func(*options)

// WithTracing wraps the transport with otelhttp so each request becomes a
// client span named after operation.
func WithTracing(operation string) Option {
	return func(o *options) {
		o.tracing = true
		o.spanName = operation
	}
}

// WithResponseHeaderTimeout overrides how long to wait for response headers.
// Annotation backends answer only after the pipeline has run, so they need a
// bound close to the client timeout instead of the probe default.
func WithResponseHeaderTimeout(d time.Duration) Option {
	return func(o *options) { o.responseHeaderTimeout = d }
}

// NewTransport returns the hardened transport shared by all clients.
func NewTransport(timeout, responseHeaderTimeout time.Duration) *http.Transport {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	dialTimeout := min(timeout, defaultDialTimeout)
	if responseHeaderTimeout <= 0 {
		responseHeaderTimeout = min(timeout, defaultResponseHeaderTimeout)
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
}

// NewClient returns a hardened HTTP client with an overall request timeout.
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var rt http.RoundTripper = NewTransport(timeout, o.responseHeaderTimeout)
	if o.tracing {
		name := o.spanName
		rt = otelhttp.NewTransport(rt, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if name != "" {
				return name
			}
			return r.Method + " " + r.URL.Path
		}))
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}
