// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics holds the Prometheus collectors of the service. All
// collectors are registered on the default registry via promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes, one per request.
const (
	OutcomeHead      = "head"
	OutcomeSucceeded = "succeeded"
	OutcomeCached    = "cached"
	OutcomeTimedOut  = "timed_out"
	OutcomeFailed    = "failed"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nlpd_requests_total",
		Help: "Annotation requests by outcome",
	}, []string{"outcome"}) // outcome=head|succeeded|cached|timed_out|failed

	responseMediaTypes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nlpd_response_media_type_total",
		Help: "Negotiated response media types",
	}, []string{"media_type"})

	pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nlpd_pipeline_duration_seconds",
		Help:    "Pipeline invocation latency by backend and outcome",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"backend", "outcome"})

	pipelineInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nlpd_pipeline_in_flight",
		Help: "Pipeline invocations currently running, including abandoned ones",
	})

	cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nlpd_cache_operations_total",
		Help: "Result cache operations by backend and result",
	}, []string{"backend", "result"}) // result=hit|miss|store|error

	ruleReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nlpd_regexner_reloads_total",
		Help: "RegexNER rule reloads by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nlpd_build_info",
		Help: "Build information, value is always 1",
	}, []string{"version", "commit"})
)

// RecordRequest counts one finished request.
func RecordRequest(outcome string) {
	requestsTotal.WithLabelValues(outcome).Inc()
}

// RecordMediaType counts a negotiated response media type.
func RecordMediaType(mediaType string) {
	responseMediaTypes.WithLabelValues(mediaType).Inc()
}

// ObservePipeline records the latency of one bounded pipeline call.
func ObservePipeline(backend, outcome string, d time.Duration) {
	pipelineDuration.WithLabelValues(backend, outcome).Observe(d.Seconds())
}

// PipelineStarted marks a pipeline goroutine as running and returns the
// function that marks it finished.
func PipelineStarted() (done func()) {
	pipelineInFlight.Inc()
	return pipelineInFlight.Dec
}

// RecordCache counts a cache operation result: hit, miss, store or error.
func RecordCache(backend, result string) {
	cacheOps.WithLabelValues(backend, result).Inc()
}

// RecordRuleReload counts a RegexNER reload attempt.
func RecordRuleReload(success bool) {
	if success {
		ruleReloads.WithLabelValues("success").Inc()
		return
	}
	ruleReloads.WithLabelValues("failure").Inc()
}

// SetBuildInfo publishes the running version.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}
