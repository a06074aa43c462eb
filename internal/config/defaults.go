// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8080
	DefaultMediaType   = "application/json"
	DefaultTimeout     = 60 * time.Second
	DefaultMetricsAddr = ":9090"
)

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Host:        DefaultHost,
		Port:        DefaultPort,
		DefaultType: DefaultMediaType,
		Timeout:     DefaultTimeout,
		Server: ServerFileConfig{
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			MaxHeaderBytes:  defaultMaxHeaderBytes,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Errors: ErrorsConfig{Mode: ErrorsModeProblem},
		Pipeline: PipelineConfig{
			Backend:    BackendRules,
			Properties: map[string]string{},
			CoreNLP: CoreNLPConfig{
				URL:              "http://localhost:9000",
				Timeout:          30 * time.Second,
				Burst:            1,
				BreakerThreshold: 5,
				BreakerReset:     30 * time.Second,
			},
		},
		Cache: CacheConfig{
			Backend:    "none",
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: DefaultMetricsAddr,
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 600,
		},
		Log: LogConfig{
			Level:   "info",
			Service: "nlpd",
		},
	}
}
