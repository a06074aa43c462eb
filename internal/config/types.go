// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the daemon configuration. Sources are layered with
// increasing precedence: built-in defaults, a strict YAML file, NLPD_*
// environment variables and finally command-line overrides.
package config

import "time"

// Error modes for pipeline timeouts and failures.
const (
	ErrorsModeProblem = "problem"
	ErrorsModeLegacy  = "legacy"
)

// Pipeline backends.
const (
	BackendRules   = "rules"
	BackendCoreNLP = "corenlp"
)

// AppConfig is the fully merged configuration.
type AppConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	DefaultType string        `yaml:"defaultType"`
	Timeout     time.Duration `yaml:"timeout"`

	Server    ServerFileConfig `yaml:"server"`
	Errors    ErrorsConfig     `yaml:"errors"`
	Pipeline  PipelineConfig   `yaml:"pipeline"`
	Cache     CacheConfig      `yaml:"cache"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	Tracing   TracingConfig    `yaml:"tracing"`
	RateLimit RateLimitConfig  `yaml:"rateLimit"`
	Log       LogConfig        `yaml:"log"`

	// Version is stamped from the binary, never read from the file.
	Version string `yaml:"-"`
}

// ServerFileConfig holds listener tuning for the API server.
type ServerFileConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// H2C enables cleartext HTTP/2 on the API listener.
	H2C bool `yaml:"h2c"`
}

// ErrorsConfig selects how pipeline timeouts and failures are answered.
type ErrorsConfig struct {
	Mode string `yaml:"mode"`
}

// Legacy reports whether failures answer 200 with an empty body.
func (e ErrorsConfig) Legacy() bool { return e.Mode == ErrorsModeLegacy }

// PipelineConfig selects and configures the annotator backend.
type PipelineConfig struct {
	Backend string `yaml:"backend"`
	// Properties is passed opaquely to the backend.
	Properties map[string]string `yaml:"properties"`
	CoreNLP    CoreNLPConfig     `yaml:"corenlp"`
	Rules      RulesConfig       `yaml:"rules"`
}

// CoreNLPConfig configures the remote CoreNLP backend.
type CoreNLPConfig struct {
	URL              string        `yaml:"url"`
	Timeout          time.Duration `yaml:"timeout"`
	RPS              float64       `yaml:"rps"`
	Burst            int           `yaml:"burst"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

// RulesConfig configures the in-process rules backend.
type RulesConfig struct {
	MappingFiles []string `yaml:"mappingFiles"`
	Watch        bool     `yaml:"watch"`
	IgnoreCase   bool     `yaml:"ignoreCase"`
}

// CacheConfig configures the annotated-document cache.
type CacheConfig struct {
	Backend    string        `yaml:"backend"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"maxEntries"`
	Path       string        `yaml:"path"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MetricsConfig configures the ops listener.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// RateLimitConfig configures per-client request limiting on the API listener.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Overrides carries command-line flags. Nil fields were not given.
type Overrides struct {
	Host        *string
	Port        *int
	DefaultType *string
	Timeout     *time.Duration
	Properties  map[string]string
}
