// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/nlpd/internal/log"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	overrides       Overrides
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// WithOverrides sets command-line values applied after the environment.
func (l *Loader) WithOverrides(o Overrides) *Loader {
	l.overrides = o
	return l
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: CLI > ENV > File > Defaults,
// then validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	l.warnUnknownEnvKeys()
	l.applyOverrides(&cfg)

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over cfg with STRICT parsing.
// Unknown fields cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

// mergeEnvConfig merges NLPD_* environment variables into cfg.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.Host = l.envString("NLPD_HOST", cfg.Host)
	cfg.Port = l.envInt("NLPD_PORT", cfg.Port)
	cfg.DefaultType = l.envString("NLPD_DEFAULT_TYPE", cfg.DefaultType)
	cfg.Timeout = l.envDuration("NLPD_TIMEOUT", cfg.Timeout)
	cfg.Errors.Mode = l.envString("NLPD_ERRORS_MODE", cfg.Errors.Mode)

	cfg.Server.ReadTimeout = l.envDuration("NLPD_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration("NLPD_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration("NLPD_SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxHeaderBytes = l.envInt("NLPD_SERVER_MAX_HEADER_BYTES", cfg.Server.MaxHeaderBytes)
	cfg.Server.ShutdownTimeout = l.envDuration("NLPD_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.H2C = l.envBool("NLPD_SERVER_H2C", cfg.Server.H2C)

	l.mergeEnvPipeline(cfg)

	cfg.Cache.Backend = l.envString("NLPD_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration("NLPD_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.MaxEntries = l.envInt("NLPD_CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)
	cfg.Cache.Path = l.envString("NLPD_CACHE_PATH", cfg.Cache.Path)
	cfg.Cache.Redis.Addr = l.envString("NLPD_REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = l.envString("NLPD_REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = l.envInt("NLPD_REDIS_DB", cfg.Cache.Redis.DB)

	cfg.Metrics.Enabled = l.envBool("NLPD_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = l.envString("NLPD_METRICS_LISTEN", cfg.Metrics.ListenAddr)

	cfg.Tracing.Enabled = l.envBool("NLPD_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString("NLPD_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString("NLPD_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat("NLPD_TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)

	cfg.RateLimit.Enabled = l.envBool("NLPD_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = l.envInt("NLPD_RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)

	cfg.Log.Level = l.envString("NLPD_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = l.envString("NLPD_LOG_SERVICE", cfg.Log.Service)
}

func (l *Loader) mergeEnvPipeline(cfg *AppConfig) {
	p := &cfg.Pipeline
	p.Backend = l.envString("NLPD_PIPELINE_BACKEND", p.Backend)

	p.CoreNLP.URL = l.envString("NLPD_CORENLP_URL", p.CoreNLP.URL)
	p.CoreNLP.Timeout = l.envDuration("NLPD_CORENLP_TIMEOUT", p.CoreNLP.Timeout)
	p.CoreNLP.RPS = l.envFloat("NLPD_CORENLP_RPS", p.CoreNLP.RPS)
	p.CoreNLP.Burst = l.envInt("NLPD_CORENLP_BURST", p.CoreNLP.Burst)
	p.CoreNLP.BreakerThreshold = l.envInt("NLPD_CORENLP_BREAKER_THRESHOLD", p.CoreNLP.BreakerThreshold)
	p.CoreNLP.BreakerReset = l.envDuration("NLPD_CORENLP_BREAKER_RESET", p.CoreNLP.BreakerReset)

	p.Rules.MappingFiles = l.envList("NLPD_REGEXNER_MAPPING", p.Rules.MappingFiles)
	p.Rules.Watch = l.envBool("NLPD_REGEXNER_WATCH", p.Rules.Watch)
	p.Rules.IgnoreCase = l.envBool("NLPD_REGEXNER_IGNORE_CASE", p.Rules.IgnoreCase)
}

// UnknownEnvKeys lists NLPD_* variables in the environment that no setting reads.
func (l *Loader) UnknownEnvKeys() []string {
	var unknown []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, ok := l.ConsumedEnvKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func (l *Loader) warnUnknownEnvKeys() {
	unknown := l.UnknownEnvKeys()
	if len(unknown) == 0 {
		return
	}
	logger := log.WithComponent("config")
	logger.Warn().
		Strs("keys", unknown).
		Str("event", "config.unknown_env").
		Msg("ignoring unknown environment variables")
}

func (l *Loader) applyOverrides(cfg *AppConfig) {
	o := l.overrides
	if o.Host != nil {
		cfg.Host = *o.Host
	}
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.DefaultType != nil {
		cfg.DefaultType = *o.DefaultType
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
	if len(o.Properties) > 0 {
		if cfg.Pipeline.Properties == nil {
			cfg.Pipeline.Properties = make(map[string]string, len(o.Properties))
		}
		maps.Copy(cfg.Pipeline.Properties, o.Properties)
	}
}
