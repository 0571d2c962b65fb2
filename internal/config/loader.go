// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultListenAddr          = ":8080"
	DefaultUpstreamTimeout     = 10 * time.Second
	DefaultBreakerThreshold    = 5
	DefaultBreakerReset        = 30 * time.Second
	DefaultCacheTTL            = 30 * time.Second
	DefaultRecentEpisodesLimit = 8
	DefaultRequestsPerMinute   = 600
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
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

func (l *Loader) envString(key, defaultVal string) string {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The file is parsed strictly before env is applied and the result validated.
func (l *Loader) Load() (AppConfig, error) {
	cfg := AppConfig{}
	setDefaults(&cfg)

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	// The schedule wait follows the upstream call timeout unless set.
	if cfg.Upstream.ScheduleTimeout == 0 {
		cfg.Upstream.ScheduleTimeout = cfg.Upstream.Timeout
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *AppConfig) {
	cfg.ListenAddr = DefaultListenAddr
	cfg.LogLevel = "info"
	cfg.Upstream = UpstreamConfig{
		Timeout:          DefaultUpstreamTimeout,
		Burst:            1,
		BreakerThreshold: DefaultBreakerThreshold,
		BreakerReset:     DefaultBreakerReset,
	}
	cfg.Cache = CacheConfig{
		Backend:   CacheMemory,
		TTL:       DefaultCacheTTL,
		KeyPrefix: "radiopage:",
	}
	cfg.RateLimit = RateLimitConfig{Enabled: true, RequestsPerMinute: DefaultRequestsPerMinute}
	cfg.Telemetry = TelemetryConfig{Exporter: "grpc", Endpoint: "localhost:4317", SamplingRate: 1.0, Environment: "production"}
	cfg.Toggles = ToggleConfig{
		ScheduleEnabled:       true,
		RecentEpisodesEnabled: false,
		RecentEpisodesLimit:   DefaultRecentEpisodesLimit,
	}
	cfg.Services = map[string]ServiceConfig{}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.ListenAddr, f.ListenAddr)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.ManifestPath, f.ManifestPath)

	if u := f.Upstream; u != nil {
		setString(&cfg.Upstream.BaseURL, u.BaseURL)
		setString(&cfg.Upstream.ScheduleBaseURL, u.ScheduleBaseURL)
		setString(&cfg.Upstream.RendererEnv, u.RendererEnv)
		if err := setDuration(&cfg.Upstream.Timeout, "upstream.timeout", u.Timeout); err != nil {
			return err
		}
		if err := setDuration(&cfg.Upstream.ScheduleTimeout, "upstream.scheduleTimeout", u.ScheduleTimeout); err != nil {
			return err
		}
		if err := setDuration(&cfg.Upstream.BreakerReset, "upstream.breakerReset", u.BreakerReset); err != nil {
			return err
		}
		setPtr(&cfg.Upstream.RatePerSec, u.RatePerSec)
		setPtr(&cfg.Upstream.Burst, u.Burst)
		setPtr(&cfg.Upstream.BreakerThreshold, u.BreakerThreshold)
	}

	if c := f.Cache; c != nil {
		setString(&cfg.Cache.Backend, c.Backend)
		setString(&cfg.Cache.RedisAddr, c.RedisAddr)
		setString(&cfg.Cache.RedisPassword, c.RedisPassword)
		setString(&cfg.Cache.KeyPrefix, c.KeyPrefix)
		setPtr(&cfg.Cache.RedisDB, c.RedisDB)
		if err := setDuration(&cfg.Cache.TTL, "cache.ttl", c.TTL); err != nil {
			return err
		}
	}

	if r := f.RateLimit; r != nil {
		setPtr(&cfg.RateLimit.Enabled, r.Enabled)
		setPtr(&cfg.RateLimit.RequestsPerMinute, r.RequestsPerMinute)
	}

	if t := f.Telemetry; t != nil {
		setPtr(&cfg.Telemetry.Enabled, t.Enabled)
		setString(&cfg.Telemetry.Exporter, t.Exporter)
		setString(&cfg.Telemetry.Endpoint, t.Endpoint)
		setString(&cfg.Telemetry.Environment, t.Environment)
		setPtr(&cfg.Telemetry.SamplingRate, t.SamplingRate)
	}

	if t := f.Toggles; t != nil {
		setPtr(&cfg.Toggles.ScheduleEnabled, t.ScheduleEnabled)
		setPtr(&cfg.Toggles.RecentEpisodesEnabled, t.RecentEpisodesEnabled)
		setPtr(&cfg.Toggles.RecentEpisodesLimit, t.RecentEpisodesLimit)
	}

	for name, sc := range f.Services {
		cfg.Services[name] = sc
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.ListenAddr = l.envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
	cfg.ManifestPath = l.envString("MANIFEST_PATH", cfg.ManifestPath)

	cfg.Upstream.BaseURL = l.envString("UPSTREAM_BASE_URL", cfg.Upstream.BaseURL)
	cfg.Upstream.ScheduleBaseURL = l.envString("SCHEDULE_BASE_URL", cfg.Upstream.ScheduleBaseURL)
	cfg.Upstream.Timeout = l.envDuration("UPSTREAM_TIMEOUT", cfg.Upstream.Timeout)
	cfg.Upstream.ScheduleTimeout = l.envDuration("SCHEDULE_TIMEOUT", cfg.Upstream.ScheduleTimeout)
	cfg.Upstream.RatePerSec = l.envFloat("UPSTREAM_RATE", cfg.Upstream.RatePerSec)
	cfg.Upstream.Burst = l.envInt("UPSTREAM_BURST", cfg.Upstream.Burst)
	cfg.Upstream.BreakerThreshold = l.envInt("BREAKER_THRESHOLD", cfg.Upstream.BreakerThreshold)
	cfg.Upstream.BreakerReset = l.envDuration("BREAKER_RESET", cfg.Upstream.BreakerReset)
	cfg.Upstream.RendererEnv = l.envString("RENDERER_ENV", cfg.Upstream.RendererEnv)

	cfg.Cache.Backend = l.envString("CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.KeyPrefix = l.envString("CACHE_KEY_PREFIX", cfg.Cache.KeyPrefix)

	cfg.RateLimit.Enabled = l.envBool("RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = l.envInt("RATELIMIT_RPM", cfg.RateLimit.RequestsPerMinute)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString("TELEMETRY_ENVIRONMENT", cfg.Telemetry.Environment)

	cfg.Toggles.ScheduleEnabled = l.envBool("SCHEDULE_ENABLED", cfg.Toggles.ScheduleEnabled)
	cfg.Toggles.RecentEpisodesEnabled = l.envBool("RECENT_EPISODES_ENABLED", cfg.Toggles.RecentEpisodesEnabled)
	cfg.Toggles.RecentEpisodesLimit = l.envInt("RECENT_EPISODES_LIMIT", cfg.Toggles.RecentEpisodesLimit)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, v, err)
	}
	*dst = d
	return nil
}
