// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for radiopage.
package config

import (
	"time"

	"github.com/ManuGH/radiopage/internal/schedule"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// AppConfig is the effective runtime configuration.
type AppConfig struct {
	Version    string
	ListenAddr string
	LogLevel   string

	Upstream  UpstreamConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig

	// ManifestPath overrides the embedded extraction manifest. Empty keeps
	// the built-in one.
	ManifestPath string

	// Toggles are the defaults for every service.
	Toggles ToggleConfig
	// Services carries per-service overrides keyed by service name.
	Services map[string]ServiceConfig
}

// UpstreamConfig configures the content API and the schedule feed.
type UpstreamConfig struct {
	BaseURL          string
	ScheduleBaseURL  string
	Timeout          time.Duration
	ScheduleTimeout  time.Duration
	RatePerSec       float64
	Burst            int
	BreakerThreshold int
	BreakerReset     time.Duration
	// RendererEnv is forwarded as renderer_env on primary fetches.
	RendererEnv string
}

// CacheConfig selects the upstream response cache.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// RateLimitConfig guards the HTTP API.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// ToggleConfig controls the optional page-data enrichments.
type ToggleConfig struct {
	ScheduleEnabled       bool `yaml:"scheduleEnabled"`
	RecentEpisodesEnabled bool `yaml:"recentEpisodesEnabled"`
	RecentEpisodesLimit   int  `yaml:"recentEpisodesLimit"`
}

// ServiceConfig overrides toggles and display labels for one service.
type ServiceConfig struct {
	ScheduleEnabled       *bool           `yaml:"scheduleEnabled,omitempty"`
	RecentEpisodesEnabled *bool           `yaml:"recentEpisodesEnabled,omitempty"`
	RecentEpisodesLimit   *int            `yaml:"recentEpisodesLimit,omitempty"`
	Labels                schedule.Labels `yaml:"labels,omitempty"`
}

// TogglesFor returns the effective toggles for service.
func (c AppConfig) TogglesFor(service string) ToggleConfig {
	t := c.Toggles
	sc, ok := c.Services[service]
	if !ok {
		return t
	}
	if sc.ScheduleEnabled != nil {
		t.ScheduleEnabled = *sc.ScheduleEnabled
	}
	if sc.RecentEpisodesEnabled != nil {
		t.RecentEpisodesEnabled = *sc.RecentEpisodesEnabled
	}
	if sc.RecentEpisodesLimit != nil {
		t.RecentEpisodesLimit = *sc.RecentEpisodesLimit
	}
	return t
}

// LabelsFor returns the display labels for service. Unset labels fall back
// to the defaults individually.
func (c AppConfig) LabelsFor(service string) schedule.Labels {
	l := schedule.DefaultLabels()
	sc, ok := c.Services[service]
	if !ok {
		return l
	}
	if sc.Labels.Live != "" {
		l.Live = sc.Labels.Live
	}
	if sc.Labels.OnDemand != "" {
		l.OnDemand = sc.Labels.OnDemand
	}
	if sc.Labels.Next != "" {
		l.Next = sc.Labels.Next
	}
	if sc.Labels.Duration != "" {
		l.Duration = sc.Labels.Duration
	}
	return l
}

// FileConfig is the YAML shape of the configuration file. Pointer fields
// distinguish "unset" from zero values.
type FileConfig struct {
	ListenAddr   string                   `yaml:"listenAddr,omitempty"`
	LogLevel     string                   `yaml:"logLevel,omitempty"`
	ManifestPath string                   `yaml:"manifestPath,omitempty"`
	Upstream     *UpstreamFileConfig      `yaml:"upstream,omitempty"`
	Cache        *CacheFileConfig         `yaml:"cache,omitempty"`
	RateLimit    *RateLimitFileConfig     `yaml:"rateLimit,omitempty"`
	Telemetry    *TelemetryFileConfig     `yaml:"telemetry,omitempty"`
	Toggles      *ToggleFileConfig        `yaml:"toggles,omitempty"`
	Services     map[string]ServiceConfig `yaml:"services,omitempty"`
}

type UpstreamFileConfig struct {
	BaseURL          string   `yaml:"baseURL,omitempty"`
	ScheduleBaseURL  string   `yaml:"scheduleBaseURL,omitempty"`
	Timeout          string   `yaml:"timeout,omitempty"`
	ScheduleTimeout  string   `yaml:"scheduleTimeout,omitempty"`
	RatePerSec       *float64 `yaml:"ratePerSec,omitempty"`
	Burst            *int     `yaml:"burst,omitempty"`
	BreakerThreshold *int     `yaml:"breakerThreshold,omitempty"`
	BreakerReset     string   `yaml:"breakerReset,omitempty"`
	RendererEnv      string   `yaml:"rendererEnv,omitempty"`
}

type CacheFileConfig struct {
	Backend       string `yaml:"backend,omitempty"`
	TTL           string `yaml:"ttl,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       *int   `yaml:"redisDB,omitempty"`
	KeyPrefix     string `yaml:"keyPrefix,omitempty"`
}

type RateLimitFileConfig struct {
	Enabled           *bool `yaml:"enabled,omitempty"`
	RequestsPerMinute *int  `yaml:"requestsPerMinute,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}

type ToggleFileConfig struct {
	ScheduleEnabled       *bool `yaml:"scheduleEnabled,omitempty"`
	RecentEpisodesEnabled *bool `yaml:"recentEpisodesEnabled,omitempty"`
	RecentEpisodesLimit   *int  `yaml:"recentEpisodesLimit,omitempty"`
}
