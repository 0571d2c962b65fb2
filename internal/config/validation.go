// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/radiopage/internal/validate"
	"github.com/rs/zerolog"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("ListenAddr", cfg.ListenAddr)
	v.Custom("LogLevel", cfg.LogLevel, func(val any) error {
		_, err := zerolog.ParseLevel(val.(string))
		return err
	})

	v.URL("Upstream.BaseURL", cfg.Upstream.BaseURL, []string{"http", "https"})
	if cfg.Toggles.ScheduleEnabled || scheduleEnabledAnywhere(cfg) {
		v.URL("Upstream.ScheduleBaseURL", cfg.Upstream.ScheduleBaseURL, []string{"http", "https"})
	}
	v.MinDuration("Upstream.Timeout", cfg.Upstream.Timeout, 100*time.Millisecond)
	v.MinDuration("Upstream.ScheduleTimeout", cfg.Upstream.ScheduleTimeout, 10*time.Millisecond)
	v.FloatRange("Upstream.RatePerSec", cfg.Upstream.RatePerSec, 0, 10000)
	v.Range("Upstream.Burst", cfg.Upstream.Burst, 1, 1000)
	v.Range("Upstream.BreakerThreshold", cfg.Upstream.BreakerThreshold, 1, 100)
	v.MinDuration("Upstream.BreakerReset", cfg.Upstream.BreakerReset, time.Second)

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{CacheMemory, CacheRedis, CacheNone})
	if cfg.Cache.Backend == CacheRedis {
		v.NotEmpty("Cache.RedisAddr", cfg.Cache.RedisAddr)
		v.Range("Cache.RedisDB", cfg.Cache.RedisDB, 0, 15)
	}
	if cfg.Cache.Backend != CacheNone {
		v.MinDuration("Cache.TTL", cfg.Cache.TTL, time.Second)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("RateLimit.RequestsPerMinute", cfg.RateLimit.RequestsPerMinute)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	v.File("ManifestPath", cfg.ManifestPath)
	v.Range("Toggles.RecentEpisodesLimit", cfg.Toggles.RecentEpisodesLimit, 0, 50)
	for name, sc := range cfg.Services {
		if sc.RecentEpisodesLimit != nil {
			v.Range("Services."+name+".RecentEpisodesLimit", *sc.RecentEpisodesLimit, 0, 50)
		}
	}

	return v.Err()
}

func scheduleEnabledAnywhere(cfg AppConfig) bool {
	for _, sc := range cfg.Services {
		if sc.ScheduleEnabled != nil && *sc.ScheduleEnabled {
			return true
		}
	}
	return false
}
