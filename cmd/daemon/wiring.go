// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/radiopage/internal/api"
	"github.com/ManuGH/radiopage/internal/api/middleware"
	"github.com/ManuGH/radiopage/internal/cache"
	"github.com/ManuGH/radiopage/internal/config"
	"github.com/ManuGH/radiopage/internal/daemon"
	"github.com/ManuGH/radiopage/internal/extract"
	"github.com/ManuGH/radiopage/internal/health"
	xglog "github.com/ManuGH/radiopage/internal/log"
	"github.com/ManuGH/radiopage/internal/pagedata"
	"github.com/ManuGH/radiopage/internal/resilience"
	"github.com/ManuGH/radiopage/internal/telemetry"
	"github.com/ManuGH/radiopage/internal/upstream"
)

// run wires the service and blocks until ctx is cancelled.
func run(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (err error) {
	// Released here on startup failure, by the daemon manager otherwise.
	var res resources
	defer func() {
		if err != nil {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), daemon.DefaultShutdownTimeout)
			defer cancel()
			res.release(releaseCtx, logger)
		}
	}()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "radiopage",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	res.add("telemetry", tp.Shutdown)

	store, closeStore, err := buildCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	res.add("cache", func(context.Context) error { return closeStore() })

	manifests, err := buildManifests(cfg.ManifestPath)
	if err != nil {
		return err
	}
	if err := manifests.StartWatcher(ctx); err != nil {
		return fmt.Errorf("manifest watcher: %w", err)
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewManifestChecker(manifests))

	primaryBreaker := upstream.NewBreaker("content", cfg.Upstream.BreakerThreshold, cfg.Upstream.BreakerReset)
	primary := newClient(cfg, cfg.Upstream.BaseURL, "content", cfg.Upstream.Timeout, primaryBreaker, store)
	hm.RegisterChecker(health.NewPingChecker("content_api", primary, true))
	hm.RegisterChecker(health.NewBreakerChecker("content_breaker", primaryBreaker))

	var scheduleFetcher upstream.Fetcher
	if cfg.Upstream.ScheduleBaseURL != "" {
		scheduleBreaker := upstream.NewBreaker("schedule", cfg.Upstream.BreakerThreshold, cfg.Upstream.BreakerReset)
		sc := newClient(cfg, cfg.Upstream.ScheduleBaseURL, "schedule", cfg.Upstream.ScheduleTimeout, scheduleBreaker, store)
		hm.RegisterChecker(health.NewPingChecker("schedule_api", sc, false))
		hm.RegisterChecker(health.NewBreakerChecker("schedule_breaker", scheduleBreaker))
		scheduleFetcher = sc
	}
	if rc, ok := store.(*cache.RedisCache); ok {
		hm.RegisterChecker(health.NewPingChecker("redis", health.PingFunc(rc.HealthCheck), false))
	}

	asmLogger := xglog.WithComponent("pagedata")
	assembler := pagedata.New(pagedata.Options{
		Primary:         primary,
		Schedule:        scheduleFetcher,
		Manifests:       manifests,
		Sink:            extract.NewLogSink(xglog.WithComponent("extract")),
		ScheduleTimeout: cfg.Upstream.ScheduleTimeout,
		Labels:          cfg.LabelsFor,
		RendererEnv:     cfg.Upstream.RendererEnv,
		Logger:          &asmLogger,
	})

	srv := api.NewServer(api.Deps{
		Assembler: assembler,
		Health:    hm,
		Toggles:   togglesFor(cfg),
		Stack: middleware.StackConfig{
			EnableMetrics:     true,
			TracingService:    "radiopage",
			EnableLogging:     true,
			EnableRateLimit:   cfg.RateLimit.Enabled,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		},
	})

	mgr, err := daemon.NewManager(daemon.ServerConfig{ListenAddr: cfg.ListenAddr}, daemon.Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		return err
	}
	for _, h := range res.take() {
		mgr.RegisterShutdownHook(h.name, h.fn)
	}

	return mgr.Start(ctx)
}

type resource struct {
	name string
	fn   daemon.ShutdownHook
}

// resources tracks what startup acquired until the daemon manager owns it.
type resources []resource

func (r *resources) add(name string, fn daemon.ShutdownHook) {
	*r = append(*r, resource{name: name, fn: fn})
}

// take hands the resources over; release becomes a no-op.
func (r *resources) take() []resource {
	out := *r
	*r = nil
	return out
}

// release closes the resources in reverse acquisition order.
func (r *resources) release(ctx context.Context, logger zerolog.Logger) {
	for _, h := range slices.Backward(r.take()) {
		if err := h.fn(ctx); err != nil {
			logger.Warn().Err(err).Str("resource", h.name).Msg("release after failed startup")
		}
	}
}

func newClient(cfg config.AppConfig, base, endpoint string, timeout time.Duration, cb *resilience.CircuitBreaker, store cache.Cache) *upstream.Client {
	return upstream.New(base, upstream.Options{
		Endpoint:   endpoint,
		Timeout:    timeout,
		RatePerSec: cfg.Upstream.RatePerSec,
		Burst:      cfg.Upstream.Burst,
		Breaker:    cb,
		Cache:      store,
		CacheTTL:   cfg.Cache.TTL,
	})
}

// buildCache selects the response cache backend. The returned func releases it.
func buildCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (cache.Cache, func() error, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		}, xglog.WithComponent("cache"))
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis response cache")
		return rc, rc.Close, nil
	case config.CacheNone:
		return cache.NoOp{}, func() error { return nil }, nil
	default:
		mc := cache.NewMemoryCache(time.Minute)
		return mc, mc.Close, nil
	}
}

func buildManifests(path string) (*extract.ManifestHolder, error) {
	if path == "" {
		return extract.StaticManifest(extract.DefaultManifest()), nil
	}
	m, err := extract.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return extract.NewManifestHolder(m, path), nil
}

func togglesFor(cfg config.AppConfig) func(string) pagedata.Toggles {
	return func(service string) pagedata.Toggles {
		t := cfg.TogglesFor(service)
		return pagedata.Toggles{
			ScheduleEnabled:       t.ScheduleEnabled,
			RecentEpisodesEnabled: t.RecentEpisodesEnabled,
			RecentEpisodesLimit:   t.RecentEpisodesLimit,
		}
	}
}
