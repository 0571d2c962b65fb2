// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"

	"github.com/ManuGH/radiopage/internal/extract"
	"github.com/ManuGH/radiopage/internal/resilience"
)

// Pinger is implemented by upstream clients and caches that can verify
// their backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// PingChecker reports a dependency reachable via Ping. When critical is
// false a failed ping only degrades the service.
type PingChecker struct {
	name     string
	pinger   Pinger
	critical bool
}

// NewPingChecker creates a checker around p.
func NewPingChecker(name string, p Pinger, critical bool) *PingChecker {
	return &PingChecker{name: name, pinger: p, critical: critical}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.pinger.Ping(ctx); err != nil {
		status := StatusDegraded
		if c.critical {
			status = StatusUnhealthy
		}
		return CheckResult{Status: status, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// BreakerChecker degrades health while a circuit breaker is not closed.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for cb.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: cb}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(context.Context) CheckResult {
	switch state := c.breaker.State(); state {
	case resilience.StateClosed:
		return CheckResult{Status: StatusHealthy, Message: "circuit closed"}
	default:
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("circuit %s", state)}
	}
}

// ManifestChecker reports the active extraction manifest.
type ManifestChecker struct {
	holder *extract.ManifestHolder
}

// NewManifestChecker creates a checker for h.
func NewManifestChecker(h *extract.ManifestHolder) *ManifestChecker {
	return &ManifestChecker{holder: h}
}

func (c *ManifestChecker) Name() string { return "manifest" }

func (c *ManifestChecker) Check(context.Context) CheckResult {
	m := c.holder.Get()
	if err := m.Validate(); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("version %s, %d fields", m.Version, len(m.Fields)),
	}
}
