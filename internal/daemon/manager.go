// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon runs the HTTP server and its graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle.
type Manager struct {
	cfg    ServerConfig
	deps   Deps
	logger zerolog.Logger

	server *http.Server
	hooks  []namedHook

	mu       sync.Mutex
	started  bool
	stopping bool
	addr     net.Addr
	ready    chan struct{}
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a daemon manager.
func NewManager(cfg ServerConfig, deps Deps) (*Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With().Str("component", "manager").Logger(),
		ready:  make(chan struct{}),
	}, nil
}

// Start listens and serves until ctx is cancelled or the server fails, then
// shuts down. Shutdown hooks also run when the listener cannot be bound.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	ln, err := net.Listen("tcp", m.cfg.ListenAddr)
	if err != nil {
		close(m.ready)
		err = fmt.Errorf("listen %s: %w", m.cfg.ListenAddr, err)
		if herr := m.Shutdown(context.WithoutCancel(ctx)); herr != nil {
			return errors.Join(err, herr)
		}
		return err
	}

	m.mu.Lock()
	m.addr = ln.Addr()
	m.server = &http.Server{
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.cfg.ReadTimeout,
		ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
		WriteTimeout:      m.cfg.WriteTimeout,
		IdleTimeout:       m.cfg.IdleTimeout,
		MaxHeaderBytes:    m.cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	m.mu.Unlock()
	close(m.ready)

	m.logger.Info().
		Str("event", "server.listening").
		Str("addr", ln.Addr().String()).
		Dur("read_timeout", m.cfg.ReadTimeout).
		Dur("write_timeout", m.cfg.WriteTimeout).
		Msg("API server listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str("event", "server.failed").Msg("API server failed")
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			m.logger.Info().Msg("shutdown signal received")
		}
		return m.Shutdown(context.WithoutCancel(ctx))
	})
	return g.Wait()
}

// Addr blocks until Start has bound its listener and returns the address,
// or nil when listening failed.
func (m *Manager) Addr() net.Addr {
	<-m.ready
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// Shutdown stops the server and runs the shutdown hooks.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	m.stopping = true
	srv := m.server
	hooks := append([]namedHook(nil), m.hooks...)
	m.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		if err := h.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", h.name).
				Dur("duration", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		m.logger.Debug().Str("hook", h.name).Dur("duration", time.Since(start)).Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Msg("daemon stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function for shutdown.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, hook: hook})
}
