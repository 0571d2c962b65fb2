// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes page data assembly over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/radiopage/internal/api/middleware"
	"github.com/ManuGH/radiopage/internal/health"
	"github.com/ManuGH/radiopage/internal/pagedata"
)

// Assembler is the page-data pipeline the handlers call.
type Assembler interface {
	Assemble(ctx context.Context, req pagedata.Request) pagedata.Envelope
}

// Deps wires a Server.
type Deps struct {
	Assembler Assembler
	Health    *health.Manager
	// Toggles returns the enrichment toggles for a service.
	Toggles func(service string) pagedata.Toggles
	Stack   middleware.StackConfig
	// Metrics serves /metrics; defaults to the Prometheus default registry.
	Metrics http.Handler
}

// Server routes HTTP requests to the assembler and the health endpoints.
type Server struct {
	assembler Assembler
	health    *health.Manager
	toggles   func(string) pagedata.Toggles
	router    chi.Router
}

// NewServer creates a Server and builds its routes.
func NewServer(d Deps) *Server {
	s := &Server{
		assembler: d.Assembler,
		health:    d.Health,
		toggles:   d.Toggles,
	}
	if s.health == nil {
		s.health = health.NewManager("")
	}
	if s.toggles == nil {
		s.toggles = func(string) pagedata.Toggles { return pagedata.Toggles{} }
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r := middleware.NewRouter(d.Stack)
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Method(http.MethodGet, "/metrics", metrics)
	r.Route("/api", func(r chi.Router) {
		r.Get("/pagedata/*", s.handlePageData)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
