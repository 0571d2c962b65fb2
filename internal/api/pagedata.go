// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/radiopage/internal/pagedata"
)

// PageTypeMedia is the page type passed to the content API for on-demand
// radio pages.
const PageTypeMedia = "media"

// HeaderScheduleOutcome reports how the schedule augmentation ended.
const HeaderScheduleOutcome = "X-Radiopage-Schedule"

// handlePageData serves GET /api/pagedata/{service}/{radioService}/{episode}.
// The HTTP status mirrors the envelope status.
func (s *Server) handlePageData(w http.ResponseWriter, r *http.Request) {
	sitePath, service, ok := parseSitePath(chi.URLParam(r, "*"))
	if !ok {
		writeEnvelopeError(w, http.StatusBadRequest, "page path must be /{service}/{page}")
		return
	}

	env := s.assembler.Assemble(r.Context(), pagedata.Request{
		Path:     sitePath,
		PageType: PageTypeMedia,
		Service:  service,
		Toggles:  s.toggles(service),
		Query:    r.URL.Query(),
	})
	if env.Schedule != "" {
		w.Header().Set(HeaderScheduleOutcome, string(env.Schedule))
	}
	writeJSON(w, env.Status, env)
}

// parseSitePath normalises the wildcard part of the route into a site path
// and returns its service segment. At least two clean segments are needed.
func parseSitePath(raw string) (path, service string, ok bool) {
	segs := strings.Split(strings.Trim(raw, "/"), "/")
	if len(segs) < 2 {
		return "", "", false
	}
	for _, s := range segs {
		if s == "" || s == "." || s == ".." {
			return "", "", false
		}
	}
	return "/" + strings.Join(segs, "/"), segs[0], true
}
