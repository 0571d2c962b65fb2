// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pagedata

import (
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/radiopage/internal/document"
)

// Availability of the episode at assembly time.
type Availability string

const (
	Available       Availability = "available"
	NotYetAvailable Availability = "notYetAvailable"
	Expired         Availability = "expired"
)

// DefaultImageRecipe replaces the $recipe placeholder in image URLs.
const DefaultImageRecipe = "1024x576"

var (
	pathCanonicalURL  = document.MustParsePath("metadata.locators.canonicalUrl")
	pathMetadataID    = document.MustParsePath("metadata.id")
	pathAvailableFrom = document.MustParsePath("promo.media.versions.0.availableFrom")
	pathAvailableTo   = document.MustParsePath("promo.media.versions.0.availableUntil")
	pathRecentPromos  = document.MustParsePath("relatedContent.groups.0.promos")

	pathPromoID       = document.Path{document.Key("id")}
	pathPromoBrand    = document.MustParsePath("brand.title")
	pathPromoHeadline = document.MustParsePath("headlines.headline")
	pathPromoEpisode  = document.MustParsePath("media.episodeTitle")
	pathPromoTime     = document.Path{document.Key("timestamp")}
	pathPromoDuration = document.MustParsePath("media.versions.0.durationISO8601")
	pathPromoURL      = document.MustParsePath("locators.assetUri")
)

// EpisodeAvailability compares now with the availability window of the
// first media version. Missing bounds are open-ended.
func EpisodeAvailability(doc document.Value, now time.Time) Availability {
	if from, ok := resolveMillis(doc, pathAvailableFrom); ok && now.Before(from) {
		return NotYetAvailable
	}
	if until, ok := resolveMillis(doc, pathAvailableTo); ok && !now.Before(until) {
		return Expired
	}
	return Available
}

// PlaceholderImageURL fills the $recipe placeholder and makes the URL
// absolute over https.
func PlaceholderImageURL(raw string) string {
	if raw == "" {
		return ""
	}
	u := strings.ReplaceAll(raw, "$recipe", DefaultImageRecipe)
	switch {
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"):
		return u
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	default:
		return "https://" + u
	}
}

// RecentEpisodes projects the related promos of the page, skipping the
// current episode and entries without an id or url, up to limit items.
func RecentEpisodes(doc document.Value, currentID string, limit int) []RecentEpisode {
	if limit <= 0 {
		return nil
	}
	promos, ok := document.Resolve(doc, pathRecentPromos)
	if !ok {
		return nil
	}

	out := make([]RecentEpisode, 0, min(limit, promos.Len()))
	for _, p := range promos.Items() {
		if len(out) == limit {
			break
		}
		id, _ := document.ResolveText(p, pathPromoID)
		link, _ := document.ResolveText(p, pathPromoURL)
		if id == "" || link == "" || id == currentID {
			continue
		}
		ep := RecentEpisode{ID: id, URL: link}
		ep.BrandTitle, _ = document.ResolveText(p, pathPromoBrand)
		if ep.EpisodeTitle, ok = document.ResolveText(p, pathPromoEpisode); !ok {
			ep.EpisodeTitle, _ = document.ResolveText(p, pathPromoHeadline)
		}
		if v, ok := document.Resolve(p, pathPromoTime); ok {
			ep.Timestamp, _ = v.Int64()
		}
		ep.Duration, _ = document.ResolveText(p, pathPromoDuration)
		out = append(out, ep)
	}
	return out
}

// RadioService returns the radio service named by the second path segment
// (/{service}/{radioService}/...), falling back to service.
func RadioService(path, service string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) >= 2 && segs[1] != "" {
		return segs[1]
	}
	return service
}

// SchedulePath is the schedule feed path for a radio service.
func SchedulePath(service, radioService string) string {
	return "/" + url.PathEscape(service) + "/" + url.PathEscape(radioService) + "/schedule.json"
}

// DocumentID identifies the document in diagnostics.
func DocumentID(doc document.Value, fallback string) string {
	if s, ok := document.ResolveText(doc, pathCanonicalURL); ok && s != "" {
		return s
	}
	if s, ok := document.ResolveText(doc, pathMetadataID); ok && s != "" {
		return s
	}
	return fallback
}

// rendererEnvs lists the renderer environments a request may select.
var rendererEnvs = map[string]bool{"live": true, "test": true}

// withRendererEnv appends renderer_env to path when an override is
// configured. Only then may the request pick another known environment via
// its own renderer_env parameter; unknown values fall back to the
// configured one.
func withRendererEnv(path string, query url.Values, configured string) string {
	if configured == "" {
		return path
	}
	env := configured
	if q := query.Get("renderer_env"); rendererEnvs[q] {
		env = q
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "renderer_env=" + url.QueryEscape(env)
}

func resolveMillis(doc document.Value, p document.Path) (time.Time, bool) {
	v, ok := document.Resolve(doc, p)
	if !ok {
		return time.Time{}, false
	}
	ms, ok := v.Int64()
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
