// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package schedule selects the programmes shown in the radio schedule widget.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/radiopage/internal/document"
)

// ErrMalformedSchedule reports a feed that cannot back a schedule window:
// no schedules list, or start times that are not ascending.
var ErrMalformedSchedule = errors.New("schedule: malformed feed")

// BroadcastEntry is one programme from the schedule feed.
type BroadcastEntry struct {
	ID            string
	ServiceID     string
	StartTime     time.Time
	EndTime       time.Time
	BrandTitle    string
	EpisodeTitle  string
	Summary       string
	Duration      string
	DurationLabel string
	Synopsis      string
}

var (
	pathSchedules    = document.Path{document.Key("schedules")}
	pathServiceID    = document.Path{document.Key("serviceId")}
	pathStart        = document.Path{document.Key("publishedTimeStart")}
	pathEnd          = document.Path{document.Key("publishedTimeEnd")}
	pathDuration     = document.Path{document.Key("publishedTimeDuration")}
	pathPID          = document.MustParsePath("broadcast.pid")
	pathBrandTitle   = document.MustParsePath("brand.title")
	pathEpisodeTitle = document.MustParsePath("episode.presentationTitle")
	pathSummary      = document.MustParsePath("episode.synopses.short")
	pathSynopsis     = document.MustParsePath("episode.synopses.medium")
)

// ParseFeed reads the schedules list of a feed document. Items without a
// broadcast id or timestamps are skipped; order is preserved.
func ParseFeed(feed document.Value, durationLabel string) ([]BroadcastEntry, error) {
	list, ok := document.Resolve(feed, pathSchedules)
	if !ok || list.Kind() != document.KindArray {
		return nil, fmt.Errorf("%w: no schedules list", ErrMalformedSchedule)
	}

	entries := make([]BroadcastEntry, 0, list.Len())
	for _, item := range list.Items() {
		pid, ok := document.ResolveText(item, pathPID)
		if !ok || pid == "" {
			continue
		}
		start, okStart := resolveMillis(item, pathStart)
		end, okEnd := resolveMillis(item, pathEnd)
		if !okStart || !okEnd {
			continue
		}

		serviceID, _ := document.ResolveText(item, pathServiceID)
		duration, _ := document.ResolveText(item, pathDuration)
		brand, _ := document.ResolveText(item, pathBrandTitle)
		episode, _ := document.ResolveText(item, pathEpisodeTitle)
		summary, _ := document.ResolveText(item, pathSummary)
		synopsis, _ := document.ResolveText(item, pathSynopsis)

		entries = append(entries, BroadcastEntry{
			ID:            pid,
			ServiceID:     serviceID,
			StartTime:     start,
			EndTime:       end,
			BrandTitle:    brand,
			EpisodeTitle:  episode,
			Summary:       summary,
			Duration:      duration,
			DurationLabel: durationLabel,
			Synopsis:      synopsis,
		})
	}
	return entries, nil
}

// CheckOrder verifies that start times never decrease.
func CheckOrder(entries []BroadcastEntry) error {
	for i := 1; i < len(entries); i++ {
		if entries[i].StartTime.Before(entries[i-1].StartTime) {
			return fmt.Errorf("%w: entry %d (%s) starts before entry %d (%s)",
				ErrMalformedSchedule, i, entries[i].ID, i-1, entries[i-1].ID)
		}
	}
	return nil
}

func resolveMillis(v document.Value, p document.Path) (time.Time, bool) {
	n, ok := document.Resolve(v, p)
	if !ok {
		return time.Time{}, false
	}
	ms, ok := n.Int64()
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
