// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pagedata assembles the page data for on-demand radio pages from
// the content API document and, optionally, the radio schedule feed.
package pagedata

import (
	"encoding/json"
	"net/url"

	"github.com/ManuGH/radiopage/internal/extract"
	"github.com/ManuGH/radiopage/internal/schedule"
)

// PageTypeOnDemandRadio is the metadata type of every assembled page.
const PageTypeOnDemandRadio = "On Demand Radio"

// Request describes one page to assemble.
type Request struct {
	Path     string // site path, e.g. /indonesia/bbc_indonesian_radio/w172xh267fpn19l
	PageType string
	Service  string
	Toggles  Toggles
	Query    url.Values
}

// Toggles switch the optional enrichments per request.
type Toggles struct {
	ScheduleEnabled       bool
	RecentEpisodesEnabled bool
	RecentEpisodesLimit   int
}

// Metadata is the fixed metadata block.
type Metadata struct {
	Type string `json:"type"`
}

// RecentEpisode is one entry of the recent episodes list.
type RecentEpisode struct {
	ID           string `json:"id"`
	BrandTitle   string `json:"brandTitle,omitempty"`
	EpisodeTitle string `json:"episodeTitle,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
	Duration     string `json:"duration,omitempty"`
	URL          string `json:"url"`
}

// PageData is the assembled page. Manifest fields are emitted at the top
// level next to the fixed keys.
type PageData struct {
	Metadata            Metadata
	Fields              extract.Fields
	EpisodeAvailability Availability
	RadioScheduleData   []schedule.Program
	RecentEpisodes      []RecentEpisode
}

// Field returns a manifest field as text.
func (p *PageData) Field(name string) string {
	return p.Fields.Text(name)
}

func (p PageData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+4)
	for name, v := range p.Fields {
		out[name] = v
	}
	out["metadata"] = p.Metadata
	out["episodeAvailability"] = p.EpisodeAvailability
	if p.RadioScheduleData != nil {
		out["radioScheduleData"] = p.RadioScheduleData
	}
	recent := p.RecentEpisodes
	if recent == nil {
		recent = []RecentEpisode{}
	}
	out["recentEpisodes"] = recent
	return json.Marshal(out)
}

// Envelope is the result of one assembly. Exactly one of PageData and Error
// is set.
type Envelope struct {
	Status   int       `json:"status"`
	PageData *PageData `json:"pageData,omitempty"`
	Error    string    `json:"error,omitempty"`

	Diagnostics []extract.Diagnostic `json:"-"`
	Schedule    Outcome              `json:"-"`
}

// OK reports whether the envelope carries page data.
func (e Envelope) OK() bool { return e.PageData != nil }

// Outcome is the result of the schedule augmentation step.
type Outcome string

const (
	OutcomeAugmented    Outcome = "augmented"
	OutcomeDisabled     Outcome = "disabled"
	OutcomeFetchFailed  Outcome = "fetch_failed"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeMalformed    Outcome = "malformed"
	OutcomeInsufficient Outcome = "insufficient"
)

var _ json.Marshaler = PageData{}
