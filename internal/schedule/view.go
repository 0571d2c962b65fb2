// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

// Labels are the per-service display strings for states and durations.
type Labels struct {
	Live     string `yaml:"live" json:"live"`
	OnDemand string `yaml:"onDemand" json:"onDemand"`
	Next     string `yaml:"next" json:"next"`
	Duration string `yaml:"duration" json:"duration"`
}

// DefaultLabels are used when a service has no overrides.
func DefaultLabels() Labels {
	return Labels{Live: "live", OnDemand: "onDemand", Next: "next", Duration: "Duration"}
}

// For returns the label for state, falling back to the state name.
func (l Labels) For(state TemporalState) string {
	var s string
	switch state {
	case StateLive:
		s = l.Live
	case StateOnDemand:
		s = l.OnDemand
	default:
		s = l.Next
	}
	if s == "" {
		return state.String()
	}
	return s
}

// Program is the JSON shape of one slot in page data.
type Program struct {
	ID            string        `json:"id"`
	State         TemporalState `json:"state"`
	StateLabel    string        `json:"stateLabel"`
	StartTime     int64         `json:"startTime"`
	Link          string        `json:"link"`
	BrandTitle    string        `json:"brandTitle"`
	EpisodeTitle  string        `json:"episodeTitle"`
	Summary       string        `json:"summary"`
	Duration      string        `json:"duration"`
	DurationLabel string        `json:"durationLabel"`
}

// Programs renders the window for page data.
func (w Window) Programs(labels Labels) []Program {
	out := make([]Program, len(w))
	for i, s := range w {
		durationLabel := s.Entry.DurationLabel
		if durationLabel == "" {
			durationLabel = labels.Duration
		}
		out[i] = Program{
			ID:            s.Entry.ID,
			State:         s.State,
			StateLabel:    labels.For(s.State),
			StartTime:     s.Entry.StartTime.UnixMilli(),
			Link:          s.Link,
			BrandTitle:    s.Entry.BrandTitle,
			EpisodeTitle:  s.Entry.EpisodeTitle,
			Summary:       s.Entry.Summary,
			Duration:      s.Entry.Duration,
			DurationLabel: durationLabel,
		}
	}
	return out
}
