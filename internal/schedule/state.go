// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"fmt"
	"time"
)

// TemporalState places a broadcast relative to the current instant.
type TemporalState int

const (
	StateNext TemporalState = iota
	StateLive
	StateOnDemand
)

func (s TemporalState) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateOnDemand:
		return "onDemand"
	default:
		return "next"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s TemporalState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TemporalState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "live":
		*s = StateLive
	case "onDemand":
		*s = StateOnDemand
	case "next":
		*s = StateNext
	default:
		return fmt.Errorf("schedule: unknown state %q", b)
	}
	return nil
}

// Classify compares now with the open interval (start, end). Boundary
// instants are not live: now == end is next, now == start is next.
func Classify(now, start, end time.Time) TemporalState {
	if now.After(start) && now.Before(end) {
		return StateLive
	}
	if now.After(end) {
		return StateOnDemand
	}
	return StateNext
}
