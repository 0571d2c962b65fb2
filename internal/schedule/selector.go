// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import "time"

// WindowSize is the number of programmes shown in the widget.
const WindowSize = 4

// Slot is one displayed programme.
type Slot struct {
	Index int // position in the input sequence
	Entry BroadcastEntry
	State TemporalState
	Link  string
}

// Window is the ordered display window: anchor, the two programmes before
// it (most recent first) and the one after it.
type Window []Slot

// Linker derives the navigation link for a programme.
type Linker interface {
	Link(state TemporalState, e BroadcastEntry) string
}

// LinkerFunc adapts a function to Linker.
type LinkerFunc func(TemporalState, BroadcastEntry) string

func (f LinkerFunc) Link(s TemporalState, e BroadcastEntry) string { return f(s, e) }

// Anchor returns the index of the last entry that started strictly before
// now, or -1. Entries must be sorted by start time; equal start times
// resolve to the later index.
func Anchor(entries []BroadcastEntry, now time.Time) int {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].StartTime.Before(now) {
			return i
		}
	}
	return -1
}

// Select builds the display window around the most recently started
// programme. It reports false unless all four positions exist.
func Select(entries []BroadcastEntry, now time.Time, linker Linker) (Window, bool) {
	anchor := Anchor(entries, now)
	if anchor < 0 {
		return nil, false
	}
	indices := [WindowSize]int{anchor, anchor - 1, anchor - 2, anchor + 1}
	for _, idx := range indices {
		if idx < 0 || idx >= len(entries) {
			return nil, false
		}
	}

	w := make(Window, 0, WindowSize)
	for _, idx := range indices {
		e := entries[idx]
		state := Classify(now, e.StartTime, e.EndTime)
		slot := Slot{Index: idx, Entry: e, State: state}
		if linker != nil {
			slot.Link = linker.Link(state, e)
		}
		w = append(w, slot)
	}
	return w, true
}

// Indices returns the input positions of the slots, in window order.
func (w Window) Indices() []int {
	out := make([]int, len(w))
	for i, s := range w {
		out[i] = s.Index
	}
	return out
}

// States returns the slot states, in window order.
func (w Window) States() []TemporalState {
	out := make([]TemporalState, len(w))
	for i, s := range w {
		out[i] = s.State
	}
	return out
}
