// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extract

import (
	"sync"

	xglog "github.com/ManuGH/radiopage/internal/log"
	"github.com/ManuGH/radiopage/internal/metrics"
	"github.com/rs/zerolog"
)

// Sink receives diagnostics as they are produced. Implementations must not
// block the caller.
type Sink interface {
	Record(d Diagnostic, documentID string)
}

// NopSink discards diagnostics.
type NopSink struct{}

func (NopSink) Record(Diagnostic, string) {}

// LogSink writes diagnostics to zerolog and counts them in Prometheus.
// Error diagnostics are logged at warn level and tagged for alerting; warn and
// info diagnostics step down to info and debug.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(d Diagnostic, documentID string) {
	metrics.RecordMissingField(d.Field, d.Severity.String())

	var evt *zerolog.Event
	switch d.Severity {
	case SeverityError:
		evt = s.logger.Warn().Bool(xglog.FieldAlert, true)
	case SeverityWarn:
		evt = s.logger.Info()
	case SeverityInfo:
		evt = s.logger.Debug()
	default:
		return
	}
	evt.
		Str(xglog.FieldEvent, "pagedata.field_missing").
		Str(xglog.FieldField, d.Field).
		Str(xglog.FieldPath, d.Path.String()).
		Str(xglog.FieldSeverity, d.Severity.String()).
		Str(xglog.FieldDocumentID, documentID).
		Msg(d.Message)
}

// MultiSink fans a diagnostic out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(d Diagnostic, documentID string) {
	for _, s := range m {
		s.Record(d, documentID)
	}
}

// Recorded is one diagnostic captured by a CollectingSink.
type Recorded struct {
	Diagnostic Diagnostic
	DocumentID string
}

// CollectingSink keeps every diagnostic in memory.
type CollectingSink struct {
	mu   sync.Mutex
	recs []Recorded
}

func (c *CollectingSink) Record(d Diagnostic, documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, Recorded{Diagnostic: d, DocumentID: documentID})
}

// Records returns a copy of everything recorded.
func (c *CollectingSink) Records() []Recorded {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Recorded(nil), c.recs...)
}
