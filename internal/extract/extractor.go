// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package extract pulls page-data fields out of upstream documents and
// reports missing ones according to a severity manifest.
package extract

import (
	"fmt"
	"sync"

	"github.com/ManuGH/radiopage/internal/document"
)

// Diagnostic records one missing field.
type Diagnostic struct {
	Field    string        `json:"field"`
	Path     document.Path `json:"-"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
}

// Extractor resolves fields for a single request. It is not shared between
// requests; each one owns its diagnostics.
type Extractor struct {
	doc        document.Value
	documentID string
	sink       Sink

	mu    sync.Mutex
	diags []Diagnostic
}

// NewExtractor binds an extractor to one document. sink may be nil.
func NewExtractor(doc document.Value, documentID string, sink Sink) *Extractor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Extractor{doc: doc, documentID: documentID, sink: sink}
}

// Extract resolves spec against the bound document. A missing field with a
// severity above none is recorded as a diagnostic and forwarded to the sink.
func (e *Extractor) Extract(spec FieldSpec) (document.Value, bool) {
	v, ok := document.Resolve(e.doc, spec.Path)
	if ok || spec.Severity == SeverityNone {
		return v, ok
	}

	d := Diagnostic{
		Field:    spec.Name,
		Path:     spec.Path,
		Severity: spec.Severity,
		Message:  fmt.Sprintf("%s missing at %s", spec.Name, spec.Path),
	}
	e.mu.Lock()
	e.diags = append(e.diags, d)
	e.mu.Unlock()

	e.sink.Record(d, e.documentID)
	return v, false
}

// ExtractAll runs every field of m and returns the ones that were present.
func (e *Extractor) ExtractAll(m Manifest) Fields {
	out := make(Fields, len(m.Fields))
	for _, spec := range m.Fields {
		if v, ok := e.Extract(spec); ok {
			out[spec.Name] = v
		}
	}
	return out
}

// Diagnostics returns a copy of the diagnostics recorded so far.
func (e *Extractor) Diagnostics() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Diagnostic(nil), e.diags...)
}

// Fields maps semantic field names to resolved values.
type Fields map[string]document.Value

// Text returns the named field as text, or "" when absent.
func (f Fields) Text(name string) string {
	v, ok := f[name]
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return s
}

// Int64 returns the named field as an integer.
func (f Fields) Int64(name string) (int64, bool) {
	v, ok := f[name]
	if !ok {
		return 0, false
	}
	return v.Int64()
}
