// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package extract

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/ManuGH/radiopage/internal/document"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, s string) document.Value {
	t.Helper()
	v, err := document.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func spec(name, path string, sev Severity) FieldSpec {
	return FieldSpec{Name: name, Path: document.MustParsePath(path), Severity: sev}
}

func TestExtractSeverityNoneNeverEmits(t *testing.T) {
	doc := parseDoc(t, `{"metadata":{"id":"abc"}}`)
	sink := &CollectingSink{}
	ex := NewExtractor(doc, "doc-1", sink)

	v, ok := ex.Extract(spec("id", "metadata.id", SeverityNone))
	require.True(t, ok)
	s, _ := v.Text()
	assert.Equal(t, "abc", s)

	_, ok = ex.Extract(spec("pageTitle", "metadata.analyticsLabels.pageTitle", SeverityNone))
	assert.False(t, ok)

	assert.Empty(t, ex.Diagnostics())
	assert.Empty(t, sink.Records())
}

func TestExtractMissingFieldEmitsAtSeverity(t *testing.T) {
	doc := parseDoc(t, `{"content":{"blocks":[]}}`)

	for _, sev := range []Severity{SeverityInfo, SeverityWarn, SeverityError} {
		t.Run(sev.String(), func(t *testing.T) {
			sink := &CollectingSink{}
			ex := NewExtractor(doc, "doc-2", sink)

			_, ok := ex.Extract(spec("episodeId", "content.blocks.0.id", sev))
			assert.False(t, ok)

			diags := ex.Diagnostics()
			require.Len(t, diags, 1)
			assert.Equal(t, "episodeId", diags[0].Field)
			assert.Equal(t, sev, diags[0].Severity)
			assert.Equal(t, "content.blocks.0.id", diags[0].Path.String())
			assert.Contains(t, diags[0].Message, "episodeId")

			recs := sink.Records()
			require.Len(t, recs, 1)
			assert.Equal(t, "doc-2", recs[0].DocumentID)
		})
	}
}

func TestExtractPresentFieldEmitsNothing(t *testing.T) {
	doc := parseDoc(t, `{"metadata":{"createdBy":"indonesia"}}`)
	ex := NewExtractor(doc, "", nil)

	_, ok := ex.Extract(spec("masterBrand", "metadata.createdBy", SeverityError))
	assert.True(t, ok)
	assert.Empty(t, ex.Diagnostics())
}

func TestExtractAllWithDefaultManifest(t *testing.T) {
	doc := parseDoc(t, `{
		"metadata": {"id": "m1", "language": "id", "title": "Dunia Pagi Ini", "createdBy": "indonesia"},
		"content": {"blocks": [{"id": "p0hfjjnc", "title": "Episode"}]}
	}`)
	ex := NewExtractor(doc, "m1", nil)
	fields := ex.ExtractAll(DefaultManifest())

	assert.Equal(t, "p0hfjjnc", fields.Text("episodeId"))
	assert.Equal(t, "Dunia Pagi Ini", fields.Text("brandTitle"))
	assert.Equal(t, "", fields.Text("headline"))

	bySeverity := map[Severity]int{}
	for _, d := range ex.Diagnostics() {
		bySeverity[d.Severity]++
	}
	assert.Zero(t, bySeverity[SeverityError], "identity fields are present")
	assert.Equal(t, 2, bySeverity[SeverityWarn]) // headline, releaseDateTimeStamp
	assert.Positive(t, bySeverity[SeverityInfo])
	assert.Zero(t, bySeverity[SeverityNone])
}

func TestExtractorsDoNotShareDiagnostics(t *testing.T) {
	doc := parseDoc(t, `{}`)
	m := DefaultManifest()

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ex := NewExtractor(doc, "", nil)
			ex.ExtractAll(m)
			results[i] = len(ex.Diagnostics())
		}(i)
	}
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, results[0], n)
	}
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	sink := NewLogSink(logger)

	p := document.MustParsePath("content.blocks.0.id")
	sink.Record(Diagnostic{Field: "episodeId", Path: p, Severity: SeverityError, Message: "m"}, "doc")
	sink.Record(Diagnostic{Field: "headline", Path: p, Severity: SeverityWarn, Message: "m"}, "doc")
	sink.Record(Diagnostic{Field: "summary", Path: p, Severity: SeverityInfo, Message: "m"}, "doc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	wantLevels := []string{"warn", "info", "debug"}
	for i, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, wantLevels[i], entry["level"])
		assert.Equal(t, "pagedata.field_missing", entry["event"])
		assert.Equal(t, "doc", entry["document_id"])
	}

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, true, first["alert"])
}

func TestMultiSink(t *testing.T) {
	a, b := &CollectingSink{}, &CollectingSink{}
	MultiSink{a, b}.Record(Diagnostic{Field: "x", Severity: SeverityInfo}, "d")
	assert.Len(t, a.Records(), 1)
	assert.Len(t, b.Records(), 1)
}
