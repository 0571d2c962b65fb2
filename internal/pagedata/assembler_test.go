// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pagedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/radiopage/internal/document"
	"github.com/ManuGH/radiopage/internal/extract"
	"github.com/ManuGH/radiopage/internal/schedule"
	"github.com/ManuGH/radiopage/internal/upstream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2020, 4, 22, 6, 0, 0, 0, time.UTC)

func minutes(n int) time.Time { return epoch.Add(time.Duration(n) * time.Minute) }

const pagePath = "/indonesia/bbc_indonesian_radio/w172xh267fpn19l"

const primaryJSON = `{
  "metadata": {
    "id": "urn:bbc:ares::asset:indonesia/w172xh267fpn19l",
    "language": "id",
    "title": "Dunia Pagi Ini",
    "createdBy": "indonesia",
    "releaseDateTimeStamp": 1587513600000,
    "locators": {"canonicalUrl": "https://www.bbc.com/indonesia/bbc_indonesian_radio/w172xh267fpn19l"},
    "analyticsLabels": {"contentType": "player-episode", "pageTitle": "Dunia Pagi Ini", "pageIdentifier": "indonesia.bbc_indonesian_radio.w172xh267fpn19l.page"}
  },
  "content": {"blocks": [{
    "id": "p08b7zq7",
    "title": "Rabu, 22 April 2020",
    "imageUrl": "ichef.bbci.co.uk/images/ic/$recipe/p07yky5z.jpg",
    "synopses": {"short": "Berita pagi"}
  }]},
  "promo": {
    "headlines": {"headline": "Dunia Pagi Ini"},
    "brand": {"title": "Dunia Pagi Ini"},
    "media": {
      "imageUrl": "ichef.bbci.co.uk/images/ic/$recipe/p07yky5z.jpg",
      "synopses": {"short": "Berita pagi"},
      "versions": [{"durationISO8601": "PT29M30S", "availableFrom": 1587513600000}]
    }
  },
  "relatedContent": {"groups": [{"promos": [
    {"id": "p08b7zq7", "locators": {"assetUri": "/indonesia/bbc_indonesian_radio/p08b7zq7"}},
    {"id": "p08b2xdr", "brand": {"title": "Dunia Pagi Ini"}, "media": {"episodeTitle": "Selasa, 21 April 2020", "versions": [{"durationISO8601": "PT29M"}]}, "timestamp": 1587427200000, "locators": {"assetUri": "/indonesia/bbc_indonesian_radio/p08b2xdr"}},
    {"id": "p08ayh3n", "headlines": {"headline": "Senin, 20 April 2020"}, "locators": {"assetUri": "/indonesia/bbc_indonesian_radio/p08ayh3n"}}
  ]}]}
}`

func scheduleJSON(t *testing.T, bounds ...[2]int) document.Value {
	t.Helper()
	items := make([]string, len(bounds))
	for i, b := range bounds {
		items[i] = fmt.Sprintf(`{
		  "serviceId": "bbc_indonesian_radio",
		  "publishedTimeStart": %d,
		  "publishedTimeEnd": %d,
		  "publishedTimeDuration": "PT10M",
		  "broadcast": {"pid": "p%02d"},
		  "brand": {"title": "Brand %d"},
		  "episode": {"presentationTitle": "Episode %d", "synopses": {"short": "Summary %d"}}
		}`, minutes(b[0]).UnixMilli(), minutes(b[1]).UnixMilli(), i, i, i, i)
	}
	doc, err := document.Parse([]byte(`{"schedules":[` + strings.Join(items, ",") + `]}`))
	require.NoError(t, err)
	return doc
}

var referenceBounds = [][2]int{{0, 10}, {10, 20}, {20, 30}, {30, 40}, {40, 50}}

type fakeFetcher struct {
	mu    sync.Mutex
	docs  map[string]document.Value
	doc   document.Value
	err   error
	block bool
	paths []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, path, _ string) (upstream.Response, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return upstream.Response{}, ctx.Err()
	}
	if f.err != nil {
		return upstream.Response{}, f.err
	}
	if f.docs != nil {
		doc, ok := f.docs[path]
		if !ok {
			return upstream.Response{}, &upstream.Error{Sentinel: upstream.ErrNonSuccessStatus, Path: path, Status: http.StatusNotFound}
		}
		return upstream.Response{Doc: doc, Status: http.StatusOK}, nil
	}
	return upstream.Response{Doc: f.doc, Status: http.StatusOK}, nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func primaryFetcher(t *testing.T) *fakeFetcher {
	t.Helper()
	doc, err := document.Parse([]byte(primaryJSON))
	require.NoError(t, err)
	return &fakeFetcher{doc: doc}
}

func newAssembler(primary, sched upstream.Fetcher, sink extract.Sink) *Assembler {
	return New(Options{
		Primary:         primary,
		Schedule:        sched,
		Sink:            sink,
		ScheduleTimeout: time.Second,
		Now:             func() time.Time { return minutes(35) },
	})
}

func request() Request {
	return Request{
		Path:     pagePath,
		PageType: "media",
		Service:  "indonesia",
		Toggles:  Toggles{ScheduleEnabled: true},
	}
}

func TestAssembleWithSchedule(t *testing.T) {
	sched := &fakeFetcher{doc: scheduleJSON(t, referenceBounds...)}
	a := newAssembler(primaryFetcher(t), sched, nil)

	env := a.Assemble(context.Background(), request())
	require.True(t, env.OK(), env.Error)
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Empty(t, env.Error)
	assert.Equal(t, OutcomeAugmented, env.Schedule)
	assert.Equal(t, []string{"/indonesia/bbc_indonesian_radio/schedule.json"}, sched.calls())

	pd := env.PageData
	assert.Equal(t, PageTypeOnDemandRadio, pd.Metadata.Type)
	assert.Equal(t, "Dunia Pagi Ini", pd.Field("brandTitle"))
	assert.Equal(t, "p08b7zq7", pd.Field("episodeId"))
	assert.Equal(t, "https://ichef.bbci.co.uk/images/ic/1024x576/p07yky5z.jpg", pd.Field("thumbnailImageUrl"))
	assert.Equal(t, "ichef.bbci.co.uk/images/ic/$recipe/p07yky5z.jpg", pd.Field("imageUrl"))
	assert.Equal(t, Available, pd.EpisodeAvailability)

	type slot struct {
		ID    string
		State schedule.TemporalState
		Link  string
	}
	got := make([]slot, len(pd.RadioScheduleData))
	for i, p := range pd.RadioScheduleData {
		got[i] = slot{p.ID, p.State, p.Link}
	}
	want := []slot{
		{"p03", schedule.StateLive, "/indonesia/bbc_indonesian_radio/liveradio"},
		{"p02", schedule.StateOnDemand, "/indonesia/bbc_indonesian_radio/p02"},
		{"p01", schedule.StateOnDemand, "/indonesia/bbc_indonesian_radio/p01"},
		{"p04", schedule.StateNext, "/indonesia/bbc_indonesian_radio/p04"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("radio schedule mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemblePrimaryFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "server error",
			err:        &upstream.Error{Sentinel: upstream.ErrNonSuccessStatus, Path: pagePath, Status: http.StatusInternalServerError, Body: `{"trace":"db01 stack"}`},
			wantStatus: http.StatusInternalServerError,
			wantError:  "upstream: non-success status (HTTP 500)",
		},
		{
			name:       "not found",
			err:        &upstream.Error{Sentinel: upstream.ErrNonSuccessStatus, Path: pagePath, Status: http.StatusNotFound},
			wantStatus: http.StatusNotFound,
			wantError:  "upstream: non-success status (HTTP 404)",
		},
		{
			name:       "transport",
			err:        &upstream.Error{Sentinel: upstream.ErrTransport, Path: pagePath, Err: errors.New("connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "upstream: host unreachable or transport failure",
		},
		{
			name:       "cancelled",
			err:        context.Canceled,
			wantStatus: http.StatusInternalServerError,
			wantError:  "upstream: request failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &fakeFetcher{block: true}
			a := newAssembler(&fakeFetcher{err: tt.err}, sched, nil)

			env := a.Assemble(context.Background(), request())
			assert.False(t, env.OK())
			assert.Nil(t, env.PageData)
			assert.Equal(t, tt.wantStatus, env.Status)
			assert.Equal(t, tt.wantError, env.Error)
			assert.NotContains(t, env.Error, "db01")
		})
	}
}

func TestAssembleScheduleFailureDegrades(t *testing.T) {
	sched := &fakeFetcher{err: &upstream.Error{Sentinel: upstream.ErrTransport, Err: errors.New("boom")}}
	a := newAssembler(primaryFetcher(t), sched, nil)

	env := a.Assemble(context.Background(), request())
	require.True(t, env.OK())
	assert.Equal(t, http.StatusOK, env.Status)
	assert.Nil(t, env.PageData.RadioScheduleData)
	assert.Equal(t, OutcomeFetchFailed, env.Schedule)
	assert.Equal(t, "Dunia Pagi Ini", env.PageData.Field("brandTitle"))
}

func TestAssembleScheduleWaitIsBounded(t *testing.T) {
	sched := &fakeFetcher{block: true}
	a := New(Options{
		Primary:         primaryFetcher(t),
		Schedule:        sched,
		ScheduleTimeout: 20 * time.Millisecond,
		Now:             func() time.Time { return minutes(35) },
	})

	start := time.Now()
	env := a.Assemble(context.Background(), request())
	assert.Less(t, time.Since(start), time.Second)
	require.True(t, env.OK())
	assert.Equal(t, OutcomeTimeout, env.Schedule)
	assert.Nil(t, env.PageData.RadioScheduleData)
}

func TestAssembleScheduleOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		bounds [][2]int
		now    int
		want   Outcome
	}{
		{"unsorted feed", [][2]int{{0, 10}, {20, 30}, {10, 20}, {30, 40}, {40, 50}}, 35, OutcomeMalformed},
		{"too few before anchor", referenceBounds, 15, OutcomeInsufficient},
		{"nothing after anchor", referenceBounds, 45, OutcomeInsufficient},
		{"before first programme", referenceBounds, -5, OutcomeInsufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Options{
				Primary:  primaryFetcher(t),
				Schedule: &fakeFetcher{doc: scheduleJSON(t, tt.bounds...)},
				Now:      func() time.Time { return minutes(tt.now) },
			})
			env := a.Assemble(context.Background(), request())
			require.True(t, env.OK())
			assert.Equal(t, tt.want, env.Schedule)
			assert.Nil(t, env.PageData.RadioScheduleData)
		})
	}
}

func TestAssembleMissingSchedulesList(t *testing.T) {
	feed, err := document.Parse([]byte(`{"programmes":[]}`))
	require.NoError(t, err)
	a := newAssembler(primaryFetcher(t), &fakeFetcher{doc: feed}, nil)

	env := a.Assemble(context.Background(), request())
	require.True(t, env.OK())
	assert.Equal(t, OutcomeMalformed, env.Schedule)
}

func TestAssembleScheduleDisabled(t *testing.T) {
	sched := &fakeFetcher{doc: scheduleJSON(t, referenceBounds...)}
	a := newAssembler(primaryFetcher(t), sched, nil)

	req := request()
	req.Toggles.ScheduleEnabled = false
	env := a.Assemble(context.Background(), req)

	require.True(t, env.OK())
	assert.Equal(t, OutcomeDisabled, env.Schedule)
	assert.Empty(t, sched.calls())
}

func TestAssembleReportsMissingFields(t *testing.T) {
	doc, err := document.Parse([]byte(`{
	  "metadata": {"id": "urn:x", "locators": {"canonicalUrl": "https://www.bbc.com/indonesia/x"}},
	  "content": {"blocks": [{"title": "only a title"}]}
	}`))
	require.NoError(t, err)
	sink := &extract.CollectingSink{}
	a := newAssembler(&fakeFetcher{doc: doc}, nil, sink)

	env := a.Assemble(context.Background(), request())
	require.True(t, env.OK())
	assert.Equal(t, "only a title", env.PageData.Field("episodeTitle"))

	bySeverity := map[extract.Severity][]string{}
	for _, d := range env.Diagnostics {
		bySeverity[d.Severity] = append(bySeverity[d.Severity], d.Field)
	}
	assert.ElementsMatch(t, []string{"episodeId", "masterBrand"}, bySeverity[extract.SeverityError])
	assert.ElementsMatch(t, []string{"headline", "releaseDateTimeStamp"}, bySeverity[extract.SeverityWarn])
	assert.NotContains(t, bySeverity[extract.SeverityInfo], "episodeTitle")

	recs := sink.Records()
	require.Len(t, recs, len(env.Diagnostics))
	for _, r := range recs {
		assert.Equal(t, "https://www.bbc.com/indonesia/x", r.DocumentID)
	}
}

func TestAssembleDiagnosticsArePerRequest(t *testing.T) {
	complete, err := document.Parse([]byte(primaryJSON))
	require.NoError(t, err)
	empty, err := document.Parse([]byte(`{}`))
	require.NoError(t, err)

	primary := &fakeFetcher{docs: map[string]document.Value{
		"/indonesia/bbc_indonesian_radio/complete": complete,
		"/indonesia/bbc_indonesian_radio/empty":    empty,
	}}
	a := newAssembler(primary, nil, nil)
	full := len(extract.DefaultManifest().Fields)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := request()
			req.Path = "/indonesia/bbc_indonesian_radio/complete"
			if i%2 == 1 {
				req.Path = "/indonesia/bbc_indonesian_radio/empty"
			}
			env := a.Assemble(context.Background(), req)
			if !assert.True(t, env.OK()) {
				return
			}
			if i%2 == 1 {
				assert.NotEmpty(t, env.Diagnostics)
				assert.Less(t, len(env.Diagnostics), full)
			} else {
				assert.Empty(t, env.Diagnostics)
			}
		}(i)
	}
	wg.Wait()
}

func TestAssembleRecentEpisodesAndRendererEnv(t *testing.T) {
	primary := primaryFetcher(t)
	a := New(Options{Primary: primary, RendererEnv: "live"})

	req := request()
	req.Toggles = Toggles{RecentEpisodesEnabled: true, RecentEpisodesLimit: 1}
	env := a.Assemble(context.Background(), req)
	require.True(t, env.OK())

	require.Len(t, env.PageData.RecentEpisodes, 1)
	assert.Equal(t, "p08b2xdr", env.PageData.RecentEpisodes[0].ID)
	assert.Equal(t, []string{pagePath + "?renderer_env=live"}, primary.calls())

	req.Query = url.Values{"renderer_env": {"test"}}
	a.Assemble(context.Background(), req)
	assert.Equal(t, pagePath+"?renderer_env=test", primary.calls()[1])
}

func TestAssembleIgnoresRendererEnvWithoutOverride(t *testing.T) {
	primary := primaryFetcher(t)
	a := New(Options{Primary: primary})

	req := request()
	req.Query = url.Values{"renderer_env": {"test"}}
	require.True(t, a.Assemble(context.Background(), req).OK())
	assert.Equal(t, []string{pagePath}, primary.calls())
}

func TestEnvelopeJSON(t *testing.T) {
	sched := &fakeFetcher{doc: scheduleJSON(t, referenceBounds...)}
	env := newAssembler(primaryFetcher(t), sched, nil).Assemble(context.Background(), request())

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var out struct {
		Status   int            `json:"status"`
		Error    *string        `json:"error"`
		PageData map[string]any `json:"pageData"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Nil(t, out.Error)
	assert.Equal(t, map[string]any{"type": "On Demand Radio"}, out.PageData["metadata"])
	assert.Equal(t, "id", out.PageData["language"])
	assert.Equal(t, "available", out.PageData["episodeAvailability"])
	assert.Len(t, out.PageData["radioScheduleData"], 4)
	assert.Equal(t, []any{}, out.PageData["recentEpisodes"])
	assert.NotContains(t, out.PageData, "diagnostics")

	failed, err := json.Marshal(Envelope{Status: 500, Error: "upstream down"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":500,"error":"upstream down"}`, string(failed))
}
