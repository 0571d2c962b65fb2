// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"encoding/json"
	"testing"

	"github.com/ManuGH/radiopage/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `{
  "schedules": [
    {
      "serviceId": "bbc_indonesian_radio",
      "publishedTimeStart": 1587513600000,
      "publishedTimeEnd": 1587515400000,
      "publishedTimeDuration": "PT30M",
      "broadcast": {"pid": "p08b1k2n"},
      "brand": {"title": "Dunia Pagi Ini"},
      "episode": {"presentationTitle": "22/04/2020 GMT", "synopses": {"short": "Berita pagi", "medium": "Berita pagi lengkap"}}
    },
    {
      "serviceId": "bbc_indonesian_radio",
      "publishedTimeStart": 1587515400000,
      "broadcast": {"pid": "p08b1k2p"}
    },
    {
      "serviceId": "bbc_indonesian_radio",
      "publishedTimeStart": 1587517200000,
      "publishedTimeEnd": 1587519000000,
      "broadcast": {}
    }
  ]
}`

func TestParseFeed(t *testing.T) {
	doc, err := document.Parse([]byte(feed))
	require.NoError(t, err)

	got, err := ParseFeed(doc, "Durasi")
	require.NoError(t, err)
	require.Len(t, got, 1, "entries without end time or pid are skipped")

	e := got[0]
	assert.Equal(t, "p08b1k2n", e.ID)
	assert.Equal(t, "bbc_indonesian_radio", e.ServiceID)
	assert.Equal(t, int64(1587513600000), e.StartTime.UnixMilli())
	assert.Equal(t, int64(1587515400000), e.EndTime.UnixMilli())
	assert.Equal(t, "Dunia Pagi Ini", e.BrandTitle)
	assert.Equal(t, "22/04/2020 GMT", e.EpisodeTitle)
	assert.Equal(t, "Berita pagi", e.Summary)
	assert.Equal(t, "Berita pagi lengkap", e.Synopsis)
	assert.Equal(t, "PT30M", e.Duration)
	assert.Equal(t, "Durasi", e.DurationLabel)
}

func TestParseFeedWithoutSchedules(t *testing.T) {
	doc, err := document.Parse([]byte(`{"schedule": []}`))
	require.NoError(t, err)

	_, err = ParseFeed(doc, "")
	assert.ErrorIs(t, err, ErrMalformedSchedule)
}

func TestTemporalStateJSON(t *testing.T) {
	b, err := json.Marshal([]TemporalState{StateLive, StateOnDemand, StateNext})
	require.NoError(t, err)
	assert.JSONEq(t, `["live","onDemand","next"]`, string(b))

	var s TemporalState
	require.NoError(t, json.Unmarshal([]byte(`"onDemand"`), &s))
	assert.Equal(t, StateOnDemand, s)
	assert.Error(t, json.Unmarshal([]byte(`"later"`), &s))
}
