// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMissingField(t *testing.T) {
	before := testutil.ToFloat64(MissingFields.WithLabelValues("episodeId", "error"))
	RecordMissingField("episodeId", "error")
	RecordMissingField("episodeId", "error")
	after := testutil.ToFloat64(MissingFields.WithLabelValues("episodeId", "error"))
	assert.Equal(t, before+2, after)
}

func TestRecordScheduleAugmentation(t *testing.T) {
	before := testutil.ToFloat64(ScheduleAugmentation.WithLabelValues("timeout"))
	RecordScheduleAugmentation("timeout")
	assert.Equal(t, before+1, testutil.ToFloat64(ScheduleAugmentation.WithLabelValues("timeout")))
}

func TestSetCircuitBreakerStateIsExclusive(t *testing.T) {
	SetCircuitBreakerState("upstream-test", "open")
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("upstream-test", "open")))
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("upstream-test", "closed")))

	SetCircuitBreakerState("upstream-test", "closed")
	assert.Equal(t, 0.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("upstream-test", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(circuitBreakerState.WithLabelValues("upstream-test", "closed")))
}

func TestObserveUpstreamDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveUpstream("primary", 200, 15*time.Millisecond)
		ObserveUpstream("schedule", 0, time.Second)
		RecordUpstreamCache("primary", true)
		RecordAssembly("onDemandRadio", false, time.Millisecond)
	})
}
