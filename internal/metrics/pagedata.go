// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics holds the Prometheus collectors shared across radiopage.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MissingFields counts manifest fields that resolved to nothing.
	MissingFields = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopage_missing_fields_total",
		Help: "Manifest fields absent from upstream documents, by field and severity",
	}, []string{"field", "severity"})

	assemblyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopage_assembly_total",
		Help: "Page-data assemblies by page type and outcome",
	}, []string{"page_type", "outcome"}) // outcome=success|error

	assemblyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radiopage_assembly_duration_seconds",
		Help:    "End-to-end page-data assembly latency",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"page_type"})

	// ScheduleAugmentation counts schedule merge outcomes.
	ScheduleAugmentation = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopage_schedule_augmentation_total",
		Help: "Schedule augmentation outcomes",
	}, []string{"outcome"}) // outcome=augmented|disabled|fetch_failed|timeout|malformed|insufficient

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radiopage_upstream_request_duration_seconds",
		Help:    "Upstream fetch latency by endpoint and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	upstreamCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radiopage_upstream_cache_total",
		Help: "Upstream response cache lookups",
	}, []string{"endpoint", "result"}) // result=hit|miss
)

// RecordMissingField increments the missing-field counter.
func RecordMissingField(field, severity string) {
	MissingFields.WithLabelValues(field, severity).Inc()
}

// RecordAssembly records the outcome and latency of one assembly.
func RecordAssembly(pageType string, ok bool, elapsed time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	assemblyTotal.WithLabelValues(pageType, outcome).Inc()
	assemblyDuration.WithLabelValues(pageType).Observe(elapsed.Seconds())
}

// RecordScheduleAugmentation increments the augmentation outcome counter.
func RecordScheduleAugmentation(outcome string) {
	ScheduleAugmentation.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records the latency of one upstream call. Status 0 means
// the call failed before a response was received.
func ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamDuration.WithLabelValues(endpoint, label).Observe(elapsed.Seconds())
}

// RecordUpstreamCache records a cache lookup result.
func RecordUpstreamCache(endpoint string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	upstreamCache.WithLabelValues(endpoint, result).Inc()
}
