// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Page attributes
	PagePathKey    = "page.path"
	PageTypeKey    = "page.type"
	PageServiceKey = "page.service"

	// Upstream attributes
	UpstreamEndpointKey = "upstream.endpoint"

	// Extraction attributes
	ExtractDiagnosticsKey = "extract.diagnostics"
	ExtractErrorsKey      = "extract.errors"

	// Schedule attributes
	ScheduleEnabledKey = "schedule.enabled"
	ScheduleOutcomeKey = "schedule.outcome"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// PageAttributes creates span attributes describing a page request.
func PageAttributes(path, pageType, service string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if path != "" {
		attrs = append(attrs, attribute.String(PagePathKey, path))
	}
	if pageType != "" {
		attrs = append(attrs, attribute.String(PageTypeKey, pageType))
	}
	if service != "" {
		attrs = append(attrs, attribute.String(PageServiceKey, service))
	}
	return attrs
}

// ExtractAttributes summarises the diagnostics of one extraction pass.
func ExtractAttributes(diagnostics, errors int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(ExtractDiagnosticsKey, diagnostics),
		attribute.Int(ExtractErrorsKey, errors),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
