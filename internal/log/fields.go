// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldDocumentID = "document_id"
	FieldEpisodeID  = "episode_id"
	FieldService    = "service"
	FieldRadio      = "radio_service"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldPageType  = "page_type"

	// Extraction fields
	FieldField    = "field"
	FieldSeverity = "severity"
	FieldAlert    = "alert"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"

	// Upstream fields
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
)
