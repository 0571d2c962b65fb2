// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingHandler is returned when no API handler is provided.
	ErrMissingHandler = errors.New("API handler is required")

	// ErrManagerNotStarted is returned when Shutdown runs before Start.
	ErrManagerNotStarted = errors.New("manager not started")

	// ErrManagerAlreadyStarted is returned when Start runs twice.
	ErrManagerAlreadyStarted = errors.New("manager already started")
)
