// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrTransport        = errors.New("upstream: host unreachable or transport failure")
	ErrTimeout          = errors.New("upstream: request timed out")
	ErrNonSuccessStatus = errors.New("upstream: non-success status")
	ErrBadResponse      = errors.New("upstream: invalid response format or malformed data")
)

// Error wraps a sentinel with the request context it occurred in.
type Error struct {
	Sentinel error
	Endpoint string
	Path     string
	Status   int
	Body     string
	Err      error // lower-level cause (net.Error, decode error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Endpoint, e.Path, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}

// StatusOf returns the upstream HTTP status carried by err, or 500 when the
// failure happened before a status was known.
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) && ue.Status > 0 {
		return ue.Status
	}
	return http.StatusInternalServerError
}

// Message describes err without the upstream response body or lower-level
// cause, for errors shown to clients.
func Message(err error) string {
	var ue *Error
	if !errors.As(err, &ue) {
		return "upstream: request failed"
	}
	if ue.Status > 0 {
		return fmt.Sprintf("%v (HTTP %d)", ue.Sentinel, ue.Status)
	}
	return ue.Sentinel.Error()
}

// countsAsOutage reports whether err indicates the upstream itself is
// unhealthy. Client errors (4xx) do not.
func countsAsOutage(err error) bool {
	var ue *Error
	if !errors.As(err, &ue) {
		return !errors.Is(err, context.Canceled)
	}
	switch ue.Sentinel {
	case ErrTransport, ErrTimeout:
		return true
	case ErrNonSuccessStatus:
		return ue.Status >= http.StatusInternalServerError
	default:
		return false
	}
}
