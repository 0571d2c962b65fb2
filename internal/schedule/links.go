// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"net/url"
	"strings"
)

// ServiceLinker builds site-relative links for one news service:
// /{service}/{serviceId}/liveradio for live programmes and
// /{service}/{serviceId}/{broadcastId} for everything else.
type ServiceLinker struct {
	Service string
}

func (l ServiceLinker) Link(state TemporalState, e BroadcastEntry) string {
	parts := []string{"", url.PathEscape(l.Service), url.PathEscape(e.ServiceID)}
	if state == StateLive {
		parts = append(parts, "liveradio")
	} else {
		parts = append(parts, url.PathEscape(e.ID))
	}
	return strings.Join(parts, "/")
}
