// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/radiopage/internal/pagedata"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEnvelopeError writes an error envelope that did not come from the
// assembler, e.g. for a malformed request path.
func writeEnvelopeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, pagedata.Envelope{Status: code, Error: msg})
}
