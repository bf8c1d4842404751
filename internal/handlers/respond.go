package handlers

import (
	"encoding/json"
	"net/http"
)

// errorBody is the failure shape shared by every non-stream error response.
// Status is populated when an upstream status is being forwarded.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Status  int    `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorBody{Error: code, Details: details})
}

// writeUpstreamError forwards a provider failure verbatim: same status,
// raw provider body in details.
func writeUpstreamError(w http.ResponseWriter, status int, details string) {
	writeJSON(w, status, errorBody{Error: "upstream_error", Details: details, Status: status})
}
