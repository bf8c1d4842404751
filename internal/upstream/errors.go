package upstream

import (
	"errors"
	"fmt"
)

// ErrNoCredential is returned before any network access when the gateway
// has no upstream API key configured.
var ErrNoCredential = errors.New("upstream: no API key configured")

// ValidationError reports a malformed inbound request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "upstream: invalid request: " + e.Reason
}

// StatusError carries a non-2xx provider reply. Status and Body are
// forwarded to the client verbatim, never reinterpreted.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: status %d: %s", e.Status, truncate(e.Body, 200))
}

// truncate limits string length for logging and error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
