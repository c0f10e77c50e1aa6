package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed portal call.
type Error struct {
	Op         string
	StatusCode int // 0 when no response was received
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("portal %s", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsConnectivity reports whether err means the portal itself is unreachable
// or unhealthy, as opposed to a rejected request.
func IsConnectivity(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == 0 || pe.StatusCode >= http.StatusInternalServerError
}
