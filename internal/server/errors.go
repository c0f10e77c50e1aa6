// Package server provides the HTTP API for starting and observing recruiting runs.
package server

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRunNotFound indicates the run does not exist or belongs to another owner
type ErrRunNotFound struct {
	RunID string
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrNotInterrupted indicates a resume request for a run that is not waiting
type ErrNotInterrupted struct {
	RunID string
}

func (e *ErrNotInterrupted) Error() string {
	return fmt.Sprintf("run %s is not waiting for an operator", e.RunID)
}

// ErrTooManyRuns indicates the concurrent run limit is reached
type ErrTooManyRuns struct {
	Limit int
}

func (e *ErrTooManyRuns) Error() string {
	return fmt.Sprintf("too many active runs (limit %d)", e.Limit)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrRunNotFound
		notWaiting *ErrNotInterrupted
		tooMany    *ErrTooManyRuns
		validation *ErrValidation
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &notWaiting):
		return http.StatusConflict
	case errors.As(err, &tooMany):
		return http.StatusTooManyRequests
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
