package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation requires a
	// signed-in session and none exists. No network call is made.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound is returned when no task with the given id exists.
	ErrNotFound = errors.New("task not found")

	// ErrConflicting is returned when a mutation targets an entry that
	// already has an operation in flight.
	ErrConflicting = errors.New("conflicting operation in progress")
)

// NetworkError wraps a transport-level failure: no connectivity, timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError wraps a response payload the client could not interpret.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("malformed response: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx response with no more specific meaning.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string { return fmt.Sprintf("server error: status %d", e.Status) }

// ValidationError reports a draft or patch that was rejected, either by
// pre-flight validation or by the server.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
