package transport

import (
	"fmt"
	"time"
)

// ConnError reports transport-level unreachability of the server.
type ConnError struct {
	URL string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("failed querying server at: %s, error: %v", e.URL, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// RemoteError reports a non-2xx response outside explicitly allowed codes.
// Body carries the server-provided text verbatim so operators can correlate
// with server-side logs.
type RemoteError struct {
	Path       string
	StatusCode int
	Body       string
	Msg        string
}

func (e *RemoteError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = fmt.Sprintf("failed calling %s", e.Path)
	}
	return fmt.Sprintf("%s, status code: %d, reason: %s", msg, e.StatusCode, e.Body)
}

// TimeoutError reports a bounded polling loop that exhausted its countdown
// without observing the awaited state.
type TimeoutError struct {
	What      string
	Elapsed   time.Duration
	LastState string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s, last state: %s", e.Elapsed, e.What, e.LastState)
}

// PreconditionError reports a caller-side validation failure detected before
// any network call.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

// ComputationError reports a computation that reached a terminal but
// unsuccessful state. Diagnostic carries the last known server-provided
// text (debug output or status message).
type ComputationError struct {
	Handle     string
	Status     string
	Diagnostic string
}

func (e *ComputationError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("computation %s failed with status %q", e.Handle, e.Status)
	}
	return fmt.Sprintf("computation %s failed with status %q: %s", e.Handle, e.Status, e.Diagnostic)
}
