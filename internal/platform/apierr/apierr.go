// Package apierr carries an HTTP status and a machine-readable code alongside
// a wrapped cause, so sync, scoring, and generation failures surface to API
// clients with the right status instead of a blanket 500. Handlers unwrap it
// with errors.As in one place and never switch on error strings.
package apierr

import "fmt"

// Error is the transport-facing form of a domain failure. Code is the stable
// identifier clients branch on; Err is the underlying cause and stays
// reachable through Unwrap.
type Error struct {
	Status int
	Code   string
	Err    error
}

// Error prefers the wrapped cause, then the code, then the bare status, so a
// response body always has something specific to say.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("request failed (status %d)", e.Status)
	}
	return "request failed"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
