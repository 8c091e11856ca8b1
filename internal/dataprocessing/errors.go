package dataprocessing

import "fmt"

// MalformedInputError reports input that cannot produce a single data row.
// It aborts the whole run.
type MalformedInputError struct {
	Reason string
	Line   int
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := "malformed input: " + e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func newMalformed(reason string, err error) *MalformedInputError {
	return &MalformedInputError{Reason: reason, Err: err}
}
