package domain

import "fmt"

// RenderErrorKind classifies failures that happen after validation passed.
type RenderErrorKind string

const (
	// KindEngineFailure means the browser crashed or the connection to it
	// dropped while a render was in flight.
	KindEngineFailure RenderErrorKind = "engine-failure"
	// KindTimeout means the render deadline elapsed before the PDF was produced.
	KindTimeout RenderErrorKind = "timeout"
)

// ValidationError reports malformed or out-of-range input. It is raised
// before any engine resource is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AcquisitionError means no isolated browsing context could be checked out,
// even after the single transparent reconnect attempt.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Error() string {
	return "engine-unavailable: " + e.Err.Error()
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// RenderError wraps a failed render with its classified kind. The underlying
// engine error is kept for logs but never shown to callers verbatim.
type RenderError struct {
	Kind RenderErrorKind
	Err  error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
