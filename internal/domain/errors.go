package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input or a violated invariant.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate identifier).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// SourceError indicates an upstream source could not be read at all.
// It is fatal for the run: no partial artifact is ever written.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// MalformedRecordError indicates a single upstream record failed
// normalization. Policy is fail-fast: the run aborts rather than publishing
// an artifact that silently undercounts.
type MalformedRecordError struct {
	Source string
	Record string // human-readable locator, e.g. "line 14" or `offset 200, id "m-7"`
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record in source %q (%s): %s", e.Source, e.Record, e.Reason)
}

// PublishError indicates the artifact could not be written, replaced, or
// mirrored. The previously published artifact remains valid and untouched.
type PublishError struct {
	Target string
	Err    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %q failed: %v", e.Target, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrSource creates a SourceError for the named source.
func ErrSource(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err}
}

// ErrMalformedRecord creates a MalformedRecordError.
func ErrMalformedRecord(source, record, format string, args ...interface{}) *MalformedRecordError {
	return &MalformedRecordError{Source: source, Record: record, Reason: fmt.Sprintf(format, args...)}
}

// ErrPublish creates a PublishError for the named target.
func ErrPublish(target string, err error) *PublishError {
	return &PublishError{Target: target, Err: err}
}
