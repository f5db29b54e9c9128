package schema

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure. Configuration errors abort the run
// at startup; every other kind is per-document and non-fatal to the run.
type ErrorKind string

const (
	KindConfiguration    ErrorKind = "configuration"
	KindPreprocess       ErrorKind = "preprocess"
	KindExtraction       ErrorKind = "extraction"
	KindTimeout          ErrorKind = "timeout"
	KindCorrection       ErrorKind = "correction"
	KindSchemaValidation ErrorKind = "schema_validation"
	KindPersist          ErrorKind = "persist"
)

// Error attaches an ErrorKind to an underlying cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind. The outermost kind in a chain wins
// during classification.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, format string, a ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, a...)}
}

// KindOf extracts the kind from an error chain. Unclassified errors map to
// the empty kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
