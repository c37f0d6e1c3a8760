package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind names one of the known failure conditions of a generation run.
type ErrorKind string

const (
	MalformedDocument        ErrorKind = "MalformedDocument"
	MissingRequiredField     ErrorKind = "MissingRequiredField"
	MalformedParentReference ErrorKind = "MalformedParentReference"
	UnresolvableFieldType    ErrorKind = "UnresolvableFieldType"
	UnresolvableParent       ErrorKind = "UnresolvableParent"
	DuplicateType            ErrorKind = "DuplicateType"
	ValidationFailed         ErrorKind = "ValidationFailed"
)

// Violation is one structured complaint from the validation collaborator, kept verbatim for display.
type Violation struct {
	InstanceLocation string `json:"instance-location"`
	KeywordLocation  string `json:"keyword-location"`
	Message          string `json:"message"`
}

func (v Violation) String() string {
	loc := v.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, v.Message)
}

// Error is a known failure attributed to a source document.
type Error struct {
	Kind    ErrorKind
	Path    string
	Message string

	// all source files involved (DuplicateType)
	Paths []string
	// validator output (ValidationFailed)
	Violations []Violation

	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail renders the error plus any structured violations, one per line.
func (e *Error) Detail() string {
	if len(e.Violations) == 0 {
		return e.Error()
	}
	var sb strings.Builder
	sb.WriteString(e.Error())
	for _, v := range e.Violations {
		sb.WriteString("\n  - ")
		sb.WriteString(v.String())
	}
	return sb.String()
}

func newError(kind ErrorKind, path string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewError builds a known error of the given kind attributed to path.
func NewError(kind ErrorKind, path string, format string, args ...any) *Error {
	return newError(kind, path, format, args...)
}

// IsKind reports whether err (or anything it wraps) is a known error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsKnown reports whether err belongs to the known taxonomy. Anything else is a defect.
func IsKnown(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
