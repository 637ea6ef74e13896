// Package apperrors defines the typed errors shared by the classification
// pipeline and its transports.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error by what went wrong.
type Kind string

const (
	KindImageFormat        Kind = "image_format"
	KindDatasetUnavailable Kind = "dataset_unavailable"
	KindDatasetEmpty       Kind = "dataset_empty"
	KindDegenerateMoments  Kind = "degenerate_moments"
	KindValidation         Kind = "validation"
	KindInternal           Kind = "internal"
)

// Sentinels usable with errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrImageFormat        = &Error{Kind: KindImageFormat, Message: "unsupported or unreadable image"}
	ErrDatasetUnavailable = &Error{Kind: KindDatasetUnavailable, Message: "reference dataset unavailable"}
	ErrDatasetEmpty       = &Error{Kind: KindDatasetEmpty, Message: "reference dataset has no usable entries"}
	ErrDegenerateMoments  = &Error{Kind: KindDegenerateMoments, Message: "shape moments are not finite"}
)

// Error is a categorized application error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// StatusCode maps the error kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindImageFormat, KindValidation:
		return http.StatusBadRequest
	case KindDatasetUnavailable:
		return http.StatusServiceUnavailable
	case KindDatasetEmpty, KindDegenerateMoments:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RPCCode maps the error kind to a JSON-RPC error code. Argument problems use
// the standard invalid-params code; everything else is a tool failure.
func (e *Error) RPCCode() int {
	if e.Kind == KindValidation {
		return -32602
	}
	return -32000
}

// NewImageFormatError reports an unsupported pixel layout or unreadable pixel data.
func NewImageFormatError(message string, cause error) *Error {
	return &Error{Kind: KindImageFormat, Message: message, Cause: cause}
}

// NewDatasetUnavailableError reports that dataset bytes could not be obtained.
func NewDatasetUnavailableError(message string, cause error) *Error {
	return &Error{Kind: KindDatasetUnavailable, Message: message, Cause: cause}
}

// NewDatasetEmptyError reports a dataset without usable rows.
func NewDatasetEmptyError(message string) *Error {
	return &Error{Kind: KindDatasetEmpty, Message: message}
}

// NewDegenerateMomentsError reports non-finite values in a descriptor.
func NewDegenerateMomentsError(message string) *Error {
	return &Error{Kind: KindDegenerateMoments, Message: message}
}

// NewValidationError reports bad caller-supplied arguments.
func NewValidationError(message string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: message, Cause: cause}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusCode extracts the HTTP status for any error.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	return http.StatusInternalServerError
}

// RPCCode extracts the JSON-RPC code for any error.
func RPCCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.RPCCode()
	}
	return -32000
}
