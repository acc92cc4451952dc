package wfs

import (
	"context"
	"errors"
	"fmt"
)

// Code classifies a failed query.
type Code string

const (
	// CodeAddressNotFound means the address layer returned no match.
	CodeAddressNotFound Code = "ADDRESS_NOT_FOUND"
	// CodeServiceError covers transport failures, non-2xx responses and
	// unparseable bodies.
	CodeServiceError Code = "WFS_SERVICE_ERROR"
	// CodeNoData means a layer had no feature at the queried point.
	CodeNoData Code = "NO_DATA_AT_LOCATION"
	// CodeInvalidCoordinates means the caller passed an unusable coordinate.
	CodeInvalidCoordinates Code = "INVALID_COORDINATES"
	// CodeTimeout means a single request exceeded its deadline.
	CodeTimeout Code = "TIMEOUT"
)

// Error is the structured failure returned by the client and by every domain
// adapter built on it.
type Error struct {
	Code    Code   `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Layer   string `json:"layer,omitempty" yaml:"layer,omitempty"`

	Err error `json:"-" yaml:"-"`
}

func (e *Error) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("%s: %s (layer %s)", e.Code, e.Message, e.Layer)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NoData creates a NO_DATA_AT_LOCATION error tagged with the source layer.
func NoData(layer, message string) *Error {
	return &Error{Code: CodeNoData, Message: message, Layer: layer}
}

// CodeOf returns the classification of err, or "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return AsError(err).Code
}

// AsError converts any error into a classified *Error. Errors that already
// carry a classification are returned as-is; deadline errors become TIMEOUT and
// everything else becomes WFS_SERVICE_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var we *Error
	if errors.As(err, &we) {
		return we
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: "WFS request timed out", Err: err}
	}

	return &Error{Code: CodeServiceError, Message: err.Error(), Err: err}
}
