package api

import (
	"errors"
	"fmt"
)

// Error represents an API error carrying a JSON-RPC error code
type Error struct {
	Code    int
	Message string
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// InvalidParams creates an invalid params error
func InvalidParams(format string, args ...interface{}) *Error {
	return NewError(ErrInvalidParams, fmt.Sprintf(format, args...))
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// errorCode returns the JSON-RPC code for err: the code of an *Error, or the
// generic server error code.
func errorCode(err error) (int, string) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message
	}
	return ErrServerError, "Server error"
}
