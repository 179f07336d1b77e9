package errors

import (
	"fmt"
)

// Error represents a planner error carrying a stable code.
type Error struct {
	Code    string // Planner error code
	Message string // Primary error message
	Detail  string // Optional detailed error message
	Hint    string // Optional hint message
	Where   string // Context where the error occurred
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s) DETAIL: %s", e.Message, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// New creates a new Error with the given code and message.
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail adds detail to the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error.
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint adds a hint to the error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithWhere sets the context where the error occurred.
func (e *Error) WithWhere(where string) *Error {
	e.Where = where
	return e
}

// Common error constructors

// InternalErrorf creates an internal error.
func InternalErrorf(format string, args ...interface{}) *Error {
	return Newf(InternalError, format, args...)
}

// InvalidIndexIDError creates an error for an out-of-range index id.
func InvalidIndexIDError(id, catalogSize int) *Error {
	return Newf(InvalidIndexID, "index id %d out of range", id).
		WithDetailf("Catalog holds %d indexes.", catalogSize)
}

// FeatureNotSupportedError creates a feature not supported error.
func FeatureNotSupportedError(feature string) *Error {
	return Newf(FeatureNotSupported, "%s is not supported", feature)
}

// IOErrorf creates an I/O error.
func IOErrorf(format string, args ...interface{}) *Error {
	return Newf(IOError, format, args...)
}

// IsError checks if an error is a planner Error with a specific code.
func IsError(err error, code string) bool {
	if err == nil {
		return false
	}
	pErr, ok := err.(*Error)
	return ok && pErr.Code == code
}

// GetError attempts to extract a planner Error from any error.
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	if pErr, ok := err.(*Error); ok {
		return pErr
	}
	// Wrap generic errors as internal errors.
	return InternalErrorf("%v", err)
}
