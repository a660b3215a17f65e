package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Guang error code.
type ErrorCode string

const (
	ErrUnsupportedExtension ErrorCode = "UNSUPPORTED_EXTENSION" // rejected before any I/O
	ErrUnsupportedEncoding  ErrorCode = "UNSUPPORTED_ENCODING"
	ErrUnencodable          ErrorCode = "UNENCODABLE"
	ErrMalformedRichText    ErrorCode = "MALFORMED_RICH_TEXT"
	ErrIOFailure            ErrorCode = "IO_FAILURE"
	ErrCancelled            ErrorCode = "CANCELLED"
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrNotFound             ErrorCode = "NOT_FOUND"
	ErrFileTooLarge         ErrorCode = "FILE_TOO_LARGE"
	ErrInternal             ErrorCode = "INTERNAL"
)

// GuangError represents a structured error with code, message, and details.
type GuangError struct {
	Code    ErrorCode
	Message string
	Details map[string]any

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *GuangError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *GuangError) Unwrap() error {
	return e.Err
}

// NewUnsupportedExtension creates an error for a file name whose extension is
// neither txt nor rtf. An empty ext means the name had no extension at all.
func NewUnsupportedExtension(name, ext string) *GuangError {
	msg := fmt.Sprintf("unsupported file extension %q in %q (only txt and rtf are supported)", ext, name)
	if ext == "" {
		msg = fmt.Sprintf("file %q has no extension (only txt and rtf are supported)", name)
	}
	return &GuangError{
		Code:    ErrUnsupportedExtension,
		Message: msg,
		Details: map[string]any{"name": name, "extension": ext},
	}
}

// NewUnsupportedEncoding creates an error for a charset name with no known decoder.
func NewUnsupportedEncoding(name string) *GuangError {
	return &GuangError{
		Code:    ErrUnsupportedEncoding,
		Message: fmt.Sprintf("unsupported encoding: %s", name),
		Details: map[string]any{"encoding": name},
	}
}

// NewUnencodable creates an error for text that cannot be represented in the target encoding.
func NewUnencodable(encoding string, err error) *GuangError {
	return &GuangError{
		Code:    ErrUnencodable,
		Message: fmt.Sprintf("text cannot be encoded as %s", encoding),
		Details: map[string]any{"encoding": encoding},
		Err:     err,
	}
}

// NewMalformedRichText creates an error for RTF input that could not be parsed.
func NewMalformedRichText(reason string) *GuangError {
	return &GuangError{
		Code:    ErrMalformedRichText,
		Message: fmt.Sprintf("malformed rich text: %s", reason),
	}
}

// NewIOFailure wraps a read or write failure on path.
func NewIOFailure(op, path string, err error) *GuangError {
	msg := fmt.Sprintf("%s %s failed", op, path)
	if err != nil {
		msg = fmt.Sprintf("%s %s: %v", op, path, err)
	}
	return &GuangError{
		Code:    ErrIOFailure,
		Message: msg,
		Details: map[string]any{"op": op, "path": path},
		Err:     err,
	}
}

// NewCancelled creates an error for an operation the user abandoned.
func NewCancelled(op string) *GuangError {
	return &GuangError{
		Code:    ErrCancelled,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInvalidRequest creates an error for invalid request parameters.
func NewInvalidRequest(msg string) *GuangError {
	return &GuangError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing file or record.
func NewNotFound(identifier string) *GuangError {
	return &GuangError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileTooLarge creates an error when a file exceeds the configured size limit.
func NewFileTooLarge(max, actual int64) *GuangError {
	return &GuangError{
		Code:    ErrFileTooLarge,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *GuangError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GuangError{
		Code:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a GuangError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GuangError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

// CodeOf returns the code of err, or ErrInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var gErr *GuangError
	if stderrors.As(err, &gErr) {
		return gErr.Code
	}
	return ErrInternal
}
