// Package errors provides error types and handling for Tide Cloud storage operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a storage operation error with context about the operation that failed.
// It wraps the underlying transport or service error with additional context for debugging.
type Error struct {
	// Op is the operation that failed (e.g., "uploadFile", "writeRange", "createShare")
	Op string

	// Share is the share or container name (if applicable)
	Share string

	// Path is the file, blob, or table resource path (if applicable)
	Path string

	// Err is the underlying error from the transport or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Share != "" && e.Path != "" {
		return fmt.Sprintf("storage.%s %s/%s: %v", e.Op, e.Share, e.Path, e.Err)
	}
	if e.Share != "" {
		return fmt.Sprintf("storage.%s share %s: %v", e.Op, e.Share, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("storage.%s resource %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("storage.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithShare adds share context to an existing error.
func (e *Error) WithShare(share string) *Error {
	e.Share = share
	return e
}

// WithPath adds resource path context to an existing error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewShareError creates a new Error with share context.
func NewShareError(op, share string, err error) *Error {
	return &Error{
		Op:    op,
		Share: share,
		Err:   err,
	}
}

// NewResourceError creates a new Error with share and path context.
func NewResourceError(op, share, path string, err error) *Error {
	return &Error{
		Op:    op,
		Share: share,
		Path:  path,
		Err:   err,
	}
}

// ServiceError represents an error response returned by the storage service.
// It carries the service error code, the HTTP status, and the service request
// ID for support correlation.
type ServiceError struct {
	// Code is the service error code (e.g., "ShareNotFound", "Md5Mismatch")
	Code string

	// Message is the human-readable message from the service
	Message string

	// StatusCode is the HTTP status code of the response
	StatusCode int

	// RequestID is the service request ID for this call
	RequestID string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("storage: service returned %s (%d): %s [request-id %s]",
		e.Code, e.StatusCode, e.Message, e.RequestID)
}

// Sentinel errors for common storage operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrShareNotFound indicates that the requested share or container does not exist
	ErrShareNotFound = errors.New("storage: share not found")

	// ErrResourceNotFound indicates that the requested file, blob, or table does not exist
	ErrResourceNotFound = errors.New("storage: resource not found")

	// ErrShareAlreadyExists indicates that the share or container already exists
	ErrShareAlreadyExists = errors.New("storage: share already exists")

	// ErrResourceAlreadyExists indicates that the file, blob, or entity already exists
	ErrResourceAlreadyExists = errors.New("storage: resource already exists")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("storage: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("storage: invalid input")

	// ErrInvalidShareName indicates that the share or container name is invalid
	ErrInvalidShareName = errors.New("storage: invalid share name")

	// ErrInvalidResourcePath indicates that the resource path is invalid
	ErrInvalidResourcePath = errors.New("storage: invalid resource path")

	// ErrInvalidRange indicates that the requested byte range is invalid
	ErrInvalidRange = errors.New("storage: invalid range")

	// ErrRangeTooLarge indicates that a single range call exceeds the service limit
	ErrRangeTooLarge = errors.New("storage: range exceeds maximum range size")

	// ErrMD5Mismatch indicates that content MD5 verification failed
	ErrMD5Mismatch = errors.New("storage: content MD5 mismatch")

	// ErrLengthMismatch indicates that the service returned fewer or more bytes than requested
	ErrLengthMismatch = errors.New("storage: content length mismatch")

	// ErrConnection indicates a connection error
	ErrConnection = errors.New("storage: connection error")

	// ErrTimeout indicates that the operation timed out
	ErrTimeout = errors.New("storage: operation timeout")
)

// notRetryableError marks an error as not worth retrying. Integrity failures
// (MD5 or length mismatch) reproduce identically on retry, so the transport
// must not replay them.
type notRetryableError struct {
	err error
}

func (e *notRetryableError) Error() string {
	return e.err.Error()
}

func (e *notRetryableError) Unwrap() error {
	return e.err
}

// MarkNotRetryable wraps err so that IsNotRetryable reports true for it.
func MarkNotRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &notRetryableError{err: err}
}

// IsNotRetryable reports whether err has been marked as not retryable.
// Integrity errors are always marked; transport errors never are.
func IsNotRetryable(err error) bool {
	var nr *notRetryableError
	return errors.As(err, &nr)
}

// IsShareNotFound checks if an error indicates that a share was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsShareNotFound(err error) bool {
	return errors.Is(err, ErrShareNotFound)
}

// IsResourceNotFound checks if an error indicates that a resource was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsResourceNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsIntegrity checks if an error is an end-to-end or transactional integrity
// failure (MD5 or length mismatch).
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrMD5Mismatch) || errors.Is(err, ErrLengthMismatch)
}
