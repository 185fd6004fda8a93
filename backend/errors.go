package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue is returned when a value written to an area is not JSON.
	ErrInvalidValue = errors.New("value is not valid JSON")

	// ErrRecordNotFound is returned by remote stores for absent records.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNotEntitled is returned by remote stores that refuse premium writes
	// for accounts without the entitlement.
	ErrNotEntitled = errors.New("account is not entitled to cloud sync")
)

// StorageError represents a failed storage area operation
type StorageError struct {
	Op   string   // get, set, remove, refresh
	Area AreaName // Area the operation targeted
	Key  string   // Optional: affected key
	Err  error    // Underlying error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q in %s area failed: %v", e.Op, e.Key, e.Area, e.Err)
	}
	return fmt.Sprintf("storage %s in %s area failed: %v", e.Op, e.Area, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RemoteError represents an error from a remote record operation
// It provides structured error information including HTTP status codes,
// operation context, and the underlying error
type RemoteError struct {
	Operation  string // e.g., "GetProfile", "PutTaskRecord"
	StatusCode int    // HTTP status code (0 if not an HTTP error)
	Message    string // Human-readable error message
	UserID     string // Optional: affected user
	Err        error  // Optional: underlying error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying error for error wrapping
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a 404 Not Found
func (e *RemoteError) IsNotFound() bool {
	return e.StatusCode == 404 || errors.Is(e.Err, ErrRecordNotFound)
}

// IsUnauthorized returns true if the error is a 401 Unauthorized or 403 Forbidden
func (e *RemoteError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsServerError returns true if the error is a 5xx server error
func (e *RemoteError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewRemoteError creates a new RemoteError
func NewRemoteError(operation string, statusCode int, message string) *RemoteError {
	return &RemoteError{
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
	}
}

// WithUserID adds the user id to the error for context
func (e *RemoteError) WithUserID(uid string) *RemoteError {
	e.UserID = uid
	return e
}

// WithError wraps an underlying error
func (e *RemoteError) WithError(err error) *RemoteError {
	e.Err = err
	return e
}

// IsNotFound reports whether err means the remote record does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrRecordNotFound) {
		return true
	}
	var re *RemoteError
	return errors.As(err, &re) && re.IsNotFound()
}
