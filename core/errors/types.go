// ABOUTME: Custom error types for the core pipeline
// ABOUTME: Every boundary-crossing operation returns one of these tagged failures

package errors

import (
	"errors"
	"fmt"
)

// NetworkUnreachableError represents a transport-level failure reaching
// the backend. It carries the configured address so the panel can tell
// the user what it tried to reach.
type NetworkUnreachableError struct {
	Address string
	Cause   error
}

// Error implements the error interface
func (e *NetworkUnreachableError) Error() string {
	return fmt.Sprintf("cannot reach backend at %s: %v", e.Address, e.Cause)
}

func (e *NetworkUnreachableError) Unwrap() error { return e.Cause }

// BackendError represents a non-success response from the backend with
// the server-supplied detail.
type BackendError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface
func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
}

// PermissionDeniedError represents a refused capture primitive,
// typically on restricted pages.
type PermissionDeniedError struct {
	Target  string
	Message string
}

// Error implements the error interface
func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("capture denied for %s: %s", e.Target, e.Message)
}

// ContextUnavailableError represents a message sent to an execution
// context with no listener, e.g. a page agent that was never injected.
type ContextUnavailableError struct {
	Context string
}

// Error implements the error interface
func (e *ContextUnavailableError) Error() string {
	return fmt.Sprintf("no listener in context %q", e.Context)
}

// ValidationError represents an invalid request payload.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// IsNetworkUnreachable checks if an error is a NetworkUnreachableError
func IsNetworkUnreachable(err error) bool {
	var netErr *NetworkUnreachableError
	return errors.As(err, &netErr)
}

// IsBackend checks if an error is a BackendError
func IsBackend(err error) bool {
	var beErr *BackendError
	return errors.As(err, &beErr)
}

// IsPermissionDenied checks if an error is a PermissionDeniedError
func IsPermissionDenied(err error) bool {
	var permErr *PermissionDeniedError
	return errors.As(err, &permErr)
}

// IsContextUnavailable checks if an error is a ContextUnavailableError
func IsContextUnavailable(err error) bool {
	var ctxErr *ContextUnavailableError
	return errors.As(err, &ctxErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
