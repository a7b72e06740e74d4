// Package errors defines the error kinds of the greenscreen filter.
//
// Recoverable failures (probe, load, process, resource) are returned as
// *AppError values and consumed locally by the switch coordinator and the
// frame pipeline; none of them reach the host.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// AppError carries a stable code next to the human-readable message.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Retryable is derived from Code; a later frame may succeed.
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the wrapped error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithDetails adds every entry of details.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// New returns an AppError whose Retryable flag follows code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Retryable: IsRetryableCode(code)}
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// IsAppError reports whether err's chain holds an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is a transient AppError.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}

func forProvider(code ErrorCode, provider, format string, cause error) *AppError {
	e := New(code, fmt.Sprintf(format, provider)).WithDetail("provider", provider)
	e.Cause = cause
	return e
}

// ProviderUnavailable reports a provider kind that failed probing.
func ProviderUnavailable(provider string) *AppError {
	return forProvider(ErrCodeProviderUnavailable, provider, "provider %s is not available on this system", nil)
}

// NotLoaded reports use of an adapter that has not been loaded.
func NotLoaded(provider string) *AppError {
	return forProvider(ErrCodeProviderNotLoaded, provider, "provider %s is not loaded", nil)
}

// LoadFailed reports a failed provider load.
func LoadFailed(provider string, cause error) *AppError {
	return forProvider(ErrCodeLoadFailed, provider, "provider %s failed to load", cause)
}

// ProcessFailed reports a transient per-frame failure.
func ProcessFailed(provider string, cause error) *AppError {
	return forProvider(ErrCodeProcessFailed, provider, "provider %s failed on a frame", cause)
}

// InvalidProvider reports a provider kind that cannot be instantiated.
func InvalidProvider(provider string) *AppError {
	return forProvider(ErrCodeInvalidProvider, provider, "provider %s cannot be instantiated", nil)
}

// ResourceMissing reports a data file that could not be loaded.
func ResourceMissing(path string, cause error) *AppError {
	return New(ErrCodeResourceMissing, fmt.Sprintf("cannot load %q", path)).
		WithDetail("path", path).
		WithCause(cause)
}

// InvalidConfig reports a configuration value that failed validation.
// field may be empty when the failure is not tied to one key.
func InvalidConfig(field, reason string) *AppError {
	e := New(ErrCodeInvalidConfig, "invalid configuration: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// TaskCancelled reports a queued task that was dequeued before running.
func TaskCancelled(id string) *AppError {
	return New(ErrCodeTaskCancelled, "task dequeued before it ran").WithDetail("task_id", id)
}

// PoolClosed reports work pushed to a closed pool.
func PoolClosed() *AppError {
	return New(ErrCodePoolClosed, "worker pool is closed")
}

// QueueFull reports work pushed to a pool whose queue holds size tasks.
func QueueFull(size int) *AppError {
	return New(ErrCodeQueueFull, "worker queue is full").WithDetail("queue_size", size)
}

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "unexpected failure").WithCause(cause)
}
