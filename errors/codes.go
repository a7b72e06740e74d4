package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Provider errors
const (
	// ErrCodeProviderUnavailable indicates a provider kind failed probing on this machine.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeProviderNotLoaded indicates an adapter was used before Load succeeded.
	ErrCodeProviderNotLoaded ErrorCode = "PROVIDER_NOT_LOADED"
	// ErrCodeLoadFailed indicates a provider could not allocate its state.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"
	// ErrCodeProcessFailed indicates a single frame could not be processed.
	ErrCodeProcessFailed ErrorCode = "PROCESS_FAILED"
	// ErrCodeInvalidProvider indicates a provider kind that cannot be loaded (Invalid, Automatic, unknown).
	ErrCodeInvalidProvider ErrorCode = "INVALID_PROVIDER"
)

// Resource and configuration errors
const (
	// ErrCodeResourceMissing indicates a required data file (effect program) could not be loaded.
	ErrCodeResourceMissing ErrorCode = "RESOURCE_MISSING"
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Task errors
const (
	// ErrCodeTaskCancelled indicates a queued task was dequeued before it ran.
	ErrCodeTaskCancelled ErrorCode = "TASK_CANCELLED"
	// ErrCodePoolClosed indicates work was pushed to a closed pool.
	ErrCodePoolClosed ErrorCode = "POOL_CLOSED"
	// ErrCodeQueueFull indicates work was pushed while the queue was at capacity.
	ErrCodeQueueFull ErrorCode = "QUEUE_FULL"
)

// ErrCodeInternal indicates a programmer error or an unexpected state.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeProcessFailed: true,
	ErrCodeLoadFailed:    false,
	ErrCodeQueueFull:     true,
	ErrCodeInternal:      false,
}

// IsRetryableCode returns true if the error code indicates a transient failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
