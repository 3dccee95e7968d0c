package errors

// PlatformError extends the standard error interface with structured
// information for consistent error handling at the service boundary.
type PlatformError interface {
	error

	// Code returns the error code identifying the type of error.
	Code() ErrorCode

	// Classification returns whether the error is retryable or permanent.
	Classification() ErrorClassification

	// Message returns the human-readable error message.
	Message() string

	// Context returns attached metadata as a read-only copy.
	// Returns nil if no context has been attached.
	Context() map[string]interface{}

	// Hints returns remediation suggestions in the order they were attached.
	// Returns nil if no hints have been attached.
	Hints() []string

	// Unwrap returns the wrapped error for errors.Is and errors.As compatibility.
	Unwrap() error
}
