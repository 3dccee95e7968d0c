package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with a code and message while preserving the original
// error in the chain.
//
// If err already contains a PlatformError its classification and hints are
// carried over, so wrapping a fetch failure for context does not lose the
// remediation advice attached closer to the failure.
//
// Returns nil if err is nil.
//
// Example:
//
//	if err := m.fetch(ctx); err != nil {
//	    return errors.Wrap(err, errors.CodeFetchFailed, "failed to refresh rules mirror")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	if err == nil {
		return nil
	}

	wrapped := &platformError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
		cause:          err,
	}

	var platformErr PlatformError
	if errors.As(err, &platformErr) {
		wrapped.classification = platformErr.Classification()
		wrapped.hints = platformErr.Hints()
	}

	return wrapped
}

// Wrapf wraps an error with a formatted message.
//
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) PlatformError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext wraps an error and attaches context metadata in one step.
// The context map is copied.
//
// Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}

	return WithContextMap(Wrap(err, code, message), ctx)
}
