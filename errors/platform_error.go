package errors

import "fmt"

// platformError is the concrete implementation of PlatformError.
// It is private to enforce construction through package functions.
type platformError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]interface{}
	hints          []string
	cause          error
}

// Error returns "[CODE] message" or "[CODE] message: cause".
func (e *platformError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Code returns the error code.
func (e *platformError) Code() ErrorCode {
	return e.code
}

// Classification returns the error classification.
func (e *platformError) Classification() ErrorClassification {
	return e.classification
}

// Message returns the error message.
func (e *platformError) Message() string {
	return e.message
}

// Context returns a copy of the context map, or nil.
func (e *platformError) Context() map[string]interface{} {
	if e.context == nil {
		return nil
	}
	ctx := make(map[string]interface{}, len(e.context))
	for k, v := range e.context {
		ctx[k] = v
	}
	return ctx
}

// Hints returns a copy of the remediation hints, or nil.
func (e *platformError) Hints() []string {
	if len(e.hints) == 0 {
		return nil
	}
	hints := make([]string, len(e.hints))
	copy(hints, e.hints)
	return hints
}

// Unwrap returns the wrapped error for standard library compatibility.
func (e *platformError) Unwrap() error {
	return e.cause
}

// clone returns a shallow copy with private copies of the context map and
// hint slice, so derived errors never alias the original.
func (e *platformError) clone() *platformError {
	return &platformError{
		code:           e.code,
		classification: e.classification,
		message:        e.message,
		context:        e.Context(),
		hints:          e.Hints(),
		cause:          e.cause,
	}
}
