package errors

import "errors"

// asPlatform returns a private copy of the outermost PlatformError in err's
// chain. Plain errors are converted with CodeUnknown and their text as message.
func asPlatform(err error) *platformError {
	var platformErr PlatformError
	if !errors.As(err, &platformErr) {
		return &platformError{
			code:           CodeUnknown,
			classification: ClassificationPermanent,
			message:        err.Error(),
			cause:          err,
		}
	}

	if concrete, ok := platformErr.(*platformError); ok {
		return concrete.clone()
	}

	return &platformError{
		code:           platformErr.Code(),
		classification: platformErr.Classification(),
		message:        platformErr.Message(),
		context:        platformErr.Context(),
		hints:          platformErr.Hints(),
		cause:          platformErr.Unwrap(),
	}
}

// WithContext adds a single context field to an error.
// Existing fields are preserved. Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "url", repoURL)
func WithContext(err error, key string, value interface{}) PlatformError {
	if err == nil {
		return nil
	}

	result := asPlatform(err)
	if result.context == nil {
		result.context = make(map[string]interface{}, 1)
	}
	result.context[key] = value

	return result
}

// WithContextMap merges multiple context fields into an error.
// New fields override existing ones with the same key. Returns nil if err is nil.
func WithContextMap(err error, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}

	result := asPlatform(err)
	if len(ctx) == 0 {
		return result
	}
	if result.context == nil {
		result.context = make(map[string]interface{}, len(ctx))
	}
	for k, v := range ctx {
		result.context[k] = v
	}

	return result
}

// WithHints appends remediation hints to an error. Duplicate hints are
// dropped so repeated wrapping does not repeat advice. Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithHints(err, "check network connectivity to the git host")
func WithHints(err error, hints ...string) PlatformError {
	if err == nil {
		return nil
	}

	result := asPlatform(err)
	for _, hint := range hints {
		if hint == "" || containsString(result.hints, hint) {
			continue
		}
		result.hints = append(result.hints, hint)
	}

	return result
}

// WithClassification overrides the classification of an error.
// Returns nil if err is nil.
func WithClassification(err error, classification ErrorClassification) PlatformError {
	if err == nil {
		return nil
	}

	result := asPlatform(err)
	result.classification = classification

	return result
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
