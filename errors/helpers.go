package errors

import (
	stderrors "errors"
	"strings"
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// GetCode extracts the ErrorCode from the outermost PlatformError in err's
// chain. Returns CodeUnknown if err is nil or carries no PlatformError.
//
// Example:
//
//	if errors.GetCode(err) == errors.CodeInvalidConfig {
//	    // fatal at startup
//	}
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		return platformErr.Code()
	}

	return CodeUnknown
}

// GetClassification extracts the ErrorClassification from an error.
// Returns ClassificationPermanent if err is nil or carries no PlatformError.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}

	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		return platformErr.Classification()
	}

	return ClassificationPermanent
}

// IsRetryable returns true if the error is classified as retryable.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}

// Format renders an error for display to a client: the error text followed by
// one "- hint" line per remediation hint.
//
// Example output:
//
//	[FETCH_FAILED] failed to clone rules repository: exit status 128
//
//	Suggestions:
//	- check network connectivity to the git host
//	- verify the repository URL is correct
func Format(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(err.Error())

	var platformErr PlatformError
	if stderrors.As(err, &platformErr) {
		if hints := platformErr.Hints(); len(hints) > 0 {
			b.WriteString("\n\nSuggestions:")
			for _, hint := range hints {
				b.WriteString("\n- ")
				b.WriteString(hint)
			}
		}
	}

	return b.String()
}
