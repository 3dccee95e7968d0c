// Package errors provides the structured error type used across the rules
// server.
//
// Every error that leaves the service boundary is a PlatformError: it carries
// an ErrorCode for categorization, a retry classification, optional context
// metadata and optional remediation hints that tell an operator what to check
// next (network connectivity, repository URL, credentials, ...).
//
// The package stays compatible with the standard library (errors.Is,
// errors.As, errors.Unwrap) and has no third-party dependencies.
//
// # Creating errors
//
//	err := errors.New(errors.CodeNotFound, "readme not found")
//	err := errors.Newf(errors.CodeInvalidInput, "unknown fetcher %q", name)
//
// # Wrapping errors
//
//	if err := fetcher.Clone(ctx, url, path); err != nil {
//	    return errors.Wrap(err, errors.CodeFetchFailed, "failed to clone rules repository")
//	}
//
// # Hints and context
//
//	err = errors.WithHints(err,
//	    "check network connectivity to the git host",
//	    "verify the repository URL is correct",
//	)
//	err = errors.WithContext(err, "url", url)
//
// # Presenting errors
//
// Format renders the message followed by its hints, which is what protocol
// handlers send back to clients. ToJSON produces a flat, serializable form
// that omits the wrapped chain.
package errors
