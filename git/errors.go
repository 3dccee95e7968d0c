package git

import (
	"context"
	stderrors "errors"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/exec"
)

// Remediation hints attached to fetch failures.
const (
	HintConnectivity = "check network connectivity to the git host"
	HintURL          = "verify the repository URL is correct"
	HintPermissions  = "check that your credentials have read access to the repository"
	HintRef          = "verify the configured ref names an existing branch, tag or commit"
	HintInstallGit   = "install git or switch to the built-in fetcher (fetcher: gogit)"
	HintResetMirror  = "delete the cache directory to force a fresh clone"
)

var defaultHints = []string{HintConnectivity, HintURL, HintPermissions}

// classification is the outcome of inspecting a failure.
type classification struct {
	code   errors.ErrorCode
	reason string
	hints  []string
}

// wrapError classifies err and wraps it as a PlatformError whose message is
// "<op>: <reason>". The original error stays in the chain.
// Returns nil if err is nil.
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var c classification
	var execErr *exec.ExecError
	if stderrors.As(err, &execErr) {
		c = classifyExecError(execErr)
	} else {
		c = classifyError(err)
	}

	message := op
	if c.reason != "" {
		message = op + ": " + c.reason
	}

	return errors.WithHints(errors.Wrap(err, c.code, message), c.hints...)
}

// classifyError maps go-git and context errors to error codes.
//
//nolint:gocyclo,cyclop // each case is a simple mapping
func classifyError(err error) classification {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return classification{errors.CodeTimeout, "timed out", []string{HintConnectivity}}
	case stderrors.Is(err, context.Canceled):
		return classification{errors.CodeUnavailable, "canceled", nil}

	case stderrors.Is(err, transport.ErrRepositoryNotFound):
		return classification{errors.CodeNotFound, "repository not found", []string{HintURL, HintPermissions}}
	case stderrors.Is(err, gogit.ErrRepositoryNotExists):
		return classification{errors.CodeNotFound, "repository does not exist", []string{HintResetMirror}}
	case stderrors.Is(err, transport.ErrEmptyRemoteRepository):
		return classification{errors.CodeNotFound, "remote repository is empty", []string{HintURL}}

	case stderrors.Is(err, plumbing.ErrReferenceNotFound):
		return classification{errors.CodeNotFound, "reference not found", []string{HintRef}}

	case stderrors.Is(err, transport.ErrAuthenticationRequired):
		return classification{errors.CodeUnauthorized, "authentication required", []string{HintPermissions, HintURL}}
	case stderrors.Is(err, transport.ErrAuthorizationFailed):
		return classification{errors.CodeUnauthorized, "authorization failed", []string{HintPermissions}}

	case stderrors.Is(err, gogit.ErrNonFastForwardUpdate):
		return classification{errors.CodeConflict, "local mirror has diverged from the remote", []string{HintResetMirror}}
	case stderrors.Is(err, gogit.ErrWorktreeNotClean), stderrors.Is(err, gogit.ErrUnstagedChanges):
		return classification{errors.CodeConflict, "mirror working tree has local changes", []string{HintResetMirror}}

	case stderrors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return classification{errors.CodeConflict, "repository already exists", []string{HintResetMirror}}

	case stderrors.Is(err, gogit.ErrMissingURL), stderrors.Is(err, transport.ErrInvalidAuthMethod):
		return classification{errors.CodeInvalidConfig, "invalid repository configuration", []string{HintURL}}
	}

	return classification{errors.CodeFetchFailed, "", defaultHints}
}

// stderrPattern maps a fragment of git's stderr to a classification.
type stderrPattern struct {
	fragments []string
	class     classification
}

// stderrPatterns are matched case-insensitively, first match wins.
var stderrPatterns = []stderrPattern{
	{
		fragments: []string{
			"could not resolve host",
			"could not resolve hostname",
			"connection refused",
			"connection timed out",
			"network is unreachable",
			"failed to connect",
			"operation timed out",
		},
		class: classification{errors.CodeNetwork, "remote host unreachable", []string{HintConnectivity, HintURL}},
	},
	{
		fragments: []string{
			"authentication failed",
			"could not read username",
			"could not read password",
			"terminal prompts disabled",
			"permission denied (publickey",
			"host key verification failed",
			"http basic: access denied",
			"the requested url returned error: 401",
			"the requested url returned error: 403",
		},
		class: classification{errors.CodeUnauthorized, "authentication failed", []string{HintPermissions, HintURL}},
	},
	{
		fragments: []string{
			"repository not found",
			"does not appear to be a git repository",
			"does not exist",
			"the requested url returned error: 404",
		},
		class: classification{errors.CodeNotFound, "repository not found", []string{HintURL, HintPermissions}},
	},
	{
		fragments: []string{
			"did not match any file(s) known to git",
			"unknown revision",
			"invalid reference",
			"couldn't find remote ref",
		},
		class: classification{errors.CodeNotFound, "reference not found", []string{HintRef}},
	},
	{
		fragments: []string{
			"not possible to fast-forward",
			"diverging branches",
			"would be overwritten",
			"please commit your changes or stash them",
		},
		class: classification{errors.CodeConflict, "local mirror has diverged from the remote", []string{HintResetMirror}},
	},
	{
		fragments: []string{
			"not a git repository",
		},
		class: classification{errors.CodeNotFound, "mirror is not a git repository", []string{HintResetMirror}},
	},
}

// classifyExecError inspects a failed git invocation. It checks for a missing
// executable and for timeouts before matching stderr.
func classifyExecError(execErr *exec.ExecError) classification {
	if exec.IsNotFound(execErr) {
		return classification{errors.CodeInvalidConfig, "git executable not found", []string{HintInstallGit}}
	}
	if stderrors.Is(execErr, context.DeadlineExceeded) || stderrors.Is(execErr, context.Canceled) {
		return classifyError(execErr.Err)
	}

	stderr := strings.ToLower(execErr.Stderr)
	for _, p := range stderrPatterns {
		for _, fragment := range p.fragments {
			if strings.Contains(stderr, fragment) {
				return p.class
			}
		}
	}

	return classification{errors.CodeFetchFailed, "", defaultHints}
}
