// Package exec runs local commands behind a mockable interface.
//
// The Command type wraps os/exec with a fluent, copy-on-write configuration
// API: every With* call returns a new Executor and leaves the receiver
// untouched, so a base executor can be shared between goroutines and
// specialised per call.
//
//	git := exec.NewWrapper(exec.New(exec.WithInheritEnv()), "git")
//	result, err := git.
//		WithContext(ctx).
//		WithDir(repoPath).
//		WithEnv(map[string]string{"GIT_TERMINAL_PROMPT": "0"}).
//		Run("fetch", "--prune", "origin")
//
// Output is always captured and never streamed. The rules server speaks its
// protocol on stdout, so a child process writing there would corrupt the
// session.
//
// # Errors
//
// A command that cannot be started or exits non-zero yields an *ExecError
// carrying the argument list, exit code and captured output. Callers that
// need to classify failures (authentication, missing refs, ...) inspect
// ExecError.Stderr.
//
// LookPath reports whether a binary is installed before any work starts:
//
//	if err := exec.LookPath("git"); err != nil {
//		// git is not installed
//	}
package exec
