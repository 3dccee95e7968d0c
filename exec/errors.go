package exec

import (
	"errors"
	"fmt"
	osexec "os/exec"
	"strings"
)

// ExecError represents a failed command execution.
type ExecError struct {
	// Command is the full argument list, program first.
	Command []string

	// ExitCode is -1 when the process never started or was killed.
	ExitCode int

	Stdout string
	Stderr string

	// Err is the underlying error from os/exec or the context.
	Err error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	cmd := strings.Join(e.Command, " ")
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return fmt.Sprintf("command %q failed with exit code %d: %s", cmd, e.ExitCode, stderr)
	}
	if e.Err != nil {
		return fmt.Sprintf("command %q failed with exit code %d: %v", cmd, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("command %q failed with exit code %d", cmd, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the program is not installed.
func IsNotFound(err error) bool {
	return errors.Is(err, osexec.ErrNotFound)
}
