package exec

import (
	"context"
	"time"
)

// CommandWrapper prepends a fixed program name to every Run call, which
// keeps call sites for frequently used tools such as git short.
// CommandWrapper implements Executor.
type CommandWrapper struct {
	executor Executor
	cmd      string
}

// NewWrapper creates a CommandWrapper around any Executor, including mocks.
func NewWrapper(executor Executor, cmd string) *CommandWrapper {
	return &CommandWrapper{
		executor: executor,
		cmd:      cmd,
	}
}

func (w *CommandWrapper) wrap(e Executor) Executor {
	return &CommandWrapper{executor: e, cmd: w.cmd}
}

// WithEnv adds environment variables for the command.
func (w *CommandWrapper) WithEnv(env map[string]string) Executor {
	return w.wrap(w.executor.WithEnv(env))
}

// WithDir sets the working directory for the command.
func (w *CommandWrapper) WithDir(dir string) Executor {
	return w.wrap(w.executor.WithDir(dir))
}

// WithContext sets the context for the command.
func (w *CommandWrapper) WithContext(ctx context.Context) Executor {
	return w.wrap(w.executor.WithContext(ctx))
}

// WithTimeout sets a timeout for the command.
func (w *CommandWrapper) WithTimeout(timeout time.Duration) Executor {
	return w.wrap(w.executor.WithTimeout(timeout))
}

// WithInheritEnv enables environment inheritance.
func (w *CommandWrapper) WithInheritEnv() Executor {
	return w.wrap(w.executor.WithInheritEnv())
}

// Run executes the wrapped program with the given arguments.
func (w *CommandWrapper) Run(args ...string) (*Result, error) {
	fullArgs := append([]string{w.cmd}, args...)
	return w.executor.Run(fullArgs...)
}
