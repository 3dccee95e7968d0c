package exec

import (
	"bytes"
	"context"
	osexec "os/exec"
	"time"
)

// Command is the os/exec backed implementation of Executor.
type Command struct {
	settings settings
}

// New creates a Command with the given base options.
func New(opts ...Option) *Command {
	s := newSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Command{settings: s}
}

func (c *Command) derive(fn func(*settings)) Executor {
	s := c.settings.clone()
	fn(&s)
	return &Command{settings: s}
}

// WithEnv adds environment variables for the command.
func (c *Command) WithEnv(env map[string]string) Executor {
	return c.derive(func(s *settings) { s.addEnv(env) })
}

// WithDir sets the working directory for the command.
func (c *Command) WithDir(dir string) Executor {
	return c.derive(func(s *settings) { s.dir = dir })
}

// WithContext sets the context for the command.
func (c *Command) WithContext(ctx context.Context) Executor {
	return c.derive(func(s *settings) { s.ctx = ctx })
}

// WithTimeout sets a timeout for the command.
func (c *Command) WithTimeout(timeout time.Duration) Executor {
	return c.derive(func(s *settings) { s.timeout = timeout })
}

// WithInheritEnv enables environment inheritance.
func (c *Command) WithInheritEnv() Executor {
	return c.derive(func(s *settings) { s.inheritEnv = true })
}

// Run executes the command with the given arguments.
func (c *Command) Run(args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, &ExecError{
			Command:  args,
			ExitCode: -1,
			Err:      osexec.ErrNotFound,
		}
	}

	ctx := c.settings.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if c.settings.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.settings.dir
	cmd.Env = c.settings.environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return result, &ExecError{
			Command:  args,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	return result, nil
}

// LookPath reports whether the named binary can be found in PATH.
// The returned error is an *ExecError wrapping exec.ErrNotFound.
func LookPath(name string) error {
	if _, err := osexec.LookPath(name); err != nil {
		return &ExecError{
			Command:  []string{name},
			ExitCode: -1,
			Err:      err,
		}
	}
	return nil
}
