package exec

import (
	"context"
	"time"
)

// Executor runs commands. Configuration methods return a new Executor and
// never modify the receiver.
type Executor interface {
	// WithEnv adds environment variables for the command. Later values
	// override earlier ones with the same key.
	WithEnv(env map[string]string) Executor

	// WithDir sets the working directory for the command.
	WithDir(dir string) Executor

	// WithContext sets the context for the command. The process is killed
	// when the context is done.
	WithContext(ctx context.Context) Executor

	// WithTimeout bounds the command's runtime. Zero disables the bound.
	WithTimeout(timeout time.Duration) Executor

	// WithInheritEnv starts from the parent process environment.
	WithInheritEnv() Executor

	// Run executes the command with the given arguments.
	// args[0] is the program, the rest are its arguments.
	Run(args ...string) (*Result, error)
}

// Result is the captured outcome of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Option configures a Command at construction time.
type Option func(*settings)

// WithEnv returns an Option that sets base environment variables.
func WithEnv(env map[string]string) Option {
	return func(s *settings) {
		s.addEnv(env)
	}
}

// WithDir returns an Option that sets the base working directory.
func WithDir(dir string) Option {
	return func(s *settings) {
		s.dir = dir
	}
}

// WithTimeout returns an Option that sets a base timeout for every command.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// WithInheritEnv returns an Option that makes every command start from the
// parent process environment.
func WithInheritEnv() Option {
	return func(s *settings) {
		s.inheritEnv = true
	}
}
