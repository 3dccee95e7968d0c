package git

import (
	"github.com/mattcknight/cursor-rules-mcp/exec"
)

// Option configures a fetcher.
type Option func(*options)

type options struct {
	creds    Credentials
	executor exec.Executor
	lookPath func(string) error
	remote   string
}

func newOptions(opts []Option) *options {
	o := &options{
		lookPath: exec.LookPath,
		remote:   "origin",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCredentials sets the credentials used to reach the remote.
func WithCredentials(creds Credentials) Option {
	return func(o *options) {
		o.creds = creds
	}
}

// WithExecutor replaces the executor used by the CLI fetcher. Tests pass a
// mock here.
func WithExecutor(e exec.Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithLookPath replaces the check that the git binary is installed.
func WithLookPath(fn func(string) error) Option {
	return func(o *options) {
		o.lookPath = fn
	}
}

// WithRemoteName sets the remote to fetch from. Defaults to "origin".
func WithRemoteName(name string) Option {
	return func(o *options) {
		o.remote = name
	}
}
