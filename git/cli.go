package git

import (
	"context"
	"sync"

	"github.com/mattcknight/cursor-rules-mcp/exec"
)

// CLIFetcher implements Fetcher by running the git executable.
//
// It honours the user's git configuration, credential helpers and ssh-agent.
// Interactive prompts are disabled: stdin belongs to the protocol transport.
type CLIFetcher struct {
	git      exec.Executor
	lookPath func(string) error
	remote   string

	checkOnce sync.Once
	checkErr  error
}

// NewCLIFetcher creates a CLIFetcher.
func NewCLIFetcher(opts ...Option) *CLIFetcher {
	o := newOptions(opts)

	base := o.executor
	if base == nil {
		base = exec.New(exec.WithInheritEnv())
	}

	env := o.creds.gitEnv()
	env["GIT_TERMINAL_PROMPT"] = "0"
	env["GCM_INTERACTIVE"] = "never"
	env["LC_ALL"] = "C"

	return &CLIFetcher{
		git:      exec.NewWrapper(base, "git").WithEnv(env),
		lookPath: o.lookPath,
		remote:   o.remote,
	}
}

// available reports whether git is installed. The lookup runs once.
func (f *CLIFetcher) available() error {
	f.checkOnce.Do(func() {
		if err := f.lookPath("git"); err != nil {
			f.checkErr = wrapError(err, "git is not available")
		}
	})
	return f.checkErr
}

func (f *CLIFetcher) run(ctx context.Context, dir string, args ...string) (*exec.Result, error) {
	if err := f.available(); err != nil {
		return nil, err
	}
	e := f.git.WithContext(ctx)
	if dir != "" {
		e = e.WithDir(dir)
	}
	return e.Run(args...)
}

// Clone implements Fetcher.
func (f *CLIFetcher) Clone(ctx context.Context, url, path string) error {
	if _, err := f.run(ctx, "", "clone", "--quiet", "--origin", f.remote, "--", url, path); err != nil {
		return wrapError(err, "failed to clone repository")
	}
	return nil
}

// Pull implements Fetcher. It fetches with tags and pruning, then
// fast-forwards the current branch when one is checked out and tracks an
// upstream.
func (f *CLIFetcher) Pull(ctx context.Context, path string) error {
	if _, err := f.run(ctx, path, "fetch", "--quiet", "--tags", "--prune", "--force", f.remote); err != nil {
		return wrapError(err, "failed to fetch repository")
	}

	if _, err := f.run(ctx, path, "symbolic-ref", "--quiet", "HEAD"); err != nil {
		// Detached HEAD: the mirror is pinned to a tag or commit.
		if ctx.Err() != nil {
			return wrapError(ctx.Err(), "failed to fetch repository")
		}
		return nil
	}

	if _, err := f.run(ctx, path, "rev-parse", "--quiet", "--verify", "@{upstream}"); err != nil {
		if ctx.Err() != nil {
			return wrapError(ctx.Err(), "failed to fetch repository")
		}
		return nil
	}

	if _, err := f.run(ctx, path, "merge", "--quiet", "--ff-only", "@{upstream}"); err != nil {
		return wrapError(err, "failed to fast-forward repository")
	}
	return nil
}

// Checkout implements Fetcher. Branch names that only exist on the remote
// get a local tracking branch.
func (f *CLIFetcher) Checkout(ctx context.Context, path, ref string) error {
	if _, err := f.run(ctx, path, "checkout", "--quiet", ref, "--"); err != nil {
		return wrapError(err, "failed to checkout "+ref)
	}
	return nil
}

var _ Fetcher = (*CLIFetcher)(nil)
