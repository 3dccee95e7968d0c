package git

import "context"

// Fetcher clones and updates a local mirror of a remote repository.
//
// Implementations return PlatformErrors carrying remediation hints. They do
// not retry.
type Fetcher interface {
	// Clone creates a full clone of url at path. The parent of path must
	// exist; path itself must not.
	Clone(ctx context.Context, url, path string) error

	// Pull brings the mirror at path up to date with its remote. Tags are
	// refreshed. A checked-out branch is fast-forwarded; a detached HEAD is
	// left where it is.
	Pull(ctx context.Context, path string) error

	// Checkout switches the mirror at path to ref, which may name a branch,
	// a tag or a commit.
	Checkout(ctx context.Context, path, ref string) error
}

// Kind names a Fetcher implementation in configuration.
type Kind string

const (
	// KindCLI runs the git executable.
	KindCLI Kind = "cli"

	// KindGoGit uses the in-process go-git implementation.
	KindGoGit Kind = "gogit"
)

// NewFetcher returns the Fetcher implementation named by kind. Unknown kinds
// fall back to the CLI fetcher.
func NewFetcher(kind Kind, creds Credentials) Fetcher {
	if kind == KindGoGit {
		return NewNativeFetcher(WithCredentials(creds))
	}
	return NewCLIFetcher(WithCredentials(creds))
}
