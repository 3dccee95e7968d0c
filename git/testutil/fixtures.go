// Package testutil builds on-disk git repositories for tests. Repositories
// are created with go-git, so no git executable is needed to set them up.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Test author information.
const (
	TestAuthor = "Test User"
	TestEmail  = "test@example.com"
)

// Repo is a fixture repository that stands in for a remote. Tests clone it
// by passing Path (or URL) as the repository URL.
type Repo struct {
	Path string
	repo *gogit.Repository
}

// NewRepo creates a repository on the main branch with an initial commit
// containing files (path to content).
func NewRepo(tb testing.TB, files map[string]string) *Repo {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "remote")
	repo, err := gogit.PlainInitWithOptions(path, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(tb, err)

	r := &Repo{Path: path, repo: repo}
	r.Commit(tb, "Initial commit", files)
	return r
}

// URL returns a file:// URL for the repository.
func (r *Repo) URL() string {
	return "file://" + filepath.ToSlash(r.Path)
}

// Commit writes files and commits them on the current branch. An empty
// content string deletes the file. Returns the commit hash.
func (r *Repo) Commit(tb testing.TB, message string, files map[string]string) string {
	tb.Helper()

	wt, err := r.repo.Worktree()
	require.NoError(tb, err)

	for name, content := range files {
		full := filepath.Join(r.Path, filepath.FromSlash(name))
		if content == "" {
			_, err := wt.Remove(name)
			require.NoError(tb, err)
			continue
		}
		require.NoError(tb, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(tb, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(tb, err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author:            signature(),
		AllowEmptyCommits: true,
	})
	require.NoError(tb, err)
	return hash.String()
}

// Tag creates a lightweight tag at HEAD.
func (r *Repo) Tag(tb testing.TB, name string) {
	tb.Helper()

	head, err := r.repo.Head()
	require.NoError(tb, err)

	_, err = r.repo.CreateTag(name, head.Hash(), nil)
	require.NoError(tb, err)
}

// AnnotatedTag creates an annotated tag at HEAD.
func (r *Repo) AnnotatedTag(tb testing.TB, name, message string) {
	tb.Helper()

	head, err := r.repo.Head()
	require.NoError(tb, err)

	_, err = r.repo.CreateTag(name, head.Hash(), &gogit.CreateTagOptions{
		Tagger:  signature(),
		Message: message,
	})
	require.NoError(tb, err)
}

// Branch creates a branch at HEAD and checks it out.
func (r *Repo) Branch(tb testing.TB, name string) {
	tb.Helper()

	wt, err := r.repo.Worktree()
	require.NoError(tb, err)

	require.NoError(tb, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}))
}

// Switch checks out an existing branch.
func (r *Repo) Switch(tb testing.TB, name string) {
	tb.Helper()

	wt, err := r.repo.Worktree()
	require.NoError(tb, err)

	require.NoError(tb, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
	}))
}

// Head returns the hash HEAD points at.
func (r *Repo) Head(tb testing.TB) string {
	tb.Helper()

	head, err := r.repo.Head()
	require.NoError(tb, err)
	return head.Hash().String()
}

// HeadOf returns the commit checked out in the repository at path.
func HeadOf(tb testing.TB, path string) string {
	tb.Helper()

	repo, err := gogit.PlainOpen(path)
	require.NoError(tb, err)

	head, err := repo.Head()
	require.NoError(tb, err)
	return head.Hash().String()
}

// BranchOf returns the short branch name checked out at path, or "" for a
// detached HEAD.
func BranchOf(tb testing.TB, path string) string {
	tb.Helper()

	repo, err := gogit.PlainOpen(path)
	require.NoError(tb, err)

	head, err := repo.Head()
	require.NoError(tb, err)
	if !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  TestAuthor,
		Email: TestEmail,
		When:  time.Now(),
	}
}
