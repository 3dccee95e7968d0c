package git

import (
	"context"
	stderrors "errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// NativeFetcher implements Fetcher in-process with go-git. It needs no git
// executable and authenticates with explicit Credentials only.
type NativeFetcher struct {
	creds  Credentials
	remote string
}

// NewNativeFetcher creates a NativeFetcher.
func NewNativeFetcher(opts ...Option) *NativeFetcher {
	o := newOptions(opts)
	return &NativeFetcher{
		creds:  o.creds,
		remote: o.remote,
	}
}

// Clone implements Fetcher.
func (f *NativeFetcher) Clone(ctx context.Context, url, path string) error {
	auth, err := f.creds.AuthMethod(url)
	if err != nil {
		return err
	}

	_, err = gogit.PlainCloneContext(ctx, path, false, &gogit.CloneOptions{
		URL:        url,
		Auth:       auth,
		RemoteName: f.remote,
		Tags:       gogit.AllTags,
	})
	if err != nil {
		return wrapError(err, "failed to clone repository")
	}
	return nil
}

// Pull implements Fetcher. A checked-out branch is hard reset to its
// remote-tracking counterpart, which for an untouched mirror is the same as a
// fast-forward.
func (f *NativeFetcher) Pull(ctx context.Context, path string) error {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return wrapError(err, "failed to open repository")
	}

	if err := f.fetch(ctx, repo); err != nil {
		return wrapError(err, "failed to fetch repository")
	}

	head, err := repo.Head()
	if err != nil {
		return wrapError(err, "failed to read HEAD")
	}
	if !head.Name().IsBranch() {
		return nil
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(f.remote, head.Name().Short()), true)
	if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
		// Local-only branch, nothing to follow.
		return nil
	}
	if err != nil {
		return wrapError(err, "failed to resolve upstream")
	}

	if err := resetTo(repo, remoteRef.Hash()); err != nil {
		return wrapError(err, "failed to fast-forward repository")
	}
	return nil
}

// Checkout implements Fetcher. ref is tried as a local branch, then as a
// remote branch (creating a local branch), then as a tag, then as a commit.
func (f *NativeFetcher) Checkout(_ context.Context, path, ref string) error {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return wrapError(err, "failed to open repository")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return wrapError(err, "failed to open worktree")
	}

	branch := plumbing.NewBranchReferenceName(ref)
	remoteBranch := plumbing.NewRemoteReferenceName(f.remote, ref)

	if _, err := repo.Reference(branch, true); err == nil {
		if err := wt.Checkout(&gogit.CheckoutOptions{Branch: branch, Force: true}); err != nil {
			return wrapError(err, "failed to checkout "+ref)
		}
		if remote, err := repo.Reference(remoteBranch, true); err == nil {
			if err := resetTo(repo, remote.Hash()); err != nil {
				return wrapError(err, "failed to checkout "+ref)
			}
		}
		return nil
	}

	if remote, err := repo.Reference(remoteBranch, true); err == nil {
		err := wt.Checkout(&gogit.CheckoutOptions{
			Branch: branch,
			Hash:   remote.Hash(),
			Create: true,
			Force:  true,
		})
		if err != nil {
			return wrapError(err, "failed to checkout "+ref)
		}
		return nil
	}

	hash, err := resolveCommit(repo, ref)
	if err != nil {
		return wrapError(err, "failed to checkout "+ref)
	}

	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return wrapError(err, "failed to checkout "+ref)
	}
	return nil
}

func (f *NativeFetcher) fetch(ctx context.Context, repo *gogit.Repository) error {
	remote, err := repo.Remote(f.remote)
	if err != nil {
		return err
	}

	var url string
	if urls := remote.Config().URLs; len(urls) > 0 {
		url = urls[0]
	}

	auth, err := f.creds.AuthMethod(url)
	if err != nil {
		return err
	}

	err = repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: f.remote,
		Auth:       auth,
		RefSpecs: []config.RefSpec{
			config.RefSpec("+refs/heads/*:refs/remotes/" + f.remote + "/*"),
			config.RefSpec("+refs/tags/*:refs/tags/*"),
		},
		Prune: true,
		Force: true,
	})
	if stderrors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// resolveCommit resolves a tag (annotated or lightweight) or a commit hash.
func resolveCommit(repo *gogit.Repository, ref string) (plumbing.Hash, error) {
	if tag, err := repo.Tag(ref); err == nil {
		if annotated, err := repo.TagObject(tag.Hash()); err == nil {
			commit, err := annotated.Commit()
			if err != nil {
				return plumbing.ZeroHash, err
			}
			return commit.Hash, nil
		}
		return tag.Hash(), nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *hash, nil
}

func resetTo(repo *gogit.Repository, hash plumbing.Hash) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Reset(&gogit.ResetOptions{Commit: hash, Mode: gogit.HardReset})
}

var _ Fetcher = (*NativeFetcher)(nil)
