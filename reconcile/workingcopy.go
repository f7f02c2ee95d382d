package reconcile

import (
	"context"
	"errors"

	"github.com/mirrorkeep/mirrorkeep/git"
)

// WorkingCopy is the surface of the local replica the reconciler operates on.
// The production implementation wraps a git.Repo; tests substitute fakes.
type WorkingCopy interface {
	// Fetch updates remote-tracking refs from the canonical upstream.
	// A fetch with nothing new is not an error.
	Fetch(ctx context.Context) error

	// Head returns the local head commit hash.
	Head(ctx context.Context) (string, error)

	// CanonicalHead returns the last fetched canonical head commit hash.
	CanonicalHead(ctx context.Context) (string, error)

	// IsAncestor reports whether ancestor precedes descendant.
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)

	// HardReset discards local state and moves the branch to the given hash.
	HardReset(ctx context.Context, hash string) error

	// CommitAll stages and commits any local output. Returns the new commit
	// hash, or "" when the worktree was clean.
	CommitAll(ctx context.Context, msg string) (string, error)

	// Push pushes the working branch upstream. Pushing with nothing to send
	// is not an error.
	Push(ctx context.Context, force bool) error
}

// repoWorkingCopy adapts a git.Repo to the WorkingCopy interface, pinning the
// canonical remote and working branch.
type repoWorkingCopy struct {
	repo   *git.Repo
	branch string
	sig    git.Signature
}

// NewWorkingCopy wraps a git.Repo as the reconciler's working copy.
// The branch is the working branch reconciled against the canonical remote.
func NewWorkingCopy(repo *git.Repo, branch string, sig git.Signature) WorkingCopy {
	return &repoWorkingCopy{
		repo:   repo,
		branch: branch,
		sig:    sig,
	}
}

func (w *repoWorkingCopy) Fetch(ctx context.Context) error {
	err := w.repo.Fetch(ctx, git.CanonicalRemoteName, false)
	if errors.Is(err, git.ErrAlreadyUpToDate) {
		return nil
	}
	return err
}

func (w *repoWorkingCopy) Head(ctx context.Context) (string, error) {
	return w.repo.BranchHead(ctx, w.branch)
}

func (w *repoWorkingCopy) CanonicalHead(ctx context.Context) (string, error) {
	return w.repo.RemoteBranchHead(ctx, git.CanonicalRemoteName, w.branch)
}

func (w *repoWorkingCopy) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	return w.repo.IsAncestor(ctx, ancestor, descendant)
}

func (w *repoWorkingCopy) HardReset(ctx context.Context, hash string) error {
	return w.repo.ResetBranchTo(ctx, hash)
}

func (w *repoWorkingCopy) CommitAll(ctx context.Context, msg string) (string, error) {
	hash, err := w.repo.CommitAll(ctx, msg, w.sig)
	if errors.Is(err, git.ErrNoChanges) {
		return "", nil
	}
	return hash, err
}

func (w *repoWorkingCopy) Push(ctx context.Context, force bool) error {
	err := w.repo.Push(ctx, git.CanonicalRemoteName, w.branch, force)
	if errors.Is(err, git.ErrAlreadyUpToDate) {
		return nil
	}
	return err
}
