// Package git provides a task-oriented facade over go-git operations.
// This file contains head and ancestry inspection used by the divergence
// classifier.
package git

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
)

// ShortHashLen is the length used when abbreviating commit hashes for
// human-facing detail strings.
const ShortHashLen = 8

// ShortHash abbreviates a full commit hash for display. Hashes shorter than
// ShortHashLen are returned unchanged.
func ShortHash(hash string) string {
	if len(hash) <= ShortHashLen {
		return hash
	}
	return hash[:ShortHashLen]
}

// Head returns the commit hash the repository HEAD currently points at.
func (r *Repo) Head(ctx context.Context) (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", WrapError(ErrResolveFailed, "failed to resolve HEAD")
	}
	return ref.Hash().String(), nil
}

// BranchHead returns the commit hash of a local branch.
func (r *Repo) BranchHead(ctx context.Context, branch string) (string, error) {
	if branch == "" {
		return "", WrapError(ErrInvalidRef, "branch cannot be empty")
	}

	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return "", WrapErrorf(ErrResolveFailed, "failed to resolve branch %q", branch)
	}
	return ref.Hash().String(), nil
}

// RemoteBranchHead returns the commit hash of a remote-tracking branch
// (refs/remotes/<remote>/<branch>), i.e. the last fetched canonical state.
func (r *Repo) RemoteBranchHead(ctx context.Context, remote, branch string) (string, error) {
	if remote == "" {
		remote = CanonicalRemoteName
	}
	if branch == "" {
		return "", WrapError(ErrInvalidRef, "branch cannot be empty")
	}

	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remote, branch), true)
	if err != nil {
		return "", WrapErrorf(ErrResolveFailed, "failed to resolve remote branch %s/%s", remote, branch)
	}
	return ref.Hash().String(), nil
}

// IsAncestor reports whether the commit identified by ancestor is an ancestor
// of the commit identified by descendant. A commit is not considered its own
// ancestor; callers check hash equality first.
func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	ancestorCommit, err := r.repo.CommitObject(plumbing.NewHash(ancestor))
	if err != nil {
		return false, WrapErrorf(ErrResolveFailed, "failed to load commit %s", ShortHash(ancestor))
	}

	descendantCommit, err := r.repo.CommitObject(plumbing.NewHash(descendant))
	if err != nil {
		return false, WrapErrorf(ErrResolveFailed, "failed to load commit %s", ShortHash(descendant))
	}

	ok, err := ancestorCommit.IsAncestor(descendantCommit)
	if err != nil {
		return false, WrapError(err, "failed to walk commit ancestry")
	}
	return ok, nil
}
