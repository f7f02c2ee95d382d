// Package git provides a task-oriented facade over go-git operations.
// This file contains synchronization operations (fetch, push).
package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// Fetch fetches changes from the specified remote. It supports pruning stale
// remote branches. Returns ErrAlreadyUpToDate if there is nothing to fetch.
//
// Context timeout/cancellation is honored during the fetch operation.
func (r *Repo) Fetch(ctx context.Context, remote string, prune bool) error {
	if remote == "" {
		remote = CanonicalRemoteName
	}

	fetchOpts := &gogit.FetchOptions{
		RemoteName: remote,
		Prune:      prune,
	}

	err := r.repo.FetchContext(ctx, fetchOpts)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return WrapError(ErrResolveFailed, "remote not found")
		}
		if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		return WrapError(err, "failed to fetch from remote")
	}

	return nil
}

// Push pushes the named branch to the specified remote.
// It supports force pushing when force is true.
// Returns ErrNotFastForward if the push would overwrite remote changes and
// force is false. Returns ErrAlreadyUpToDate if there is nothing to push;
// callers report that as success without a transferred-commit detail.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) Push(ctx context.Context, remote, branch string, force bool) error {
	if remote == "" {
		remote = CanonicalRemoteName
	}
	if branch == "" {
		return WrapError(ErrInvalidRef, "branch cannot be empty")
	}

	spec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)
	if force {
		spec = "+" + spec
	}

	pushOpts := &gogit.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(spec)},
	}

	err := r.repo.PushContext(ctx, pushOpts)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return WrapError(ErrResolveFailed, "remote not found")
		}
		if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if errors.Is(err, gogit.ErrNonFastForwardUpdate) {
			return ErrNotFastForward
		}
		return WrapError(err, "failed to push to remote")
	}

	return nil
}
