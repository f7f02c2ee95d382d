// Package git provides a task-oriented facade over go-git operations.
// This file contains worktree mutation (stage-all commit, hard reset).
package git

import (
	"context"
	"errors"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitAll stages every modified, deleted, and untracked file and creates a
// commit with the given message. It returns the SHA of the new commit.
// Returns ErrNoChanges when the worktree is clean; callers treat that as a
// benign outcome.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) CommitAll(ctx context.Context, msg string, who Signature) (string, error) {
	if msg == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}
	if who.Name == "" || who.Email == "" {
		return "", WrapError(ErrInvalidRef, "committer name and email are required")
	}

	if err := r.worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", WrapError(err, "failed to stage changes")
	}

	status, err := r.worktree.Status()
	if err != nil {
		return "", WrapError(err, "failed to get worktree status")
	}

	staged := 0
	for _, fileStatus := range status {
		if fileStatus.Staging != gogit.Untracked && fileStatus.Staging != gogit.Unmodified {
			staged++
		}
	}
	if staged == 0 {
		return "", ErrNoChanges
	}

	now := time.Now()
	commitOpts := &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  who.Name,
			Email: who.Email,
			When:  now,
		},
		Committer: &object.Signature{
			Name:  who.Name,
			Email: who.Email,
			When:  now,
		},
	}

	hash, err := r.worktree.Commit(msg, commitOpts)
	if err != nil {
		if errors.Is(err, gogit.ErrEmptyCommit) {
			return "", ErrNoChanges
		}
		return "", WrapError(err, "failed to create commit")
	}

	return hash.String(), nil
}

// HardReset moves HEAD and the worktree to the given commit, discarding any
// local changes and divergent history.
//
// Context timeout/cancellation is honored during the operation.
func (r *Repo) HardReset(ctx context.Context, hash string) error {
	if hash == "" {
		return WrapError(ErrInvalidRef, "commit hash cannot be empty")
	}

	resetOpts := &gogit.ResetOptions{
		Commit: plumbing.NewHash(hash),
		Mode:   gogit.HardReset,
	}
	if err := r.worktree.Reset(resetOpts); err != nil {
		return WrapErrorf(err, "failed to hard reset to %s", ShortHash(hash))
	}

	return nil
}

// ResetBranchTo moves the current branch reference and worktree to the given
// commit hash. It is HardReset with the additional guarantee that the branch
// ref itself follows, which matters after fetches that only updated
// remote-tracking refs.
func (r *Repo) ResetBranchTo(ctx context.Context, hash string) error {
	if err := r.HardReset(ctx, hash); err != nil {
		return err
	}

	head, err := r.repo.Head()
	if err != nil {
		return WrapError(ErrResolveFailed, "failed to resolve HEAD")
	}
	if !head.Name().IsBranch() {
		return nil
	}

	ref := plumbing.NewHashReference(head.Name(), plumbing.NewHash(hash))
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return WrapErrorf(err, "failed to move branch %s", head.Name().Short())
	}
	return nil
}
