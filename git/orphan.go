// Package git provides a task-oriented facade over go-git operations.
// This file contains the orphan history rewrite used by destructive code
// teardown: the entire history is replaced by a single empty commit.
package git

import (
	"context"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ReplaceWithOrphan rewrites the current branch to a single parentless commit
// with an empty tree and resets the worktree to it. The previous history
// becomes unreachable. Returns the SHA of the orphan commit.
//
// The caller is responsible for force-pushing the rewritten branch; this
// method only mutates local state.
func (r *Repo) ReplaceWithOrphan(ctx context.Context, msg string, who Signature) (string, error) {
	if msg == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}
	if who.Name == "" || who.Email == "" {
		return "", WrapError(ErrInvalidRef, "committer name and email are required")
	}

	// Read HEAD without resolving so a freshly initialized repository with an
	// unborn branch can still be rewritten.
	headRef, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", WrapError(ErrResolveFailed, "failed to resolve HEAD")
	}
	if headRef.Type() != plumbing.SymbolicReference || !headRef.Target().IsBranch() {
		return "", WrapError(ErrInvalidRef, "HEAD is not on a branch")
	}
	branchName := headRef.Target()

	// Store an empty tree object.
	emptyTree := &object.Tree{}
	treeObj := r.repo.Storer.NewEncodedObject()
	if err := emptyTree.Encode(treeObj); err != nil {
		return "", WrapError(err, "failed to encode empty tree")
	}
	treeHash, err := r.repo.Storer.SetEncodedObject(treeObj)
	if err != nil {
		return "", WrapError(err, "failed to store empty tree")
	}

	// Store the parentless commit pointing at the empty tree.
	now := time.Now()
	sig := object.Signature{Name: who.Name, Email: who.Email, When: now}
	commit := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   msg,
		TreeHash:  treeHash,
	}
	commitObj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(commitObj); err != nil {
		return "", WrapError(err, "failed to encode orphan commit")
	}
	commitHash, err := r.repo.Storer.SetEncodedObject(commitObj)
	if err != nil {
		return "", WrapError(err, "failed to store orphan commit")
	}

	// Move the branch to the orphan commit and clear the worktree.
	branchRef := plumbing.NewHashReference(branchName, commitHash)
	if err := r.repo.Storer.SetReference(branchRef); err != nil {
		return "", WrapErrorf(err, "failed to move branch %s", branchName.Short())
	}

	resetOpts := &gogit.ResetOptions{
		Commit: commitHash,
		Mode:   gogit.HardReset,
	}
	if err := r.worktree.Reset(resetOpts); err != nil {
		return "", WrapError(err, "failed to reset worktree to orphan commit")
	}

	return commitHash.String(), nil
}
