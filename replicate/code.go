package replicate

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/rs/zerolog"

	"github.com/mirrorkeep/mirrorkeep/git"
)

// PushOutcome reports one code push. UpToDate means there was nothing to
// transfer, which is still success but carries no commit detail; a transfer
// carries the short head hash.
type PushOutcome struct {
	UpToDate bool
	Detail   string
}

// PushResult pairs a push outcome with its error for multi-target pushes.
type PushResult struct {
	Outcome PushOutcome
	Err     error
}

// CodeReplicator pushes the working repository to target remote endpoints,
// idempotently managing the local remote alias for each target slot.
type CodeReplicator struct {
	repo *git.Repo
	sig  git.Signature
	log  zerolog.Logger
}

// NewCodeReplicator creates a CodeReplicator over the local working repository.
func NewCodeReplicator(repo *git.Repo, sig git.Signature, log zerolog.Logger) *CodeReplicator {
	return &CodeReplicator{repo: repo, sig: sig, log: log}
}

// EnsureRemote idempotently creates or updates the target's local remote
// alias. A target with no derivable URL is a configuration error.
func (c *CodeReplicator) EnsureRemote(ctx context.Context, target TargetConfig) error {
	url := target.RemoteURL()
	if url == "" {
		return fmt.Errorf("target %d: %w", target.ID, ErrTargetUnusable)
	}
	return c.repo.EnsureRemote(ctx, target.RemoteName(), url)
}

// Push pushes the branch to the target's remote. "Nothing to push" is
// reported as success without commit detail. Transport failures surface the
// underlying error verbatim and are never retried here; retry policy belongs
// to the caller.
func (c *CodeReplicator) Push(ctx context.Context, target TargetConfig, branch string, force bool) (PushOutcome, error) {
	if err := c.EnsureRemote(ctx, target); err != nil {
		return PushOutcome{}, err
	}

	err := c.repo.Push(ctx, target.RemoteName(), branch, force)
	if errors.Is(err, git.ErrAlreadyUpToDate) {
		return PushOutcome{UpToDate: true}, nil
	}
	if err != nil {
		return PushOutcome{}, err
	}

	detail := ""
	if head, headErr := c.repo.BranchHead(ctx, branch); headErr == nil {
		detail = git.ShortHash(head)
	}
	return PushOutcome{Detail: detail}, nil
}

// PushAll pushes the branch to every target independently; one target's
// failure never prevents pushing to the others. Results are keyed by slot id.
func (c *CodeReplicator) PushAll(ctx context.Context, targets []TargetConfig, branch string) map[int]PushResult {
	results := make(map[int]PushResult, len(targets))
	for _, target := range targets {
		outcome, err := c.Push(ctx, target, branch, false)
		if err != nil {
			c.log.Error().Err(err).Int("target", target.ID).Msg("code push failed")
		}
		results[target.ID] = PushResult{Outcome: outcome, Err: err}
	}
	return results
}

// WipeCode replaces the target repository's history with a single empty
// orphan commit by force-pushing a freshly initialized scratch repository.
// The local working copy is never touched. Returns the short hash of the
// orphan commit.
func (c *CodeReplicator) WipeCode(ctx context.Context, target TargetConfig, branch string) (string, error) {
	url := target.RemoteURL()
	if url == "" {
		return "", fmt.Errorf("target %d: %w", target.ID, ErrTargetUnusable)
	}

	scratch, err := git.Init(ctx, &git.Options{FS: memfs.New(), InitialBranch: branch})
	if err != nil {
		return "", fmt.Errorf("failed to initialize scratch repository: %w", err)
	}

	hash, err := scratch.ReplaceWithOrphan(ctx, "repository wiped", c.sig)
	if err != nil {
		return "", err
	}

	if err := scratch.EnsureRemote(ctx, "wipe-target", url); err != nil {
		return "", err
	}
	if err := scratch.Push(ctx, "wipe-target", branch, true); err != nil {
		return "", err
	}
	return git.ShortHash(hash), nil
}
