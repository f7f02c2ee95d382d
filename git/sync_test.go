package git

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPush tests Push against a local bare target repository
func TestPush(t *testing.T) {
	t.Run("push transfers new commits", func(t *testing.T) {
		tr := setupDiskTestRepo(t)
		target := setupBareTarget(t)
		tr.commitFile(t, "payload.txt", "v1", "initial state")

		require.NoError(t, tr.repo.EnsureRemote(tr.ctx, "mirror-1", target))

		err := tr.repo.Push(tr.ctx, "mirror-1", tr.currentBranch(t), false)
		require.NoError(t, err)
	})

	t.Run("repeat push reports already up to date", func(t *testing.T) {
		tr := setupDiskTestRepo(t)
		target := setupBareTarget(t)
		tr.commitFile(t, "payload.txt", "v1", "initial state")

		require.NoError(t, tr.repo.EnsureRemote(tr.ctx, "mirror-1", target))
		branch := tr.currentBranch(t)

		require.NoError(t, tr.repo.Push(tr.ctx, "mirror-1", branch, false))

		err := tr.repo.Push(tr.ctx, "mirror-1", branch, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAlreadyUpToDate), "second push should be a no-op")
	})

	t.Run("push to missing remote fails with resolve error", func(t *testing.T) {
		tr := setupDiskTestRepo(t)
		tr.commitFile(t, "payload.txt", "v1", "initial state")

		err := tr.repo.Push(tr.ctx, "nonexistent", tr.currentBranch(t), false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrResolveFailed))
	})

	t.Run("push with empty branch is rejected", func(t *testing.T) {
		tr := setupDiskTestRepo(t)

		err := tr.repo.Push(tr.ctx, "mirror-1", "", false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRef))
	})

	t.Run("force push after history rewrite", func(t *testing.T) {
		tr := setupDiskTestRepo(t)
		target := setupBareTarget(t)
		tr.commitFile(t, "payload.txt", "v1", "initial state")

		require.NoError(t, tr.repo.EnsureRemote(tr.ctx, "mirror-1", target))
		branch := tr.currentBranch(t)
		require.NoError(t, tr.repo.Push(tr.ctx, "mirror-1", branch, false))

		_, err := tr.repo.ReplaceWithOrphan(tr.ctx, "wiped", testSignature)
		require.NoError(t, err)

		// The rewritten branch is not a fast-forward of the target.
		err = tr.repo.Push(tr.ctx, "mirror-1", branch, false)
		require.Error(t, err)

		err = tr.repo.Push(tr.ctx, "mirror-1", branch, true)
		require.NoError(t, err, "force push should succeed after rewrite")
	})
}

// TestFetch tests the Fetch method
func TestFetch(t *testing.T) {
	t.Run("fetch from missing remote fails with resolve error", func(t *testing.T) {
		tr := setupTestRepo(t)

		err := tr.repo.Fetch(tr.ctx, "nonexistent", false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrResolveFailed))
	})

	t.Run("fetch already up to date", func(t *testing.T) {
		tr := setupDiskTestRepo(t)
		target := setupBareTarget(t)
		tr.commitFile(t, "payload.txt", "v1", "initial state")

		require.NoError(t, tr.repo.EnsureRemote(tr.ctx, CanonicalRemoteName, target))
		branch := tr.currentBranch(t)
		require.NoError(t, tr.repo.Push(tr.ctx, CanonicalRemoteName, branch, false))

		err := tr.repo.Fetch(tr.ctx, CanonicalRemoteName, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAlreadyUpToDate))
	})
}
