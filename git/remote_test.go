package git

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnsureRemote tests the EnsureRemote method
func TestEnsureRemote(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		url      string
		setup    func(t *testing.T, tr *testRepo)
		validate func(t *testing.T, tr *testRepo, err error)
	}{
		{
			name:   "creates missing remote",
			remote: "mirror-1",
			url:    "https://example.com/a/b.git",
			validate: func(t *testing.T, tr *testRepo, err error) {
				require.NoError(t, err)
				url, err := tr.repo.RemoteURL(tr.ctx, "mirror-1")
				require.NoError(t, err)
				assert.Equal(t, "https://example.com/a/b.git", url)
			},
		},
		{
			name:   "is idempotent for unchanged URL",
			remote: "mirror-1",
			url:    "https://example.com/a/b.git",
			setup: func(t *testing.T, tr *testRepo) {
				require.NoError(t, tr.repo.EnsureRemote(tr.ctx, "mirror-1", "https://example.com/a/b.git"))
			},
			validate: func(t *testing.T, tr *testRepo, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:   "updates URL in place on rotation",
			remote: "mirror-1",
			url:    "https://rotated@example.com/a/b.git",
			setup: func(t *testing.T, tr *testRepo) {
				require.NoError(t, tr.repo.EnsureRemote(tr.ctx, "mirror-1", "https://stale@example.com/a/b.git"))
			},
			validate: func(t *testing.T, tr *testRepo, err error) {
				require.NoError(t, err)
				url, err := tr.repo.RemoteURL(tr.ctx, "mirror-1")
				require.NoError(t, err)
				assert.Equal(t, "https://rotated@example.com/a/b.git", url)
			},
		},
		{
			name:   "rejects empty remote name",
			remote: "",
			url:    "https://example.com/a/b.git",
			validate: func(t *testing.T, tr *testRepo, err error) {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRef))
			},
		},
		{
			name:   "rejects empty URL",
			remote: "mirror-1",
			url:    "",
			validate: func(t *testing.T, tr *testRepo, err error) {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRef))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := setupTestRepo(t)
			if tt.setup != nil {
				tt.setup(t, tr)
			}
			err := tr.repo.EnsureRemote(tr.ctx, tt.remote, tt.url)
			tt.validate(t, tr, err)
		})
	}
}

func TestRemoteURLMissingRemote(t *testing.T) {
	tr := setupTestRepo(t)

	_, err := tr.repo.RemoteURL(tr.ctx, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteMissing))
}
