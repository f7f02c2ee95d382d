package git

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

var testSignature = Signature{Name: "test", Email: "test@example.com"}

// testRepo is a helper struct that contains a test repository and its filesystem
type testRepo struct {
	repo *Repo
	fs   billy.Filesystem
	ctx  context.Context
}

// setupTestRepo creates a new test repository on an in-memory filesystem
func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	memFS := memfs.New()

	opts := Options{
		FS:      memFS,
		Workdir: ".",
	}

	repo, err := Init(ctx, &opts)
	require.NoError(t, err, "failed to initialize test repository")
	require.NotNil(t, repo, "repository should not be nil")

	return &testRepo{
		repo: repo,
		fs:   memFS,
		ctx:  ctx,
	}
}

// setupDiskTestRepo creates a test repository on the OS filesystem so local
// path remotes can be pushed to and fetched from.
func setupDiskTestRepo(t *testing.T) *testRepo {
	t.Helper()

	ctx := context.Background()
	diskFS := osfs.New(t.TempDir())

	opts := Options{
		FS:      diskFS,
		Workdir: ".",
	}

	repo, err := Init(ctx, &opts)
	require.NoError(t, err, "failed to initialize test repository")

	return &testRepo{
		repo: repo,
		fs:   diskFS,
		ctx:  ctx,
	}
}

// setupBareTarget creates a bare repository on disk and returns its path,
// usable as a local-path remote URL.
func setupBareTarget(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, true)
	require.NoError(t, err, "failed to initialize bare target repository")

	return dir
}

// commitFile writes content to a file and commits it, returning the commit hash
func (tr *testRepo) commitFile(t *testing.T, name, content, msg string) string {
	t.Helper()

	f, err := tr.fs.Create(name)
	require.NoError(t, err, "failed to create file")

	_, err = f.Write([]byte(content))
	require.NoError(t, err, "failed to write file")
	require.NoError(t, f.Close(), "failed to close file")

	hash, err := tr.repo.CommitAll(tr.ctx, msg, testSignature)
	require.NoError(t, err, "failed to commit file")

	return hash
}

// setRemoteRef sets a remote-tracking reference to the given hash, simulating
// a completed fetch from the canonical upstream.
func (tr *testRepo) setRemoteRef(t *testing.T, remote, branch, hash string) {
	t.Helper()

	ref := plumbing.NewHashReference(
		plumbing.NewRemoteReferenceName(remote, branch),
		plumbing.NewHash(hash),
	)
	require.NoError(t, tr.repo.repo.Storer.SetReference(ref), "failed to set remote ref")
}

// currentBranch returns the short name of the branch HEAD points at
func (tr *testRepo) currentBranch(t *testing.T) string {
	t.Helper()

	head, err := tr.repo.repo.Head()
	require.NoError(t, err, "failed to get HEAD")

	return head.Name().Short()
}
