package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorkeep/mirrorkeep/git"
)

// buildHistory creates a repository with a linear history c1 -> c2 -> c3 and
// a commit d1 that diverges from c1. HEAD is left at c3.
func buildHistory(t *testing.T) (repo *git.Repo, c1, c2, c3, d1 string) {
	t.Helper()

	ctx := context.Background()
	fs := memfs.New()
	repo, err := git.Init(ctx, &git.Options{FS: fs})
	require.NoError(t, err)

	sig := git.Signature{Name: "test", Email: "test@example.com"}

	commit := func(name, content, msg string) string {
		f, err := fs.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		hash, err := repo.CommitAll(ctx, msg, sig)
		require.NoError(t, err)
		return hash
	}

	c1 = commit("a.txt", "1", "c1")
	c2 = commit("a.txt", "2", "c2")
	c3 = commit("a.txt", "3", "c3")

	require.NoError(t, repo.HardReset(ctx, c1))
	d1 = commit("b.txt", "x", "d1")

	require.NoError(t, repo.HardReset(ctx, c3))
	return repo, c1, c2, c3, d1
}

// TestClassify tests the divergence classifier over real commit graphs
func TestClassify(t *testing.T) {
	repo, c1, c2, c3, d1 := buildHistory(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		local     string
		canonical string
		want      Classification
	}{
		{name: "equal heads are up to date", local: c1, canonical: c1, want: ClassUpToDate},
		{name: "local ancestor of canonical is behind", local: c1, canonical: c3, want: ClassBehind},
		{name: "canonical ancestor of local is ahead", local: c2, canonical: c1, want: ClassAhead},
		{name: "mutual non-ancestry is diverged", local: c2, canonical: d1, want: ClassDiverged},
		{name: "diverged is symmetric", local: d1, canonical: c3, want: ClassDiverged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(ctx, repo, tt.local, tt.canonical)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyUnresolved(t *testing.T) {
	repo, c1, _, _, _ := buildHistory(t)
	ctx := context.Background()

	got, err := Classify(ctx, repo, "", c1)
	require.Error(t, err)
	assert.Equal(t, ClassError, got)
	assert.True(t, errors.Is(err, ErrUnresolvedRef))

	got, err = Classify(ctx, repo, c1, "0000000000000000000000000000000000000000")
	require.Error(t, err)
	assert.Equal(t, ClassError, got)
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "up-to-date", ClassUpToDate.String())
	assert.Equal(t, "behind", ClassBehind.String())
	assert.Equal(t, "ahead", ClassAhead.String())
	assert.Equal(t, "diverged", ClassDiverged.String())
	assert.Equal(t, "error", ClassError.String())
	assert.Equal(t, "unknown", Classification(99).String())
}
