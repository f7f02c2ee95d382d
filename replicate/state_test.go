package replicate

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_EnsureTarget(t *testing.T) {
	state := NewState()
	target := TargetConfig{ID: 1, Kind: KindGitHostingAPI, Repo: "org/mirror"}

	ts := state.EnsureTarget(target)
	require.NotNil(t, ts)
	assert.Equal(t, RoleSecondary, ts.Role)
	assert.Equal(t, HealthUnknown, ts.Health)

	// Re-ensuring the same id never duplicates.
	again := state.EnsureTarget(target)
	assert.Same(t, ts, again)
	assert.Len(t, state.Targets, 1)

	// A re-pointed slot keeps its record but refreshes the address.
	moved := state.EnsureTarget(TargetConfig{ID: 1, Kind: KindGitHostingAPI, Repo: "org/elsewhere"})
	assert.Same(t, ts, moved)
	assert.Equal(t, "org/elsewhere", ts.Repo)
}

func TestTargetStatus_Layer(t *testing.T) {
	ts := &TargetStatus{ID: 1}

	code := ts.Layer(LayerCode)
	require.NotNil(t, code)
	assert.Equal(t, StatusUnknown, code.Status)

	assert.Same(t, code, ts.Layer(LayerCode))
}

func TestSyncStatus_MarkOKAndFailed(t *testing.T) {
	var st SyncStatus

	st.MarkOK("5/5", "fp-1")
	assert.Equal(t, StatusOK, st.Status)
	assert.Equal(t, "5/5", st.Detail)
	assert.Equal(t, "fp-1", st.Fingerprint)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.LastSyncAt)

	st.MarkFailed("boom")
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "boom", st.LastError)
	// A failed sync keeps the last good fingerprint.
	assert.Equal(t, "fp-1", st.Fingerprint)

	// MarkOK with an empty fingerprint keeps the previous one.
	st.MarkOK("5/5", "")
	assert.Equal(t, "fp-1", st.Fingerprint)
	assert.Empty(t, st.LastError)
}

func TestStore_LoadMissingReturnsEmptyState(t *testing.T) {
	store := NewStore(memfs.New(), "state/replication.json")

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, RolePrimary, state.SelfRole)
	assert.Empty(t, state.Targets)
}

func TestStore_RoundTrip(t *testing.T) {
	fs := memfs.New()
	store := NewStore(fs, "state/replication.json")

	state := NewState()
	state.SelfRole = RoleTemporaryPrimary
	ts := state.EnsureTarget(TargetConfig{ID: 2, Kind: KindGitHostingAPI, Repo: "org/mirror"})
	ts.Layer(LayerSecrets).MarkOK("4/4", "fp-abc")
	ts.Layer(LayerCode).MarkFailed("push refused")

	require.NoError(t, store.Save(state))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, RoleTemporaryPrimary, loaded.SelfRole)
	require.Len(t, loaded.Targets, 1)

	got := loaded.Targets[0]
	assert.Equal(t, "org/mirror", got.Repo)
	assert.Equal(t, StatusOK, got.Layer(LayerSecrets).Status)
	assert.Equal(t, "fp-abc", got.Layer(LayerSecrets).Fingerprint)
	assert.Equal(t, StatusFailed, got.Layer(LayerCode).Status)
	assert.Equal(t, "push refused", got.Layer(LayerCode).LastError)
}

func TestStore_SaveLeavesNoTempFile(t *testing.T) {
	fs := memfs.New()
	store := NewStore(fs, "state/replication.json")

	require.NoError(t, store.Save(NewState()))

	_, err := fs.Stat("state/replication.json")
	require.NoError(t, err)
	_, err = fs.Stat("state/replication.json.tmp")
	assert.Error(t, err)
}

func TestStore_LoadRejectsCorruptDocument(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "replication.json", []byte("{not json"), 0o600))

	store := NewStore(fs, "replication.json")
	_, err := store.Load()
	assert.Error(t, err)
}
