package replicate

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Layer identifies one replicated concern tracked independently per target.
type Layer string

const (
	// LayerCode is the repository contents layer.
	LayerCode Layer = "code"

	// LayerSecrets is the named secret values layer.
	LayerSecrets Layer = "secrets"

	// LayerVariables is the configuration variables layer.
	LayerVariables Layer = "variables"

	// LayerWorkflows is the workflow-automation toggle layer.
	LayerWorkflows Layer = "workflows"
)

// Layers lists every tracked layer in reporting order.
var Layers = []Layer{LayerCode, LayerSecrets, LayerVariables, LayerWorkflows}

// Status is the sync health of one layer on one target.
type Status string

const (
	// StatusUnknown means the layer has never been synced.
	StatusUnknown Status = "unknown"

	// StatusOK means the last sync fully succeeded.
	StatusOK Status = "ok"

	// StatusFailed means the last sync failed or was partial.
	StatusFailed Status = "failed"

	// StatusStale means a previously-ok layer's fingerprint no longer matches
	// the freshly computed local one.
	StatusStale Status = "stale"
)

// Role describes an instance's position in the failover topology.
type Role string

const (
	// RolePrimary is the authoritative instance.
	RolePrimary Role = "primary"

	// RoleSecondary is a dormant disaster-recovery replica.
	RoleSecondary Role = "secondary"

	// RoleTemporaryPrimary is a promoted replica serving while the primary
	// is down.
	RoleTemporaryPrimary Role = "temporary-primary"
)

// Health is the reachability of a target's hosting API.
type Health string

const (
	// HealthUnknown means no health probe has run.
	HealthUnknown Health = "unknown"

	// HealthOK means the last probe reached the target.
	HealthOK Health = "ok"

	// HealthUnreachable means the last probe failed.
	HealthUnreachable Health = "unreachable"
)

// SyncStatus is the durable record of one layer's sync health on one target.
// It is mutated only by the layer's own replicator, and only through MarkOK
// and MarkFailed.
type SyncStatus struct {
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	Status      Status     `json:"status"`
	LastError   string     `json:"last_error,omitempty"`
	Detail      string     `json:"detail,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
}

// MarkOK records a fully successful sync. The fingerprint is only meaningful
// for the secrets and variables layers; other layers pass "".
func (s *SyncStatus) MarkOK(detail, fingerprint string) {
	now := time.Now().UTC()
	s.LastSyncAt = &now
	s.Status = StatusOK
	s.LastError = ""
	s.Detail = detail
	if fingerprint != "" {
		s.Fingerprint = fingerprint
	}
}

// MarkFailed records a failed or partial sync, preserving the raw error text
// for operator diagnosis.
func (s *SyncStatus) MarkFailed(errText string) {
	now := time.Now().UTC()
	s.LastSyncAt = &now
	s.Status = StatusFailed
	s.LastError = errText
}

// TargetStatus aggregates the per-layer sync records for one target.
type TargetStatus struct {
	ID      int                   `json:"id"`
	Kind    TargetKind            `json:"kind"`
	Repo    string                `json:"repo"`
	Role    Role                  `json:"role"`
	Health  Health                `json:"health"`
	Layers  map[Layer]*SyncStatus `json:"layers"`
}

// Layer returns the sync record for the given layer, creating it on first
// reference.
func (t *TargetStatus) Layer(l Layer) *SyncStatus {
	if t.Layers == nil {
		t.Layers = make(map[Layer]*SyncStatus)
	}
	st, ok := t.Layers[l]
	if !ok {
		st = &SyncStatus{Status: StatusUnknown}
		t.Layers[l] = st
	}
	return st
}

// State is the full persisted replication record: this instance's role, the
// time of the last completed full sync, and every known target.
type State struct {
	SelfRole       Role            `json:"self_role"`
	LastFullSyncAt *time.Time      `json:"last_full_sync_at,omitempty"`
	Targets        []*TargetStatus `json:"targets"`
}

// NewState returns an empty state for a primary instance.
func NewState() *State {
	return &State{SelfRole: RolePrimary}
}

// EnsureTarget returns the status record for the target, creating it on
// first reference. Target ids are unique within the state; re-ensuring an
// existing id never duplicates it.
func (s *State) EnsureTarget(t TargetConfig) *TargetStatus {
	for _, ts := range s.Targets {
		if ts.ID == t.ID {
			// Keep the address current in case the slot was re-pointed.
			ts.Kind = t.Kind
			ts.Repo = t.Repo
			return ts
		}
	}

	ts := &TargetStatus{
		ID:     t.ID,
		Kind:   t.Kind,
		Repo:   t.Repo,
		Role:   RoleSecondary,
		Health: HealthUnknown,
	}
	s.Targets = append(s.Targets, ts)
	return ts
}

// Store loads and persists the state document on a billy filesystem.
// Every save writes the full document to a temporary file and renames it
// into place, so the document is valid JSON after every individual save.
type Store struct {
	fs   billy.Filesystem
	path string
}

// NewStore creates a Store persisting to path within fs.
func NewStore(fs billy.Filesystem, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load reads the state document, returning an empty state when the document
// does not exist yet.
func (st *Store) Load() (*State, error) {
	data, err := util.ReadFile(st.fs, st.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.SelfRole == "" {
		state.SelfRole = RolePrimary
	}
	return &state, nil
}

// Save overwrites the full state document atomically.
func (st *Store) Save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(st.path)
	if dir != "." && dir != "/" {
		if err := st.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := st.path + ".tmp"
	if err := util.WriteFile(st.fs, tmp, data, 0o600); err != nil {
		return err
	}
	return st.fs.Rename(tmp, st.path)
}
