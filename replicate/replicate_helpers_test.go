package replicate

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mirrorkeep/mirrorkeep/git"
)

var testSig = git.Signature{Name: "Test User", Email: "test@example.com"}

// setupLocalRepo creates an on-disk repository with one commit on main.
// Disk-backed so pushes to local-path remotes exercise a real transport.
func setupLocalRepo(t *testing.T) *git.Repo {
	t.Helper()

	ctx := context.Background()
	fs := osfs.New(t.TempDir())

	repo, err := git.Init(ctx, &git.Options{FS: fs, InitialBranch: "main"})
	require.NoError(t, err)

	require.NoError(t, util.WriteFile(fs, "README.md", []byte("hello\n"), 0o644))
	_, err = repo.CommitAll(ctx, "initial commit", testSig)
	require.NoError(t, err)

	return repo
}

// setupBareTarget creates a bare repository on disk and returns its path,
// usable as a target's explicit remote URL.
func setupBareTarget(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}

// fakeClient is an in-memory HostingClient recording every mutation.
type fakeClient struct {
	mu        sync.Mutex
	secrets   map[string]string
	variables map[string]string
	workflows map[string]bool

	failSecrets   map[string]bool
	failVariables map[string]bool
	failDeletes   map[string]bool
	checkErr      error
	listErr       error

	// secretGate, when set, blocks every PutSecret until the gate is closed.
	secretGate chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		secrets:   make(map[string]string),
		variables: make(map[string]string),
		workflows: make(map[string]bool),
	}
}

func (f *fakeClient) PutSecret(_ context.Context, _, name, value string) error {
	if f.secretGate != nil {
		<-f.secretGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSecrets[name] {
		return fmt.Errorf("simulated secret failure for %s", name)
	}
	f.secrets[name] = value
	return nil
}

func (f *fakeClient) ListSecretNames(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	names := make([]string, 0, len(f.secrets))
	for name := range f.secrets {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeClient) DeleteSecret(_ context.Context, _, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletes[name] {
		return fmt.Errorf("simulated delete failure for %s", name)
	}
	delete(f.secrets, name)
	return nil
}

func (f *fakeClient) PutVariable(_ context.Context, _, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failVariables[name] {
		return fmt.Errorf("simulated variable failure for %s", name)
	}
	f.variables[name] = value
	return nil
}

func (f *fakeClient) ListVariableNames(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	names := make([]string, 0, len(f.variables))
	for name := range f.variables {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeClient) DeleteVariable(_ context.Context, _, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletes[name] {
		return fmt.Errorf("simulated delete failure for %s", name)
	}
	delete(f.variables, name)
	return nil
}

func (f *fakeClient) SetWorkflowEnabled(_ context.Context, _, workflow string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workflows[workflow] = enabled
	return nil
}

func (f *fakeClient) CheckRepo(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkErr
}

func (f *fakeClient) secretValue(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[name]
	return v, ok
}

func (f *fakeClient) variableValue(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.variables[name]
	return v, ok
}

func (f *fakeClient) workflowEnabled(name string) (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.workflows[name]
	return v, ok
}

// fakeDialer hands out per-target fake clients, defaulting to one shared
// client when no per-slot entry exists.
type fakeDialer struct {
	client  *fakeClient
	bySlot  map[int]*fakeClient
	dialErr error
}

func (d *fakeDialer) Dial(target TargetConfig) (HostingClient, error) {
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	if c, ok := d.bySlot[target.ID]; ok {
		return c, nil
	}
	return d.client, nil
}

// recordingSink collects published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) steps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Step + ":" + string(e.Status)
	}
	return out
}

func mapGetenv(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

// newTestManager wires a Manager over in-memory state and the given fakes.
func newTestManager(t *testing.T, settings Settings, repo *git.Repo, dialer Dialer, env map[string]string) *Manager {
	t.Helper()

	if repo == nil {
		var err error
		repo, err = git.Init(context.Background(), &git.Options{FS: memfs.New(), InitialBranch: "main"})
		require.NoError(t, err)
	}

	store := NewStore(memfs.New(), "state/replication.json")
	code := NewCodeReplicator(repo, testSig, zerolog.Nop())
	config := NewConfigReplicator(dialer, mapGetenv(env), zerolog.Nop())

	mgr, err := NewManager(&ManagerOptions{
		Settings: settings,
		Store:    store,
		Code:     code,
		Config:   config,
		Dialer:   dialer,
		Branch:   "main",
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return mgr
}
