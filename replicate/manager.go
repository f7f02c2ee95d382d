package replicate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBranch is the branch replicated when none is configured.
const DefaultBranch = "main"

// Manager coordinates the per-layer replicators against the configured
// targets and owns the durable replication state. All state mutation goes
// through a single mutex-guarded load-modify-save cycle, so concurrent
// operations never lose each other's layer updates.
type Manager struct {
	settings Settings
	store    *Store
	code     *CodeReplicator
	config   *ConfigReplicator
	dialer   Dialer
	branch   string
	log      zerolog.Logger

	mu   sync.Mutex
	jobs *jobRegistry
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Settings is the parsed replication configuration. REQUIRED.
	Settings Settings

	// Store persists the replication state document. REQUIRED.
	Store *Store

	// Code pushes repository contents to targets. REQUIRED.
	Code *CodeReplicator

	// Config pushes secrets, variables, and workflow toggles. REQUIRED.
	Config *ConfigReplicator

	// Dialer builds hosting clients for health checks and wipes. REQUIRED.
	Dialer Dialer

	// Branch is the replicated branch. Defaults to DefaultBranch.
	Branch string

	// Logger receives operational logging.
	Logger zerolog.Logger
}

// Validate checks that the options are properly configured.
func (o *ManagerOptions) Validate() error {
	if o.Store == nil {
		return fmt.Errorf("Store is required")
	}
	if o.Code == nil {
		return fmt.Errorf("Code is required")
	}
	if o.Config == nil {
		return fmt.Errorf("Config is required")
	}
	if o.Dialer == nil {
		return fmt.Errorf("Dialer is required")
	}
	return nil
}

// applyDefaults sets default values for any unset fields.
func (o *ManagerOptions) applyDefaults() {
	if o.Branch == "" {
		o.Branch = DefaultBranch
	}
}

// NewManager creates a Manager.
func NewManager(opts *ManagerOptions) (*Manager, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	return &Manager{
		settings: opts.Settings,
		store:    opts.Store,
		code:     opts.Code,
		config:   opts.Config,
		dialer:   opts.Dialer,
		branch:   opts.Branch,
		log:      opts.Logger,
		jobs:     newJobRegistry(),
	}, nil
}

// Settings returns the parsed replication configuration.
func (m *Manager) Settings() Settings {
	return m.settings
}

// Enabled reports whether replication is globally switched on.
func (m *Manager) Enabled() bool {
	return m.settings.Enabled
}

// updateState runs fn against a freshly loaded state and persists the result,
// all under the manager mutex. fn must not retain the state past its return.
func (m *Manager) updateState(fn func(*State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.store.Load()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return m.store.Save(state)
}

// recordLayer persists one layer result for one target.
func (m *Manager) recordLayer(target TargetConfig, layer Layer, ok bool, detail, fingerprint, errText string) error {
	return m.updateState(func(state *State) error {
		ls := state.EnsureTarget(target).Layer(layer)
		if ok {
			ls.MarkOK(detail, fingerprint)
		} else {
			ls.MarkFailed(errText)
		}
		return nil
	})
}

// emit publishes to the sink and appends to the job log.
func (m *Manager) emit(sink EventSink, jobID string, e Event) {
	if sink != nil {
		sink.Publish(e)
	}
	m.jobs.record(jobID, e)
}

// PropagateCode pushes the replicated branch to every given target,
// persisting each target's code-layer result independently. One target's
// failure never prevents pushing to the others.
func (m *Manager) PropagateCode(ctx context.Context, targets []TargetConfig, sink EventSink) error {
	results := m.code.PushAll(ctx, targets, m.branch)

	var firstErr error
	for _, target := range targets {
		result := results[target.ID]

		detail := result.Outcome.Detail
		if result.Outcome.UpToDate {
			detail = "up to date"
		}

		var recordErr error
		if result.Err != nil {
			recordErr = m.recordLayer(target, LayerCode, false, "", "", result.Err.Error())
			m.emit(sink, "", Event{Step: "code", Status: EventFailed, Error: result.Err.Error(), TargetID: target.ID})
			if firstErr == nil {
				firstErr = fmt.Errorf("target %d: %w", target.ID, result.Err)
			}
		} else {
			recordErr = m.recordLayer(target, LayerCode, true, detail, "", "")
			m.emit(sink, "", Event{Step: "code", Status: EventOK, Detail: detail, TargetID: target.ID})
		}
		if recordErr != nil && firstErr == nil {
			firstErr = recordErr
		}
	}
	return firstErr
}

// PropagateSecrets replicates the syncable secret set to every given target.
// Partial success on a target is recorded as failure for that target.
func (m *Manager) PropagateSecrets(ctx context.Context, targets []TargetConfig, sink EventSink) error {
	var firstErr error
	for _, target := range targets {
		summary := m.config.SyncAllSecrets(ctx, target)
		if err := m.recordSummary(target, LayerSecrets, summary, sink, ""); err != nil && firstErr == nil {
			firstErr = err
		}
		if !summary.AllOK && firstErr == nil {
			firstErr = fmt.Errorf("target %d secrets %s: %w", target.ID, summary.Detail(), ErrPartialSync)
		}
	}
	return firstErr
}

// PropagateVariables replicates the syncable variable set to every given
// target. Partial success on a target is recorded as failure for that target.
func (m *Manager) PropagateVariables(ctx context.Context, targets []TargetConfig, sink EventSink) error {
	var firstErr error
	for _, target := range targets {
		summary := m.config.SyncAllVariables(ctx, target)
		if err := m.recordSummary(target, LayerVariables, summary, sink, ""); err != nil && firstErr == nil {
			firstErr = err
		}
		if !summary.AllOK && firstErr == nil {
			firstErr = fmt.Errorf("target %d variables %s: %w", target.ID, summary.Detail(), ErrPartialSync)
		}
	}
	return firstErr
}

// recordSummary persists one layer summary and emits the matching event.
func (m *Manager) recordSummary(target TargetConfig, layer Layer, summary SyncSummary, sink EventSink, jobID string) error {
	step := string(layer)
	if summary.AllOK {
		m.emit(sink, jobID, Event{Step: step, Status: EventOK, Detail: summary.Detail(), TargetID: target.ID})
		return m.recordLayer(target, layer, true, summary.Detail(), summary.Fingerprint, "")
	}
	m.emit(sink, jobID, Event{Step: step, Status: EventFailed, Detail: summary.Detail(), Error: summary.ErrText, TargetID: target.ID})
	return m.recordLayer(target, layer, false, summary.Detail(), "", summary.ErrText)
}

// PropagateAll runs a full sync of code, secrets, and variables to every
// enabled target, sequentially by layer, blocking until done. Returns the
// job id; the error reflects the first failure.
func (m *Manager) PropagateAll(ctx context.Context, sink EventSink) (string, error) {
	targets := m.settings.EnabledTargets()
	jobID := m.jobs.begin("propagate-all")
	m.emit(sink, jobID, Event{Step: "sync", Status: EventStart, Detail: fmt.Sprintf("%d targets", len(targets))})

	err := m.propagateLayers(ctx, targets, sink)

	if err != nil {
		m.emit(sink, jobID, Event{Step: "sync", Status: EventDone, Error: err.Error()})
		m.jobs.finish(jobID, false)
	} else {
		m.emit(sink, jobID, Event{Step: "sync", Status: EventDone})
		m.jobs.finish(jobID, true)
	}
	return jobID, err
}

// propagateLayers runs the three sync layers sequentially. Every layer is
// attempted regardless of earlier failures, and the full-sync timestamp
// records that all three were attempted; per-layer status carries the
// individual outcomes.
func (m *Manager) propagateLayers(ctx context.Context, targets []TargetConfig, sink EventSink) error {
	var firstErr error
	for _, run := range []func(context.Context, []TargetConfig, EventSink) error{
		m.PropagateCode,
		m.PropagateSecrets,
		m.PropagateVariables,
	} {
		if err := run(ctx, targets, sink); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := m.updateState(func(state *State) error {
		now := time.Now().UTC()
		state.LastFullSyncAt = &now
		return nil
	}); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// PropagateAllAsync launches a full sync in the background and returns its
// job id immediately. Progress is observable through the job registry and
// the sink.
func (m *Manager) PropagateAllAsync(ctx context.Context, sink EventSink) string {
	jobID := m.jobs.begin("propagate-all")
	go func() {
		targets := m.settings.EnabledTargets()
		m.emit(sink, jobID, Event{Step: "sync", Status: EventStart, Detail: fmt.Sprintf("%d targets", len(targets))})
		err := m.propagateLayers(ctx, targets, sink)
		if err != nil {
			m.emit(sink, jobID, Event{Step: "sync", Status: EventDone, Error: err.Error()})
		} else {
			m.emit(sink, jobID, Event{Step: "sync", Status: EventDone})
		}
		m.jobs.finish(jobID, err == nil)
	}()
	return jobID
}

// OnboardTarget provisions a brand-new target: force-push the full history,
// then secrets, variables, and the dormant-replica workflow posture. A failed
// code push aborts the remaining steps; the target is useless without its
// contents. Returns the job id.
func (m *Manager) OnboardTarget(ctx context.Context, target TargetConfig, sink EventSink) (string, error) {
	jobID := m.jobs.begin("onboard")
	m.emit(sink, jobID, Event{Step: "onboard", Status: EventStart, TargetID: target.ID})

	finish := func(err error) (string, error) {
		if err != nil {
			m.emit(sink, jobID, Event{Step: "onboard", Status: EventDone, Error: err.Error(), TargetID: target.ID})
			m.jobs.finish(jobID, false)
		} else {
			m.emit(sink, jobID, Event{Step: "onboard", Status: EventDone, TargetID: target.ID})
			m.jobs.finish(jobID, true)
		}
		return jobID, err
	}

	m.emit(sink, jobID, Event{Step: "code", Status: EventRunning, TargetID: target.ID})
	outcome, err := m.code.Push(ctx, target, m.branch, true)
	if err != nil {
		if recErr := m.recordLayer(target, LayerCode, false, "", "", err.Error()); recErr != nil {
			m.log.Error().Err(recErr).Msg("failed to persist code layer state")
		}
		m.emit(sink, jobID, Event{Step: "code", Status: EventFailed, Error: err.Error(), TargetID: target.ID})
		return finish(fmt.Errorf("code push failed, onboarding aborted: %w", err))
	}
	detail := outcome.Detail
	if outcome.UpToDate {
		detail = "up to date"
	}
	if recErr := m.recordLayer(target, LayerCode, true, detail, "", ""); recErr != nil {
		return finish(recErr)
	}
	m.emit(sink, jobID, Event{Step: "code", Status: EventOK, Detail: detail, TargetID: target.ID})

	var firstErr error

	m.emit(sink, jobID, Event{Step: "secrets", Status: EventRunning, TargetID: target.ID})
	secrets := m.config.SyncAllSecrets(ctx, target)
	if err := m.recordSummary(target, LayerSecrets, secrets, sink, jobID); err != nil && firstErr == nil {
		firstErr = err
	}
	if !secrets.AllOK && firstErr == nil {
		firstErr = fmt.Errorf("secrets %s: %w", secrets.Detail(), ErrPartialSync)
	}

	m.emit(sink, jobID, Event{Step: "variables", Status: EventRunning, TargetID: target.ID})
	variables := m.config.SyncAllVariables(ctx, target)
	if err := m.recordSummary(target, LayerVariables, variables, sink, jobID); err != nil && firstErr == nil {
		firstErr = err
	}
	if !variables.AllOK && firstErr == nil {
		firstErr = fmt.Errorf("variables %s: %w", variables.Detail(), ErrPartialSync)
	}

	m.emit(sink, jobID, Event{Step: "workflows", Status: EventRunning, TargetID: target.ID})
	if err := m.config.ConfigureReplicaWorkflows(ctx, target); err != nil {
		if recErr := m.recordLayer(target, LayerWorkflows, false, "", "", err.Error()); recErr != nil {
			m.log.Error().Err(recErr).Msg("failed to persist workflows layer state")
		}
		m.emit(sink, jobID, Event{Step: "workflows", Status: EventFailed, Error: err.Error(), TargetID: target.ID})
		if firstErr == nil {
			firstErr = err
		}
	} else {
		if recErr := m.recordLayer(target, LayerWorkflows, true, "replica posture", "", ""); recErr != nil && firstErr == nil {
			firstErr = recErr
		}
		m.emit(sink, jobID, Event{Step: "workflows", Status: EventOK, Detail: "replica posture", TargetID: target.ID})
	}

	return finish(firstErr)
}

// SetSelfRole records this instance's role in the failover topology.
func (m *Manager) SetSelfRole(role Role) error {
	return m.updateState(func(state *State) error {
		state.SelfRole = role
		return nil
	})
}

// CheckTargetHealth probes the target's hosting API and records the result.
func (m *Manager) CheckTargetHealth(ctx context.Context, target TargetConfig) (Health, error) {
	health := HealthOK
	client, err := m.dialer.Dial(target)
	if err == nil {
		err = client.CheckRepo(ctx, target.Repo)
	}
	if err != nil {
		health = HealthUnreachable
	}

	if recErr := m.updateState(func(state *State) error {
		state.EnsureTarget(target).Health = health
		return nil
	}); recErr != nil {
		return health, recErr
	}
	return health, err
}

// ProbeTargets checks every given target's reachability and records the
// results, returning the health per slot. Probe failures are logged, never
// fatal; the recorded health carries the outcome.
func (m *Manager) ProbeTargets(ctx context.Context, targets []TargetConfig) map[int]Health {
	out := make(map[int]Health, len(targets))
	for _, target := range targets {
		health, err := m.CheckTargetHealth(ctx, target)
		if err != nil {
			m.log.Warn().Err(err).Int("target", target.ID).Msg("target health probe failed")
		}
		out[target.ID] = health
	}
	return out
}

// Status returns the persisted replication state with staleness applied: a
// secrets or variables layer recorded ok whose stored fingerprint no longer
// matches the freshly computed local one is reported stale. The persisted
// document is never modified.
func (m *Manager) Status() (*State, error) {
	m.mu.Lock()
	state, err := m.store.Load()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, ts := range state.Targets {
		target, ok := m.settings.TargetBySlot(ts.ID)
		if !ok {
			continue
		}
		m.applyStale(ts, LayerSecrets, m.config.CurrentSecretsFingerprint(target))
		m.applyStale(ts, LayerVariables, m.config.CurrentVariablesFingerprint())
	}
	return state, nil
}

// applyStale downgrades an ok layer to stale when its fingerprint drifted.
func (m *Manager) applyStale(ts *TargetStatus, layer Layer, current string) {
	ls, ok := ts.Layers[layer]
	if !ok {
		return
	}
	if ls.Status == StatusOK && ls.Fingerprint != "" && current != "" && ls.Fingerprint != current {
		ls.Status = StatusStale
	}
}

// Jobs returns every tracked job, newest first.
func (m *Manager) Jobs() []Job {
	return m.jobs.snapshot()
}

// Job returns one tracked job by id.
func (m *Manager) Job(id string) (Job, bool) {
	return m.jobs.get(id)
}
