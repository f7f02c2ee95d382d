package replicate

import (
	"context"
	"fmt"
)

// WipeOutcome reports one target's wipe attempt.
type WipeOutcome struct {
	// TargetID is the slot the outcome concerns.
	TargetID int

	// Refused is true when the target was skipped because its address matches
	// the canonical repository. Refusal is not a failure.
	Refused bool

	// Err is the first error hit while wiping, nil on success or refusal.
	Err error
}

// WipeTargets destructively clears the given layers on every target: code is
// replaced with a single empty orphan commit, secrets and variables are
// enumerated and deleted one by one. A target whose address matches the
// canonical repository is refused unconditionally, before any layer is
// touched; the remaining targets still proceed. Zero items to delete is
// success.
func (m *Manager) WipeTargets(ctx context.Context, targets []TargetConfig, layers []Layer, sink EventSink) ([]WipeOutcome, error) {
	jobID := m.jobs.begin("wipe")
	m.emit(sink, jobID, Event{Step: "wipe", Status: EventStart, Detail: fmt.Sprintf("%d targets", len(targets))})

	wipe := make(map[Layer]bool, len(layers))
	for _, l := range layers {
		wipe[l] = true
	}

	outcomes := make([]WipeOutcome, 0, len(targets))
	var firstErr error

	for _, target := range targets {
		if m.settings.CanonicalRepo != "" && target.Repo == m.settings.CanonicalRepo {
			m.emit(sink, jobID, Event{
				Step:     "wipe",
				Status:   EventRefused,
				Detail:   target.Repo,
				TargetID: target.ID,
			})
			m.log.Warn().Int("target", target.ID).Str("repo", target.Repo).
				Msg("refusing to wipe canonical repository")
			outcomes = append(outcomes, WipeOutcome{TargetID: target.ID, Refused: true})
			continue
		}

		err := m.wipeTarget(ctx, target, wipe, sink, jobID)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("target %d: %w", target.ID, err)
		}
		outcomes = append(outcomes, WipeOutcome{TargetID: target.ID, Err: err})
	}

	if firstErr != nil {
		m.emit(sink, jobID, Event{Step: "wipe", Status: EventDone, Error: firstErr.Error()})
		m.jobs.finish(jobID, false)
	} else {
		m.emit(sink, jobID, Event{Step: "wipe", Status: EventDone})
		m.jobs.finish(jobID, true)
	}
	return outcomes, firstErr
}

// wipeTarget clears the selected layers on one target.
func (m *Manager) wipeTarget(ctx context.Context, target TargetConfig, wipe map[Layer]bool, sink EventSink, jobID string) error {
	var firstErr error

	if wipe[LayerCode] {
		m.emit(sink, jobID, Event{Step: "code", Status: EventRunning, TargetID: target.ID})
		hash, err := m.code.WipeCode(ctx, target, m.branch)
		if err != nil {
			m.emit(sink, jobID, Event{Step: "code", Status: EventFailed, Error: err.Error(), TargetID: target.ID})
			firstErr = err
		} else {
			m.emit(sink, jobID, Event{Step: "code", Status: EventOK, Detail: hash, TargetID: target.ID})
		}
	}

	if wipe[LayerSecrets] {
		if err := m.wipeNamedItems(ctx, target, "secrets", sink, jobID,
			func(c HostingClient) ([]string, error) { return c.ListSecretNames(ctx, target.Repo) },
			func(c HostingClient, name string) error { return c.DeleteSecret(ctx, target.Repo, name) },
		); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if wipe[LayerVariables] {
		if err := m.wipeNamedItems(ctx, target, "variables", sink, jobID,
			func(c HostingClient) ([]string, error) { return c.ListVariableNames(ctx, target.Repo) },
			func(c HostingClient, name string) error { return c.DeleteVariable(ctx, target.Repo, name) },
		); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// wipeNamedItems enumerates and deletes one kind of named item, emitting
// per-item progress. Deletion continues past individual failures.
func (m *Manager) wipeNamedItems(
	ctx context.Context,
	target TargetConfig,
	step string,
	sink EventSink,
	jobID string,
	list func(HostingClient) ([]string, error),
	del func(HostingClient, string) error,
) error {
	m.emit(sink, jobID, Event{Step: step, Status: EventRunning, TargetID: target.ID})

	client, err := m.dialer.Dial(target)
	if err != nil {
		m.emit(sink, jobID, Event{Step: step, Status: EventFailed, Error: err.Error(), TargetID: target.ID})
		return err
	}

	names, err := list(client)
	if err != nil {
		m.emit(sink, jobID, Event{Step: step, Status: EventFailed, Error: err.Error(), TargetID: target.ID})
		return err
	}

	deleted := 0
	var firstErr error
	for i, name := range names {
		if err := del(client, name); err != nil {
			m.log.Error().Err(err).Int("target", target.ID).Str("name", name).Msgf("failed to delete %s item", step)
			if firstErr == nil {
				firstErr = fmt.Errorf("delete %s: %w", name, err)
			}
			continue
		}
		deleted++
		m.emit(sink, jobID, Event{
			Step:     step,
			Status:   EventProgress,
			Detail:   fmt.Sprintf("%d/%d", deleted, len(names)),
			Progress: float64(i+1) / float64(len(names)),
			TargetID: target.ID,
		})
	}

	if firstErr != nil {
		m.emit(sink, jobID, Event{
			Step:     step,
			Status:   EventFailed,
			Detail:   fmt.Sprintf("%d/%d", deleted, len(names)),
			Error:    firstErr.Error(),
			TargetID: target.ID,
		})
		return firstErr
	}

	m.emit(sink, jobID, Event{
		Step:     step,
		Status:   EventOK,
		Detail:   fmt.Sprintf("%d/%d", deleted, len(names)),
		TargetID: target.ID,
	})
	return nil
}
