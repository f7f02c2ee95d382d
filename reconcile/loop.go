package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultReconcileInterval is the default period of the reconciliation timer.
	DefaultReconcileInterval = 60 * time.Second

	// DefaultCommitInterval is the default period of the commit/push timer.
	DefaultCommitInterval = 10 * time.Minute

	// DefaultOpTimeout bounds each timer iteration's network operations.
	DefaultOpTimeout = 60 * time.Second

	// DefaultStopTimeout bounds how long Stop waits for the loops to drain.
	DefaultStopTimeout = 15 * time.Second

	// DefaultCommitMessage is used for commits produced by the commit/push timer.
	DefaultCommitMessage = "autosave local state"
)

// RebuildFunc is invoked after the working copy adopts new canonical state,
// so the surrounding system can re-derive whatever it publishes from the
// repository contents.
type RebuildFunc func(ctx context.Context) error

// Options configures a Reconciler.
type Options struct {
	// WorkingCopy is the REQUIRED local replica surface.
	WorkingCopy WorkingCopy

	// Dominant selects the divergence policy: a dominant instance keeps its
	// local history and schedules a forced push; a non-dominant instance
	// discards local history and adopts canonical.
	Dominant bool

	// Rebuild is an optional callback invoked after canonical state is
	// adopted. Errors are logged, never fatal.
	Rebuild RebuildFunc

	// ReconcileInterval is the reconciliation timer period.
	ReconcileInterval time.Duration

	// CommitInterval is the commit/push timer period.
	CommitInterval time.Duration

	// OpTimeout bounds each iteration's operations.
	OpTimeout time.Duration

	// CommitMessage is the message for generated commits.
	CommitMessage string

	// Logger receives per-iteration diagnostics. Defaults to a nop logger.
	Logger zerolog.Logger
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.WorkingCopy == nil {
		return ErrNoWorkingCopy
	}
	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.ReconcileInterval <= 0 {
		o.ReconcileInterval = DefaultReconcileInterval
	}
	if o.CommitInterval <= 0 {
		o.CommitInterval = DefaultCommitInterval
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = DefaultOpTimeout
	}
	if o.CommitMessage == "" {
		o.CommitMessage = DefaultCommitMessage
	}
}

// Reconciler runs the reconciliation and commit/push timers over a single
// working copy. Both timers serialize on one mutex, so neither ever observes
// the other's partial state.
type Reconciler struct {
	opts Options
	log  zerolog.Logger

	// mu guards every working-copy-mutating sequence and forcePushPending.
	mu               sync.Mutex
	forcePushPending bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a Reconciler from the given options.
func New(opts Options) (*Reconciler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	return &Reconciler{
		opts: opts,
		log:  opts.Logger,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// ForcePushPending reports whether a forced push is scheduled for the next
// commit/push cycle.
func (r *Reconciler) ForcePushPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forcePushPending
}

// AdoptCanonical unconditionally adopts the canonical state: fetch, then hard
// reset to the canonical head, then rebuild. It runs at startup regardless of
// dominance so a fresh instance never begins by fighting over history it has
// not yet seen.
func (r *Reconciler) AdoptCanonical(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wc := r.opts.WorkingCopy
	if err := wc.Fetch(ctx); err != nil {
		return err
	}

	canonical, err := wc.CanonicalHead(ctx)
	if err != nil {
		return err
	}

	local, err := wc.Head(ctx)
	if err == nil && local == canonical {
		return nil
	}

	if err := wc.HardReset(ctx, canonical); err != nil {
		return err
	}

	r.log.Info().Str("head", canonical).Msg("adopted canonical state at startup")
	r.invokeRebuild(ctx)
	return nil
}

// ReconcileOnce runs one pass of the reconciliation state machine and returns
// the classification it acted on.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconcileLocked(ctx)
}

func (r *Reconciler) reconcileLocked(ctx context.Context) (Classification, error) {
	wc := r.opts.WorkingCopy

	if err := wc.Fetch(ctx); err != nil {
		return ClassError, err
	}

	local, err := wc.Head(ctx)
	if err != nil {
		return ClassError, err
	}
	canonical, err := wc.CanonicalHead(ctx)
	if err != nil {
		return ClassError, err
	}

	class, err := Classify(ctx, wc, local, canonical)
	if err != nil {
		return ClassError, err
	}

	switch class {
	case ClassUpToDate, ClassAhead:
		// Ahead commits are pushed by the commit/push timer, never here.

	case ClassBehind:
		if err := wc.HardReset(ctx, canonical); err != nil {
			return class, err
		}
		r.log.Info().Str("head", canonical).Msg("fast-forwarded to canonical state")
		r.invokeRebuild(ctx)

	case ClassDiverged:
		if r.opts.Dominant {
			// Keep local history; the forced push happens on the next
			// commit/push cycle, not immediately.
			r.forcePushPending = true
			r.log.Warn().
				Str("local", local).
				Str("canonical", canonical).
				Msg("diverged from canonical; forced push scheduled")
		} else {
			if err := wc.HardReset(ctx, canonical); err != nil {
				return class, err
			}
			r.log.Warn().
				Str("discarded", local).
				Str("head", canonical).
				Msg("diverged from canonical; local history discarded")
			r.invokeRebuild(ctx)
		}
	}

	return class, nil
}

// CommitAndPushOnce runs one pass of the commit/push cycle: stage and commit
// any locally produced output, then push, forcing if and only if a forced
// push is pending. The pending flag is cleared only after a successful
// forced push.
func (r *Reconciler) CommitAndPushOnce(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wc := r.opts.WorkingCopy

	hash, err := wc.CommitAll(ctx, r.opts.CommitMessage)
	if err != nil {
		return err
	}
	if hash != "" {
		r.log.Info().Str("commit", hash).Msg("committed local output")
	}

	force := r.forcePushPending
	if err := wc.Push(ctx, force); err != nil {
		return err
	}
	if force {
		r.forcePushPending = false
		r.log.Info().Msg("forced push completed; divergence resolved")
	}

	return nil
}

// Run starts both timers on background goroutines. It returns immediately;
// use Stop to shut the loops down cooperatively.
func (r *Reconciler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		r.runLoop(ctx, r.opts.ReconcileInterval, "reconcile", func(opCtx context.Context) error {
			_, err := r.ReconcileOnce(opCtx)
			return err
		})
	}()

	go func() {
		defer wg.Done()
		r.runLoop(ctx, r.opts.CommitInterval, "commit-push", r.CommitAndPushOnce)
	}()

	go func() {
		wg.Wait()
		close(r.done)
	}()
}

// runLoop drives one timer until stopped. Any iteration error is logged and
// the loop waits for the next tick; no error is fatal to the process.
func (r *Reconciler) runLoop(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			opCtx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
			if err := fn(opCtx); err != nil {
				r.log.Error().Err(err).Str("loop", name).Msg("iteration failed; retrying next tick")
			}
			cancel()
		}
	}
}

// Stop signals both loops to stop and waits up to timeout for them to drain.
// Shutdown proceeds regardless once the timeout elapses.
func (r *Reconciler) Stop(timeout time.Duration) {
	r.stopOnce.Do(func() { close(r.stop) })

	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}

	select {
	case <-r.done:
	case <-time.After(timeout):
		r.log.Warn().Msg("reconciler loops did not drain before stop timeout")
	}
}

// invokeRebuild calls the rebuild callback if configured, logging failures.
func (r *Reconciler) invokeRebuild(ctx context.Context) {
	if r.opts.Rebuild == nil {
		return
	}
	if err := r.opts.Rebuild(ctx); err != nil {
		r.log.Error().Err(err).Msg("rebuild callback failed")
	}
}
