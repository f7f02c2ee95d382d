package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mirrorkeep/mirrorkeep/git"
	"github.com/mirrorkeep/mirrorkeep/reconcile"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation and replication daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context())
		},
	}
}

func runDaemon(ctx context.Context) error {
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	log := rt.log

	sig := git.Signature{Name: rt.cfg.CommitterName, Email: rt.cfg.CommitterEmail}
	wc := reconcile.NewWorkingCopy(rt.repo, rt.cfg.Branch, sig)

	rec, err := reconcile.New(reconcile.Options{
		WorkingCopy:       wc,
		Dominant:          rt.cfg.Dominant,
		ReconcileInterval: rt.cfg.ReconcileInterval,
		CommitInterval:    rt.cfg.CommitInterval,
		CommitMessage:     rt.cfg.CommitMessage,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	// A fresh instance never begins by fighting over history it has not seen.
	adoptCtx, cancel := context.WithTimeout(ctx, reconcile.DefaultOpTimeout)
	if err := rec.AdoptCanonical(adoptCtx); err != nil {
		log.Error().Err(err).Msg("startup adoption failed; continuing with local state")
	}
	cancel()

	loopCtx, stopLoops := context.WithCancel(ctx)
	defer stopLoops()
	rec.Run(loopCtx)
	log.Info().
		Bool("dominant", rt.cfg.Dominant).
		Str("branch", rt.cfg.Branch).
		Msg("reconciliation loops started")

	var replicationTick <-chan time.Time
	if rt.manager.Enabled() {
		ticker := time.NewTicker(rt.cfg.ReplicationInterval)
		defer ticker.Stop()
		replicationTick = ticker.C
		log.Info().
			Int("targets", len(rt.settings.EnabledTargets())).
			Dur("interval", rt.cfg.ReplicationInterval).
			Msg("replication enabled")
	} else {
		log.Info().Msg("replication disabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case s := <-sigCh:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			stopLoops()
			rec.Stop(reconcile.DefaultStopTimeout)
			return nil

		case <-ctx.Done():
			rec.Stop(reconcile.DefaultStopTimeout)
			return ctx.Err()

		case <-replicationTick:
			// Fire-and-forget: a slow sync must never delay signal handling
			// or the next tick. Failures land in the job log and layer state.
			jobID := rt.manager.PropagateAllAsync(loopCtx, consoleSink(log))
			log.Debug().Str("job", jobID).Msg("propagation launched")
			go rt.manager.ProbeTargets(loopCtx, rt.settings.EnabledTargets())
		}
	}
}
