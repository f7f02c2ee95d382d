package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mirrorkeep/mirrorkeep/git"
	"github.com/mirrorkeep/mirrorkeep/replicate"
)

var (
	flagConfig  string
	flagVerbose bool
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mirrorkeepd",
		Short:         "Replication and failover daemon",
		Long:          "mirrorkeepd replicates code, secrets, and configuration to disaster-recovery mirrors and reconciles the local working copy against the canonical repository.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.toml (default: XDG config dir)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(statusCmd())
	cmd.AddCommand(syncCmd())
	cmd.AddCommand(onboardCmd())
	cmd.AddCommand(wipeCmd())
	return cmd
}

// newLogger builds the process logger: human-readable console output, debug
// level with --verbose.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// resolveConfig loads the daemon configuration honoring the --config flag.
func resolveConfig() (daemonConfig, error) {
	if flagConfig != "" {
		return loadConfig(flagConfig, true)
	}
	return loadConfig(defaultConfigPath(), false)
}

// runtime bundles the wired collaborators shared by the subcommands.
type runtime struct {
	cfg      daemonConfig
	log      zerolog.Logger
	repo     *git.Repo
	manager  *replicate.Manager
	settings replicate.Settings
}

// buildRuntime opens the working copy and wires the replication manager.
func buildRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger()

	repo, err := git.Open(ctx, &git.Options{FS: osfs.New(cfg.Workdir)})
	if err != nil {
		return nil, fmt.Errorf("open working copy at %s: %w", cfg.Workdir, err)
	}

	settings := replicate.ParseSettings(nil, log)
	sig := git.Signature{Name: cfg.CommitterName, Email: cfg.CommitterEmail}

	manager, err := replicate.NewManager(&replicate.ManagerOptions{
		Settings: settings,
		Store:    replicate.NewStore(osfs.New(filepath.Dir(cfg.StatePath)), filepath.Base(cfg.StatePath)),
		Code:     replicate.NewCodeReplicator(repo, sig, log),
		Config:   replicate.NewConfigReplicator(replicate.GitHubDialer{}, nil, log),
		Dialer:   replicate.GitHubDialer{},
		Branch:   cfg.Branch,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		manager:  manager,
		settings: settings,
	}, nil
}

// consoleSink renders progress events as log lines.
func consoleSink(log zerolog.Logger) replicate.EventSink {
	return replicate.EventSinkFunc(func(e replicate.Event) {
		ev := log.Info()
		switch e.Status {
		case replicate.EventFailed:
			ev = log.Error()
		case replicate.EventRefused:
			ev = log.Warn()
		}
		if e.TargetID != 0 {
			ev = ev.Int("target", e.TargetID)
		}
		if e.Detail != "" {
			ev = ev.Str("detail", e.Detail)
		}
		if e.Error != "" {
			ev = ev.Str("error", e.Error)
		}
		ev.Str("status", string(e.Status)).Msg(e.Step)
	})
}
