package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// fileConfig is the config.toml key mapping for the daemon.
type fileConfig struct {
	Workdir             string `toml:"workdir"`
	Branch              string `toml:"branch"`
	Dominant            bool   `toml:"dominant"`
	StatePath           string `toml:"state_path"`
	ReconcileInterval   string `toml:"reconcile_interval"`
	CommitInterval      string `toml:"commit_interval"`
	ReplicationInterval string `toml:"replication_interval"`
	CommitMessage       string `toml:"commit_message"`

	Committer struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	} `toml:"committer"`
}

// daemonConfig is the resolved runtime configuration.
type daemonConfig struct {
	Workdir             string
	Branch              string
	Dominant            bool
	StatePath           string
	ReconcileInterval   time.Duration
	CommitInterval      time.Duration
	ReplicationInterval time.Duration
	CommitMessage       string
	CommitterName       string
	CommitterEmail      string
}

// DefaultReplicationInterval is the period of the daemon's full-sync tick.
const DefaultReplicationInterval = 15 * time.Minute

// defaultConfigPath is where the daemon looks for config.toml when --config
// is not given.
func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "mirrorkeep", "config.toml")
}

func defaultConfig() daemonConfig {
	return daemonConfig{
		Workdir:             filepath.Join(xdg.DataHome, "mirrorkeep", "repo"),
		Branch:              "main",
		Dominant:            true,
		StatePath:           filepath.Join(xdg.StateHome, "mirrorkeep", "replication.json"),
		ReplicationInterval: DefaultReplicationInterval,
		CommitterName:       "mirrorkeep",
		CommitterEmail:      "mirrorkeep@localhost",
	}
}

// loadConfig resolves the daemon configuration: built-in defaults overlaid by
// the TOML file when present. A missing file at the default path is not an
// error; a missing file at an explicit path is.
func loadConfig(path string, explicit bool) (daemonConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit {
			return cfg, nil
		}
		return daemonConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("workdir") {
		cfg.Workdir = raw.Workdir
	}
	if meta.IsDefined("branch") {
		cfg.Branch = raw.Branch
	}
	if meta.IsDefined("dominant") {
		cfg.Dominant = raw.Dominant
	}
	if meta.IsDefined("state_path") {
		cfg.StatePath = raw.StatePath
	}
	if meta.IsDefined("commit_message") {
		cfg.CommitMessage = raw.CommitMessage
	}
	if meta.IsDefined("committer", "name") {
		cfg.CommitterName = raw.Committer.Name
	}
	if meta.IsDefined("committer", "email") {
		cfg.CommitterEmail = raw.Committer.Email
	}

	for _, d := range []struct {
		key  string
		raw  string
		dest *time.Duration
	}{
		{"reconcile_interval", raw.ReconcileInterval, &cfg.ReconcileInterval},
		{"commit_interval", raw.CommitInterval, &cfg.CommitInterval},
		{"replication_interval", raw.ReplicationInterval, &cfg.ReplicationInterval},
	} {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return daemonConfig{}, fmt.Errorf("config key %s: %w", d.key, err)
		}
		*d.dest = parsed
	}

	return cfg, nil
}
