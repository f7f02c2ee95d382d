package replicate

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

// TargetKind identifies the management API flavor of a replication target.
type TargetKind string

// KindGitHostingAPI is the only supported target kind: a git repository
// fronted by a hosting provider's management API (secrets, variables,
// workflow toggles).
const KindGitHostingAPI TargetKind = "git-hosting-api"

// MaxTargetSlots is the highest numbered configuration slot scanned for
// replication targets. Gaps between slots are allowed.
const MaxTargetSlots = 8

// Environment keys for the replication configuration surface. Per-target
// entries are addressed by numeric slot.
const (
	EnvReplicationEnabled = "MIRRORKEEP_REPLICATION_ENABLED"
	EnvCanonicalRepo      = "MIRRORKEEP_CANONICAL_REPO"

	envMirrorRepo    = "MIRRORKEEP_MIRROR_%d_REPO"
	envMirrorToken   = "MIRRORKEEP_MIRROR_%d_TOKEN"
	envMirrorURL     = "MIRRORKEEP_MIRROR_%d_URL"
	envMirrorEnabled = "MIRRORKEEP_MIRROR_%d_ENABLED"
)

// TargetConfig describes one replication target. It is parsed from the
// environment at process start and immutable thereafter.
type TargetConfig struct {
	// ID is the stable slot identifier (1..MaxTargetSlots).
	ID int

	// Kind is the target's management API flavor.
	Kind TargetKind

	// Repo is the owner/repository-style address on the hosting provider.
	Repo string

	// Token is the opaque credential used for both git transport and the
	// management API.
	Token string

	// ExplicitURL optionally overrides the derived remote URL.
	ExplicitURL string

	// Enabled controls whether the target participates in propagation.
	Enabled bool
}

// RemoteURL derives the git remote URL for the target: the explicit override
// wins; otherwise the credential is embedded into the address's canonical
// clone URL; otherwise the target is unusable and the result is empty.
func (t TargetConfig) RemoteURL() string {
	if t.ExplicitURL != "" {
		return t.ExplicitURL
	}
	if t.Repo != "" && t.Token != "" {
		return fmt.Sprintf("https://x-access-token:%s@github.com/%s.git", t.Token, t.Repo)
	}
	return ""
}

// Usable reports whether a remote URL can be derived for the target.
func (t TargetConfig) Usable() bool {
	return t.RemoteURL() != ""
}

// RemoteName is the local remote alias used for this target's slot.
func (t TargetConfig) RemoteName() string {
	return fmt.Sprintf("mirror-%d", t.ID)
}

// Settings holds the replication configuration: the global switch, the
// canonical address destructive operations must never touch, and the ordered
// target slots.
type Settings struct {
	// Enabled is the global replication switch.
	Enabled bool

	// CanonicalRepo is the authoritative owner/repository address.
	CanonicalRepo string

	// Targets are the materialized slots in slot order.
	Targets []TargetConfig
}

// EnabledTargets returns the targets that are enabled and usable.
func (s Settings) EnabledTargets() []TargetConfig {
	var out []TargetConfig
	for _, t := range s.Targets {
		if t.Enabled && t.Usable() {
			out = append(out, t)
		}
	}
	return out
}

// TargetBySlot returns the target occupying the given slot, if any.
func (s Settings) TargetBySlot(id int) (TargetConfig, bool) {
	for _, t := range s.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return TargetConfig{}, false
}

// ParseSettings reads the replication configuration from the environment.
// A slot materializes only when both address and credential are present;
// a half-configured slot logs a warning and is skipped, never fatal.
// getenv defaults to os.Getenv.
func ParseSettings(getenv func(string) string, log zerolog.Logger) Settings {
	if getenv == nil {
		getenv = os.Getenv
	}

	settings := Settings{
		Enabled:       parseBool(getenv(EnvReplicationEnabled), false),
		CanonicalRepo: getenv(EnvCanonicalRepo),
	}

	for slot := 1; slot <= MaxTargetSlots; slot++ {
		repo := getenv(fmt.Sprintf(envMirrorRepo, slot))
		token := getenv(fmt.Sprintf(envMirrorToken, slot))

		if repo == "" && token == "" {
			continue
		}
		if repo == "" || token == "" {
			log.Warn().
				Int("slot", slot).
				Bool("has_repo", repo != "").
				Bool("has_token", token != "").
				Msg("mirror slot half-configured; skipping")
			continue
		}

		settings.Targets = append(settings.Targets, TargetConfig{
			ID:          slot,
			Kind:        KindGitHostingAPI,
			Repo:        repo,
			Token:       token,
			ExplicitURL: getenv(fmt.Sprintf(envMirrorURL, slot)),
			Enabled:     parseBool(getenv(fmt.Sprintf(envMirrorEnabled, slot)), true),
		})
	}

	return settings
}

// parseBool interprets an environment value, falling back when unset or
// malformed.
func parseBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
