package replicate

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// SyncableRevision versions the syncable-name lists below. Bump it whenever
// a name is added or removed so fingerprints recorded against an older list
// are recognizably from a different set.
const SyncableRevision = 1

// SyncableSecrets is the fixed list of secret names replicated to every
// target. Only names with a present, non-empty local value are attempted.
var SyncableSecrets = []string{
	"ENCRYPTION_KEY",
	"SMTP_PASSWORD",
	"SMS_API_TOKEN",
	"WEBHOOK_SIGNING_SECRET",
	"CANONICAL_PUSH_TOKEN",
}

// SyncableVariables is the fixed list of variable names replicated to every
// target.
var SyncableVariables = []string{
	"CHECKIN_INTERVAL_HOURS",
	"GRACE_PERIOD_HOURS",
	"ALERT_RECIPIENTS",
	"TIMEZONE",
	"CONSOLE_BASE_URL",
}

// RenameRule maps a per-slot local environment variable onto a fixed secret
// name on the target. The slot number is substituted into the template at
// call time, so each target receives its own credential under one well-known
// name.
type RenameRule struct {
	// LocalTemplate is the printf template of the local environment variable,
	// with one %d verb for the target slot.
	LocalTemplate string

	// TargetName is the secret name installed on the target.
	TargetName string
}

// SecretRenames is the table of per-slot renamed secrets. Each target gets
// its own slot's push token under SELF_ACCESS_TOKEN, which the sentinel
// automation uses to act on the target's own repository.
var SecretRenames = []RenameRule{
	{LocalTemplate: "MIRRORKEEP_MIRROR_%d_TOKEN", TargetName: "SELF_ACCESS_TOKEN"},
}

// Workflow file names toggled on targets. A dormant replica must not run the
// operational automation; it runs only the sentinel that watches the primary.
const (
	OperationalWorkflow = "countdown.yml"
	SentinelWorkflow    = "sentinel.yml"
)

// SyncSummary reports one full-layer sync attempt against one target.
type SyncSummary struct {
	// AllOK is true only when every attempted name synced; partial success
	// is failure under strict all-or-nothing semantics.
	AllOK bool

	// Synced and Total count the names that succeeded and were attempted.
	Synced int
	Total  int

	// Failed lists the names that did not sync.
	Failed []string

	// ErrText is the combined raw error text for operator diagnosis.
	ErrText string

	// Fingerprint is the stable hash over the pairs that synced. It is only
	// meaningful for storage when AllOK is true.
	Fingerprint string
}

// Detail renders the summary's "synced/total" progress string.
func (s SyncSummary) Detail() string {
	return fmt.Sprintf("%d/%d", s.Synced, s.Total)
}

// ConfigReplicator pushes named secret and variable values to targets through
// their management API and computes fingerprints for staleness detection.
type ConfigReplicator struct {
	dialer Dialer
	getenv func(string) string
	log    zerolog.Logger
}

// NewConfigReplicator creates a ConfigReplicator. getenv defaults to os.Getenv.
func NewConfigReplicator(dialer Dialer, getenv func(string) string, log zerolog.Logger) *ConfigReplicator {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &ConfigReplicator{dialer: dialer, getenv: getenv, log: log}
}

// SyncSecret sets or creates one named secret on the target.
func (r *ConfigReplicator) SyncSecret(ctx context.Context, target TargetConfig, name, value string) error {
	client, err := r.dialer.Dial(target)
	if err != nil {
		return err
	}
	return client.PutSecret(ctx, target.Repo, name, value)
}

// SyncVariable sets or creates one named variable on the target.
func (r *ConfigReplicator) SyncVariable(ctx context.Context, target TargetConfig, name, value string) error {
	client, err := r.dialer.Dial(target)
	if err != nil {
		return err
	}
	return client.PutVariable(ctx, target.Repo, name, value)
}

// secretPairs resolves the secret values to replicate to the target: the
// fixed syncable list plus the table-driven per-slot renames. Names with no
// local value are omitted.
func (r *ConfigReplicator) secretPairs(target TargetConfig) map[string]string {
	pairs := make(map[string]string)
	for _, name := range SyncableSecrets {
		if v := r.getenv(name); v != "" {
			pairs[name] = v
		}
	}
	for _, rule := range SecretRenames {
		local := fmt.Sprintf(rule.LocalTemplate, target.ID)
		if v := r.getenv(local); v != "" {
			pairs[rule.TargetName] = v
		}
	}
	return pairs
}

// variablePairs resolves the variable values to replicate. Names with no
// local value are omitted.
func (r *ConfigReplicator) variablePairs() map[string]string {
	pairs := make(map[string]string)
	for _, name := range SyncableVariables {
		if v := r.getenv(name); v != "" {
			pairs[name] = v
		}
	}
	return pairs
}

// SyncAllSecrets pushes every syncable secret with a present local value to
// the target, returning the per-layer summary.
func (r *ConfigReplicator) SyncAllSecrets(ctx context.Context, target TargetConfig) SyncSummary {
	return r.syncPairs(ctx, target, r.secretPairs(target), r.SyncSecret)
}

// SyncAllVariables pushes every syncable variable with a present local value
// to the target, returning the per-layer summary.
func (r *ConfigReplicator) SyncAllVariables(ctx context.Context, target TargetConfig) SyncSummary {
	return r.syncPairs(ctx, target, r.variablePairs(), r.SyncVariable)
}

// syncPairs drives one layer's set of named values against a target in
// stable name order.
func (r *ConfigReplicator) syncPairs(
	ctx context.Context,
	target TargetConfig,
	pairs map[string]string,
	sync func(context.Context, TargetConfig, string, string) error,
) SyncSummary {
	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	summary := SyncSummary{Total: len(names)}
	synced := make(map[string]string, len(names))
	var errTexts []string

	for _, name := range names {
		if err := sync(ctx, target, name, pairs[name]); err != nil {
			summary.Failed = append(summary.Failed, name)
			errTexts = append(errTexts, fmt.Sprintf("%s: %v", name, err))
			r.log.Error().Err(err).Int("target", target.ID).Str("name", name).Msg("value sync failed")
			continue
		}
		synced[name] = pairs[name]
		summary.Synced++
	}

	summary.AllOK = summary.Synced == summary.Total
	summary.ErrText = strings.Join(errTexts, "; ")
	summary.Fingerprint = Fingerprint(synced)
	return summary
}

// CurrentSecretsFingerprint recomputes the fingerprint over the locally-held
// secret set for the target, for staleness comparison without a network call.
func (r *ConfigReplicator) CurrentSecretsFingerprint(target TargetConfig) string {
	return Fingerprint(r.secretPairs(target))
}

// CurrentVariablesFingerprint recomputes the fingerprint over the
// locally-held variable set.
func (r *ConfigReplicator) CurrentVariablesFingerprint() string {
	return Fingerprint(r.variablePairs())
}

// SetWorkflowEnabled toggles a named automation definition on the target.
func (r *ConfigReplicator) SetWorkflowEnabled(ctx context.Context, target TargetConfig, workflow string, enabled bool) error {
	client, err := r.dialer.Dial(target)
	if err != nil {
		return err
	}
	return client.SetWorkflowEnabled(ctx, target.Repo, workflow, enabled)
}

// ConfigureReplicaWorkflows puts the target's automation into the dormant
// replica posture: operational automation off, sentinel on.
func (r *ConfigReplicator) ConfigureReplicaWorkflows(ctx context.Context, target TargetConfig) error {
	if err := r.SetWorkflowEnabled(ctx, target, OperationalWorkflow, false); err != nil {
		return fmt.Errorf("disable %s: %w", OperationalWorkflow, err)
	}
	if err := r.SetWorkflowEnabled(ctx, target, SentinelWorkflow, true); err != nil {
		return fmt.Errorf("enable %s: %w", SentinelWorkflow, err)
	}
	return nil
}
