// Package replicate propagates code, secrets, and configuration variables
// from the canonical source to disaster-recovery targets, tracking per-target
// per-layer sync health in a durable state document.
//
// The package is organized around a small set of collaborators: TargetConfig
// and Settings describe the configured replication targets; CodeReplicator
// pushes the working repository to target remotes; ConfigReplicator pushes
// named secret/variable values through each target's hosting management API;
// Manager orchestrates both across all enabled targets, persists results, and
// implements onboarding and destructive teardown with an unconditional
// canonical-address safety check.
package replicate
