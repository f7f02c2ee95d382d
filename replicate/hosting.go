package replicate

import "context"

// HostingClient is the management API surface of one target: set-or-create
// semantics for secrets and variables, name enumeration and deletion for
// teardown, workflow toggling, and a reachability probe.
//
// Implementations must honor context deadlines; every call made through this
// interface carries an explicit timeout.
type HostingClient interface {
	// PutSecret creates or updates a named secret on the target repository.
	PutSecret(ctx context.Context, repo, name, value string) error

	// ListSecretNames enumerates the secret names present on the target.
	ListSecretNames(ctx context.Context, repo string) ([]string, error)

	// DeleteSecret removes a named secret from the target.
	DeleteSecret(ctx context.Context, repo, name string) error

	// PutVariable creates or updates a named variable on the target repository.
	PutVariable(ctx context.Context, repo, name, value string) error

	// ListVariableNames enumerates the variable names present on the target.
	ListVariableNames(ctx context.Context, repo string) ([]string, error)

	// DeleteVariable removes a named variable from the target.
	DeleteVariable(ctx context.Context, repo, name string) error

	// SetWorkflowEnabled toggles whether a named automation definition is
	// active on the target.
	SetWorkflowEnabled(ctx context.Context, repo, workflow string, enabled bool) error

	// CheckRepo probes whether the target repository is reachable.
	CheckRepo(ctx context.Context, repo string) error
}

// Dialer builds a HostingClient authenticated for a specific target.
// The production implementation dials the hosting provider's API with the
// target's credential; tests substitute fakes.
type Dialer interface {
	Dial(target TargetConfig) (HostingClient, error)
}
