package replicate

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/crypto/nacl/box"
)

// DefaultAPITimeout bounds individual hosting API calls.
const DefaultAPITimeout = 30 * time.Second

// GitHubClient implements HostingClient against the GitHub REST API.
// Secret values are sealed with the repository's public key as the API
// requires.
type GitHubClient struct {
	gh *github.Client
}

// NewGitHubClient builds a client authenticated with the given token.
// A non-positive timeout falls back to DefaultAPITimeout.
func NewGitHubClient(token string, timeout time.Duration) *GitHubClient {
	if timeout <= 0 {
		timeout = DefaultAPITimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	return &GitHubClient{gh: github.NewClient(httpClient).WithAuthToken(token)}
}

// GitHubDialer builds per-target GitHubClients from the target credential.
type GitHubDialer struct {
	// Timeout bounds each API call; defaults to DefaultAPITimeout.
	Timeout time.Duration
}

// Dial implements Dialer.
func (d GitHubDialer) Dial(target TargetConfig) (HostingClient, error) {
	if target.Token == "" {
		return nil, fmt.Errorf("target %d: %w", target.ID, ErrTargetUnusable)
	}
	return NewGitHubClient(target.Token, d.Timeout), nil
}

// splitRepo splits an owner/name address into its parts.
func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("malformed repository address %q", repo)
	}
	return owner, name, nil
}

// sealSecret encrypts a secret value against a base64-encoded repository
// public key using an anonymous sealed box, returning the base64 ciphertext.
func sealSecret(publicKey, value string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("malformed repository public key: %w", err)
	}
	if len(decoded) != 32 {
		return "", errors.New("repository public key must be 32 bytes")
	}

	var key [32]byte
	copy(key[:], decoded)

	sealed, err := box.SealAnonymous(nil, []byte(value), &key, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to seal secret value: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// PutSecret implements HostingClient with set-or-create semantics.
func (c *GitHubClient) PutSecret(ctx context.Context, repo, name, value string) error {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return err
	}

	key, _, err := c.gh.Actions.GetRepoPublicKey(ctx, owner, repoName)
	if err != nil {
		return fmt.Errorf("failed to fetch repository public key: %w", err)
	}

	sealed, err := sealSecret(key.GetKey(), value)
	if err != nil {
		return err
	}

	encrypted := &github.EncryptedSecret{
		Name:           name,
		KeyID:          key.GetKeyID(),
		EncryptedValue: sealed,
	}
	if _, err := c.gh.Actions.CreateOrUpdateRepoSecret(ctx, owner, repoName, encrypted); err != nil {
		return fmt.Errorf("failed to store secret %s: %w", name, err)
	}
	return nil
}

// ListSecretNames implements HostingClient.
func (c *GitHubClient) ListSecretNames(ctx context.Context, repo string) ([]string, error) {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var names []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		secrets, resp, err := c.gh.Actions.ListRepoSecrets(ctx, owner, repoName, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list secrets: %w", err)
		}
		for _, s := range secrets.Secrets {
			names = append(names, s.Name)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// DeleteSecret implements HostingClient.
func (c *GitHubClient) DeleteSecret(ctx context.Context, repo, name string) error {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return err
	}
	if _, err := c.gh.Actions.DeleteRepoSecret(ctx, owner, repoName, name); err != nil {
		return fmt.Errorf("failed to delete secret %s: %w", name, err)
	}
	return nil
}

// PutVariable implements HostingClient. The API has no single upsert call, so
// creation is attempted first and an existing variable falls back to update.
func (c *GitHubClient) PutVariable(ctx context.Context, repo, name, value string) error {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return err
	}

	variable := &github.ActionsVariable{Name: name, Value: value}
	_, createErr := c.gh.Actions.CreateRepoVariable(ctx, owner, repoName, variable)
	if createErr == nil {
		return nil
	}

	var ghErr *github.ErrorResponse
	if errors.As(createErr, &ghErr) && ghErr.Response != nil &&
		(ghErr.Response.StatusCode == http.StatusConflict ||
			ghErr.Response.StatusCode == http.StatusUnprocessableEntity) {
		if _, err := c.gh.Actions.UpdateRepoVariable(ctx, owner, repoName, variable); err != nil {
			return fmt.Errorf("failed to update variable %s: %w", name, err)
		}
		return nil
	}

	return fmt.Errorf("failed to create variable %s: %w", name, createErr)
}

// ListVariableNames implements HostingClient.
func (c *GitHubClient) ListVariableNames(ctx context.Context, repo string) ([]string, error) {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var names []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		variables, resp, err := c.gh.Actions.ListRepoVariables(ctx, owner, repoName, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list variables: %w", err)
		}
		for _, v := range variables.Variables {
			names = append(names, v.Name)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// DeleteVariable implements HostingClient.
func (c *GitHubClient) DeleteVariable(ctx context.Context, repo, name string) error {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return err
	}
	if _, err := c.gh.Actions.DeleteRepoVariable(ctx, owner, repoName, name); err != nil {
		return fmt.Errorf("failed to delete variable %s: %w", name, err)
	}
	return nil
}

// SetWorkflowEnabled implements HostingClient.
func (c *GitHubClient) SetWorkflowEnabled(ctx context.Context, repo, workflow string, enabled bool) error {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return err
	}

	if enabled {
		if _, err := c.gh.Actions.EnableWorkflowByFileName(ctx, owner, repoName, workflow); err != nil {
			return fmt.Errorf("failed to enable workflow %s: %w", workflow, err)
		}
		return nil
	}
	if _, err := c.gh.Actions.DisableWorkflowByFileName(ctx, owner, repoName, workflow); err != nil {
		return fmt.Errorf("failed to disable workflow %s: %w", workflow, err)
	}
	return nil
}

// CheckRepo implements HostingClient.
func (c *GitHubClient) CheckRepo(ctx context.Context, repo string) error {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return err
	}
	if _, _, err := c.gh.Repositories.Get(ctx, owner, repoName); err != nil {
		return fmt.Errorf("repository unreachable: %w", err)
	}
	return nil
}
