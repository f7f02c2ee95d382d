// Package git provides a task-oriented facade over go-git operations.
// This file contains remote management (create-or-update, lookup).
package git

import (
	"context"
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// EnsureRemote idempotently creates or updates a named remote so it points at
// the given URL. If the remote exists with a different URL it is replaced in
// place; this is how credential rotation reaches the stored remote without
// failing silently.
func (r *Repo) EnsureRemote(ctx context.Context, name, url string) error {
	if name == "" {
		return WrapError(ErrInvalidRef, "remote name cannot be empty")
	}
	if url == "" {
		return WrapError(ErrInvalidRef, "remote URL cannot be empty")
	}

	remote, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			_, createErr := r.repo.CreateRemote(&config.RemoteConfig{
				Name: name,
				URLs: []string{url},
			})
			return WrapErrorf(createErr, "failed to create remote %q", name)
		}
		return WrapErrorf(err, "failed to look up remote %q", name)
	}

	urls := remote.Config().URLs
	if len(urls) == 1 && urls[0] == url {
		return nil
	}

	// go-git has no in-place remote update; replace the definition.
	if err := r.repo.DeleteRemote(name); err != nil {
		return WrapErrorf(err, "failed to replace remote %q", name)
	}
	_, err = r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	return WrapErrorf(err, "failed to recreate remote %q", name)
}

// RemoteURL returns the first URL configured for the named remote.
// Returns ErrRemoteMissing if the remote does not exist.
func (r *Repo) RemoteURL(ctx context.Context, name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return "", WrapErrorf(ErrRemoteMissing, "remote %q", name)
		}
		return "", WrapErrorf(err, "failed to look up remote %q", name)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", WrapErrorf(ErrRemoteMissing, "remote %q has no URL", name)
	}
	return urls[0], nil
}
