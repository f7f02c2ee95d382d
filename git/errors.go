package git

import (
	"errors"
	"fmt"
)

// Common sentinel errors that can be checked with errors.Is().
// These wrap underlying go-git errors while providing a stable API for consumers.

// ErrAlreadyUpToDate is returned when fetch or push operations result in no
// changes because the local and remote states are already synchronized.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrNotFastForward is returned when a push cannot be performed as a
// fast-forward update and force was not requested.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrNoChanges is returned by CommitAll when the worktree holds nothing to
// commit. Callers treat this as a benign outcome, not a failure.
var ErrNoChanges = errors.New("no changes to commit")

// ErrInvalidRef is returned when a reference name, revision specification, or
// option value is malformed or invalid.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision specification cannot be
// resolved to a valid commit hash.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrRemoteMissing is returned when operating on a remote that has not been
// configured on the repository.
var ErrRemoteMissing = errors.New("remote not configured")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
