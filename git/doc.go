// Package git provides a task-oriented facade over go-git for the working
// replica: opening and cloning repositories, pushing branches to named
// remotes, upserting remote definitions, inspecting head/ancestry
// relationships, hard-resetting the worktree, committing local output, and
// rewriting history to a single orphan commit.
//
// All repository state lives behind a go-billy filesystem so callers can run
// against the OS filesystem in production and in-memory filesystems in tests.
// Errors are sentinel-based and can be checked with errors.Is().
package git
