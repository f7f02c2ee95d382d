package git

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default worktree directory name.
	DefaultWorkdir = "."

	// CanonicalRemoteName is the remote that points at the canonical upstream
	// repository. Reconciliation always reads from this remote.
	CanonicalRemoteName = "origin"
)

// Options configures repository discovery/creation and performance.
type Options struct {
	// FS is the REQUIRED filesystem root (OS or in-memory).
	// All repository state lives within this filesystem.
	FS billy.Filesystem

	// Workdir is the path within FS for the worktree root.
	// Defaults to "." (current directory in FS).
	Workdir string

	// StorerCacheSize sets the LRU objects cache entries.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int

	// InitialBranch names the branch HEAD points at in a newly initialized
	// repository. Only honored by Init; empty keeps go-git's default.
	InitialBranch string

	// HTTPClient is an optional custom transport for network operations.
	// If nil, a default client with reasonable timeouts is used.
	HTTPClient *http.Client
}

// Validate checks that the Options are properly configured.
// It returns an error if required fields are missing or invalid.
func (o *Options) Validate() error {
	if o.FS == nil {
		return WrapError(ErrInvalidRef, "FS is required")
	}

	if o.StorerCacheSize < 0 {
		return WrapError(ErrInvalidRef, "StorerCacheSize cannot be negative")
	}

	return nil
}

// applyDefaults sets default values for any unset fields in Options.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}

	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}

	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
}

// Signature identifies the author/committer for generated commits.
type Signature struct {
	// Name is the committer's name.
	Name string

	// Email is the committer's email address.
	Email string
}

// Repo represents a git working copy and provides the high-level operations
// the replication and reconciliation layers depend on. It wraps a go-git
// Repository and Worktree backed by a go-billy filesystem.
type Repo struct {
	repo     *gogit.Repository
	worktree *gogit.Worktree
	options  Options
}

// openStorage scopes the filesystem to the workdir and builds go-git storage
// plus the worktree filesystem for a non-bare repository.
func openStorage(opts *Options) (*filesystem.Storage, billy.Filesystem, error) {
	scopedFS, err := opts.FS.Chroot(opts.Workdir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chroot to workdir %q: %w", opts.Workdir, err)
	}

	dotGitFS, err := scopedFS.Chroot(gogit.GitDirName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access .git directory: %w", err)
	}

	storage := filesystem.NewStorage(dotGitFS, cache.NewObjectLRU(cache.FileSize(opts.StorerCacheSize)))
	return storage, scopedFS, nil
}

// Init creates a new git repository at the specified location.
func Init(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	repo, err := gogit.Init(storage, worktreeFS)
	if err != nil {
		return nil, WrapError(err, "failed to initialize repository")
	}

	if opts.InitialBranch != "" {
		head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(opts.InitialBranch))
		if err := storage.SetReference(head); err != nil {
			return nil, WrapErrorf(err, "failed to set initial branch %q", opts.InitialBranch)
		}
	}

	return wrapRepo(repo, opts)
}

// Open discovers and opens an existing git repository.
// The repository must already exist at the specified workdir within the
// filesystem, with both .git directory and worktree present.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	repo, err := gogit.Open(storage, worktreeFS)
	if err != nil {
		return nil, WrapError(err, "failed to open repository")
	}

	return wrapRepo(repo, opts)
}

// Clone creates a new repository by cloning from a remote URL.
// The remoteURL should be a valid git URL; credentials may be embedded in it.
//
// Context timeout/cancellation is honored during the clone operation.
func Clone(ctx context.Context, remoteURL string, opts *Options) (*Repo, error) {
	if remoteURL == "" {
		return nil, WrapError(ErrInvalidRef, "remote URL cannot be empty")
	}

	if err := opts.Validate(); err != nil {
		return nil, WrapError(err, "invalid options")
	}

	opts.applyDefaults()

	storage, worktreeFS, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	cloneOpts := &gogit.CloneOptions{
		URL: remoteURL,
	}

	repo, err := gogit.CloneContext(ctx, storage, worktreeFS, cloneOpts)
	if err != nil {
		return nil, WrapError(err, "failed to clone repository")
	}

	return wrapRepo(repo, opts)
}

// wrapRepo builds the facade around an opened go-git repository.
func wrapRepo(repo *gogit.Repository, opts *Options) (*Repo, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, WrapError(err, "failed to get worktree")
	}

	return &Repo{
		repo:     repo,
		worktree: worktree,
		options:  *opts,
	}, nil
}
