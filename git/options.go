package git

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// RepositoryOption configures repository operations (Init, Open, Clone,
// IsRepository). Options given to Init, Open or Clone stay attached to the
// returned Repository and apply to every later call on it.
type RepositoryOption func(*repositoryOptions)

// repositoryOptions holds the configuration for repository operations.
type repositoryOptions struct {
	fs            billy.Filesystem
	logger        *slog.Logger
	remoteOps     RemoteOperations
	bare          bool
	initialBranch string
	auth          Auth
	depth         int
	singleBranch  bool
	referenceName plumbing.ReferenceName
	progress      ProgressFunc
}

// newRepositoryOptions applies opts over the defaults: the OS filesystem,
// a discarding logger and go-git's network operations.
func newRepositoryOptions(opts ...RepositoryOption) *repositoryOptions {
	options := &repositoryOptions{
		logger:    slog.New(slog.DiscardHandler),
		remoteOps: &defaultRemoteOps{},
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithFilesystem sets the billy filesystem that repository paths are
// resolved against. If not provided, paths are made absolute and resolved
// against the OS filesystem.
//
// Example:
//
//	repo, err := git.Init("/repo", git.WithFilesystem(memfs.New()))
func WithFilesystem(fs billy.Filesystem) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.fs = fs
	}
}

// WithLogger sets the structured logger used for debug tracing of handle
// lifecycle, lock files and clone progress. Defaults to a discarding logger.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	repo, err := git.Open("/path/to/repo", git.WithLogger(logger))
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(opts *repositoryOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithRemoteOperations sets the RemoteOperations implementation used by
// Clone. If not provided, go-git's transport is used.
//
// This option is primarily useful for testing, allowing consumers to mock
// network operations without actual network calls.
func WithRemoteOperations(ops RemoteOperations) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.remoteOps = ops
	}
}

// WithBare creates a bare repository (no working tree).
// Applies to Init and Clone.
//
// Example:
//
//	repo, err := git.Init("/path/to/repo.git", git.WithBare())
func WithBare() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.bare = true
	}
}

// WithInitialBranch sets the branch HEAD points at in a new repository.
// Applies to Init. Defaults to "master".
//
// Example:
//
//	repo, err := git.Init("/path/to/repo", git.WithInitialBranch("main"))
func WithInitialBranch(name string) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.initialBranch = name
	}
}

// WithAuth sets authentication for Clone.
//
// Example:
//
//	auth, _ := git.SSHKeyFile("git", "/home/user/.ssh/id_ed25519")
//	repo, err := git.Clone(ctx, "git@github.com:org/repo.git", "/src/repo", git.WithAuth(auth))
func WithAuth(auth Auth) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.auth = auth
	}
}

// WithDepth sets the depth for shallow clones.
// A depth of 0 (default) performs a full clone.
func WithDepth(depth int) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.depth = depth
	}
}

// WithSingleBranch limits the clone to a single branch.
func WithSingleBranch() RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.singleBranch = true
	}
}

// WithReferenceName sets the branch or tag to check out after cloning.
//
// Example:
//
//	repo, err := git.Clone(ctx, url, "/src/repo",
//	    git.WithReferenceName(plumbing.NewBranchReferenceName("develop")))
func WithReferenceName(ref plumbing.ReferenceName) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.referenceName = ref
	}
}

// WithProgress registers a callback that receives transfer progress while
// Clone downloads the packfile. Callbacks are delivered in order from a
// single goroutine and all of them complete before Clone returns.
//
// Example:
//
//	repo, err := git.Clone(ctx, url, "/src/repo", git.WithProgress(func(p git.Progress) {
//	    fmt.Printf("\rReceiving objects: %3d%% (%d/%d)", p.Percent(), p.ReceivedObjects, p.TotalObjects)
//	}))
func WithProgress(fn ProgressFunc) RepositoryOption {
	return func(opts *repositoryOptions) {
		opts.progress = fn
	}
}
