package git

import (
	"context"
	"errors"
	"os"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage"
	"github.com/go-git/go-git/v5/storage/filesystem"
	platformerrors "github.com/jmgilman/go/errors"
)

// RemoteOperations defines the network operations used by Clone. It
// allows tests to replace the transport without network access.
//
// The default implementation delegates to go-git's CloneContext.
type RemoteOperations interface {
	// Clone fetches the remote described by opts into s and, unless
	// worktree is nil, checks out the resulting HEAD into worktree.
	Clone(ctx context.Context, s storage.Storer, worktree billy.Filesystem, opts *gogit.CloneOptions) error
}

// defaultRemoteOps implements RemoteOperations with go-git's transport.
type defaultRemoteOps struct{}

// Clone implements RemoteOperations.Clone using go-git's CloneContext.
func (d *defaultRemoteOps) Clone(ctx context.Context, s storage.Storer, worktree billy.Filesystem, opts *gogit.CloneOptions) error {
	_, err := gogit.CloneContext(ctx, s, worktree, opts)
	return err
}

// Clone clones the repository at url into path and returns it.
//
// Clone honours WithBare, WithAuth, WithDepth, WithSingleBranch and
// WithReferenceName. With WithProgress the callback receives object and
// byte counts while the packfile is received; every callback has returned
// by the time Clone returns. If path did not exist before the call, it is
// removed again when the clone fails.
//
// Returns an error with code NOT_FOUND if the remote repository doesn't
// exist, UNAUTHORIZED for authentication failures and ALREADY_EXISTS if a
// repository already exists at path.
//
// Examples:
//
//	// Clone a public repository
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/src/repo")
//
//	// Shallow clone of a single branch
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/src/repo",
//	    git.WithDepth(1),
//	    git.WithSingleBranch())
//
//	// Clone with custom filesystem and transport (for testing)
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/repo",
//	    git.WithFilesystem(memfs.New()),
//	    git.WithRemoteOperations(mockOps))
func Clone(ctx context.Context, url, path string, opts ...RepositoryOption) (*Repository, error) {
	if strings.TrimSpace(url) == "" {
		return nil, invalidInput("clone URL is required")
	}

	options := newRepositoryOptions(opts...)
	path, err := options.resolvePath(path)
	if err != nil {
		return nil, err
	}

	if options.depth < 0 {
		return nil, invalidInput("clone depth must not be negative")
	}

	auth, err := authMethod(options.auth)
	if err != nil {
		return nil, err
	}

	root := options.rootFS()
	_, statErr := root.Stat(path)
	created := errors.Is(statErr, os.ErrNotExist)

	if err := cloneInto(ctx, root, path, url, auth, options); err != nil {
		if created {
			if rmErr := util.RemoveAll(root, path); rmErr != nil {
				options.logger.Warn("failed to remove partial clone", "path", path, "error", rmErr)
			}
		}
		return nil, err
	}

	options.logger.Debug("cloned repository", "url", url, "path", path)
	return &Repository{path: path, opts: options}, nil
}

func cloneInto(ctx context.Context, root billy.Filesystem, path, url string, auth transport.AuthMethod, options *repositoryOptions) error {
	if err := root.MkdirAll(path, 0o755); err != nil {
		return wrapError(err, "failed to create clone directory")
	}

	scoped, err := root.Chroot(path)
	if err != nil {
		return wrapError(err, "failed to scope filesystem to path")
	}

	dotgit, worktree := scoped, scoped
	if options.bare {
		worktree = nil
	} else {
		dotgit, err = scoped.Chroot(gogit.GitDirName)
		if err != nil {
			return wrapError(err, "failed to create .git filesystem")
		}
	}

	st := filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault())
	defer func() { _ = st.Close() }()

	var s storage.Storer = st
	if options.progress != nil {
		s = newProgressStorage(st, options.progress, options.logger.With("url", url))
	}

	cloneOpts := &gogit.CloneOptions{
		URL:           url,
		Depth:         options.depth,
		SingleBranch:  options.singleBranch,
		ReferenceName: options.referenceName,
		Auth:          auth,
	}

	if err := options.remoteOps.Clone(ctx, s, worktree, cloneOpts); err != nil {
		return wrapError(err, "failed to clone "+url)
	}
	return nil
}

// Remotes returns the names of the configured remotes, sorted.
func (r *Repository) Remotes() ([]string, error) {
	var names []string
	err := r.withHandle(func(h *handle) error {
		cfg, err := h.storage.Config()
		if err != nil {
			return wrapError(err, "failed to read configuration")
		}

		names = make([]string, 0, len(cfg.Remotes))
		for name := range cfg.Remotes {
			names = append(names, name)
		}
		slices.Sort(names)
		return nil
	})
	return names, err
}

// RemoteURLs returns the first configured URL of each named remote, in
// the order given. An unknown remote fails the call with code NOT_FOUND.
//
// Example:
//
//	urls, err := repo.RemoteURLs("origin", "upstream")
func (r *Repository) RemoteURLs(names ...string) ([]string, error) {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, invalidInput("remote name is required")
		}
	}

	var urls []string
	err := r.withHandle(func(h *handle) error {
		cfg, err := h.storage.Config()
		if err != nil {
			return wrapError(err, "failed to read configuration")
		}

		urls = make([]string, 0, len(names))
		for _, name := range names {
			rc, ok := cfg.Remotes[name]
			if !ok {
				return wrapError(
					platformerrors.WithContext(platformerrors.Wrap(gogit.ErrRemoteNotFound, platformerrors.CodeNotFound, "remote not found"), "remote", name),
					"failed to resolve remote "+name)
			}
			url := ""
			if len(rc.URLs) > 0 {
				url = rc.URLs[0]
			}
			urls = append(urls, url)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}
