package git

import (
	"errors"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Init creates a new Git repository at the specified path.
//
// By default, Init creates a standard (non-bare) repository on the local
// filesystem, creating the directory if needed. HEAD is left unborn and
// points at the initial branch ("master" unless WithInitialBranch is given).
//
// Returns an error with code ALREADY_EXISTS if a repository already exists
// at the path.
//
// Examples:
//
//	// Create a standard repository
//	repo, err := git.Init("/path/to/repo")
//
//	// Create a bare repository
//	repo, err := git.Init("/path/to/repo.git", git.WithBare())
//
//	// Create repository with custom filesystem (for testing)
//	repo, err := git.Init("/path/to/repo", git.WithFilesystem(memfs.New()))
func Init(path string, opts ...RepositoryOption) (*Repository, error) {
	options := newRepositoryOptions(opts...)

	path, err := options.resolvePath(path)
	if err != nil {
		return nil, err
	}

	initOpts := gogit.InitOptions{}
	if options.initialBranch != "" {
		initOpts.DefaultBranch = plumbing.NewBranchReferenceName(options.initialBranch)
		if err := initOpts.DefaultBranch.Validate(); err != nil {
			return nil, invalidInput("invalid initial branch %q", options.initialBranch)
		}
	}

	root := options.rootFS()
	if err := root.MkdirAll(path, 0o755); err != nil {
		return nil, wrapError(err, "failed to create repository directory")
	}

	scoped, err := root.Chroot(path)
	if err != nil {
		return nil, wrapError(err, "failed to scope filesystem to path")
	}

	// Bare repositories keep their storage at the path itself.
	dotgit, worktree := scoped, scoped
	if options.bare {
		worktree = nil
	} else {
		dotgit, err = scoped.Chroot(gogit.GitDirName)
		if err != nil {
			return nil, wrapError(err, "failed to create .git filesystem")
		}
	}

	st := filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault())
	defer func() { _ = st.Close() }()

	if _, err := gogit.InitWithOptions(st, worktree, initOpts); err != nil {
		return nil, wrapError(err, "failed to initialize repository")
	}

	options.logger.Debug("initialized repository", "path", path, "bare", options.bare)

	return &Repository{path: path, opts: options}, nil
}

// Open returns a Repository bound to an existing repository at path.
//
// Open verifies that a repository exists and then releases everything it
// acquired; the returned value holds only the path and options. Both
// standard layouts (a .git directory or a .git file holding a "gitdir:"
// pointer) and bare repositories are recognised.
//
// Returns an error with code NOT_FOUND if no repository exists at path.
//
// Examples:
//
//	// Open a repository from the local filesystem
//	repo, err := git.Open("/path/to/repo")
//
//	// Open with custom filesystem (for testing)
//	repo, err := git.Open("/path/to/repo", git.WithFilesystem(memfs.New()))
func Open(path string, opts ...RepositoryOption) (*Repository, error) {
	options := newRepositoryOptions(opts...)

	path, err := options.resolvePath(path)
	if err != nil {
		return nil, err
	}

	r := &Repository{path: path, opts: options}
	if err := r.withHandle(func(*handle) error { return nil }); err != nil {
		return nil, err
	}
	return r, nil
}

// IsRepository reports whether a repository can be opened at path.
func IsRepository(path string, opts ...RepositoryOption) bool {
	_, err := Open(path, opts...)
	return err == nil
}

// Path returns the path the repository is bound to.
func (r *Repository) Path() string {
	return r.path
}

// IsBare reports whether the repository has no working tree.
func (r *Repository) IsBare() (bool, error) {
	var bare bool
	err := r.withHandle(func(h *handle) error {
		bare = h.isBare()
		return nil
	})
	return bare, err
}

// Workdir returns the working tree path, or "" for a bare repository.
func (r *Repository) Workdir() (string, error) {
	var dir string
	err := r.withHandle(func(h *handle) error {
		if !h.isBare() {
			dir = r.path
		}
		return nil
	})
	return dir, err
}

// IsEmpty reports whether HEAD is unborn and no reference other than HEAD
// exists.
func (r *Repository) IsEmpty() (bool, error) {
	var empty bool
	err := r.withHandle(func(h *handle) error {
		_, err := h.repo.Head()
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, plumbing.ErrReferenceNotFound):
			return wrapError(err, "failed to resolve HEAD")
		}

		iter, err := h.repo.References()
		if err != nil {
			return wrapError(err, "failed to list references")
		}
		defer iter.Close()

		empty = true
		err = iter.ForEach(func(ref *plumbing.Reference) error {
			if ref.Name() != plumbing.HEAD {
				empty = false
				return storer.ErrStop
			}
			return nil
		})
		return wrapError(err, "failed to list references")
	})
	return empty, err
}

// DefaultSignature builds a signature from the user.name and user.email
// configuration values, stamped with the current time. Returns an error
// with code NOT_FOUND when either value is unset.
func (r *Repository) DefaultSignature() (*Signature, error) {
	var sig *Signature
	err := r.withHandle(func(h *handle) error {
		var err error
		sig, err = h.defaultSignature()
		return err
	})
	return sig, err
}

// requireWorktree fails with ErrBareRepository when h has no working tree.
func (h *handle) requireWorktree(op string) error {
	if h.isBare() {
		return wrapError(ErrBareRepository, "failed to "+op)
	}
	return nil
}
