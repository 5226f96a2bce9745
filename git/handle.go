package git

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	platformerrors "github.com/jmgilman/go/errors"
)

// handle is the go-git state acquired for a single repository task.
// It never outlives the call that opened it.
type handle struct {
	repo     *gogit.Repository
	storage  *filesystem.Storage
	dotgit   billy.Filesystem
	worktree billy.Filesystem // nil for bare repositories
	logger   *slog.Logger

	released bool
}

// layout locates the git directory and working tree of a repository path.
type layout struct {
	dotgit   billy.Filesystem
	worktree billy.Filesystem
}

// rootFS returns the filesystem repository paths are resolved against.
func (o *repositoryOptions) rootFS() billy.Filesystem {
	if o.fs != nil {
		return o.fs
	}
	return osfs.New("/")
}

// resolvePath validates path and normalizes it for rootFS.
func (o *repositoryOptions) resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", invalidInput("repository path is required")
	}
	if strings.ContainsRune(path, 0) {
		return "", invalidInput("repository path contains a NUL byte")
	}
	if o.fs != nil {
		return filepath.Clean(path), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to resolve repository path")
	}
	return abs, nil
}

// locate inspects path for a repository layout: a .git directory, a .git
// file holding a "gitdir:" pointer, or a bare repository at path itself.
func locate(root billy.Filesystem, path string) (*layout, error) {
	scoped, err := root.Chroot(path)
	if err != nil {
		return nil, err
	}

	info, err := scoped.Stat(gogit.GitDirName)
	switch {
	case err == nil && info.IsDir():
		dotgit, err := scoped.Chroot(gogit.GitDirName)
		if err != nil {
			return nil, err
		}
		return &layout{dotgit: dotgit, worktree: scoped}, nil

	case err == nil:
		target, err := readGitDirFile(scoped)
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(path, target)
		}
		dotgit, err := root.Chroot(target)
		if err != nil {
			return nil, err
		}
		return &layout{dotgit: dotgit, worktree: scoped}, nil

	case errors.Is(err, os.ErrNotExist):
		return &layout{dotgit: scoped}, nil

	default:
		return nil, err
	}
}

// readGitDirFile reads the target of a ".git" file ("gitdir: <path>").
func readGitDirFile(fs billy.Filesystem) (string, error) {
	f, err := fs.Open(gogit.GitDirName)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", gogit.ErrRepositoryNotExists
	}

	line := strings.TrimSpace(scanner.Text())
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", gogit.ErrRepositoryNotExists
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return "", gogit.ErrRepositoryNotExists
	}
	return target, nil
}

// open acquires storage and a go-git repository for r.path.
func (r *Repository) open() (*handle, error) {
	l, err := locate(r.opts.rootFS(), r.path)
	if err != nil {
		return nil, wrapError(err, "failed to locate repository")
	}

	st := filesystem.NewStorage(l.dotgit, cache.NewObjectLRUDefault())
	repo, err := gogit.Open(st, l.worktree)
	if err != nil {
		_ = st.Close()
		return nil, wrapError(err, fmt.Sprintf("failed to open repository at %s", r.path))
	}

	h := &handle{
		repo:     repo,
		storage:  st,
		dotgit:   l.dotgit,
		worktree: l.worktree,
		logger:   r.opts.logger.With("path", r.path),
	}
	h.logger.Debug("opened repository handle", "bare", h.isBare())
	return h, nil
}

// release closes the storage. Calling it more than once is a no-op.
func (h *handle) release() {
	if h.released {
		return
	}
	h.released = true

	if err := h.storage.Close(); err != nil {
		h.logger.Warn("failed to release repository storage", "error", err)
		return
	}
	h.logger.Debug("released repository handle")
}

func (h *handle) isBare() bool {
	return h.worktree == nil
}

// withHandle opens the repository, runs fn and releases the handle on every
// exit path, including panics raised by fn.
func (r *Repository) withHandle(fn func(h *handle) error) error {
	h, err := r.open()
	if err != nil {
		return err
	}
	defer h.release()

	return fn(h)
}
