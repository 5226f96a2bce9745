package git

import (
	"path"
	"strings"
)

// Add stages the working tree content of path, a file or directory
// relative to the working tree root. A path deleted from the working tree
// is removed from the index.
//
// The index is locked (index.lock) while it is rewritten; an existing lock
// fails with code LOCKED. Bare repositories fail with ErrBareRepository.
//
// Examples:
//
//	// Stage a single file
//	err := repo.Add("README.md")
//
//	// Stage a directory
//	err := repo.Add("docs")
func (r *Repository) Add(p string) error {
	clean, err := cleanWorktreePath(p)
	if err != nil {
		return err
	}

	return r.withHandle(func(h *handle) error {
		if err := h.requireWorktree("add " + clean); err != nil {
			return err
		}

		lock, err := acquireLock(h.dotgit, "index", h.logger)
		if err != nil {
			return wrapError(err, "failed to add "+clean)
		}
		defer lock.release()

		wt, err := h.repo.Worktree()
		if err != nil {
			return wrapError(err, "failed to get worktree")
		}

		if _, err := wt.Add(clean); err != nil {
			return wrapError(err, "failed to add "+clean)
		}
		h.logger.Debug("staged path", "path", clean)
		return nil
	})
}

// cleanWorktreePath validates a path relative to the working tree root.
func cleanWorktreePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInput("path is required")
	}
	if strings.ContainsRune(p, 0) {
		return "", invalidInput("path contains a NUL byte")
	}

	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	switch {
	case path.IsAbs(clean):
		return "", invalidInput("path %q must be relative to the working tree", p)
	case clean == ".." || strings.HasPrefix(clean, "../"):
		return "", invalidInput("path %q is outside the working tree", p)
	case clean == ".git" || strings.HasPrefix(clean, ".git/"):
		return "", invalidInput("path %q is inside the git directory", p)
	}
	return clean, nil
}
