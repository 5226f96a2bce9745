package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	platformerrors "github.com/jmgilman/go/errors"
)

const lockSuffix = ".lock"

// lockFile is a git lock file: "<name>.lock" created exclusively next to
// the file it guards. Other git processes treat its presence as "in use".
type lockFile struct {
	fs     billy.Filesystem
	path   string
	file   billy.File
	logger *slog.Logger
}

// acquireLock creates the lock for name inside fs. An existing lock fails
// with code LOCKED; nothing waits or retries.
func acquireLock(fs billy.Filesystem, name string, logger *slog.Logger) (*lockFile, error) {
	p := name + lockSuffix
	if dir := path.Dir(p); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, wrapError(err, "failed to create directory for "+p)
		}
	}

	f, err := fs.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, retryable(platformerrors.WrapWithContext(err, CodeLocked,
				fmt.Sprintf("%s is locked by another process", name),
				map[string]any{"lock": p}))
		}
		return nil, wrapError(err, "failed to create "+p)
	}

	logger.Debug("acquired lock", "lock", p)
	return &lockFile{fs: fs, path: p, file: f, logger: logger}, nil
}

// write stores content in the lock file.
func (l *lockFile) write(content string) error {
	if _, err := l.file.Write([]byte(content)); err != nil {
		return wrapError(err, "failed to write "+l.path)
	}
	return nil
}

// release closes and removes the lock file.
func (l *lockFile) release() {
	if err := l.file.Close(); err != nil {
		l.logger.Warn("failed to close lock file", "lock", l.path, "error", err)
	}
	if err := l.fs.Remove(l.path); err != nil {
		l.logger.Warn("failed to remove lock file", "lock", l.path, "error", err)
		return
	}
	l.logger.Debug("released lock", "lock", l.path)
}
