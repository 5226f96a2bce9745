// Package testutil provides in-memory testing utilities for the git package.
// It includes helpers for creating in-memory repositories and test data,
// enabling tests to run quickly without touching the real filesystem.
package testutil

import (
	"path"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/jmgilman/gitstate/git"
)

// NewMemoryRepo creates a new in-memory Git repository for testing.
// The repository lives at the root of a fresh memfs; the returned
// filesystem is that root and doubles as the working tree.
//
// Example:
//
//	repo, fs, err := testutil.NewMemoryRepo()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	_ = testutil.CreateTestFile(fs, "README.md", "# Test")
//	_ = repo.Add("README.md")
func NewMemoryRepo(opts ...git.RepositoryOption) (*git.Repository, billy.Filesystem, error) {
	fs := memfs.New()

	repo, err := git.Init("/", append([]git.RepositoryOption{git.WithFilesystem(fs)}, opts...)...)
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from git package are already wrapped
		return nil, nil, err
	}

	return repo, fs, nil
}

// Signature returns the default test signature stamped at when.
func Signature(when time.Time) git.Signature {
	return git.Signature{Name: TestAuthor, Email: TestEmail, When: when}
}

// CreateTestFile writes content to path, creating parent directories.
// An existing file is overwritten.
//
// Example:
//
//	err := testutil.CreateTestFile(fs, "docs/guide.md", "# Guide")
func CreateTestFile(fs billy.Filesystem, p, content string) error {
	if dir := path.Dir(p); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			//nolint:wrapcheck // Test utility - simple file operation error
			return err
		}
	}

	//nolint:wrapcheck // Test utility - simple file operation error
	return util.WriteFile(fs, p, []byte(content), 0o644)
}

// CommitFile writes a file, stages it and commits it with the test
// signature. It returns the new commit id.
//
// Example:
//
//	id, err := testutil.CommitFile(repo, fs, "README.md", "# Test", "Add README")
func CommitFile(repo *git.Repository, fs billy.Filesystem, p, content, message string) (string, error) {
	return CommitFileAt(repo, fs, p, content, message, time.Now())
}

// CommitFileAt is CommitFile with a fixed author and committer time. It is
// useful for testing the order of history walks.
func CommitFileAt(repo *git.Repository, fs billy.Filesystem, p, content, message string, when time.Time) (string, error) {
	if err := CreateTestFile(fs, p, content); err != nil {
		return "", err
	}

	if err := repo.Add(p); err != nil {
		//nolint:wrapcheck // Test utility - errors from git package are already wrapped
		return "", err
	}

	sig := Signature(when)
	commit, err := repo.Commit(git.CommitOptions{
		Message:   message,
		Author:    sig,
		Committer: sig,
	})
	if err != nil {
		//nolint:wrapcheck // Test utility - errors from git package are already wrapped
		return "", err
	}
	return commit.ID, nil
}

// OpenGoGit opens the repository rooted at fs with go-git directly, for
// setting up state the facade does not write (tags, remotes, refs).
func OpenGoGit(fs billy.Filesystem) (*gogit.Repository, error) {
	dotgit, err := fs.Chroot(gogit.GitDirName)
	if err != nil {
		//nolint:wrapcheck // Test utility - simple file operation error
		return nil, err
	}

	//nolint:wrapcheck // Test utility - errors from go-git are transparent
	return gogit.Open(filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault()), fs)
}

// CreateTestTag creates a tag pointing at commitHash. An empty message
// creates a lightweight tag; otherwise an annotated tag signed by the test
// author is created.
//
// Example:
//
//	err := testutil.CreateTestTag(fs, "v1.0.0", commitHash, "Release 1.0.0")
func CreateTestTag(fs billy.Filesystem, name, commitHash, message string) error {
	repo, err := OpenGoGit(fs)
	if err != nil {
		return err
	}

	var opts *gogit.CreateTagOptions
	if message != "" {
		opts = &gogit.CreateTagOptions{
			Message: message,
			Tagger:  &object.Signature{Name: TestAuthor, Email: TestEmail, When: time.Now()},
		}
	}

	_, err = repo.CreateTag(name, plumbing.NewHash(commitHash), opts)
	//nolint:wrapcheck // Test utility - errors from go-git are transparent
	return err
}
