package git

import (
	"path"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/stretchr/testify/require"
)

// testEpoch is the base time for commits created by the helpers.
var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestRepo initializes a repository at /repo on a fresh memfs and
// returns it with the working tree filesystem.
func newTestRepo(t *testing.T, opts ...RepositoryOption) (*Repository, billy.Filesystem) {
	t.Helper()

	fs := memfs.New()
	repo, err := Init("/repo", append([]RepositoryOption{WithFilesystem(fs)}, opts...)...)
	require.NoError(t, err)

	wt, err := fs.Chroot("/repo")
	require.NoError(t, err)
	return repo, wt
}

func testSignature(when time.Time) Signature {
	return Signature{Name: "Test User", Email: "test@example.com", When: when}
}

// writeFile writes content to p, creating parent directories.
func writeFile(t *testing.T, fs billy.Filesystem, p, content string) {
	t.Helper()

	if dir := path.Dir(p); dir != "." {
		require.NoError(t, fs.MkdirAll(dir, 0o755))
	}
	require.NoError(t, util.WriteFile(fs, p, []byte(content), 0o644))
}

// commitFile writes, stages and commits a single file at when.
func commitFile(t *testing.T, repo *Repository, fs billy.Filesystem, p, content, message string, when time.Time) *Commit {
	t.Helper()

	writeFile(t, fs, p, content)
	require.NoError(t, repo.Add(p))

	commit, err := repo.Commit(CommitOptions{
		Message:   message,
		Author:    testSignature(when),
		Committer: testSignature(when),
	})
	require.NoError(t, err)
	return commit
}

// createTestRepoWithCommit returns a repository with one commit of
// README.md on master.
func createTestRepoWithCommit(t *testing.T) (*Repository, billy.Filesystem, *Commit) {
	t.Helper()

	repo, fs := newTestRepo(t)
	commit := commitFile(t, repo, fs, "README.md", "# Test Repository\n", "Initial commit", testEpoch)
	return repo, fs, commit
}

// openGoGit opens the repository of the working tree fs with go-git, for
// writing state the facade only reads.
func openGoGit(t *testing.T, fs billy.Filesystem) *gogit.Repository {
	t.Helper()

	dotgit, err := fs.Chroot(gogit.GitDirName)
	require.NoError(t, err)

	repo, err := gogit.Open(filesystem.NewStorage(dotgit, cache.NewObjectLRUDefault()), fs)
	require.NoError(t, err)
	return repo
}

// setRef writes a reference directly to the store.
func setRef(t *testing.T, fs billy.Filesystem, ref *plumbing.Reference) {
	t.Helper()
	require.NoError(t, openGoGit(t, fs).Storer.SetReference(ref))
}
