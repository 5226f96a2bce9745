package git

import (
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitOptions(message string, when time.Time) CommitOptions {
	return CommitOptions{Message: message, Author: testSignature(when), Committer: testSignature(when)}
}

func TestCommit_Initial(t *testing.T) {
	repo, fs := newTestRepo(t)
	writeFile(t, fs, "a.txt", "hello")
	require.NoError(t, repo.Add("a.txt"))

	author := NewSignature("Author", "author@example.com", 1700000000, 60)
	committer := NewSignature("Committer", "committer@example.com", 1700000100, -120)
	commit, err := repo.Commit(CommitOptions{Message: "initial", Author: author, Committer: committer})
	require.NoError(t, err)

	assert.Len(t, commit.ID, 40)
	assert.Empty(t, commit.ParentIDs)
	assert.Equal(t, "initial", commit.Summary)
	assert.Equal(t, "initial", commit.Message)
	assert.Equal(t, author.String(), commit.Author.String())
	assert.Equal(t, committer.String(), commit.Committer.String())

	commits, err := repo.Revisions()
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, commit.ID, commits[0].ID)
	assert.Equal(t, "initial", commits[0].Summary)

	// HEAD's branch now exists and points at the commit.
	refs, err := repo.ReferenceMap()
	require.NoError(t, err)
	assert.Equal(t, commit.ID, refs["refs/heads/master"].Target)
}

func TestCommit_TreeMatchesIndex(t *testing.T) {
	repo, fs := newTestRepo(t)
	writeFile(t, fs, "b.txt", "b")
	writeFile(t, fs, "dir/sub/c.txt", "c")
	writeFile(t, fs, "dir/a.txt", "a")
	require.NoError(t, repo.Add("b.txt"))
	require.NoError(t, repo.Add("dir"))

	commit, err := repo.Commit(commitOptions("tree", testEpoch))
	require.NoError(t, err)

	gg := openGoGit(t, fs)
	c, err := gg.CommitObject(plumbing.NewHash(commit.ID))
	require.NoError(t, err)
	assert.Equal(t, commit.TreeID, c.TreeHash.String())

	tree, err := c.Tree()
	require.NoError(t, err)

	var files []string
	require.NoError(t, tree.Files().ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	}))
	assert.ElementsMatch(t, []string{"b.txt", "dir/a.txt", "dir/sub/c.txt"}, files)

	// The index is clean against the new HEAD.
	status, err := repo.Status(StatusOptions{Staged: true})
	require.NoError(t, err)
	assert.Empty(t, status.Staged)
}

func TestCommit_DefaultParentIsHead(t *testing.T) {
	repo, fs, first := createTestRepoWithCommit(t)

	second := commitFile(t, repo, fs, "b.txt", "b", "second", testEpoch.Add(time.Minute))
	assert.Equal(t, []string{first.ID}, second.ParentIDs)

	commits, err := repo.Revisions()
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, second.ID, commits[0].ID)
}

func TestCommit_NothingStaged(t *testing.T) {
	repo, _, _ := createTestRepoWithCommit(t)

	_, err := repo.Commit(commitOptions("again", testEpoch))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNothingStaged)
	assert.Equal(t, platformerrors.CodeConflict, platformerrors.GetCode(err))
	assert.Contains(t, err.Error(), "nothing staged to commit")

	commits, err := repo.Revisions()
	require.NoError(t, err)
	assert.Len(t, commits, 1)
}

func TestCommit_NothingStagedOnEmptyRepository(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Commit(commitOptions("empty", testEpoch))
	assert.ErrorIs(t, err, ErrNothingStaged)
}

func TestCommit_InvalidArguments(t *testing.T) {
	// No repository exists here; argument errors win over NOT_FOUND.
	repo := &Repository{path: "/missing", opts: newRepositoryOptions(WithFilesystem(memfs.New()))}

	valid := commitOptions("message", testEpoch)
	tests := []struct {
		name   string
		mutate func(o *CommitOptions)
	}{
		{"empty message", func(o *CommitOptions) { o.Message = "  \n" }},
		{"missing author name", func(o *CommitOptions) { o.Author.Name = "" }},
		{"missing committer email", func(o *CommitOptions) { o.Committer.Email = "" }},
		{"zero author time", func(o *CommitOptions) { o.Author.When = time.Time{} }},
		{"short parent", func(o *CommitOptions) { o.Parents = []string{"abc123"} }},
		{"non-hex parent", func(o *CommitOptions) { o.Parents = []string{strings.Repeat("z", 40)} }},
		{"invalid ref", func(o *CommitOptions) { o.Ref = "refs/heads/bad..name" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)

			_, err := repo.Commit(opts)
			require.Error(t, err)
			assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err), "got %v", err)
		})
	}
}

func TestCommit_UnknownParent(t *testing.T) {
	repo, fs, first := createTestRepoWithCommit(t)
	writeFile(t, fs, "b.txt", "b")
	require.NoError(t, repo.Add("b.txt"))

	opts := commitOptions("orphaned", testEpoch)
	opts.Parents = []string{strings.Repeat("1", 40)}

	_, err := repo.Commit(opts)
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))

	// The branch did not move.
	refs, err := repo.ReferenceMap()
	require.NoError(t, err)
	assert.Equal(t, first.ID, refs["refs/heads/master"].Target)
}

func TestCommit_ExplicitParents(t *testing.T) {
	repo, fs, first := createTestRepoWithCommit(t)
	second := commitFile(t, repo, fs, "b.txt", "b", "second", testEpoch.Add(time.Minute))

	writeFile(t, fs, "c.txt", "c")
	require.NoError(t, repo.Add("c.txt"))

	opts := commitOptions("merge", testEpoch.Add(2*time.Minute))
	opts.Parents = []string{second.ID, first.ID}
	merge, err := repo.Commit(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, merge.ParentIDs)

	commits, err := repo.Revisions()
	require.NoError(t, err)
	assert.Len(t, commits, 3)
}

func TestCommit_RootCommitOnNewRef(t *testing.T) {
	repo, fs, first := createTestRepoWithCommit(t)
	writeFile(t, fs, "orphan.txt", "orphan")
	require.NoError(t, repo.Add("orphan.txt"))

	opts := commitOptions("start over", testEpoch)
	opts.Parents = []string{}
	opts.Ref = "refs/heads/orphan"
	commit, err := repo.Commit(opts)
	require.NoError(t, err)
	assert.Empty(t, commit.ParentIDs)

	refs, err := repo.ReferenceMap()
	require.NoError(t, err)
	assert.Equal(t, commit.ID, refs["refs/heads/orphan"].Target)
	assert.Equal(t, first.ID, refs["refs/heads/master"].Target)
}

func TestCommit_DetachedHead(t *testing.T) {
	repo, fs, first := createTestRepoWithCommit(t)
	setRef(t, fs, plumbing.NewHashReference(plumbing.HEAD, plumbing.NewHash(first.ID)))

	second := commitFile(t, repo, fs, "b.txt", "b", "detached", testEpoch.Add(time.Minute))

	refs, err := repo.ReferenceMap()
	require.NoError(t, err)
	assert.Equal(t, ReferenceOID, refs["HEAD"].Kind)
	assert.Equal(t, second.ID, refs["HEAD"].Target)
	assert.Equal(t, first.ID, refs["refs/heads/master"].Target)
}

func TestCommit_SymbolicChainTooDeep(t *testing.T) {
	repo, fs, _ := createTestRepoWithCommit(t)
	setRef(t, fs, plumbing.NewSymbolicReference("refs/heads/loop-a", "refs/heads/loop-b"))
	setRef(t, fs, plumbing.NewSymbolicReference("refs/heads/loop-b", "refs/heads/loop-a"))

	writeFile(t, fs, "b.txt", "b")
	require.NoError(t, repo.Add("b.txt"))

	opts := commitOptions("loop", testEpoch)
	opts.Ref = "refs/heads/loop-a"
	_, err := repo.Commit(opts)
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))
}

func TestCommit_IndexLocked(t *testing.T) {
	repo, fs, _ := createTestRepoWithCommit(t)
	writeFile(t, fs, "b.txt", "b")
	require.NoError(t, repo.Add("b.txt"))
	writeFile(t, fs, ".git/index.lock", "")

	_, err := repo.Commit(commitOptions("locked", testEpoch))
	require.Error(t, err)
	assert.Equal(t, CodeLocked, platformerrors.GetCode(err))

	// A lock held by someone else is left alone.
	_, err = fs.Stat(".git/index.lock")
	assert.NoError(t, err)
}

func TestCommit_RefLocked(t *testing.T) {
	repo, fs, first := createTestRepoWithCommit(t)
	writeFile(t, fs, "b.txt", "b")
	require.NoError(t, repo.Add("b.txt"))
	writeFile(t, fs, ".git/refs/heads/master.lock", "")

	_, err := repo.Commit(commitOptions("locked", testEpoch))
	require.Error(t, err)
	assert.Equal(t, CodeLocked, platformerrors.GetCode(err))

	// Our own index lock was released and the branch did not move.
	_, err = fs.Stat(".git/index.lock")
	assert.Error(t, err)

	refs, err := repo.ReferenceMap()
	require.NoError(t, err)
	assert.Equal(t, first.ID, refs["refs/heads/master"].Target)
}

func TestCommit_UnresolvedConflicts(t *testing.T) {
	repo, fs, _ := createTestRepoWithCommit(t)

	gg := openGoGit(t, fs)
	idx, err := gg.Storer.Index()
	require.NoError(t, err)
	blob := plumbing.ComputeHash(plumbing.BlobObject, []byte("ours"))
	idx.Entries = append(idx.Entries, &index.Entry{Name: "c.txt", Hash: blob, Mode: filemode.Regular, Stage: index.OurMode})
	require.NoError(t, gg.Storer.SetIndex(idx))

	_, err = repo.Commit(commitOptions("conflicted", testEpoch))
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeConflict, platformerrors.GetCode(err))
	assert.NotErrorIs(t, err, ErrNothingStaged)
}

func TestUpdateRef_Concurrent(t *testing.T) {
	repo, fs, first := createTestRepoWithCommit(t)
	second := commitFile(t, repo, fs, "b.txt", "b", "second", testEpoch.Add(time.Minute))

	h, err := repo.open()
	require.NoError(t, err)
	defer h.release()

	master := plumbing.NewBranchReferenceName("master")

	t.Run("reference moved", func(t *testing.T) {
		stale := plumbing.NewHashReference(master, plumbing.NewHash(first.ID))
		err := h.updateRef(master, stale, plumbing.NewHash(first.ID))
		require.Error(t, err)
		assert.Equal(t, CodeLocked, platformerrors.GetCode(err))
	})

	t.Run("reference created", func(t *testing.T) {
		err := h.updateRef(master, nil, plumbing.NewHash(first.ID))
		require.Error(t, err)
		assert.Equal(t, CodeLocked, platformerrors.GetCode(err))
	})

	ref, err := h.storage.Reference(master)
	require.NoError(t, err)
	assert.Equal(t, second.ID, ref.Hash().String())

	locks, err := util.Glob(fs, ".git/refs/heads/*.lock")
	require.NoError(t, err)
	assert.Empty(t, locks)
}

func TestAcquireLock(t *testing.T) {
	fs := memfs.New()
	logger := newRepositoryOptions().logger

	lock, err := acquireLock(fs, "refs/heads/main", logger)
	require.NoError(t, err)
	require.NoError(t, lock.write("content\n"))

	_, err = acquireLock(fs, "refs/heads/main", logger)
	require.Error(t, err)
	assert.Equal(t, CodeLocked, platformerrors.GetCode(err))

	var pe platformerrors.PlatformError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "refs/heads/main.lock", pe.Context()["lock"])

	lock.release()
	_, err = fs.Stat("refs/heads/main.lock")
	assert.Error(t, err)

	again, err := acquireLock(fs, "refs/heads/main", logger)
	require.NoError(t, err)
	again.release()
}
