package git

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_StandardRepository(t *testing.T) {
	fs := memfs.New()

	// Initialize a standard (non-bare) repository
	repo, err := Init("/test-repo", WithFilesystem(fs))
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "/test-repo", repo.Path())

	// Verify .git directory exists
	stat, err := fs.Stat("/test-repo/.git")
	require.NoError(t, err)
	assert.True(t, stat.IsDir())

	// HEAD is unborn and points at master
	head, err := util.ReadFile(fs, "/test-repo/.git/HEAD")
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/master\n", string(head))

	bare, err := repo.IsBare()
	require.NoError(t, err)
	assert.False(t, bare)

	workdir, err := repo.Workdir()
	require.NoError(t, err)
	assert.Equal(t, "/test-repo", workdir)

	empty, err := repo.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestInit_BareRepository(t *testing.T) {
	fs := memfs.New()

	// Initialize a bare repository
	repo, err := Init("/bare-repo", WithFilesystem(fs), WithBare())
	require.NoError(t, err)
	require.NotNil(t, repo)

	// Bare repos have refs, objects, etc. directly in the repo directory
	stat, err := fs.Stat("/bare-repo/refs")
	require.NoError(t, err)
	assert.True(t, stat.IsDir())

	_, err = fs.Stat("/bare-repo/.git")
	assert.Error(t, err)

	bare, err := repo.IsBare()
	require.NoError(t, err)
	assert.True(t, bare)

	workdir, err := repo.Workdir()
	require.NoError(t, err)
	assert.Empty(t, workdir)
}

func TestInit_InitialBranch(t *testing.T) {
	fs := memfs.New()

	_, err := Init("/repo", WithFilesystem(fs), WithInitialBranch("main"))
	require.NoError(t, err)

	head, err := util.ReadFile(fs, "/repo/.git/HEAD")
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main\n", string(head))
}

func TestInit_InvalidInitialBranch(t *testing.T) {
	fs := memfs.New()

	_, err := Init("/repo", WithFilesystem(fs), WithInitialBranch("bad..name"))
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))

	// Nothing was created
	_, statErr := fs.Stat("/repo")
	assert.Error(t, statErr)
}

func TestInit_AlreadyExists(t *testing.T) {
	fs := memfs.New()

	// Initialize repository first time
	_, err := Init("/test-repo", WithFilesystem(fs))
	require.NoError(t, err)

	// Try to initialize again at the same path
	_, err = Init("/test-repo", WithFilesystem(fs))
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeAlreadyExists, platformerrors.GetCode(err))
}

func TestInit_NestedPath(t *testing.T) {
	fs := memfs.New()

	// Initialize repository in nested path
	_, err := Init("/parent/child/repo", WithFilesystem(fs))
	require.NoError(t, err)

	// Verify the path was created
	stat, err := fs.Stat("/parent/child/repo/.git")
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}

func TestInit_InvalidPath(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"NUL byte", "/repo\x00x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Init(tt.path, WithFilesystem(memfs.New()))
			require.Error(t, err)
			assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))
		})
	}
}

func TestInit_OSFilesystem(t *testing.T) {
	dir := t.TempDir()

	repo, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, repo.Path())
	assert.True(t, IsRepository(dir))
}

func TestOpen_ExistingRepository(t *testing.T) {
	fs := memfs.New()
	_, err := Init("/repo", WithFilesystem(fs))
	require.NoError(t, err)

	repo, err := Open("/repo", WithFilesystem(fs))
	require.NoError(t, err)
	assert.Equal(t, "/repo", repo.Path())
}

func TestOpen_NotFound(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/empty", 0o755))

	_, err := Open("/empty", WithFilesystem(fs))
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
}

func TestOpen_GitDirFile(t *testing.T) {
	tests := []struct {
		name    string
		pointer string
	}{
		{"absolute", "gitdir: /store/repo.git\n"},
		{"relative", "gitdir: ../store/repo.git\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			_, err := Init("/store/repo.git", WithFilesystem(fs), WithBare())
			require.NoError(t, err)

			require.NoError(t, fs.MkdirAll("/work", 0o755))
			require.NoError(t, util.WriteFile(fs, "/work/.git", []byte(tt.pointer), 0o644))

			repo, err := Open("/work", WithFilesystem(fs))
			require.NoError(t, err)

			bare, err := repo.IsBare()
			require.NoError(t, err)
			assert.False(t, bare)

			workdir, err := repo.Workdir()
			require.NoError(t, err)
			assert.Equal(t, "/work", workdir)
		})
	}
}

func TestOpen_MalformedGitDirFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	require.NoError(t, util.WriteFile(fs, "/work/.git", []byte("not a pointer\n"), 0o644))

	_, err := Open("/work", WithFilesystem(fs))
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
}

func TestIsRepository(t *testing.T) {
	fs := memfs.New()
	_, err := Init("/repo", WithFilesystem(fs))
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("/plain", 0o755))

	assert.True(t, IsRepository("/repo", WithFilesystem(fs)))
	assert.False(t, IsRepository("/plain", WithFilesystem(fs)))
	assert.False(t, IsRepository("", WithFilesystem(fs)))
}

func TestIsEmpty(t *testing.T) {
	t.Run("after first commit", func(t *testing.T) {
		repo, _, _ := createTestRepoWithCommit(t)

		empty, err := repo.IsEmpty()
		require.NoError(t, err)
		assert.False(t, empty)
	})

	t.Run("unborn HEAD with another reference", func(t *testing.T) {
		repo, fs, commit := createTestRepoWithCommit(t)

		// Move the only commit to another branch and leave HEAD unborn.
		setRef(t, fs, plumbing.NewHashReference("refs/heads/other", plumbing.NewHash(commit.ID)))
		require.NoError(t, openGoGit(t, fs).Storer.RemoveReference("refs/heads/master"))

		empty, err := repo.IsEmpty()
		require.NoError(t, err)
		assert.False(t, empty)
	})
}

func TestRepository_Stateless(t *testing.T) {
	fs := memfs.New()
	first, err := Init("/repo", WithFilesystem(fs))
	require.NoError(t, err)
	second, err := Open("/repo", WithFilesystem(fs))
	require.NoError(t, err)

	wt, err := fs.Chroot("/repo")
	require.NoError(t, err)
	commit := commitFile(t, first, wt, "a.txt", "a", "Add a", testEpoch)

	// The second value observes the commit written through the first.
	commits, err := second.Revisions()
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, commit.ID, commits[0].ID)

	// No lock files are left behind.
	locks, err := util.Glob(fs, "/repo/.git/*.lock")
	require.NoError(t, err)
	assert.Empty(t, locks)
}

func TestHandle_ReleaseIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)

	h, err := repo.open()
	require.NoError(t, err)
	assert.False(t, h.isBare())

	h.release()
	h.release()
	assert.True(t, h.released)
}

func TestDefaultSignature(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	t.Run("configured", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		require.NoError(t, repo.SetConfig(map[string]string{
			"user.name":  "Jane Doe",
			"user.email": "jane@example.com",
		}))

		sig, err := repo.DefaultSignature()
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", sig.Name)
		assert.Equal(t, "jane@example.com", sig.Email)
		assert.False(t, sig.When.IsZero())
	})

	t.Run("not configured", func(t *testing.T) {
		repo, _ := newTestRepo(t)

		_, err := repo.DefaultSignature()
		require.Error(t, err)
		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	})
}
