package testutil

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/gitstate/git"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryRepo(t *testing.T) {
	t.Run("creates valid repository", func(t *testing.T) {
		repo, fs, err := NewMemoryRepo()
		require.NoError(t, err)
		require.NotNil(t, repo)
		require.NotNil(t, fs)

		empty, err := repo.IsEmpty()
		require.NoError(t, err)
		assert.True(t, empty)

		_, err = fs.Stat(".git/HEAD")
		assert.NoError(t, err)
	})

	t.Run("filesystem is the working tree", func(t *testing.T) {
		repo, fs, err := NewMemoryRepo()
		require.NoError(t, err)

		require.NoError(t, CreateTestFile(fs, TestFilePath, TestFileContent))

		status, err := repo.Status(git.DefaultStatusOptions())
		require.NoError(t, err)
		require.Len(t, status.Untracked, 1)
		assert.Equal(t, TestFilePath, status.Untracked[0].Path)
	})
}

func TestCreateTestFile(t *testing.T) {
	_, fs, err := NewMemoryRepo()
	require.NoError(t, err)

	require.NoError(t, CreateTestFile(fs, TestFilePath2, "first"))
	require.NoError(t, CreateTestFile(fs, TestFilePath2, "second"))

	content, err := util.ReadFile(fs, TestFilePath2)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestCommitFile(t *testing.T) {
	t.Run("creates commit", func(t *testing.T) {
		repo, fs, err := NewMemoryRepo()
		require.NoError(t, err)

		id, err := CommitFile(repo, fs, TestFilePath, TestFileContent, TestInitialCommit)
		require.NoError(t, err)
		assert.Len(t, id, 40)

		commits, err := repo.Revisions()
		require.NoError(t, err)
		require.Len(t, commits, 1)
		assert.Equal(t, id, commits[0].ID)
		assert.Equal(t, TestAuthor, commits[0].Author.Name)
		assert.Equal(t, TestEmail, commits[0].Author.Email)
	})

	t.Run("fixed time", func(t *testing.T) {
		repo, fs, err := NewMemoryRepo()
		require.NoError(t, err)

		when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		_, err = CommitFileAt(repo, fs, TestFilePath, TestFileContent, TestInitialCommit, when)
		require.NoError(t, err)

		commits, err := repo.Revisions()
		require.NoError(t, err)
		require.Len(t, commits, 1)
		assert.True(t, when.Equal(commits[0].Committer.When))
	})
}

func TestCreateTestTag(t *testing.T) {
	repo, fs, err := NewMemoryRepo()
	require.NoError(t, err)

	id, err := CommitFile(repo, fs, TestFilePath, TestFileContent, TestInitialCommit)
	require.NoError(t, err)

	require.NoError(t, CreateTestTag(fs, TestTagName, id, TestTagMessage))
	require.NoError(t, CreateTestTag(fs, "lightweight", id, ""))

	tags, err := repo.Tags()
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, TestTagName, tags[0].Name)
	assert.Equal(t, id, tags[0].Target)

	refs, err := repo.ReferencesMatching("refs/tags/*")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}
