package git

import (
	"strings"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAnnotatedTag(t *testing.T, gg *gogit.Repository, name string, target plumbing.Hash, message string) *plumbing.Reference {
	t.Helper()

	ref, err := gg.CreateTag(name, target, &gogit.CreateTagOptions{
		Tagger:  &object.Signature{Name: "Tagger", Email: "tagger@example.com", When: testEpoch},
		Message: message,
	})
	require.NoError(t, err)
	return ref
}

func TestTags_Annotated(t *testing.T) {
	repo, fs, commit := createTestRepoWithCommit(t)
	gg := openGoGit(t, fs)
	createAnnotatedTag(t, gg, "v1.0.0", plumbing.NewHash(commit.ID), "Release version 1.0.0")

	tags, err := repo.Tags()
	require.NoError(t, err)
	require.Len(t, tags, 1)

	tag := tags[0]
	assert.Equal(t, "v1.0.0", tag.Name)
	assert.Equal(t, "Release version 1.0.0\n", tag.Message)
	assert.Equal(t, "Tagger", tag.Tagger.Name)
	assert.Equal(t, "tagger@example.com", tag.Tagger.Email)
	assert.True(t, testEpoch.Equal(tag.Tagger.When))
	assert.Equal(t, commit.ID, tag.Target)
	assert.Equal(t, "commit", tag.TargetType)
}

func TestTags_LightweightSkipped(t *testing.T) {
	repo, fs, commit := createTestRepoWithCommit(t)
	gg := openGoGit(t, fs)
	createAnnotatedTag(t, gg, "v1.0.0", plumbing.NewHash(commit.ID), "annotated")
	_, err := gg.CreateTag("light", plumbing.NewHash(commit.ID), nil)
	require.NoError(t, err)

	tags, err := repo.Tags()
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "v1.0.0", tags[0].Name)

	// The lightweight tag is still a reference.
	refs, err := repo.ReferencesMatching("refs/tags/*")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestTags_TagOfTag(t *testing.T) {
	repo, fs, commit := createTestRepoWithCommit(t)
	gg := openGoGit(t, fs)
	inner := createAnnotatedTag(t, gg, "inner", plumbing.NewHash(commit.ID), "inner")
	createAnnotatedTag(t, gg, "outer", inner.Hash(), "outer")

	tags, err := repo.Tags()
	require.NoError(t, err)

	byName := make(map[string]Tag, len(tags))
	for _, tag := range tags {
		byName[tag.Name] = tag
	}
	require.Len(t, byName, 2)
	assert.Equal(t, "tag", byName["outer"].TargetType)
	assert.Equal(t, inner.Hash().String(), byName["outer"].Target)
}

func TestTags_SymbolicSkipped(t *testing.T) {
	repo, fs, commit := createTestRepoWithCommit(t)
	gg := openGoGit(t, fs)
	createAnnotatedTag(t, gg, "v1.0.0", plumbing.NewHash(commit.ID), "annotated")
	setRef(t, fs, plumbing.NewSymbolicReference("refs/tags/latest", "refs/tags/v1.0.0"))

	tags, err := repo.Tags()
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "v1.0.0", tags[0].Name)
}

func TestTags_MissingObject(t *testing.T) {
	repo, fs, _ := createTestRepoWithCommit(t)
	setRef(t, fs, plumbing.NewHashReference("refs/tags/ghost", plumbing.NewHash(strings.Repeat("ab", 20))))

	tags, err := repo.Tags()
	require.Error(t, err)
	assert.Nil(t, tags)
	assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
	assert.Contains(t, err.Error(), "refs/tags/ghost")
}

func TestTags_EmptyRepository(t *testing.T) {
	repo, _ := newTestRepo(t)

	tags, err := repo.Tags()
	require.NoError(t, err)
	assert.Empty(t, tags)
}
