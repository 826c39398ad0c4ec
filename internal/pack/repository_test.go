package pack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/offline/internal/testutil"
)

func testPack(chapterID, subjectID string, lastAccessedAt int64) *LessonPack {
	return &LessonPack{
		ChapterID:   chapterID,
		ChapterName: "Chapter " + chapterID,
		SubjectID:   subjectID,
		SubjectName: "Subject " + subjectID,
		Topics: []Topic{
			{ID: chapterID + "-t1", Name: "Topic 1", ConceptCount: 3, Content: "content"},
		},
		Questions: []Question{
			{ID: chapterID + "-q1", TopicID: chapterID + "-t1", Question: "2+2?", QuestionType: "mcq", CorrectAnswer: "4", Difficulty: "easy"},
		},
		DownloadedAt:   lastAccessedAt,
		LastAccessedAt: lastAccessedAt,
		SizeBytes:      1000,
	}
}

func TestStoreRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(testutil.OpenStore(t))

	want := testPack("ch-1", "math", 100)
	require.NoError(t, repo.Put(ctx, want))

	got, err := repo.Get(ctx, "ch-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, got)

	missing, err := repo.Get(ctx, "ch-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreRepository_Exists(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(testutil.OpenStore(t))

	ok, err := repo.Exists(ctx, "ch-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, testPack("ch-1", "math", 100)))

	ok, err = repo.Exists(ctx, "ch-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStoreRepository_FindByLastAccessed(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(testutil.OpenStore(t))

	require.NoError(t, repo.Put(ctx, testPack("ch-new", "math", 300)))
	require.NoError(t, repo.Put(ctx, testPack("ch-old", "math", 100)))
	require.NoError(t, repo.Put(ctx, testPack("ch-mid", "physics", 200)))

	got, err := repo.FindByLastAccessed(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "ch-old", got[0].ChapterID)
	assert.Equal(t, "ch-mid", got[1].ChapterID)
	assert.Equal(t, "ch-new", got[2].ChapterID)
}

func TestStoreRepository_FindBySubject(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(testutil.OpenStore(t))

	require.NoError(t, repo.Put(ctx, testPack("ch-1", "math", 100)))
	require.NoError(t, repo.Put(ctx, testPack("ch-2", "physics", 200)))
	require.NoError(t, repo.Put(ctx, testPack("ch-3", "math", 300)))

	got, err := repo.FindBySubject(ctx, "math")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, "math", p.SubjectID)
	}
}

func TestStoreRepository_Touch(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(testutil.OpenStore(t))

	require.NoError(t, repo.Put(ctx, testPack("ch-1", "math", 100)))
	require.NoError(t, repo.Touch(ctx, "ch-1", 500))

	got, err := repo.Get(ctx, "ch-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(500), got.LastAccessedAt)
	assert.Equal(t, int64(100), got.DownloadedAt)

	// The eviction order index follows the bump.
	ordered, err := repo.FindByLastAccessed(ctx)
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, int64(500), ordered[0].LastAccessedAt)

	// Touching a missing pack is a no-op.
	assert.NoError(t, repo.Touch(ctx, "ch-missing", 500))
}

func TestStoreRepository_DeleteCountClear(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(testutil.OpenStore(t))

	require.NoError(t, repo.Put(ctx, testPack("ch-1", "math", 100)))
	require.NoError(t, repo.Put(ctx, testPack("ch-2", "math", 200)))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.Delete(ctx, "ch-1"))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.Clear(ctx))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
