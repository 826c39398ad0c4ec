package pack

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_remote "github.com/studyowl/offline/internal/mocks/remote"
	"github.com/studyowl/offline/internal/remote"
	"github.com/studyowl/offline/internal/store"
	"github.com/studyowl/offline/internal/testutil"
)

type fakeSpace struct {
	available bool
	err       error
}

func (s *fakeSpace) IsAvailable(_ context.Context, _ int64) (bool, error) {
	return s.available, s.err
}

func remoteChapter(id string) *remote.Chapter {
	return &remote.Chapter{ID: id, Name: "Algebra", SubjectID: "math", SubjectName: "Mathematics"}
}

func remoteTopics(chapterID string) []remote.Topic {
	return []remote.Topic{
		{ID: chapterID + "-t1", Name: "Linear equations", ConceptCount: 4, Content: "ax + b = 0", Formulas: []string{"x = -b/a"}},
		{ID: chapterID + "-t2", Name: "Quadratics", ConceptCount: 6, Content: "ax^2 + bx + c = 0"},
	}
}

func remoteQuestions(chapterID string, n int) []remote.Question {
	questions := make([]remote.Question, n)
	for i := range questions {
		questions[i] = remote.Question{
			ID:            fmt.Sprintf("%s-q%d", chapterID, i+1),
			TopicID:       chapterID + "-t1",
			Question:      "Solve for x",
			QuestionType:  "mcq",
			Options:       []string{"1", "2", "3", "4"},
			CorrectAnswer: "2",
			Difficulty:    "medium",
		}
	}
	return questions
}

func TestManager_Download(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name          string
		setup         func(client *mock_remote.MockClient)
		space         SpaceChecker
		wantFailure   FailureCode
		wantStored    bool
		wantQuestions int
	}{
		{
			name: "downloads and stores the full pack",
			setup: func(client *mock_remote.MockClient) {
				client.EXPECT().GetChapter(gomock.Any(), "ch-1").Return(remoteChapter("ch-1"), nil)
				client.EXPECT().GetTopics(gomock.Any(), "ch-1").Return(remoteTopics("ch-1"), nil)
				client.EXPECT().GetQuestions(gomock.Any(), []string{"ch-1-t1", "ch-1-t2"}, MaxQuestionsPerChapter).
					Return(remoteQuestions("ch-1", 5), nil)
			},
			wantStored:    true,
			wantQuestions: 5,
		},
		{
			name: "caps questions at the per-chapter limit",
			setup: func(client *mock_remote.MockClient) {
				client.EXPECT().GetChapter(gomock.Any(), "ch-1").Return(remoteChapter("ch-1"), nil)
				client.EXPECT().GetTopics(gomock.Any(), "ch-1").Return(remoteTopics("ch-1"), nil)
				client.EXPECT().GetQuestions(gomock.Any(), gomock.Any(), MaxQuestionsPerChapter).
					Return(remoteQuestions("ch-1", MaxQuestionsPerChapter+7), nil)
			},
			wantStored:    true,
			wantQuestions: MaxQuestionsPerChapter,
		},
		{
			name: "chapter fetch failure writes nothing",
			setup: func(client *mock_remote.MockClient) {
				client.EXPECT().GetChapter(gomock.Any(), "ch-1").Return(nil, fmt.Errorf("connection refused"))
			},
			wantFailure: FailureNetworkError,
		},
		{
			name: "question fetch failure writes nothing",
			setup: func(client *mock_remote.MockClient) {
				client.EXPECT().GetChapter(gomock.Any(), "ch-1").Return(remoteChapter("ch-1"), nil)
				client.EXPECT().GetTopics(gomock.Any(), "ch-1").Return(remoteTopics("ch-1"), nil)
				client.EXPECT().GetQuestions(gomock.Any(), gomock.Any(), MaxQuestionsPerChapter).
					Return(nil, fmt.Errorf("i/o timeout"))
			},
			wantFailure: FailureNetworkError,
		},
		{
			name: "quota shortfall fails with storage full",
			setup: func(client *mock_remote.MockClient) {
				client.EXPECT().GetChapter(gomock.Any(), "ch-1").Return(remoteChapter("ch-1"), nil)
				client.EXPECT().GetTopics(gomock.Any(), "ch-1").Return(remoteTopics("ch-1"), nil)
				client.EXPECT().GetQuestions(gomock.Any(), gomock.Any(), MaxQuestionsPerChapter).
					Return(remoteQuestions("ch-1", 3), nil)
			},
			space:       &fakeSpace{available: false},
			wantFailure: FailureStorageFull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock_remote.NewMockClient(ctrl)
			tt.setup(client)

			s := testutil.OpenStore(t)
			repo := NewStoreRepository(s)
			manager := NewManager(repo, client, s, NewGuard(), tt.space)
			manager.now = func() time.Time { return now }

			result := manager.Download(context.Background(), "ch-1", nil)

			assert.Equal(t, "ch-1", result.ChapterID)
			assert.Equal(t, tt.wantFailure, result.Failure)
			assert.Equal(t, tt.wantFailure == "", result.OK())

			got, err := repo.Get(context.Background(), "ch-1")
			require.NoError(t, err)
			if !tt.wantStored {
				assert.Nil(t, got, "failed download must not leave a partial pack")
				assert.Error(t, result.Err)
				if tt.wantFailure == FailureStorageFull {
					assert.Positive(t, result.BytesNeeded)
				}
				return
			}

			require.NotNil(t, got)
			assert.Equal(t, "Algebra", got.ChapterName)
			assert.Equal(t, "Mathematics", got.SubjectName)
			assert.Len(t, got.Topics, 2)
			assert.Len(t, got.Questions, tt.wantQuestions)
			assert.Equal(t, now.UnixMilli(), got.DownloadedAt)
			assert.Equal(t, now.UnixMilli(), got.LastAccessedAt)
			assert.Equal(t, got.SizeBytes, result.BytesWritten)

			// The recorded size never undercounts the stored record.
			serialized, err := json.Marshal(got)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.SizeBytes, int64(len(serialized)))
		})
	}
}

func TestManager_Download_Progress(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_remote.NewMockClient(ctrl)
	client.EXPECT().GetChapter(gomock.Any(), "ch-1").Return(remoteChapter("ch-1"), nil)
	client.EXPECT().GetTopics(gomock.Any(), "ch-1").Return(remoteTopics("ch-1"), nil)
	client.EXPECT().GetQuestions(gomock.Any(), gomock.Any(), MaxQuestionsPerChapter).
		Return(remoteQuestions("ch-1", 2), nil)

	s := testutil.OpenStore(t)
	manager := NewManager(NewStoreRepository(s), client, s, NewGuard(), nil)

	var milestones []int
	result := manager.Download(context.Background(), "ch-1", func(percent int) {
		milestones = append(milestones, percent)
	})

	require.True(t, result.OK())
	assert.Equal(t, []int{0, 10, 40, 70, 90, 100}, milestones)
}

func TestManager_Download_GuardHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_remote.NewMockClient(ctrl)

	s := testutil.OpenStore(t)
	guard := NewGuard()
	manager := NewManager(NewStoreRepository(s), client, s, guard, nil)

	require.True(t, guard.TryAcquire("ch-1"))
	defer guard.Release("ch-1")

	result := manager.Download(context.Background(), "ch-1", nil)
	assert.Equal(t, FailureUnknown, result.Failure)
	assert.Error(t, result.Err)
}

func TestManager_Get(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenStore(t)
	repo := NewStoreRepository(s)
	manager := NewManager(repo, nil, s, NewGuard(), nil)

	accessedAt := time.UnixMilli(2_000)
	manager.now = func() time.Time { return accessedAt }

	require.NoError(t, repo.Put(ctx, testPack("ch-1", "math", 100)))

	got, err := manager.Get(ctx, "ch-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, accessedAt.UnixMilli(), got.LastAccessedAt)

	// The bump is persisted, not just reflected on the returned pack.
	stored, err := repo.Get(ctx, "ch-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, accessedAt.UnixMilli(), stored.LastAccessedAt)

	missing, err := manager.Get(ctx, "ch-404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestManager_DeleteAll(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenStore(t)
	repo := NewStoreRepository(s)
	manager := NewManager(repo, nil, s, NewGuard(), nil)

	require.NoError(t, repo.Put(ctx, testPack("ch-1", "math", 100)))
	require.NoError(t, s.Put(ctx, store.CollectionPendingResponses, "r1", map[string]any{
		"question_id": "q1", "timestamp": int64(100), "synced": 0,
	}, []byte(`{}`)))
	require.NoError(t, s.Put(ctx, store.CollectionOfflineProgress, "s1-t1", map[string]any{
		"topic_id": "t1", "last_attempt_at": int64(100),
	}, []byte(`{}`)))
	require.NoError(t, s.Put(ctx, store.CollectionAppMetadata, "app", nil, []byte(`{"visitCount":5}`)))

	require.NoError(t, manager.DeleteAll(ctx))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	for _, collection := range []string{store.CollectionPendingResponses, store.CollectionOfflineProgress} {
		n, err := s.Count(ctx, collection)
		require.NoError(t, err)
		assert.Equal(t, 0, n, collection)
	}

	// App metadata survives the wipe.
	meta, err := s.Get(ctx, store.CollectionAppMetadata, "app")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"visitCount":5}`), meta)
}

func TestManager_ListAll(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenStore(t)
	repo := NewStoreRepository(s)
	manager := NewManager(repo, nil, s, NewGuard(), nil)

	require.NoError(t, repo.Put(ctx, testPack("ch-1", "math", 100)))
	require.NoError(t, repo.Put(ctx, testPack("ch-2", "physics", 200)))

	summaries, err := manager.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "ch-1", summaries[0].ChapterID)
	assert.Equal(t, 1, summaries[0].TopicCount)
	assert.Equal(t, 1, summaries[0].QuestionCount)
	assert.Equal(t, int64(1000), summaries[0].SizeBytes)
}
