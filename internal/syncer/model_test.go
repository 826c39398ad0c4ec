package syncer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/offline/internal/testutil"
)

func TestNewID(t *testing.T) {
	id := NewID(1_700_000_000_000)
	assert.True(t, strings.HasPrefix(id, "1700000000000-"))
	assert.Len(t, id, len("1700000000000-")+8)
	assert.NotEqual(t, id, NewID(1_700_000_000_000))
}

func TestResolveConflict(t *testing.T) {
	tests := []struct {
		name       string
		stored     *PendingResponse
		fresh      *PendingResponse
		wantAnswer string
	}{
		{
			name:       "later fresh timestamp wins",
			stored:     &PendingResponse{Answer: "old", Timestamp: 1_000},
			fresh:      &PendingResponse{Answer: "new", Timestamp: 2_000},
			wantAnswer: "new",
		},
		{
			name:       "later stored timestamp wins",
			stored:     &PendingResponse{Answer: "old", Timestamp: 3_000},
			fresh:      &PendingResponse{Answer: "new", Timestamp: 2_000},
			wantAnswer: "old",
		},
		{
			name:       "tie keeps the stored record",
			stored:     &PendingResponse{Answer: "old", Timestamp: 2_000},
			fresh:      &PendingResponse{Answer: "new", Timestamp: 2_000},
			wantAnswer: "old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveConflict(tt.stored, tt.fresh)
			assert.Equal(t, tt.wantAnswer, got.Answer)
		})
	}
}

func TestStoreRepository_Unsynced(t *testing.T) {
	ctx := context.Background()
	repo := NewStoreRepository(testutil.OpenStore(t))

	unsynced := &PendingResponse{ID: "1000-aaaa", QuestionID: "q-1", Answer: "a", Timestamp: 1_000}
	synced := &PendingResponse{ID: "2000-bbbb", QuestionID: "q-2", Answer: "b", Timestamp: 2_000, Synced: true}
	require.NoError(t, repo.Put(ctx, unsynced))
	require.NoError(t, repo.Put(ctx, synced))

	got, err := repo.FindUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q-1", got[0].QuestionID)

	n, err := repo.CountUnsynced(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	byQuestion, err := repo.FindUnsyncedByQuestion(ctx, "q-1")
	require.NoError(t, err)
	require.NotNil(t, byQuestion)
	assert.Equal(t, "1000-aaaa", byQuestion.ID)

	// A synced record is invisible to the unsynced lookup.
	byQuestion, err = repo.FindUnsyncedByQuestion(ctx, "q-2")
	require.NoError(t, err)
	assert.Nil(t, byQuestion)
}
