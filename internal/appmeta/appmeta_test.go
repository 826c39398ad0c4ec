package appmeta

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/offline/internal/testutil"
)

func TestRepository_TrackVisit(t *testing.T) {
	ctx := context.Background()
	s := testutil.OpenStore(t)

	session1 := NewRepository(s)
	session1.now = func() time.Time { return time.UnixMilli(1_000) }

	// Repeat calls within one session count a single visit.
	require.NoError(t, session1.TrackVisit(ctx))
	require.NoError(t, session1.TrackVisit(ctx))
	require.NoError(t, session1.TrackVisit(ctx))

	m, err := session1.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.VisitCount)
	assert.Equal(t, int64(1_000), m.FirstVisitAt)

	// A new session increments again but keeps the first visit time.
	session2 := NewRepository(s)
	session2.now = func() time.Time { return time.UnixMilli(9_000) }
	require.NoError(t, session2.TrackVisit(ctx))

	m, err = session2.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, m.VisitCount)
	assert.Equal(t, int64(1_000), m.FirstVisitAt)
}

func TestRepository_LastSyncAt(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testutil.OpenStore(t))

	at, err := repo.LastSyncAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), at)

	require.NoError(t, repo.SetLastSyncAt(ctx, 5_000))

	at, err = repo.LastSyncAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), at)

	// Updating the sync time leaves visit tracking untouched.
	require.NoError(t, repo.TrackVisit(ctx))
	require.NoError(t, repo.SetLastSyncAt(ctx, 6_000))
	m, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.VisitCount)
	assert.Equal(t, int64(6_000), m.LastSyncAt)
}
