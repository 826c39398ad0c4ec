// Package appmeta persists app-shell metadata: visit tracking and the last
// successful sync time. This collection survives a full offline-data wipe.
package appmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/studyowl/offline/internal/store"
)

// MetadataKey is the singleton record key.
const MetadataKey = "app"

// Metadata is the app-shell record. Timestamps are epoch milliseconds;
// zero means unset.
type Metadata struct {
	LastSyncAt   int64 `json:"lastSyncAt"`
	VisitCount   int   `json:"visitCount"`
	FirstVisitAt int64 `json:"firstVisitAt"`
}

// Repository reads and writes app metadata.
type Repository struct {
	store *store.Store

	// visitOnce is the session guard: one app load counts one visit no
	// matter how many components call TrackVisit.
	visitOnce sync.Once
	now       func() time.Time
}

// NewRepository creates a Repository.
func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s, now: time.Now}
}

// Get returns the metadata record, or the zero value if none exists yet.
func (r *Repository) Get(ctx context.Context) (Metadata, error) {
	data, err := r.store.Get(ctx, store.CollectionAppMetadata, MetadataKey)
	if err != nil {
		return Metadata{}, fmt.Errorf("store.Get() > %w", err)
	}
	if data == nil {
		return Metadata{}, nil
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("json.Unmarshal(app_metadata) > %w", err)
	}
	return m, nil
}

func (r *Repository) put(ctx context.Context, m Metadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("json.Marshal(app_metadata) > %w", err)
	}
	if err := r.store.Put(ctx, store.CollectionAppMetadata, MetadataKey, nil, data); err != nil {
		return fmt.Errorf("store.Put() > %w", err)
	}
	return nil
}

// TrackVisit increments the visit counter once per session and sets
// firstVisitAt on the very first visit. Repeat calls within one session
// are no-ops.
func (r *Repository) TrackVisit(ctx context.Context) error {
	var trackErr error
	r.visitOnce.Do(func() {
		m, err := r.Get(ctx)
		if err != nil {
			trackErr = err
			return
		}
		m.VisitCount++
		if m.FirstVisitAt == 0 {
			m.FirstVisitAt = r.now().UnixMilli()
		}
		trackErr = r.put(ctx, m)
	})
	return trackErr
}

// LastSyncAt returns the last successful sync time, zero if never synced.
func (r *Repository) LastSyncAt(ctx context.Context) (int64, error) {
	m, err := r.Get(ctx)
	if err != nil {
		return 0, err
	}
	return m.LastSyncAt, nil
}

// SetLastSyncAt records the last successful sync time.
func (r *Repository) SetLastSyncAt(ctx context.Context, at int64) error {
	m, err := r.Get(ctx)
	if err != nil {
		return err
	}
	m.LastSyncAt = at
	return r.put(ctx, m)
}
