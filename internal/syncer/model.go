// Package syncer queues practice responses recorded offline and drains them
// to the backend with conflict resolution by recency.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/studyowl/offline/internal/store"
)

// PendingResponse is one offline-recorded answer awaiting sync. At most one
// unsynced record exists per question at any time; a newer offline answer
// to the same question replaces the older one.
type PendingResponse struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
	// Timestamp is epoch milliseconds, the conflict-resolution key.
	Timestamp int64 `json:"timestamp"`
	Synced    bool  `json:"synced"`
}

// NewID builds a pending response id from its timestamp plus a random
// suffix, keeping ids unique and roughly insertion-ordered.
func NewID(timestamp int64) string {
	return fmt.Sprintf("%d-%s", timestamp, uuid.NewString()[:8])
}

// ResolveConflict returns whichever record has the later timestamp.
// Ties keep a, the already-stored record.
func ResolveConflict(a, b *PendingResponse) *PendingResponse {
	if b.Timestamp > a.Timestamp {
		return b
	}
	return a
}

// Repository defines persistence operations for pending responses. The
// collection only ever holds unsynced records: a response is deleted as
// soon as it is synced or superseded.
type Repository interface {
	Get(ctx context.Context, id string) (*PendingResponse, error)
	Put(ctx context.Context, p *PendingResponse) error
	Delete(ctx context.Context, id string) error
	// FindUnsyncedByQuestion returns the unsynced response for a question,
	// or nil if none is queued.
	FindUnsyncedByQuestion(ctx context.Context, questionID string) (*PendingResponse, error)
	FindUnsynced(ctx context.Context) ([]PendingResponse, error)
	CountUnsynced(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// StoreRepository implements Repository over the durable store.
type StoreRepository struct {
	store *store.Store
}

// NewStoreRepository creates a new StoreRepository.
func NewStoreRepository(s *store.Store) *StoreRepository {
	return &StoreRepository{store: s}
}

func syncedColumn(synced bool) int {
	if synced {
		return 1
	}
	return 0
}

func responseColumns(p *PendingResponse) map[string]any {
	return map[string]any{
		"question_id": p.QuestionID,
		"timestamp":   p.Timestamp,
		"synced":      syncedColumn(p.Synced),
	}
}

// Get returns the response for id, or nil if it no longer exists.
func (r *StoreRepository) Get(ctx context.Context, id string) (*PendingResponse, error) {
	data, err := r.store.Get(ctx, store.CollectionPendingResponses, id)
	if err != nil {
		return nil, fmt.Errorf("store.Get() > %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var p PendingResponse
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(pending_response) > %w", err)
	}
	return &p, nil
}

// Put upserts the response.
func (r *StoreRepository) Put(ctx context.Context, p *PendingResponse) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("json.Marshal(pending_response) > %w", err)
	}
	if err := r.store.Put(ctx, store.CollectionPendingResponses, p.ID, responseColumns(p), data); err != nil {
		return fmt.Errorf("store.Put() > %w", err)
	}
	return nil
}

// Delete removes the response for id.
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, store.CollectionPendingResponses, id); err != nil {
		return fmt.Errorf("store.Delete() > %w", err)
	}
	return nil
}

// FindUnsyncedByQuestion returns the unsynced response for questionID, or
// nil if none is queued.
func (r *StoreRepository) FindUnsyncedByQuestion(ctx context.Context, questionID string) (*PendingResponse, error) {
	rows, err := r.store.GetByIndex(ctx, store.CollectionPendingResponses, store.IndexPendingByQuestionID, questionID)
	if err != nil {
		return nil, fmt.Errorf("store.GetByIndex() > %w", err)
	}
	for _, row := range rows {
		var p PendingResponse
		if err := json.Unmarshal(row, &p); err != nil {
			return nil, fmt.Errorf("json.Unmarshal(pending_response) > %w", err)
		}
		if !p.Synced {
			return &p, nil
		}
	}
	return nil, nil
}

// FindUnsynced returns every unsynced response in store enumeration order.
func (r *StoreRepository) FindUnsynced(ctx context.Context) ([]PendingResponse, error) {
	rows, err := r.store.GetByIndex(ctx, store.CollectionPendingResponses, store.IndexPendingBySynced, 0)
	if err != nil {
		return nil, fmt.Errorf("store.GetByIndex() > %w", err)
	}
	out := make([]PendingResponse, 0, len(rows))
	for _, row := range rows {
		var p PendingResponse
		if err := json.Unmarshal(row, &p); err != nil {
			return nil, fmt.Errorf("json.Unmarshal(pending_response) > %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// CountUnsynced returns the number of unsynced responses.
func (r *StoreRepository) CountUnsynced(ctx context.Context) (int, error) {
	n, err := r.store.CountByIndex(ctx, store.CollectionPendingResponses, store.IndexPendingBySynced, 0)
	if err != nil {
		return 0, fmt.Errorf("store.CountByIndex() > %w", err)
	}
	return n, nil
}

// Clear removes every response.
func (r *StoreRepository) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx, store.CollectionPendingResponses); err != nil {
		return fmt.Errorf("store.Clear() > %w", err)
	}
	return nil
}
