// Package progress tracks per-topic offline practice counters. The counters
// are opportunistic, not authoritative; the backend reconciles them after
// sync.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studyowl/offline/internal/store"
)

//go:generate mockgen -source=progress.go -destination=../mocks/progress/mock_progress.go -package=mock_progress

// OfflineProgress is one student's offline counters for one topic.
// The record key is "<studentId>-<topicId>".
type OfflineProgress struct {
	Key           string `json:"key"`
	StudentID     string `json:"studentId"`
	TopicID       string `json:"topicId"`
	Attempts      int    `json:"attempts"`
	CorrectCount  int    `json:"correctCount"`
	LastAttemptAt int64  `json:"lastAttemptAt"`
}

// RecordKey builds the composite record key.
func RecordKey(studentID, topicID string) string {
	return studentID + "-" + topicID
}

// Updater is the gamification hook invoked as sync completes. Its internals
// (points, badges, mastery) live behind the backend; the sync engine only
// reports synced attempts to it.
type Updater interface {
	ApplyAttempt(ctx context.Context, studentID, questionID string, correct bool) error
}

// Repository defines persistence operations for offline progress.
type Repository interface {
	Get(ctx context.Context, studentID, topicID string) (*OfflineProgress, error)
	Put(ctx context.Context, p *OfflineProgress) error
	FindByTopic(ctx context.Context, topicID string) ([]OfflineProgress, error)
	FindAll(ctx context.Context) ([]OfflineProgress, error)
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

// Get returns the progress record, or nil if none exists.
func (r *StoreRepository) Get(ctx context.Context, studentID, topicID string) (*OfflineProgress, error) {
	data, err := r.store.Get(ctx, store.CollectionOfflineProgress, RecordKey(studentID, topicID))
	if err != nil {
		return nil, fmt.Errorf("store.Get() > %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var p OfflineProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(offline_progress) > %w", err)
	}
	return &p, nil
}

// Put upserts the progress record.
func (r *StoreRepository) Put(ctx context.Context, p *OfflineProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("json.Marshal(offline_progress) > %w", err)
	}
	cols := map[string]any{
		"topic_id":        p.TopicID,
		"last_attempt_at": p.LastAttemptAt,
	}
	if err := r.store.Put(ctx, store.CollectionOfflineProgress, p.Key, cols, data); err != nil {
		return fmt.Errorf("store.Put() > %w", err)
	}
	return nil
}

// FindByTopic returns all students' progress for one topic.
func (r *StoreRepository) FindByTopic(ctx context.Context, topicID string) ([]OfflineProgress, error) {
	rows, err := r.store.GetByIndex(ctx, store.CollectionOfflineProgress, store.IndexProgressByTopicID, topicID)
	if err != nil {
		return nil, fmt.Errorf("store.GetByIndex() > %w", err)
	}
	return decode(rows)
}

// FindAll returns every progress record.
func (r *StoreRepository) FindAll(ctx context.Context) ([]OfflineProgress, error) {
	rows, err := r.store.GetAll(ctx, store.CollectionOfflineProgress)
	if err != nil {
		return nil, fmt.Errorf("store.GetAll() > %w", err)
	}
	return decode(rows)
}

// Clear removes every progress record.
func (r *StoreRepository) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx, store.CollectionOfflineProgress); err != nil {
		return fmt.Errorf("store.Clear() > %w", err)
	}
	return nil
}

func decode(rows [][]byte) ([]OfflineProgress, error) {
	out := make([]OfflineProgress, 0, len(rows))
	for _, row := range rows {
		var p OfflineProgress
		if err := json.Unmarshal(row, &p); err != nil {
			return nil, fmt.Errorf("json.Unmarshal(offline_progress) > %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Recorder updates offline counters as answers are recorded.
type Recorder struct {
	repo Repository
	now  func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record bumps the attempt counters for one answered question.
func (rec *Recorder) Record(ctx context.Context, studentID, topicID string, correct bool) error {
	p, err := rec.repo.Get(ctx, studentID, topicID)
	if err != nil {
		return fmt.Errorf("repo.Get() > %w", err)
	}
	if p == nil {
		p = &OfflineProgress{
			Key:       RecordKey(studentID, topicID),
			StudentID: studentID,
			TopicID:   topicID,
		}
	}
	p.Attempts++
	if correct {
		p.CorrectCount++
	}
	p.LastAttemptAt = rec.now().UnixMilli()
	if err := rec.repo.Put(ctx, p); err != nil {
		return fmt.Errorf("repo.Put() > %w", err)
	}
	return nil
}
