package pack

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studyowl/offline/internal/store"
)

// Repository defines persistence operations for lesson packs.
type Repository interface {
	Get(ctx context.Context, chapterID string) (*LessonPack, error)
	Put(ctx context.Context, p *LessonPack) error
	Delete(ctx context.Context, chapterID string) error
	Exists(ctx context.Context, chapterID string) (bool, error)
	FindAll(ctx context.Context) ([]LessonPack, error)
	// FindByLastAccessed returns all packs ordered by lastAccessedAt ascending.
	FindByLastAccessed(ctx context.Context) ([]LessonPack, error)
	FindBySubject(ctx context.Context, subjectID string) ([]LessonPack, error)
	// Touch updates a pack's lastAccessedAt.
	Touch(ctx context.Context, chapterID string, accessedAt int64) error
	Count(ctx context.Context) (int, error)
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

func packColumns(p *LessonPack) map[string]any {
	return map[string]any{
		"subject_id":       p.SubjectID,
		"downloaded_at":    p.DownloadedAt,
		"last_accessed_at": p.LastAccessedAt,
		"size_bytes":       p.SizeBytes,
	}
}

func decodePacks(rows [][]byte) ([]LessonPack, error) {
	packs := make([]LessonPack, 0, len(rows))
	for _, row := range rows {
		var p LessonPack
		if err := json.Unmarshal(row, &p); err != nil {
			return nil, fmt.Errorf("json.Unmarshal(lesson_pack) > %w", err)
		}
		packs = append(packs, p)
	}
	return packs, nil
}

// Get returns the pack for chapterID, or nil if it is not downloaded.
func (r *StoreRepository) Get(ctx context.Context, chapterID string) (*LessonPack, error) {
	data, err := r.store.Get(ctx, store.CollectionLessonPacks, chapterID)
	if err != nil {
		return nil, fmt.Errorf("store.Get() > %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var p LessonPack
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(lesson_pack) > %w", err)
	}
	return &p, nil
}

// Put writes the pack as a single record.
func (r *StoreRepository) Put(ctx context.Context, p *LessonPack) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("json.Marshal(lesson_pack) > %w", err)
	}
	if err := r.store.Put(ctx, store.CollectionLessonPacks, p.ChapterID, packColumns(p), data); err != nil {
		return fmt.Errorf("store.Put() > %w", err)
	}
	return nil
}

// Delete removes the pack for chapterID.
func (r *StoreRepository) Delete(ctx context.Context, chapterID string) error {
	if err := r.store.Delete(ctx, store.CollectionLessonPacks, chapterID); err != nil {
		return fmt.Errorf("store.Delete() > %w", err)
	}
	return nil
}

// Exists reports whether a pack is downloaded for chapterID.
func (r *StoreRepository) Exists(ctx context.Context, chapterID string) (bool, error) {
	data, err := r.store.Get(ctx, store.CollectionLessonPacks, chapterID)
	if err != nil {
		return false, fmt.Errorf("store.Get() > %w", err)
	}
	return data != nil, nil
}

// FindAll returns every downloaded pack.
func (r *StoreRepository) FindAll(ctx context.Context) ([]LessonPack, error) {
	rows, err := r.store.GetAll(ctx, store.CollectionLessonPacks)
	if err != nil {
		return nil, fmt.Errorf("store.GetAll() > %w", err)
	}
	return decodePacks(rows)
}

// FindByLastAccessed returns packs ordered by lastAccessedAt ascending,
// the LRU eviction order.
func (r *StoreRepository) FindByLastAccessed(ctx context.Context) ([]LessonPack, error) {
	rows, err := r.store.GetAllByIndex(ctx, store.CollectionLessonPacks, store.IndexPacksByLastAccessedAt)
	if err != nil {
		return nil, fmt.Errorf("store.GetAllByIndex() > %w", err)
	}
	return decodePacks(rows)
}

// FindBySubject returns packs for one subject.
func (r *StoreRepository) FindBySubject(ctx context.Context, subjectID string) ([]LessonPack, error) {
	rows, err := r.store.GetByIndex(ctx, store.CollectionLessonPacks, store.IndexPacksBySubjectID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("store.GetByIndex() > %w", err)
	}
	return decodePacks(rows)
}

// Touch updates the pack's lastAccessedAt. Touching a missing pack is a no-op.
func (r *StoreRepository) Touch(ctx context.Context, chapterID string, accessedAt int64) error {
	p, err := r.Get(ctx, chapterID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	p.LastAccessedAt = accessedAt
	return r.Put(ctx, p)
}

// Count returns the number of downloaded packs.
func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, store.CollectionLessonPacks)
	if err != nil {
		return 0, fmt.Errorf("store.Count() > %w", err)
	}
	return n, nil
}

// Clear removes every pack.
func (r *StoreRepository) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx, store.CollectionLessonPacks); err != nil {
		return fmt.Errorf("store.Clear() > %w", err)
	}
	return nil
}
