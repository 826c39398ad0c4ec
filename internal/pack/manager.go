package pack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyowl/offline/internal/remote"
	"github.com/studyowl/offline/internal/store"
)

// FailureCode classifies a failed download.
type FailureCode string

const (
	// FailureStorageFull means the write hit the storage quota.
	FailureStorageFull FailureCode = "STORAGE_FULL"
	// FailureNetworkError means a remote fetch failed.
	FailureNetworkError FailureCode = "NETWORK_ERROR"
	// FailureUnknown covers anything else; Download never returns an
	// untagged failure.
	FailureUnknown FailureCode = "UNKNOWN"
)

// DownloadResult is the outcome of one Download call.
type DownloadResult struct {
	ChapterID    string
	BytesWritten int64
	// BytesNeeded is the pack size that did not fit, set on STORAGE_FULL.
	BytesNeeded int64
	// Failure is empty on success.
	Failure FailureCode
	Err     error
}

// OK reports whether the download succeeded.
func (r DownloadResult) OK() bool {
	return r.Failure == ""
}

// ProgressFunc receives coarse download milestones from 0 to 100. Values
// are monotonically increasing but not byte-accurate.
type ProgressFunc func(percent int)

// SpaceChecker reports whether the storage quota can absorb a write.
// Implemented by the storage accountant.
type SpaceChecker interface {
	IsAvailable(ctx context.Context, requiredBytes int64) (bool, error)
}

// Manager materializes lesson packs from the remote source and owns their
// lifecycle in the durable store.
type Manager struct {
	repo   Repository
	remote remote.Client
	store  *store.Store
	guard  *Guard
	space  SpaceChecker
	now    func() time.Time
}

// NewManager creates a Manager. space may be nil, in which case only the
// database's own quota errors bound downloads.
func NewManager(repo Repository, remoteClient remote.Client, s *store.Store, guard *Guard, space SpaceChecker) *Manager {
	return &Manager{
		repo:   repo,
		remote: remoteClient,
		store:  s,
		guard:  guard,
		space:  space,
		now:    time.Now,
	}
}

// Download fetches one chapter's content and questions and writes them as a
// single pack record. It never returns an error; every outcome is a typed
// DownloadResult. No partial pack is ever written: any fetch failure aborts
// before the store write.
func (m *Manager) Download(ctx context.Context, chapterID string, onProgress ProgressFunc) DownloadResult {
	if onProgress == nil {
		onProgress = func(int) {}
	}

	if !m.guard.TryAcquire(chapterID) {
		return DownloadResult{
			ChapterID: chapterID,
			Failure:   FailureUnknown,
			Err:       fmt.Errorf("download already in flight for chapter %s", chapterID),
		}
	}
	defer m.guard.Release(chapterID)

	onProgress(0)

	chapter, err := m.remote.GetChapter(ctx, chapterID)
	if err != nil {
		return DownloadResult{ChapterID: chapterID, Failure: FailureNetworkError, Err: fmt.Errorf("remote.GetChapter() > %w", err)}
	}
	onProgress(10)

	topics, err := m.remote.GetTopics(ctx, chapterID)
	if err != nil {
		return DownloadResult{ChapterID: chapterID, Failure: FailureNetworkError, Err: fmt.Errorf("remote.GetTopics() > %w", err)}
	}
	onProgress(40)

	topicIDs := make([]string, len(topics))
	for i, t := range topics {
		topicIDs[i] = t.ID
	}
	questions, err := m.remote.GetQuestions(ctx, topicIDs, MaxQuestionsPerChapter)
	if err != nil {
		return DownloadResult{ChapterID: chapterID, Failure: FailureNetworkError, Err: fmt.Errorf("remote.GetQuestions() > %w", err)}
	}
	if len(questions) > MaxQuestionsPerChapter {
		questions = questions[:MaxQuestionsPerChapter]
	}
	onProgress(70)

	now := m.now().UnixMilli()
	p := &LessonPack{
		ChapterID:      chapter.ID,
		ChapterName:    chapter.Name,
		SubjectID:      chapter.SubjectID,
		SubjectName:    chapter.SubjectName,
		Topics:         convertTopics(topics),
		Questions:      convertQuestions(questions),
		DownloadedAt:   now,
		LastAccessedAt: now,
	}

	// sizeBytes covers the record as stored, including the sizeBytes field
	// itself, so the recorded value never undercounts the serialized pack.
	for {
		serialized, err := json.Marshal(p)
		if err != nil {
			return DownloadResult{ChapterID: chapterID, Failure: FailureUnknown, Err: fmt.Errorf("json.Marshal(lesson_pack) > %w", err)}
		}
		if int64(len(serialized)) <= p.SizeBytes {
			break
		}
		p.SizeBytes = int64(len(serialized))
	}
	onProgress(90)

	if m.space != nil {
		ok, err := m.space.IsAvailable(ctx, p.SizeBytes)
		if err != nil {
			return DownloadResult{ChapterID: chapterID, Failure: FailureUnknown, Err: fmt.Errorf("space.IsAvailable() > %w", err)}
		}
		if !ok {
			return DownloadResult{ChapterID: chapterID, BytesNeeded: p.SizeBytes, Failure: FailureStorageFull, Err: fmt.Errorf("quota cannot fit %d bytes for chapter %s", p.SizeBytes, chapterID)}
		}
	}

	if err := m.repo.Put(ctx, p); err != nil {
		if errors.Is(err, store.ErrQuotaExceeded) {
			return DownloadResult{ChapterID: chapterID, BytesNeeded: p.SizeBytes, Failure: FailureStorageFull, Err: err}
		}
		return DownloadResult{ChapterID: chapterID, Failure: FailureUnknown, Err: err}
	}
	onProgress(100)

	return DownloadResult{ChapterID: chapterID, BytesWritten: p.SizeBytes}
}

// IsDownloaded reports whether the chapter is available offline.
func (m *Manager) IsDownloaded(ctx context.Context, chapterID string) (bool, error) {
	ok, err := m.repo.Exists(ctx, chapterID)
	if err != nil {
		return false, fmt.Errorf("repo.Exists() > %w", err)
	}
	return ok, nil
}

// Get returns the pack for chapterID, or nil if it is not downloaded.
// Reading a pack bumps its lastAccessedAt so eviction tracks true access
// recency, not download recency.
func (m *Manager) Get(ctx context.Context, chapterID string) (*LessonPack, error) {
	p, err := m.repo.Get(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("repo.Get() > %w", err)
	}
	if p == nil {
		return nil, nil
	}
	accessedAt := m.now().UnixMilli()
	if err := m.repo.Touch(ctx, chapterID, accessedAt); err != nil {
		// Reads still succeed when the access-time bump fails.
		slog.Default().Warn("failed to update pack access time",
			slog.String("chapterId", chapterID),
			slog.Any("error", err),
		)
	} else {
		p.LastAccessedAt = accessedAt
	}
	return p, nil
}

// Delete removes one pack.
func (m *Manager) Delete(ctx context.Context, chapterID string) error {
	if err := m.repo.Delete(ctx, chapterID); err != nil {
		return fmt.Errorf("repo.Delete() > %w", err)
	}
	return nil
}

// DeleteAll wipes all offline learning data: packs, pending responses, and
// offline progress. App metadata (visit tracking, last sync) survives.
func (m *Manager) DeleteAll(ctx context.Context) error {
	if err := m.repo.Clear(ctx); err != nil {
		return fmt.Errorf("repo.Clear() > %w", err)
	}
	if err := m.store.Clear(ctx, store.CollectionPendingResponses); err != nil {
		return fmt.Errorf("store.Clear(pending_responses) > %w", err)
	}
	if err := m.store.Clear(ctx, store.CollectionOfflineProgress); err != nil {
		return fmt.Errorf("store.Clear(offline_progress) > %w", err)
	}
	return nil
}

// ListAll returns summary records for every downloaded pack.
func (m *Manager) ListAll(ctx context.Context) ([]Summary, error) {
	packs, err := m.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.FindAll() > %w", err)
	}
	summaries := make([]Summary, len(packs))
	for i := range packs {
		summaries[i] = packs[i].Summary()
	}
	return summaries, nil
}

func convertTopics(topics []remote.Topic) []Topic {
	out := make([]Topic, len(topics))
	for i, t := range topics {
		out[i] = Topic{
			ID:              t.ID,
			Name:            t.Name,
			ConceptCount:    t.ConceptCount,
			Content:         t.Content,
			Formulas:        t.Formulas,
			TextbookPageRef: t.TextbookPageRef,
		}
	}
	return out
}

func convertQuestions(questions []remote.Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = Question{
			ID:            q.ID,
			TopicID:       q.TopicID,
			Question:      q.Question,
			QuestionType:  q.QuestionType,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Hint:          q.Hint,
			Solution:      q.Solution,
			CurriculumRef: q.CurriculumRef,
			Difficulty:    q.Difficulty,
		}
	}
	return out
}
