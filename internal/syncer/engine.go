package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyowl/offline/internal/appmeta"
	"github.com/studyowl/offline/internal/progress"
	"github.com/studyowl/offline/internal/remote"
)

// Result tallies one drain pass. Every pending response present before the
// pass lands in exactly one bucket.
type Result struct {
	Synced    int
	Failed    int
	Conflicts int
}

// Engine queues offline answers and drains them to the backend. Draining is
// idempotent: a synced response is deleted, so a racing second drain finds
// nothing left to do.
type Engine struct {
	repo      Repository
	remote    remote.Client
	meta      *appmeta.Repository
	updater   progress.Updater
	studentID string
	now       func() time.Time

	// requests serializes sync triggers; the single-slot buffer coalesces
	// concurrent requests into one queued drain.
	requests chan struct{}
}

// NewEngine creates an Engine. updater may be nil when no gamification hook
// is wired.
func NewEngine(repo Repository, remoteClient remote.Client, meta *appmeta.Repository, updater progress.Updater, studentID string) *Engine {
	return &Engine{
		repo:      repo,
		remote:    remoteClient,
		meta:      meta,
		updater:   updater,
		studentID: studentID,
		now:       time.Now,
		requests:  make(chan struct{}, 1),
	}
}

// QueueResponse records an offline answer. If an unsynced response for the
// same question is already queued, whichever has the later timestamp wins;
// ties keep the stored record. Exactly one unsynced response per question
// remains afterwards.
func (e *Engine) QueueResponse(ctx context.Context, questionID, answer string, isCorrect bool) (*PendingResponse, error) {
	timestamp := e.now().UnixMilli()
	fresh := &PendingResponse{
		ID:         NewID(timestamp),
		QuestionID: questionID,
		Answer:     answer,
		IsCorrect:  isCorrect,
		Timestamp:  timestamp,
	}

	existing, err := e.repo.FindUnsyncedByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("repo.FindUnsyncedByQuestion() > %w", err)
	}
	if existing == nil {
		if err := e.repo.Put(ctx, fresh); err != nil {
			return nil, fmt.Errorf("repo.Put() > %w", err)
		}
		return fresh, nil
	}

	winner := ResolveConflict(existing, fresh)
	if winner == fresh {
		if err := e.repo.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("repo.Delete() > %w", err)
		}
		if err := e.repo.Put(ctx, fresh); err != nil {
			return nil, fmt.Errorf("repo.Put() > %w", err)
		}
		return fresh, nil
	}
	if err := e.repo.Put(ctx, existing); err != nil {
		return nil, fmt.Errorf("repo.Put() > %w", err)
	}
	return existing, nil
}

// PendingCount returns the number of unsynced responses, the value behind
// the UI badge.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.repo.CountUnsynced(ctx)
}

// Drain attempts to reconcile every unsynced response once. Item failures
// are isolated: a failed item stays queued for the next drain and the pass
// continues. lastSyncAt advances only when at least one item synced.
func (e *Engine) Drain(ctx context.Context) (*Result, error) {
	items, err := e.repo.FindUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.FindUnsynced() > %w", err)
	}

	var result Result
	for i := range items {
		item := &items[i]
		conflict, err := e.syncItem(ctx, item)
		if err != nil {
			result.Failed++
			slog.Default().Warn("failed to sync pending response",
				slog.String("id", item.ID),
				slog.String("questionId", item.QuestionID),
				slog.Any("error", err),
			)
			continue
		}
		if conflict {
			result.Conflicts++
			continue
		}
		result.Synced++
	}

	if result.Synced > 0 {
		if err := e.meta.SetLastSyncAt(ctx, e.now().UnixMilli()); err != nil {
			slog.Default().Warn("failed to update last sync time", slog.Any("error", err))
		}
	}
	return &result, nil
}

// syncItem reconciles one pending response against the server. It reports
// conflict=true when a newer server-side attempt wins and the local record
// is discarded without writing.
func (e *Engine) syncItem(ctx context.Context, item *PendingResponse) (conflict bool, err error) {
	serverAttempt, err := e.remote.GetAttempt(ctx, e.studentID, item.QuestionID)
	if err != nil {
		return false, fmt.Errorf("remote.GetAttempt() > %w", err)
	}
	if serverAttempt != nil && serverAttempt.Timestamp > item.Timestamp {
		if err := e.repo.Delete(ctx, item.ID); err != nil {
			return false, fmt.Errorf("repo.Delete() > %w", err)
		}
		return true, nil
	}

	attempt := &remote.Attempt{
		StudentID:  e.studentID,
		QuestionID: item.QuestionID,
		Answer:     item.Answer,
		IsCorrect:  item.IsCorrect,
		Timestamp:  item.Timestamp,
	}
	if err := e.remote.PutAttempt(ctx, attempt); err != nil {
		return false, fmt.Errorf("remote.PutAttempt() > %w", err)
	}

	item.Synced = true
	if err := e.repo.Put(ctx, item); err != nil {
		return false, fmt.Errorf("repo.Put() > %w", err)
	}
	// Delete-after-sync keeps the pending collection strictly unsynced-only.
	if err := e.repo.Delete(ctx, item.ID); err != nil {
		return false, fmt.Errorf("repo.Delete() > %w", err)
	}

	if e.updater != nil {
		if err := e.updater.ApplyAttempt(ctx, e.studentID, item.QuestionID, item.IsCorrect); err != nil {
			// The gamification update is a side effect of sync, not part of
			// its correctness; the response still counts as synced.
			slog.Default().Warn("progress update failed after sync",
				slog.String("questionId", item.QuestionID),
				slog.Any("error", err),
			)
		}
	}
	return false, nil
}

// TriggerSync drains the queue if anything is pending. It never fails the
// caller: any error or panic is logged and surfaces as a nil result.
func (e *Engine) TriggerSync(ctx context.Context) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("sync panicked", slog.Any("panic", r))
			result = nil
		}
	}()

	count, err := e.PendingCount(ctx)
	if err != nil {
		slog.Default().Warn("failed to count pending responses", slog.Any("error", err))
		return nil
	}
	if count == 0 {
		return nil
	}

	drained, err := e.Drain(ctx)
	if err != nil {
		slog.Default().Warn("sync drain failed", slog.Any("error", err))
		return nil
	}
	return drained
}

// RequestSync asks the running engine to drain. Concurrent requests while a
// drain is in flight coalesce into a single follow-up drain.
func (e *Engine) RequestSync() {
	select {
	case e.requests <- struct{}{}:
	default:
	}
}

// Run serves sync requests until ctx is cancelled, executing at most one
// drain at a time.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.requests:
			e.TriggerSync(ctx)
		}
	}
}
