// Package remote defines the contract with the backend content and attempt
// APIs. The request and response shapes are hand-maintained here so the
// offline core never depends on a generated schema.
package remote

import (
	"context"
	"time"
)

//go:generate mockgen -source=client.go -destination=../mocks/remote/mock_client.go -package=mock_remote

// Chapter is the remote chapter record.
type Chapter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
}

// Topic is the remote topic record, ordered within its chapter.
type Topic struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ConceptCount    int      `json:"conceptCount"`
	Content         string   `json:"content"`
	Formulas        []string `json:"formulas"`
	TextbookPageRef string   `json:"textbookPageRef,omitempty"`
}

// Question is the remote practice question record.
type Question struct {
	ID            string   `json:"id"`
	TopicID       string   `json:"topicId"`
	Question      string   `json:"question"`
	QuestionType  string   `json:"questionType"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Hint          string   `json:"hint,omitempty"`
	Solution      string   `json:"solution,omitempty"`
	CurriculumRef string   `json:"curriculumRef,omitempty"`
	Difficulty    string   `json:"difficulty"`
}

// Attempt is a practice-attempt record keyed by student and question.
type Attempt struct {
	StudentID  string `json:"studentId"`
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
	// Timestamp is epoch milliseconds, used for conflict checks.
	Timestamp int64 `json:"timestamp"`
}

// Client is the remote data source consumed by the lesson pack manager and
// the sync engine. Reachable only while online; every call may fail with a
// transport error.
type Client interface {
	// GetChapter returns chapter metadata.
	GetChapter(ctx context.Context, chapterID string) (*Chapter, error)
	// GetTopics returns the chapter's topics in curriculum order.
	GetTopics(ctx context.Context, chapterID string) ([]Topic, error)
	// GetQuestions returns up to limit questions across the given topics.
	GetQuestions(ctx context.Context, topicIDs []string, limit int) ([]Question, error)
	// GetAttempt returns the server-recorded attempt for a student and
	// question, or nil if none exists.
	GetAttempt(ctx context.Context, studentID, questionID string) (*Attempt, error)
	// PutAttempt records an attempt on the server, replacing any older one.
	PutAttempt(ctx context.Context, attempt *Attempt) error
}

// Pinger reports backend reachability, used by the network monitor.
type Pinger interface {
	// Ping checks reachability and returns the observed round-trip time.
	Ping(ctx context.Context) (time.Duration, error)
}
