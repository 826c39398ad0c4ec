// Package store provides the local durable database backing the offline layer.
//
// Records are stored whole as JSON documents alongside a small set of
// extracted columns that back the named indexes. All index-based queries
// bind by index name through the collection registry, so any alternative
// backend must expose the same collections and index names.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SchemaVersion is the current local schema version, tracked via
// PRAGMA user_version.
const SchemaVersion = 1

// Collection names.
const (
	CollectionLessonPacks      = "lesson_packs"
	CollectionPendingResponses = "pending_responses"
	CollectionOfflineProgress  = "offline_progress"
	CollectionAppMetadata      = "app_metadata"
)

// Index names. Queries bind by these names, not by column.
const (
	IndexPacksByDownloadedAt    = "idx_lesson_packs_downloaded_at"
	IndexPacksBySubjectID       = "idx_lesson_packs_subject_id"
	IndexPacksByLastAccessedAt  = "idx_lesson_packs_last_accessed_at"
	IndexPendingByTimestamp     = "idx_pending_responses_timestamp"
	IndexPendingBySynced        = "idx_pending_responses_synced"
	IndexPendingByQuestionID    = "idx_pending_responses_question_id"
	IndexProgressByTopicID      = "idx_offline_progress_topic_id"
	IndexProgressByLastAttempt  = "idx_offline_progress_last_attempt_at"
)

// ErrQuotaExceeded indicates the underlying database signalled it is out
// of space while writing.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// collectionSpec describes one collection's table layout.
type collectionSpec struct {
	table     string
	keyColumn string
	// indexes maps index name to the extracted column it covers.
	indexes map[string]string
	// columns lists the extracted columns a Put must provide, in DDL order.
	columns []string
}

var collections = map[string]collectionSpec{
	CollectionLessonPacks: {
		table:     "lesson_packs",
		keyColumn: "chapter_id",
		indexes: map[string]string{
			IndexPacksByDownloadedAt:   "downloaded_at",
			IndexPacksBySubjectID:      "subject_id",
			IndexPacksByLastAccessedAt: "last_accessed_at",
		},
		columns: []string{"subject_id", "downloaded_at", "last_accessed_at", "size_bytes"},
	},
	CollectionPendingResponses: {
		table:     "pending_responses",
		keyColumn: "id",
		indexes: map[string]string{
			IndexPendingByTimestamp:  "timestamp",
			IndexPendingBySynced:     "synced",
			IndexPendingByQuestionID: "question_id",
		},
		columns: []string{"question_id", "timestamp", "synced"},
	},
	CollectionOfflineProgress: {
		table:     "offline_progress",
		keyColumn: "key",
		indexes: map[string]string{
			IndexProgressByTopicID:     "topic_id",
			IndexProgressByLastAttempt: "last_attempt_at",
		},
		columns: []string{"topic_id", "last_attempt_at"},
	},
	CollectionAppMetadata: {
		table:     "app_metadata",
		keyColumn: "key",
		indexes:   map[string]string{},
		columns:   nil,
	},
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS lesson_packs (
	chapter_id TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	downloaded_at INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lesson_packs_downloaded_at ON lesson_packs (downloaded_at);
CREATE INDEX IF NOT EXISTS idx_lesson_packs_subject_id ON lesson_packs (subject_id);
CREATE INDEX IF NOT EXISTS idx_lesson_packs_last_accessed_at ON lesson_packs (last_accessed_at);

CREATE TABLE IF NOT EXISTS pending_responses (
	id TEXT PRIMARY KEY,
	question_id TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	synced INTEGER NOT NULL DEFAULT 0,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pending_responses_timestamp ON pending_responses (timestamp);
CREATE INDEX IF NOT EXISTS idx_pending_responses_synced ON pending_responses (synced);
CREATE INDEX IF NOT EXISTS idx_pending_responses_question_id ON pending_responses (question_id);

CREATE TABLE IF NOT EXISTS offline_progress (
	key TEXT PRIMARY KEY,
	topic_id TEXT NOT NULL,
	last_attempt_at INTEGER NOT NULL,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_offline_progress_topic_id ON offline_progress (topic_id);
CREATE INDEX IF NOT EXISTS idx_offline_progress_last_attempt_at ON offline_progress (last_attempt_at);

CREATE TABLE IF NOT EXISTS app_metadata (
	key TEXT PRIMARY KEY,
	data BLOB NOT NULL
);
`

var bindOnce sync.Once

// Store owns the shared database handle. It is constructed once at startup
// and injected into every component that persists offline data.
type Store struct {
	mu   sync.Mutex
	path string
	db   *sqlx.DB
}

// New creates a Store for the database file at path. Use ":memory:" for an
// in-memory database (tests). The database is not opened until Open is called.
func New(path string) *Store {
	return &Store{path: path}
}

// Open opens the database handle and runs the schema migration. It is
// idempotent: concurrent and repeated callers share the single handle.
// On failure the internal state is reset so a later Open can retry.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	bindOnce.Do(func() {
		sqlx.BindDriver("sqlite", sqlx.QUESTION)
	})

	db, err := sqlx.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("sqlx.Open() > %w", err)
	}
	// A single connection keeps :memory: databases coherent and matches the
	// one-shared-handle model the rest of the offline layer assumes.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate() > %w", err)
	}

	s.db = db
	return nil
}

// Close releases the database handle. A later Open starts fresh.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("db.Close() > %w", err)
	}
	return nil
}

func (s *Store) handle() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("store is not open")
	}
	return s.db, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	var version int
	if err := db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("db.GetContext(user_version) > %w", err)
	}
	if version >= SchemaVersion {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTxx() > %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("tx.ExecContext(schema) > %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("tx.ExecContext(user_version) > %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit() > %w", err)
	}
	return nil
}

func spec(collection string) (collectionSpec, error) {
	cs, ok := collections[collection]
	if !ok {
		return collectionSpec{}, fmt.Errorf("unknown collection %q", collection)
	}
	return cs, nil
}

// indexColumn resolves an index name to its column within a collection.
func indexColumn(cs collectionSpec, collection, index string) (string, error) {
	column, ok := cs.indexes[index]
	if !ok {
		return "", fmt.Errorf("unknown index %q on collection %q", index, collection)
	}
	return column, nil
}

func opError(collection, op string, err error) error {
	if isQuotaError(err) {
		return fmt.Errorf("store: %s.%s > %w: %v", collection, op, ErrQuotaExceeded, err)
	}
	return fmt.Errorf("store: %s.%s > %w", collection, op, err)
}

func isQuotaError(err error) bool {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3.SQLITE_FULL || code == sqlite3.SQLITE_IOERR_WRITE
	}
	return false
}

// Get returns the serialized record for key, or nil if no record exists.
func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	cs, err := spec(collection)
	if err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, opError(collection, "get", err)
	}

	var data []byte
	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ?", cs.table, cs.keyColumn)
	err = db.GetContext(ctx, &data, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, opError(collection, "get", err)
	}
	return data, nil
}

// Put upserts a serialized record under key. cols must provide a value for
// every extracted column the collection declares.
func (s *Store) Put(ctx context.Context, collection, key string, cols map[string]any, data []byte) error {
	cs, err := spec(collection)
	if err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return opError(collection, "put", err)
	}

	columns := []string{cs.keyColumn}
	args := []any{key}
	for _, c := range cs.columns {
		v, ok := cols[c]
		if !ok {
			return fmt.Errorf("store: %s.put missing column %q", collection, c)
		}
		columns = append(columns, c)
		args = append(args, v)
	}
	columns = append(columns, "data")
	args = append(args, data)

	placeholders := ""
	assignments := ""
	for i, c := range columns {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		if i == 0 {
			continue
		}
		if i > 1 {
			assignments += ", "
		}
		assignments += fmt.Sprintf("%s = excluded.%s", c, c)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		cs.table, strings.Join(columns, ", "), placeholders, cs.keyColumn, assignments)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return opError(collection, "put", err)
	}
	return nil
}

// Delete removes the record under key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	cs, err := spec(collection)
	if err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return opError(collection, "delete", err)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", cs.table, cs.keyColumn)
	if _, err := db.ExecContext(ctx, query, key); err != nil {
		return opError(collection, "delete", err)
	}
	return nil
}

// GetAll returns every serialized record in the collection in key order.
func (s *Store) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	cs, err := spec(collection)
	if err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, opError(collection, "getAll", err)
	}

	var rows [][]byte
	query := fmt.Sprintf("SELECT data FROM %s ORDER BY %s", cs.table, cs.keyColumn)
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, opError(collection, "getAll", err)
	}
	return rows, nil
}

// GetByIndex returns records whose indexed column equals value, ordered by
// that column then by key.
func (s *Store) GetByIndex(ctx context.Context, collection, index string, value any) ([][]byte, error) {
	cs, err := spec(collection)
	if err != nil {
		return nil, err
	}
	column, err := indexColumn(cs, collection, index)
	if err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, opError(collection, "getByIndex", err)
	}

	var rows [][]byte
	query := fmt.Sprintf("SELECT data FROM %s WHERE %s = ? ORDER BY %s, %s", cs.table, column, column, cs.keyColumn)
	if err := db.SelectContext(ctx, &rows, query, value); err != nil {
		return nil, opError(collection, "getByIndex", err)
	}
	return rows, nil
}

// GetAllByIndex returns every record ordered by the named index, the
// equivalent of walking an index cursor from the start.
func (s *Store) GetAllByIndex(ctx context.Context, collection, index string) ([][]byte, error) {
	cs, err := spec(collection)
	if err != nil {
		return nil, err
	}
	column, err := indexColumn(cs, collection, index)
	if err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, opError(collection, "getAllByIndex", err)
	}

	var rows [][]byte
	query := fmt.Sprintf("SELECT data FROM %s ORDER BY %s, %s", cs.table, column, cs.keyColumn)
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, opError(collection, "getAllByIndex", err)
	}
	return rows, nil
}

// Clear removes every record in the collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	cs, err := spec(collection)
	if err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return opError(collection, "clear", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM "+cs.table); err != nil {
		return opError(collection, "clear", err)
	}
	return nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	cs, err := spec(collection)
	if err != nil {
		return 0, err
	}
	db, err := s.handle()
	if err != nil {
		return 0, opError(collection, "count", err)
	}

	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+cs.table); err != nil {
		return 0, opError(collection, "count", err)
	}
	return n, nil
}

// CountByIndex returns the number of records whose indexed column equals value.
func (s *Store) CountByIndex(ctx context.Context, collection, index string, value any) (int, error) {
	cs, err := spec(collection)
	if err != nil {
		return 0, err
	}
	column, err := indexColumn(cs, collection, index)
	if err != nil {
		return 0, err
	}
	db, err := s.handle()
	if err != nil {
		return 0, opError(collection, "countByIndex", err)
	}

	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", cs.table, column)
	if err := db.GetContext(ctx, &n, query, value); err != nil {
		return 0, opError(collection, "countByIndex", err)
	}
	return n, nil
}
