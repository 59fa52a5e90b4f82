// Package history provides a local SQLite log of publish outcomes and chat
// transcripts. It is a convenience record for the console; the server keeps
// the authoritative state.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// PublishRecord is one terminal publish outcome.
type PublishRecord struct {
	DocumentID     string
	OperationID    string
	StartedAt      time.Time
	FinishedAt     time.Time
	FinalStage     string
	Published      bool
	RequiresReview bool
	Error          string
}

// ChatEntry is one logged chat message.
type ChatEntry struct {
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Open creates a Store at the given database path.
// Uses WAL mode for file-based databases; ":memory:" is supported for tests.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS publishes (
		operation_id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		started_at DATETIME,
		finished_at DATETIME NOT NULL,
		final_stage TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		requires_review INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_publishes_document ON publishes(document_id);
	CREATE INDEX IF NOT EXISTS idx_publishes_finished ON publishes(finished_at DESC);

	CREATE TABLE IF NOT EXISTS chat_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chat_log_session ON chat_log(session_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordPublish stores a terminal publish outcome. Duplicate operation ids
// are silently ignored, so retried writes are safe.
func (s *Store) RecordPublish(documentID, operationID string, startedAt, finishedAt time.Time, finalStage string, published, requiresReview bool, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO publishes (
			operation_id, document_id, started_at, finished_at,
			final_stage, published, requires_review, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		operationID,
		documentID,
		startedAt,
		finishedAt,
		finalStage,
		boolToInt(published),
		boolToInt(requiresReview),
		errText,
	)
	return err
}

// RecentPublishes returns the most recent publish outcomes, newest first.
func (s *Store) RecentPublishes(limit int) ([]PublishRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT document_id, operation_id, started_at, finished_at,
			final_stage, published, requires_review, error
		FROM publishes
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PublishRecord
	for rows.Next() {
		var rec PublishRecord
		var publishedInt, reviewInt int
		var started sql.NullTime
		err := rows.Scan(
			&rec.DocumentID,
			&rec.OperationID,
			&started,
			&rec.FinishedAt,
			&rec.FinalStage,
			&publishedInt,
			&reviewInt,
			&rec.Error,
		)
		if err != nil {
			return nil, err
		}
		if started.Valid {
			rec.StartedAt = started.Time
		}
		rec.Published = publishedInt != 0
		rec.RequiresReview = reviewInt != 0
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// LogChat appends chat messages to the local transcript.
func (s *Store) LogChat(entries []ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	stmt, err := s.db.Prepare(`
		INSERT INTO chat_log (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.SessionID, e.Role, e.Content, e.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// ChatTranscript returns the logged messages for a session in insertion
// order.
func (s *Store) ChatTranscript(sessionID string) ([]ChatEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT session_id, role, content, created_at
		FROM chat_log
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ChatEntry
	for rows.Next() {
		var e ChatEntry
		if err := rows.Scan(&e.SessionID, &e.Role, &e.Content, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
