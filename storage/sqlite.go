// SQLite session store.
//
// Information Hiding:
// - SQLite connection management hidden behind SessionStore
// - Schema details encapsulated
// - Timestamps stored as fixed-width UTC text

package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SqliteStorage implements SessionStore using SQLite.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SQLite database")
	}
	return newSqlite(db)
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create in-memory SQLite")
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return newSqlite(db)
}

func newSqlite(db *sql.DB) (*SqliteStorage, error) {
	s := &SqliteStorage{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}
	return s, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			tone TEXT NOT NULL,
			job_description TEXT NOT NULL,
			personal_history TEXT NOT NULL,
			research_enabled INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS revisions (
			session_id TEXT NOT NULL,
			revision_index INTEGER NOT NULL,
			letter TEXT NOT NULL,
			feedback TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			PRIMARY KEY (session_id, revision_index)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_updated
		ON sessions(updated_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}
	return nil
}

// timeLayout has fixed-width fractions so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid timestamp %q", s)
	}
	return t, nil
}

// Create stores a new session with its first letter.
func (s *SqliteStorage) Create(ctx context.Context, session Session, letter string) (Session, error) {
	now := time.Now().UTC()
	session.ID = uuid.NewString()
	session.CreatedAt = now
	session.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions
		(session_id, provider, model, tone, job_description, personal_history, research_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Provider,
		session.Model,
		session.Tone,
		session.JobDescription,
		session.PersonalHistory,
		session.ResearchEnabled,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to insert session")
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO revisions (session_id, revision_index, letter, created_at) VALUES (?, 0, ?, ?)",
		session.ID, letter, formatTime(now))
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to insert first revision")
	}

	if err := tx.Commit(); err != nil {
		return Session{}, errors.Wrap(err, "failed to commit transaction")
	}
	return session, nil
}

// AddRevision appends a letter produced from feedback.
func (s *SqliteStorage) AddRevision(ctx context.Context, sessionID, feedback, letter string) (Revision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var next sql.NullInt64
	err = tx.QueryRowContext(ctx,
		"SELECT MAX(revision_index) + 1 FROM revisions WHERE session_id = ?",
		sessionID).Scan(&next)
	if err != nil {
		return Revision{}, errors.Wrap(err, "failed to read revision index")
	}
	if !next.Valid {
		return Revision{}, errors.Wrapf(ErrSessionNotFound, "session %s", sessionID)
	}

	now := time.Now().UTC()
	rev := Revision{
		SessionID: sessionID,
		Index:     int(next.Int64),
		Letter:    letter,
		Feedback:  feedback,
		CreatedAt: now,
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO revisions (session_id, revision_index, letter, feedback, created_at) VALUES (?, ?, ?, ?, ?)",
		rev.SessionID, rev.Index, rev.Letter, rev.Feedback, formatTime(now))
	if err != nil {
		return Revision{}, errors.Wrap(err, "failed to insert revision")
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at = ? WHERE session_id = ?",
		formatTime(now), sessionID)
	if err != nil {
		return Revision{}, errors.Wrap(err, "failed to update session timestamp")
	}

	if err := tx.Commit(); err != nil {
		return Revision{}, errors.Wrap(err, "failed to commit transaction")
	}
	return rev, nil
}

const sessionColumns = `session_id, provider, model, tone, job_description, personal_history, research_enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (Session, error) {
	var session Session
	var created, updated string
	err := row.Scan(
		&session.ID,
		&session.Provider,
		&session.Model,
		&session.Tone,
		&session.JobDescription,
		&session.PersonalHistory,
		&session.ResearchEnabled,
		&created,
		&updated,
	)
	if err != nil {
		return Session{}, err
	}
	if session.CreatedAt, err = parseTime(created); err != nil {
		return Session{}, err
	}
	if session.UpdatedAt, err = parseTime(updated); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Get returns a session by ID.
func (s *SqliteStorage) Get(ctx context.Context, sessionID string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE session_id = ?", sessionID)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, errors.Wrapf(ErrSessionNotFound, "session %s", sessionID)
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "failed to load session")
	}
	return session, nil
}

// Latest returns the newest revision of a session.
func (s *SqliteStorage) Latest(ctx context.Context, sessionID string) (Revision, error) {
	revisions, err := s.query(ctx,
		"WHERE session_id = ? ORDER BY revision_index DESC LIMIT 1", sessionID)
	if err != nil {
		return Revision{}, err
	}
	if len(revisions) == 0 {
		return Revision{}, errors.Wrapf(ErrSessionNotFound, "session %s", sessionID)
	}
	return revisions[0], nil
}

// Revisions returns all revisions oldest first.
func (s *SqliteStorage) Revisions(ctx context.Context, sessionID string) ([]Revision, error) {
	return s.query(ctx, "WHERE session_id = ? ORDER BY revision_index ASC", sessionID)
}

func (s *SqliteStorage) query(ctx context.Context, clause string, args ...interface{}) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, revision_index, letter, feedback, created_at FROM revisions "+clause, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query revisions")
	}
	defer rows.Close()

	revisions := []Revision{}
	for rows.Next() {
		var rev Revision
		var created string
		if err := rows.Scan(&rev.SessionID, &rev.Index, &rev.Letter, &rev.Feedback, &created); err != nil {
			return nil, errors.Wrap(err, "failed to scan revision")
		}
		if rev.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating revisions")
	}
	return revisions, nil
}

// List returns sessions, most recently updated first.
func (s *SqliteStorage) List(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions ORDER BY updated_at DESC")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating sessions")
	}
	return sessions, nil
}

// Delete removes a session and its revisions. Deleting an unknown session
// is not an error.
func (s *SqliteStorage) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM revisions WHERE session_id = ?", sessionID); err != nil {
		return errors.Wrap(err, "failed to delete revisions")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

var _ SessionStore = (*SqliteStorage)(nil)
