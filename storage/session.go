// Package storage keeps letter sessions so a caller can run feedback rounds
// across process invocations.
//
// Information Hiding:
// - Storage backend hidden behind SessionStore
// - ID generation hidden: callers never choose session IDs

package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Session holds the inputs a letter was generated from.
type Session struct {
	ID              string
	Provider        string
	Model           string
	Tone            string
	JobDescription  string
	PersonalHistory string
	ResearchEnabled bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Revision is one version of the letter. Index 0 is the generated letter;
// later indexes answer Feedback.
type Revision struct {
	SessionID string
	Index     int
	Letter    string
	Feedback  string
	CreatedAt time.Time
}

// SessionStore persists sessions and their letter revisions.
type SessionStore interface {
	// Create stores a new session with its first letter and returns it with
	// ID and timestamps filled in.
	Create(ctx context.Context, session Session, letter string) (Session, error)

	// AddRevision appends a letter produced from feedback.
	AddRevision(ctx context.Context, sessionID, feedback, letter string) (Revision, error)

	// Get returns a session by ID, or ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (Session, error)

	// Latest returns the newest revision of a session, or ErrSessionNotFound.
	Latest(ctx context.Context, sessionID string) (Revision, error)

	// Revisions returns all revisions oldest first.
	Revisions(ctx context.Context, sessionID string) ([]Revision, error)

	// List returns sessions, most recently updated first.
	List(ctx context.Context) ([]Session, error)

	// Delete removes a session and its revisions.
	Delete(ctx context.Context, sessionID string) error
}
