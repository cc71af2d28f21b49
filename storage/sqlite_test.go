package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SqliteStorage {
	t.Helper()
	store, err := NewSqliteInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSession() Session {
	return Session{
		Provider:        "openai",
		Model:           "gpt-4o-mini",
		Tone:            "Confident",
		JobDescription:  "Company: Acme Robotics\nBackend engineer.",
		PersonalHistory: "Ten years of Go.",
		ResearchEnabled: true,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleSession(), "Dear Acme,")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "Confident", loaded.Tone)
	assert.True(t, loaded.ResearchEnabled)
	assert.Equal(t, sampleSession().JobDescription, loaded.JobDescription)

	latest, err := store.Latest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, latest.Index)
	assert.Equal(t, "Dear Acme,", latest.Letter)
	assert.Empty(t, latest.Feedback)
}

func TestAddRevision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleSession(), "v0")
	require.NoError(t, err)

	rev, err := store.AddRevision(ctx, created.ID, "shorter please", "v1")
	require.NoError(t, err)
	assert.Equal(t, 1, rev.Index)

	_, err = store.AddRevision(ctx, created.ID, "mention Go", "v2")
	require.NoError(t, err)

	revisions, err := store.Revisions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, revisions, 3)
	assert.Equal(t, []string{"v0", "v1", "v2"}, []string{revisions[0].Letter, revisions[1].Letter, revisions[2].Letter})
	assert.Equal(t, "mention Go", revisions[2].Feedback)

	latest, err := store.Latest(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.Letter)
}

func TestUnknownSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	_, err = store.Latest(ctx, "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	_, err = store.AddRevision(ctx, "missing", "fb", "letter")
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	revisions, err := store.Revisions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, revisions)
}

func TestListOrdersByUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, sampleSession(), "a")
	require.NoError(t, err)
	second, err := store.Create(ctx, sampleSession(), "b")
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	_, err = store.AddRevision(ctx, first.ID, "fb", "a2")
	require.NoError(t, err)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first.ID, sessions[0].ID)
	assert.Equal(t, second.ID, sessions[1].ID)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleSession(), "v0")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))
	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))

	revisions, err := store.Revisions(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, revisions)
}

func TestOpenSqliteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")

	store, err := OpenSqlite(path)
	require.NoError(t, err)
	created, err := store.Create(context.Background(), sampleSession(), "v0")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenSqlite(path)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Get(context.Background(), created.ID)
	assert.NoError(t, err)
}
