package session

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/scrivener/letter"
	"github.com/richinex/scrivener/storage"
)

type fakeGenerator struct {
	letter   string
	revised  string
	err      error
	requests []letter.Request
	feedback []letter.FeedbackRequest
}

func (f *fakeGenerator) Run(_ context.Context, req letter.Request) (letter.Outcome, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return letter.Outcome{}, f.err
	}
	return letter.Outcome{Letter: f.letter}, nil
}

func (f *fakeGenerator) UpdateWithFeedback(_ context.Context, req letter.FeedbackRequest) (string, error) {
	f.feedback = append(f.feedback, req)
	if f.err != nil {
		return "", f.err
	}
	return f.revised, nil
}

func newStore(t *testing.T) storage.SessionStore {
	t.Helper()
	store, err := storage.NewSqliteInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGenerateSavesSession(t *testing.T) {
	store := newStore(t)
	gen := &fakeGenerator{letter: "v0"}
	svc := NewService(gen, store, "openai", "gpt-4o-mini", nil)
	ctx := context.Background()

	res, err := svc.Generate(ctx, letter.Request{
		JobDescription:  "Company: Acme Robotics\n",
		PersonalHistory: "Go developer",
		Tone:            letter.ToneConfident,
		ResearchEnabled: true,
	}, true)
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)
	assert.Equal(t, "v0", res.Outcome.Letter)

	sess, err := store.Get(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Confident", sess.Tone)
	assert.Equal(t, "gpt-4o-mini", sess.Model)
	assert.True(t, sess.ResearchEnabled)
}

func TestGenerateWithoutSaving(t *testing.T) {
	store := newStore(t)
	svc := NewService(&fakeGenerator{letter: "v0"}, store, "openai", "m", nil)

	res, err := svc.Generate(context.Background(), letter.Request{}, false)
	require.NoError(t, err)
	assert.Empty(t, res.SessionID)

	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestReviseSession(t *testing.T) {
	store := newStore(t)
	gen := &fakeGenerator{letter: "v0", revised: "v1"}
	svc := NewService(gen, store, "openai", "m", nil)
	ctx := context.Background()

	res, err := svc.Generate(ctx, letter.Request{JobDescription: "job", PersonalHistory: "history", Tone: "witty", ResearchEnabled: true}, true)
	require.NoError(t, err)

	rev, err := svc.Revise(ctx, ReviseInput{SessionID: res.SessionID, Feedback: "add company info"})
	require.NoError(t, err)
	assert.Equal(t, 1, rev.Revision)
	assert.Equal(t, "v1", rev.Letter)

	require.Len(t, gen.feedback, 1)
	got := gen.feedback[0]
	assert.Equal(t, "v0", got.OriginalLetter)
	assert.Equal(t, "job", got.JobDescription)
	assert.Equal(t, letter.Tone("witty"), got.Tone)
	assert.True(t, got.ResearchEnabled)

	gen.revised = "v2"
	_, err = svc.Revise(ctx, ReviseInput{SessionID: res.SessionID, Feedback: "shorter"})
	require.NoError(t, err)
	assert.Equal(t, "v1", gen.feedback[1].OriginalLetter)
}

func TestReviseRejectsBlankFeedback(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(gen, nil, "openai", "m", nil)

	_, err := svc.Revise(context.Background(), ReviseInput{Letter: "v0", Feedback: "  \n"})
	assert.True(t, errors.Is(err, ErrEmptyFeedback))
	assert.Empty(t, gen.feedback)
}

func TestReviseDetached(t *testing.T) {
	gen := &fakeGenerator{revised: "v1"}
	svc := NewService(gen, nil, "openai", "m", nil)

	rev, err := svc.Revise(context.Background(), ReviseInput{Letter: "v0", Feedback: "shorter", Tone: letter.ToneConcise})
	require.NoError(t, err)
	assert.Equal(t, "v1", rev.Letter)
	assert.Empty(t, rev.SessionID)

	_, err = svc.Revise(context.Background(), ReviseInput{Feedback: "shorter"})
	assert.Error(t, err)
}

func TestReviseUnknownSession(t *testing.T) {
	svc := NewService(&fakeGenerator{}, newStore(t), "openai", "m", nil)
	_, err := svc.Revise(context.Background(), ReviseInput{SessionID: "missing", Feedback: "shorter"})
	assert.True(t, errors.Is(err, storage.ErrSessionNotFound))
}

func TestGenerateErrorIsReturned(t *testing.T) {
	store := newStore(t)
	svc := NewService(&fakeGenerator{err: errors.New("draft failed")}, store, "openai", "m", nil)

	_, err := svc.Generate(context.Background(), letter.Request{}, true)
	require.Error(t, err)

	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestReviseUsesSessionProvider(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	created := NewService(&fakeGenerator{letter: "v0"}, store, "gemini", "gemini-2.5-pro", nil)
	res, err := created.Generate(ctx, letter.Request{JobDescription: "job"}, true)
	require.NoError(t, err)

	current := &fakeGenerator{revised: "from current"}
	stored := &fakeGenerator{revised: "from stored"}
	var gotProvider, gotModel string
	svc := NewService(current, store, "openai", "gpt-4o-mini", nil).
		WithGeneratorFactory(func(provider, model string) (Generator, error) {
			gotProvider, gotModel = provider, model
			return stored, nil
		})

	rev, err := svc.Revise(ctx, ReviseInput{SessionID: res.SessionID, Feedback: "shorter"})
	require.NoError(t, err)
	assert.Equal(t, "from stored", rev.Letter)
	assert.Equal(t, "gemini", gotProvider)
	assert.Equal(t, "gemini-2.5-pro", gotModel)
	assert.Empty(t, current.feedback)
}

func TestReviseKeepsCurrentGeneratorForSameProvider(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	gen := &fakeGenerator{letter: "v0", revised: "v1"}
	svc := NewService(gen, store, "openai", "gpt-4o-mini", nil).
		WithGeneratorFactory(func(string, string) (Generator, error) {
			return nil, errors.New("factory should not be called")
		})

	res, err := svc.Generate(ctx, letter.Request{JobDescription: "job"}, true)
	require.NoError(t, err)

	rev, err := svc.Revise(ctx, ReviseInput{SessionID: res.SessionID, Feedback: "shorter"})
	require.NoError(t, err)
	assert.Equal(t, "v1", rev.Letter)
}

func TestReviseSessionProviderUnavailable(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	res, err := NewService(&fakeGenerator{letter: "v0"}, store, "deepseek", "deepseek-chat", nil).
		Generate(ctx, letter.Request{JobDescription: "job"}, true)
	require.NoError(t, err)

	svc := NewService(&fakeGenerator{}, store, "openai", "m", nil).
		WithGeneratorFactory(func(string, string) (Generator, error) {
			return nil, errors.New("DEEPSEEK_API_KEY environment variable not set")
		})
	_, err = svc.Revise(ctx, ReviseInput{SessionID: res.SessionID, Feedback: "shorter"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deepseek")

	revisions, err := store.Revisions(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Len(t, revisions, 1)
}
