// Package session runs letter requests for callers that keep continuity
// between feedback rounds.
//
// Information Hiding:
// - Session persistence hidden behind Service
// - Mapping between stored sessions and pipeline requests hidden
package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/richinex/scrivener/letter"
	"github.com/richinex/scrivener/storage"
)

// ErrEmptyFeedback is returned when a revision is requested without feedback.
var ErrEmptyFeedback = errors.New("please provide feedback")

// Generator is the letter pipeline as seen by Service.
type Generator interface {
	Run(ctx context.Context, req letter.Request) (letter.Outcome, error)
	UpdateWithFeedback(ctx context.Context, req letter.FeedbackRequest) (string, error)
}

// GeneratorFactory builds a generator bound to a provider and model.
type GeneratorFactory func(provider, model string) (Generator, error)

// Service generates and revises letters and records them in a store.
type Service struct {
	gen      Generator
	store    storage.SessionStore
	provider string
	model    string
	factory  GeneratorFactory
	logger   *slog.Logger
}

// NewService creates a service. store may be nil, in which case nothing is
// saved and revisions need the letter and inputs supplied directly.
func NewService(gen Generator, store storage.SessionStore, provider, model string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, store: store, provider: provider, model: model, logger: logger}
}

// WithGeneratorFactory lets revisions of a stored session run on the
// provider and model the session was created with.
func (s *Service) WithGeneratorFactory(f GeneratorFactory) *Service {
	s.factory = f
	return s
}

// GenerateResult is a generated letter and the session it was saved under.
// SessionID is empty when the letter was not saved.
type GenerateResult struct {
	SessionID string
	Outcome   letter.Outcome
}

// Generate runs the pipeline and, when save is set and a store is
// configured, records the inputs and letter as a new session.
func (s *Service) Generate(ctx context.Context, req letter.Request, save bool) (GenerateResult, error) {
	out, err := s.gen.Run(ctx, req)
	if err != nil {
		return GenerateResult{}, err
	}
	result := GenerateResult{Outcome: out}
	if !save || s.store == nil {
		return result, nil
	}

	sess, err := s.store.Create(ctx, storage.Session{
		Provider:        s.provider,
		Model:           s.model,
		Tone:            string(req.Tone),
		JobDescription:  req.JobDescription,
		PersonalHistory: req.PersonalHistory,
		ResearchEnabled: req.ResearchEnabled,
	}, out.Letter)
	if err != nil {
		return result, errors.Wrap(err, "letter generated but not saved")
	}
	s.logger.Info("session saved", "session", sess.ID)
	result.SessionID = sess.ID
	return result, nil
}

// ReviseInput identifies the letter to revise, either by SessionID or by the
// letter and its inputs.
type ReviseInput struct {
	SessionID       string
	Letter          string
	JobDescription  string
	PersonalHistory string
	Tone            letter.Tone
	ResearchEnabled bool
	Feedback        string
}

// ReviseResult is a revised letter. SessionID and Revision are set when the
// revision was saved.
type ReviseResult struct {
	SessionID string
	Revision  int
	Letter    string
}

// Revise applies feedback to a letter. A session ID resupplies the stored
// inputs and latest letter, and the result is appended to that session.
func (s *Service) Revise(ctx context.Context, in ReviseInput) (ReviseResult, error) {
	if strings.TrimSpace(in.Feedback) == "" {
		return ReviseResult{}, ErrEmptyFeedback
	}
	if in.SessionID == "" {
		return s.reviseDetached(ctx, in)
	}
	if s.store == nil {
		return ReviseResult{}, errors.New("no session store configured")
	}

	sess, err := s.store.Get(ctx, in.SessionID)
	if err != nil {
		return ReviseResult{}, err
	}
	latest, err := s.store.Latest(ctx, in.SessionID)
	if err != nil {
		return ReviseResult{}, err
	}

	gen, err := s.generatorFor(sess)
	if err != nil {
		return ReviseResult{}, err
	}

	revised, err := gen.UpdateWithFeedback(ctx, letter.FeedbackRequest{
		OriginalLetter:  latest.Letter,
		JobDescription:  sess.JobDescription,
		PersonalHistory: sess.PersonalHistory,
		Feedback:        in.Feedback,
		Tone:            letter.Tone(sess.Tone),
		ResearchEnabled: sess.ResearchEnabled,
	})
	if err != nil {
		return ReviseResult{}, err
	}

	rev, err := s.store.AddRevision(ctx, sess.ID, in.Feedback, revised)
	if err != nil {
		return ReviseResult{Letter: revised}, errors.Wrap(err, "letter revised but not saved")
	}
	s.logger.Info("revision saved", "session", sess.ID, "revision", rev.Index)
	return ReviseResult{SessionID: sess.ID, Revision: rev.Index, Letter: revised}, nil
}

func (s *Service) generatorFor(sess storage.Session) (Generator, error) {
	if s.factory == nil || sess.Provider == "" {
		return s.gen, nil
	}
	if sess.Provider == s.provider && sess.Model == s.model {
		return s.gen, nil
	}
	gen, err := s.factory(sess.Provider, sess.Model)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to restore provider %s for session %s", sess.Provider, sess.ID)
	}
	s.logger.Debug("using session provider", "session", sess.ID, "provider", sess.Provider, "model", sess.Model)
	return gen, nil
}

func (s *Service) reviseDetached(ctx context.Context, in ReviseInput) (ReviseResult, error) {
	if strings.TrimSpace(in.Letter) == "" {
		return ReviseResult{}, errors.New("a letter or a session ID is required")
	}
	revised, err := s.gen.UpdateWithFeedback(ctx, letter.FeedbackRequest{
		OriginalLetter:  in.Letter,
		JobDescription:  in.JobDescription,
		PersonalHistory: in.PersonalHistory,
		Feedback:        in.Feedback,
		Tone:            in.Tone,
		ResearchEnabled: in.ResearchEnabled,
	})
	if err != nil {
		return ReviseResult{}, err
	}
	return ReviseResult{Letter: revised}, nil
}

// Store returns the configured store, or nil.
func (s *Service) Store() storage.SessionStore {
	return s.store
}
