// Package letter generates and revises cover letters.
//
// Information Hiding:
// - Prompt templates and tone wording hidden behind the stage functions
// - Skill list parsing rules hidden in ParseSkillList / ParseMissingSkills
// - Stage ordering and concurrency hidden behind Pipeline
package letter

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/richinex/scrivener/llm"
)

// Request is the input to Generate.
type Request struct {
	JobDescription  string
	PersonalHistory string
	Tone            Tone
	ResearchEnabled bool
}

// FeedbackRequest is the input to UpdateWithFeedback.
type FeedbackRequest struct {
	OriginalLetter  string
	JobDescription  string
	PersonalHistory string
	Feedback        string
	Tone            Tone
	ResearchEnabled bool
}

// Outcome holds the letter and what went into it.
type Outcome struct {
	Letter        string
	Draft         string
	CompanyName   string
	CompanyInfo   string
	Sources       []string
	Skills        SkillList
	MissingSkills SkillList
	Duration      time.Duration
}

// Pipeline runs research, draft, skill audit and revision. It keeps no state
// between calls and is safe for concurrent use when its collaborators are.
type Pipeline struct {
	gw         llm.Completer
	researcher Researcher
	logger     *slog.Logger
}

// NewPipeline creates a pipeline. researcher may be nil, which disables
// research regardless of the request.
func NewPipeline(gw llm.Completer, researcher Researcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{gw: gw, researcher: researcher, logger: logger}
}

// Generate produces a letter for req.
func (p *Pipeline) Generate(ctx context.Context, req Request) (string, error) {
	out, err := p.Run(ctx, req)
	if err != nil {
		return "", err
	}
	return out.Letter, nil
}

// Run is Generate with the intermediate results. Research and skill
// extraction run concurrently; research and skill analysis failures only
// drop their enrichment.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	var out Outcome

	var g errgroup.Group
	if req.ResearchEnabled && p.researcher != nil {
		g.Go(func() error {
			res := p.researcher.Research(ctx, "", req.JobDescription)
			out.CompanyName = res.CompanyName
			if !res.Success {
				p.logger.Warn("continuing without company research", "error", res.Error)
				return nil
			}
			out.CompanyInfo = res.CompanyInfo
			out.Sources = res.Sources
			return nil
		})
	}
	g.Go(func() error {
		skills, err := ExtractSkills(ctx, p.gw, req.PersonalHistory)
		if err != nil {
			p.logger.Warn("continuing without skill list", "error", err.Error())
			return nil
		}
		out.Skills = skills
		return nil
	})
	_ = g.Wait()

	p.logger.Info("drafting letter", "tone", string(req.Tone), "company_info", out.CompanyInfo != "", "skills", len(out.Skills))
	draft, err := Draft(ctx, p.gw, req.JobDescription, req.PersonalHistory, req.Tone, out.CompanyInfo)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "generate")
	}
	out.Draft = draft

	if len(out.Skills) > 0 {
		missing, err := FindMissingSkills(ctx, p.gw, draft, out.Skills)
		if err != nil {
			p.logger.Warn("continuing without gap analysis", "error", err.Error())
		} else {
			out.MissingSkills = missing
		}
	}

	p.logger.Info("improving letter", "missing_skills", len(out.MissingSkills))
	improved, err := Improve(ctx, p.gw, draft, req.JobDescription, req.PersonalHistory, req.Tone, out.MissingSkills, out.CompanyInfo)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "generate")
	}
	out.Letter = improved
	out.Duration = time.Since(start)

	p.logger.Info("letter ready", "duration", out.Duration)
	return out, nil
}

// UpdateWithFeedback revises a letter according to req.Feedback.
func (p *Pipeline) UpdateWithFeedback(ctx context.Context, req FeedbackRequest) (string, error) {
	p.logger.Info("revising letter with feedback", "research", req.ResearchEnabled && WantsCompanyInfo(req.Feedback))
	letter, err := ReviseWithFeedback(ctx, p.gw, p.researcher, req)
	if err != nil {
		return "", errors.Wrap(err, "update with feedback")
	}
	return letter, nil
}
