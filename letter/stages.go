package letter

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/richinex/scrivener/llm"
	"github.com/richinex/scrivener/research"
)

// Researcher looks up company information. Failures are reported in the
// result, never as an error.
type Researcher interface {
	Research(ctx context.Context, companyName, jobDescription string) research.Result
}

// optional returns s, or "" when s is blank, so template sections keyed on it
// are skipped.
func optional(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// Draft writes the first version of a letter.
func Draft(ctx context.Context, gw llm.Completer, jobDescription, personalHistory string, tone Tone, companyInfo string) (string, error) {
	letter, err := gw.Complete(ctx, SystemPrompt(tone), draftTemplate, map[string]string{
		"job_description":  jobDescription,
		"personal_history": personalHistory,
		"company_info":     optional(companyInfo),
	})
	if err != nil {
		return "", errors.Wrap(err, "draft failed")
	}
	return letter, nil
}

// Improve revises draft to cover missingSkills and companyInfo. With neither,
// draft is returned as-is without calling the model.
func Improve(ctx context.Context, gw llm.Completer, draft, jobDescription, personalHistory string, tone Tone, missingSkills SkillList, companyInfo string) (string, error) {
	companyInfo = optional(companyInfo)
	if len(missingSkills) == 0 && companyInfo == "" {
		return draft, nil
	}

	missing := noMissingSkillsPlaceholder
	if len(missingSkills) > 0 {
		missing = missingSkills.Bullet()
	}

	letter, err := gw.Complete(ctx, SystemPrompt(tone), improveTemplate, map[string]string{
		"job_description":  jobDescription,
		"personal_history": personalHistory,
		"company_info":     companyInfo,
		"draft":            draft,
		"missing_skills":   missing,
	})
	if err != nil {
		return "", errors.Wrap(err, "improve failed")
	}
	return letter, nil
}

// WantsCompanyInfo reports whether feedback asks for company information.
func WantsCompanyInfo(feedback string) bool {
	f := strings.ToLower(feedback)
	return strings.Contains(f, "company information") || strings.Contains(f, "company info")
}

// ReviseWithFeedback rewrites a letter according to the applicant's feedback.
// Research runs again only when it is enabled and the feedback asks for
// company information; a failed lookup is ignored.
func ReviseWithFeedback(ctx context.Context, gw llm.Completer, researcher Researcher, req FeedbackRequest) (string, error) {
	var companyInfo string
	if req.ResearchEnabled && researcher != nil && WantsCompanyInfo(req.Feedback) {
		if res := researcher.Research(ctx, "", req.JobDescription); res.Success {
			companyInfo = res.CompanyInfo
		}
	}

	letter, err := gw.Complete(ctx, SystemPrompt(req.Tone), reviseTemplate, map[string]string{
		"job_description":       req.JobDescription,
		"personal_history":      req.PersonalHistory,
		"company_info":          optional(companyInfo),
		"original_cover_letter": req.OriginalLetter,
		"feedback":              req.Feedback,
	})
	if err != nil {
		return "", errors.Wrap(err, "feedback revision failed")
	}
	return letter, nil
}
