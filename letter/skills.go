package letter

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/richinex/scrivener/llm"
)

// SkillList is an ordered list of short skill descriptions. Duplicates are
// kept.
type SkillList []string

// Bullet returns the list as "- item" lines.
func (s SkillList) Bullet() string {
	lines := make([]string, len(s))
	for i, item := range s {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

var (
	// "1.", "2)", "*", "•" or "-" opening an item.
	leadingMarker = regexp.MustCompile(`^\s*(?:\d+[.)]|[*•-])\s+`)
	// "*" or "•" between items on one line. Numbers and hyphens mid-line
	// are prose ("a team of 5. Mentored", "CI/CD - especially").
	inlineBullet = regexp.MustCompile(`\s+[*•]\s+`)
)

// noGapsSentinel is the reply the gap analysis prompt asks for when nothing
// is missing.
const noGapsSentinel = "no significant missing skills"

// ParseSkillList splits free-form model output into items: one per line, with
// list markers stripped, and lines split on inline "*" or "•" bullets.
func ParseSkillList(text string) SkillList {
	items := SkillList{}
	for _, line := range strings.Split(text, "\n") {
		for _, part := range inlineBullet.Split(line, -1) {
			part = strings.TrimSpace(leadingMarker.ReplaceAllString(part, ""))
			if part != "" {
				items = append(items, part)
			}
		}
	}
	return items
}

// ParseMissingSkills is ParseSkillList that drops the "no significant missing
// skills" reply.
func ParseMissingSkills(text string) SkillList {
	items := ParseSkillList(text)
	out := items[:0]
	for _, item := range items {
		if isNoGapsSentinel(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func isNoGapsSentinel(item string) bool {
	return strings.Contains(strings.ToLower(item), noGapsSentinel)
}

// ExtractSkills asks the model for the skills in a personal history.
func ExtractSkills(ctx context.Context, gw llm.Completer, personalHistory string) (SkillList, error) {
	reply, err := gw.Complete(ctx, skillsSystemPrompt, skillsTemplate, map[string]string{
		"personal_history": personalHistory,
	})
	if err != nil {
		return nil, errors.Wrap(err, "skill extraction failed")
	}
	return ParseSkillList(reply), nil
}

// FindMissingSkills asks the model which of skills the draft leaves out.
func FindMissingSkills(ctx context.Context, gw llm.Completer, draft string, skills SkillList) (SkillList, error) {
	reply, err := gw.Complete(ctx, gapsSystemPrompt, gapsTemplate, map[string]string{
		"draft":  draft,
		"skills": skills.Bullet(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "gap analysis failed")
	}
	return ParseMissingSkills(reply), nil
}
