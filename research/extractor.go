package research

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/richinex/scrivener/llm"
)

// companyPatterns are tried in order; the first match wins. Captures admit
// only horizontal whitespace so a name never runs across a line break.
var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Company:?\s*([A-Z][A-Za-z0-9 \t&,.-]+)(?:\n|\.|\()`),
	regexp.MustCompile(`About\s+([A-Z][A-Za-z0-9 \t&,.-]+)(?:\n|\.|:)`),
	regexp.MustCompile(`([A-Z][A-Za-z0-9 \t&,.-]+)\s+is\s+(?:a|an)\s+(?:leading|innovative|growing)`),
	regexp.MustCompile(`Job\s+at\s+([A-Z][A-Za-z0-9 \t&,.-]+)`),
	regexp.MustCompile(`Join\s+(?:the\s+)?(?:team\s+at\s+)?([A-Z][A-Za-z0-9 \t&,.-]+)`),
	regexp.MustCompile(`Welcome\s+to\s+([A-Z][A-Za-z0-9 \t&,.-]+)`),
}

const (
	// fallbackInputRunes is how much of the job description the model sees.
	fallbackInputRunes = 1000
	// maxNameRunes rejects model replies that are clearly not a name.
	maxNameRunes = 100
)

// MatchCompanyName applies the pattern rules only.
func MatchCompanyName(jobDescription string) (string, bool) {
	text := norm.NFC.String(jobDescription)
	for _, re := range companyPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name, true
			}
		}
	}
	return "", false
}

// NameExtractor finds the hiring company in a job description.
type NameExtractor struct {
	gw     llm.Completer
	logger *slog.Logger
}

// NewNameExtractor creates an extractor. gw may be nil, which disables the
// model fallback.
func NewNameExtractor(gw llm.Completer, logger *slog.Logger) *NameExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NameExtractor{gw: gw, logger: logger}
}

// Extract returns the company name, trying the pattern rules first and then
// one model call over the start of the text. Model failures mean "not found".
func (e *NameExtractor) Extract(ctx context.Context, jobDescription string) (string, bool) {
	if name, ok := MatchCompanyName(jobDescription); ok {
		return name, true
	}
	if e.gw == nil {
		return "", false
	}

	reply, err := e.gw.Complete(ctx, nameSystemPrompt, nameHumanTemplate, map[string]string{
		"job_description": firstRunes(norm.NFC.String(jobDescription), fallbackInputRunes),
	})
	if err != nil {
		e.logger.Debug("company name fallback failed", "error", err.Error())
		return "", false
	}

	name := strings.TrimSpace(reply)
	if name == "" || utf8.RuneCountInString(name) >= maxNameRunes {
		e.logger.Debug("company name fallback rejected", "length", utf8.RuneCountInString(name))
		return "", false
	}
	return name, true
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
