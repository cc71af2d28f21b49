// Package research finds company information for a job application.
//
// Information Hiding:
// - Company name heuristics hidden in NameExtractor
// - Search backend selection hidden behind Backends
// - Agent session and summary parsing hidden behind Researcher.Research
package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/richinex/scrivener/agent"
	"github.com/richinex/scrivener/config"
	"github.com/richinex/scrivener/llm"
	"github.com/richinex/scrivener/tools"
)

// ErrNoCompany is the failure text when no company name can be found.
const ErrNoCompany = "Could not identify company name."

// Result is the outcome of one research session. Success implies a
// non-empty CompanyName.
type Result struct {
	Success     bool
	CompanyName string
	CompanyInfo string
	Error       string
	Sources     []string
}

// Backends are the searchers offered to one session. Web is required;
// HighQuality is optional and named by HighQualityName.
type Backends struct {
	Web             tools.Searcher
	HighQuality     tools.Searcher
	HighQualityName string
}

// BackendFactory builds the searchers for one session.
type BackendFactory func(ctx context.Context) (Backends, error)

// Researcher runs company research sessions. It holds no per-session state.
type Researcher struct {
	provider   llm.Provider
	names      *NameExtractor
	cfg        config.ResearchConfig
	toolConfig tools.ToolConfig
	backends   BackendFactory
	logger     *slog.Logger
}

// NewResearcher creates a researcher that searches with the backends the
// configuration has credentials for.
func NewResearcher(provider llm.Provider, gw llm.Completer, cfg config.ResearchConfig, logger *slog.Logger) *Researcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = agent.DefaultMaxTurns
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = tools.DefaultWebResults
	}
	return &Researcher{
		provider:   provider,
		names:      NewNameExtractor(gw, logger),
		cfg:        cfg,
		toolConfig: tools.ToolConfig{TimeoutSecs: cfg.SearchTimeoutSecs},
		backends:   ConfiguredBackends(cfg),
		logger:     logger,
	}
}

// WithBackends replaces the backend factory.
func (r *Researcher) WithBackends(factory BackendFactory) *Researcher {
	if factory != nil {
		r.backends = factory
	}
	return r
}

// WithToolConfig sets the timeout and retry policy for search calls.
func (r *Researcher) WithToolConfig(tc tools.ToolConfig) *Researcher {
	r.toolConfig = tc
	return r
}

// ConfiguredBackends returns a factory that always offers DuckDuckGo and adds
// Tavily when a key is set, else Google Custom Search when both its key and
// engine ID are set.
func ConfiguredBackends(cfg config.ResearchConfig) BackendFactory {
	return func(ctx context.Context) (Backends, error) {
		b := Backends{Web: tools.NewDuckDuckGoSearcher(cfg.SearchTimeoutSecs)}
		switch {
		case cfg.HasTavily():
			b.HighQuality = tools.NewTavilySearcher(cfg.TavilyAPIKey, cfg.SearchTimeoutSecs)
			b.HighQualityName = tools.TavilySearchName
		case cfg.HasGoogle():
			g, err := tools.NewGoogleSearcher(ctx, cfg.GoogleAPIKey, cfg.GoogleSearchID)
			if err != nil {
				return Backends{}, errors.Wrap(err, "failed to create google searcher")
			}
			b.HighQuality = g
			b.HighQualityName = tools.GoogleSearchName
		}
		return b, nil
	}
}

// Research gathers information about companyName. A blank name is derived
// from the job description. Failures are reported in the Result.
func (r *Researcher) Research(ctx context.Context, companyName, jobDescription string) Result {
	name := strings.TrimSpace(companyName)
	if name == "" {
		found, ok := r.names.Extract(ctx, jobDescription)
		if !ok {
			return Result{Error: ErrNoCompany}
		}
		name = found
	}

	log := r.logger.With("company", name)
	log.Info("researching company")

	backends, err := r.backends(ctx)
	if err != nil {
		return r.fail(log, name, err.Error())
	}
	if backends.Web == nil {
		return r.fail(log, name, "no web search backend configured")
	}

	researchTools := []tools.Tool{
		tools.NewWebSearchTool(tools.WebSearchName, webSearchDescription, backends.Web, r.cfg.MaxResults),
	}
	if backends.HighQuality != nil {
		researchTools = append(researchTools, highQualityTool(backends))
	}

	a, err := agent.New(
		agent.NewBuilder("company_research").
			SystemPrompt(researchSystemPrompt).
			FinalPrompt(researchFinalPrompt).
			Tools(researchTools).
			ToolConfig(r.toolConfig).
			FailOnToolError(true).
			Build(),
		r.provider,
	)
	if err != nil {
		return r.fail(log, name, err.Error())
	}
	a.WithLogger(r.logger)

	resp := a.Execute(ctx, fmt.Sprintf(researchTaskTemplate, name), r.cfg.MaxTurns)
	if !resp.IsSuccess() {
		return r.fail(log, name, resp.Error)
	}

	result := Result{
		Success:     true,
		CompanyName: name,
		CompanyInfo: resp.Result,
		Sources:     resp.References,
	}
	if summary, err := ParseSummary(resp.Result); err != nil {
		log.Debug("research answer is not a summary object, using it verbatim", "error", err.Error())
	} else if text := summary.Text(); text != "" {
		result.CompanyInfo = text
		if len(summary.Sources) > 0 {
			result.Sources = summary.Sources
		}
	}

	log.Info("company research complete",
		"llm_calls", resp.Metadata.LLMCalls,
		"tool_calls", len(resp.Metadata.ToolCalls),
		"forced_final", resp.Metadata.ForcedFinal,
		"sources", len(result.Sources))
	return result
}

func (r *Researcher) fail(log *slog.Logger, name, msg string) Result {
	log.Warn("company research failed", "error", msg)
	return Result{CompanyName: name, Error: msg}
}

func highQualityTool(b Backends) tools.Tool {
	switch b.HighQualityName {
	case tools.GoogleSearchName:
		return tools.NewWebSearchTool(b.HighQualityName, googleSearchDescription, b.HighQuality, tools.DefaultGoogleResults)
	default:
		name := b.HighQualityName
		if name == "" {
			name = tools.TavilySearchName
		}
		return tools.NewWebSearchTool(name, tavilySearchDescription, b.HighQuality, tools.DefaultTavilyResults)
	}
}
