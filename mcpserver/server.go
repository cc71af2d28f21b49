// Package mcpserver exposes letter generation as MCP tools over stdio.
//
// Information Hiding:
// - Tool schemas and argument decoding hidden
// - Session persistence delegated to session.Service
package mcpserver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/richinex/scrivener/letter"
	"github.com/richinex/scrivener/session"
)

const serverName = "scrivener"

var generateToolDef = mcp.NewTool("generate_cover_letter",
	mcp.WithDescription("Write a cover letter for a job. Optionally researches the company on the web first. The letter is saved as a session that revise_cover_letter can continue."),
	mcp.WithString("job_description", mcp.Required(), mcp.Description("Full text of the job posting")),
	mcp.WithString("personal_history", mcp.Required(), mcp.Description("The applicant's resume or career history")),
	mcp.WithString("tone", mcp.Description("Enthusiastic, Confident, Concise, or any free-form tone description (default Enthusiastic)")),
	mcp.WithBoolean("research", mcp.Description("Research the company before writing (defaults to the server's RESEARCH_ENABLED setting)")),
)

var reviseToolDef = mcp.NewTool("revise_cover_letter",
	mcp.WithDescription("Revise a cover letter according to feedback. Pass session_id to continue a saved session, or pass the letter and its inputs directly."),
	mcp.WithString("feedback", mcp.Required(), mcp.Description("What to change in the letter")),
	mcp.WithString("session_id", mcp.Description("Session returned by generate_cover_letter")),
	mcp.WithString("letter", mcp.Description("Letter to revise when no session is given")),
	mcp.WithString("job_description", mcp.Description("Job posting when no session is given")),
	mcp.WithString("personal_history", mcp.Description("Resume text when no session is given")),
	mcp.WithString("tone", mcp.Description("Tone when no session is given")),
	mcp.WithBoolean("research", mcp.Description("Allow company research when no session is given")),
)

// Handlers serves the letter tools.
type Handlers struct {
	svc             *session.Service
	researchDefault bool
	logger          *slog.Logger
}

// NewHandlers creates tool handlers. researchDefault applies when a call does
// not set "research".
func NewHandlers(svc *session.Service, researchDefault bool, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, researchDefault: researchDefault, logger: logger}
}

// NewServer creates an MCP server with the letter tools registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(true))
	s.AddTool(generateToolDef, h.HandleGenerate)
	s.AddTool(reviseToolDef, h.HandleRevise)
	return s
}

// Run serves the tools on stdin/stdout until the input closes.
func Run(h *Handlers, version string) error {
	return server.ServeStdio(NewServer(h, version))
}

type generateArgs struct {
	JobDescription  string `json:"job_description"`
	PersonalHistory string `json:"personal_history"`
	Tone            string `json:"tone"`
	Research        *bool  `json:"research"`
}

type generateOutput struct {
	SessionID     string   `json:"session_id,omitempty"`
	Letter        string   `json:"letter"`
	CompanyName   string   `json:"company_name,omitempty"`
	Sources       []string `json:"sources,omitempty"`
	MissingSkills []string `json:"missing_skills,omitempty"`
}

// HandleGenerate serves generate_cover_letter.
func (h *Handlers) HandleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[generateArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(args.JobDescription) == "" {
		return mcp.NewToolResultError("job_description is required"), nil
	}
	if strings.TrimSpace(args.PersonalHistory) == "" {
		return mcp.NewToolResultError("personal_history is required"), nil
	}

	res, err := h.svc.Generate(ctx, letter.Request{
		JobDescription:  args.JobDescription,
		PersonalHistory: args.PersonalHistory,
		Tone:            toneOrDefault(args.Tone),
		ResearchEnabled: h.research(args.Research),
	}, true)
	if err != nil && res.Outcome.Letter == "" {
		h.logger.Error("generate_cover_letter failed", "error", err.Error())
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.logger.Warn("generate_cover_letter", "error", err.Error())
	}

	return mcp.NewToolResultJSON(generateOutput{
		SessionID:     res.SessionID,
		Letter:        res.Outcome.Letter,
		CompanyName:   res.Outcome.CompanyName,
		Sources:       res.Outcome.Sources,
		MissingSkills: res.Outcome.MissingSkills,
	})
}

type reviseArgs struct {
	Feedback        string `json:"feedback"`
	SessionID       string `json:"session_id"`
	Letter          string `json:"letter"`
	JobDescription  string `json:"job_description"`
	PersonalHistory string `json:"personal_history"`
	Tone            string `json:"tone"`
	Research        *bool  `json:"research"`
}

type reviseOutput struct {
	SessionID string `json:"session_id,omitempty"`
	Revision  int    `json:"revision,omitempty"`
	Letter    string `json:"letter"`
}

// HandleRevise serves revise_cover_letter.
func (h *Handlers) HandleRevise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[reviseArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.svc.Revise(ctx, session.ReviseInput{
		SessionID:       strings.TrimSpace(args.SessionID),
		Letter:          args.Letter,
		JobDescription:  args.JobDescription,
		PersonalHistory: args.PersonalHistory,
		Tone:            toneOrDefault(args.Tone),
		ResearchEnabled: h.research(args.Research),
		Feedback:        args.Feedback,
	})
	if err != nil && res.Letter == "" {
		if !errors.Is(err, session.ErrEmptyFeedback) {
			h.logger.Error("revise_cover_letter failed", "error", err.Error())
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		h.logger.Warn("revise_cover_letter", "error", err.Error())
	}

	return mcp.NewToolResultJSON(reviseOutput{
		SessionID: res.SessionID,
		Revision:  res.Revision,
		Letter:    res.Letter,
	})
}

func (h *Handlers) research(flag *bool) bool {
	if flag == nil {
		return h.researchDefault
	}
	return *flag
}

func toneOrDefault(tone string) letter.Tone {
	if tone = strings.TrimSpace(tone); tone == "" {
		return letter.ToneEnthusiastic
	}
	return letter.Tone(tone)
}
