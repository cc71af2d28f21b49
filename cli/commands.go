// Command execution for CLI commands.
//
// Information Hiding:
// - Input file handling hidden
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/richinex/scrivener/letter"
	"github.com/richinex/scrivener/mcpserver"
	"github.com/richinex/scrivener/render"
	"github.com/richinex/scrivener/session"
)

// GenerateOptions are the flags of the generate command.
type GenerateOptions struct {
	JobFile     string
	HistoryFile string
	Tone        string
	NoResearch  bool
	OutFile     string
	Format      string
	NoSave      bool
}

// ReviseOptions are the flags of the revise command.
type ReviseOptions struct {
	SessionID   string
	Feedback    string
	LetterFile  string
	JobFile     string
	HistoryFile string
	Tone        string
	NoResearch  bool
	OutFile     string
	Format      string
}

// ResearchOptions are the flags of the research command.
type ResearchOptions struct {
	Company string
	JobFile string
}

func readInput(path, what string) (string, error) {
	if path == "" {
		return "", errors.Errorf("--%s is required", what)
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", what)
	}
	return string(data), nil
}

func toneOrDefault(tone string) letter.Tone {
	if tone = strings.TrimSpace(tone); tone == "" {
		return letter.ToneEnthusiastic
	}
	return letter.Tone(tone)
}

// Generate runs the generate command.
func (a *App) Generate(ctx context.Context, opts GenerateOptions) error {
	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	job, err := readInput(opts.JobFile, "job")
	if err != nil {
		return err
	}
	history, err := readInput(opts.HistoryFile, "history")
	if err != nil {
		return err
	}

	res, err := a.service().Generate(ctx, letter.Request{
		JobDescription:  job,
		PersonalHistory: history,
		Tone:            toneOrDefault(opts.Tone),
		ResearchEnabled: a.Settings.Research.Enabled && !opts.NoResearch,
	}, !opts.NoSave)
	if err != nil && res.Outcome.Letter == "" {
		return err
	}
	if err != nil {
		fmt.Fprintf(a.Err, "Warning: %v\n", err)
	}

	out := res.Outcome
	if err := a.emit(render.Document{
		Letter:      out.Letter,
		CompanyName: out.CompanyName,
		Sources:     out.Sources,
		GeneratedAt: time.Now(),
	}, format, opts.OutFile); err != nil {
		return err
	}

	if out.CompanyName != "" && out.CompanyInfo != "" {
		fmt.Fprintf(a.Err, "Researched: %s (%d sources)\n", out.CompanyName, len(out.Sources))
	}
	if len(out.MissingSkills) > 0 {
		fmt.Fprintf(a.Err, "Worked in: %s\n", strings.Join(out.MissingSkills, ", "))
	}
	if res.SessionID != "" {
		fmt.Fprintf(a.Err, "Session: %s\n", res.SessionID)
	}
	return nil
}

// Revise runs the revise command.
func (a *App) Revise(ctx context.Context, opts ReviseOptions) error {
	format, err := render.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	in := session.ReviseInput{
		SessionID:       strings.TrimSpace(opts.SessionID),
		Feedback:        opts.Feedback,
		Tone:            toneOrDefault(opts.Tone),
		ResearchEnabled: a.Settings.Research.Enabled && !opts.NoResearch,
	}
	if strings.TrimSpace(in.Feedback) == "" {
		return session.ErrEmptyFeedback
	}
	if in.SessionID == "" {
		if in.Letter, err = readInput(opts.LetterFile, "letter"); err != nil {
			return err
		}
		if in.JobDescription, err = readInput(opts.JobFile, "job"); err != nil {
			return err
		}
		if in.PersonalHistory, err = readInput(opts.HistoryFile, "history"); err != nil {
			return err
		}
	}

	res, err := a.service().Revise(ctx, in)
	if err != nil && res.Letter == "" {
		return err
	}
	if err != nil {
		fmt.Fprintf(a.Err, "Warning: %v\n", err)
	}

	if err := a.emit(render.Document{Letter: res.Letter, GeneratedAt: time.Now()}, format, opts.OutFile); err != nil {
		return err
	}
	if res.SessionID != "" {
		fmt.Fprintf(a.Err, "Session: %s (revision %d)\n", res.SessionID, res.Revision)
	}
	return nil
}

func (a *App) emit(doc render.Document, format render.Format, outFile string) error {
	if outFile == "" {
		return render.Write(a.Out, format, doc)
	}
	if filepath.Ext(outFile) == "" {
		outFile += format.Extension()
	}
	f, err := os.Create(outFile)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := render.Write(f, format, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to close output file")
	}
	fmt.Fprintf(a.Err, "Saved to %s\n", outFile)
	return nil
}

const maxPreviewLen = 60

// Sessions lists stored sessions, newest first.
func (a *App) Sessions(ctx context.Context) error {
	sessions, err := a.Store.List(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.Out, "No sessions.")
		return nil
	}

	for _, s := range sessions {
		revisions, err := a.Store.Revisions(ctx, s.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s  %s  %-9s %-12s %d revision(s)  %s\n",
			s.ID,
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
			s.Provider,
			truncateString(s.Tone, 12),
			len(revisions),
			truncateString(firstLine(s.JobDescription), maxPreviewLen),
		)
	}
	return nil
}

// Show prints the revisions of a session oldest first, each under a heading
// naming the feedback that produced it. latest limits output to the newest.
func (a *App) Show(ctx context.Context, sessionID, formatName string, latest bool) error {
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}
	sess, err := a.Store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	revisions, err := a.Store.Revisions(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(revisions) == 0 {
		return errors.Errorf("session %s has no letters", sessionID)
	}
	if latest {
		last := revisions[len(revisions)-1]
		return render.Write(a.Out, format, render.Document{Letter: last.Letter, GeneratedAt: last.CreatedAt})
	}

	var b strings.Builder
	for i, rev := range revisions {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n%s", revisionHeading(rev.Index, rev.Feedback), strings.TrimSpace(rev.Letter))
	}
	return render.Write(a.Out, format, render.Document{
		Letter:      b.String(),
		GeneratedAt: sess.UpdatedAt,
	})
}

func revisionHeading(index int, feedback string) string {
	if index == 0 {
		return "Revision 0: original"
	}
	return fmt.Sprintf("Revision %d: %s", index, truncateString(firstLine(feedback), maxPreviewLen))
}

// Delete removes a stored session and its revisions.
func (a *App) Delete(ctx context.Context, sessionID string) error {
	if _, err := a.Store.Get(ctx, sessionID); err != nil {
		return err
	}
	if err := a.Store.Delete(ctx, sessionID); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Deleted session %s\n", sessionID)
	return nil
}

// Research runs company research on its own and prints the findings.
func (a *App) Research(ctx context.Context, opts ResearchOptions) error {
	var job string
	if opts.JobFile != "" {
		var err error
		if job, err = readInput(opts.JobFile, "job"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(opts.Company) == "" && job == "" {
		return errors.New("--company or --job is required")
	}

	res := a.researcher(a.Provider).Research(ctx, opts.Company, job)
	if !res.Success {
		return errors.Errorf("research failed: %s", res.Error)
	}

	fmt.Fprintf(a.Out, "# %s\n\n%s\n", res.CompanyName, res.CompanyInfo)
	if len(res.Sources) > 0 {
		fmt.Fprintln(a.Out, "\nSources:")
		for _, src := range res.Sources {
			fmt.Fprintf(a.Out, "- %s\n", src)
		}
	}
	return nil
}

// ServeMCP serves the letter tools over stdio.
func (a *App) ServeMCP(version string) error {
	h := mcpserver.NewHandlers(a.service(), a.Settings.Research.Enabled, a.Logger)
	return mcpserver.Run(h, version)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
