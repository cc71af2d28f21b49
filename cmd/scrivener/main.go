// Package main provides the scrivener CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/scrivener/cli"
	"github.com/richinex/scrivener/config"
	"github.com/richinex/scrivener/letter"
)

const version = "0.1.0"

var opts cli.Options

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "scrivener",
		Short: "Write and refine cover letters with an LLM",
		Long: `Write cover letters tailored to a job posting and your history.

Each letter goes through company research, a first draft, a skill audit
against your history and a revision. Letters are saved as sessions so they
can be revised with feedback later.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.Provider, "provider", "p", "", "LLM provider ("+strings.Join(config.SupportedProviders(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&opts.Model, "model", "", "Model name (defaults to the provider's model setting)")
	rootCmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "Session database path (default ~/.scrivener/sessions.db)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug logging")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(reviseCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(researchCmd())
	rootCmd.AddCommand(mcpCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withApp builds the app for one command run and releases it afterwards.
func withApp(needProvider bool, run func(*cli.App) error) error {
	app, cleanup, err := cli.NewApp(opts, needProvider)
	if err != nil {
		return err
	}
	defer cleanup()
	return run(app)
}

func toneHelp() string {
	names := make([]string, 0, 3)
	for _, t := range letter.PresetTones() {
		names = append(names, string(t))
	}
	return "Letter tone: " + strings.Join(names, ", ") + ", or any description"
}

func generateCmd() *cobra.Command {
	var g cli.GenerateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a cover letter",
		Long: `Generate a cover letter from a job description and a resume.

Pass "-" as a file name to read it from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				return app.Generate(cmd.Context(), g)
			})
		},
	}

	cmd.Flags().StringVarP(&g.JobFile, "job", "j", "", "Job description file")
	cmd.Flags().StringVarP(&g.HistoryFile, "history", "r", "", "Resume / personal history file")
	cmd.Flags().StringVarP(&g.Tone, "tone", "t", string(letter.ToneEnthusiastic), toneHelp())
	cmd.Flags().BoolVar(&g.NoResearch, "no-research", false, "Skip company research")
	cmd.Flags().StringVarP(&g.OutFile, "out", "o", "", "Write the letter to a file instead of stdout")
	cmd.Flags().StringVarP(&g.Format, "format", "f", "text", "Output format (text, html)")
	cmd.Flags().BoolVar(&g.NoSave, "no-save", false, "Do not save the letter as a session")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("history")

	return cmd
}

func reviseCmd() *cobra.Command {
	var r cli.ReviseOptions

	cmd := &cobra.Command{
		Use:   "revise",
		Short: "Revise a letter with feedback",
		Long: `Revise a letter according to your feedback.

With --session the stored inputs and latest letter are reused and the result
is saved as a new revision. Without it, pass --letter, --job and --history.
Feedback that mentions "company information" re-runs company research.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				return app.Revise(cmd.Context(), r)
			})
		},
	}

	cmd.Flags().StringVarP(&r.SessionID, "session", "s", "", "Session ID to continue")
	cmd.Flags().StringVar(&r.Feedback, "feedback", "", "What to change")
	cmd.Flags().StringVarP(&r.LetterFile, "letter", "l", "", "Letter file (without --session)")
	cmd.Flags().StringVarP(&r.JobFile, "job", "j", "", "Job description file (without --session)")
	cmd.Flags().StringVarP(&r.HistoryFile, "history", "r", "", "Resume file (without --session)")
	cmd.Flags().StringVarP(&r.Tone, "tone", "t", string(letter.ToneEnthusiastic), toneHelp()+" (without --session)")
	cmd.Flags().BoolVar(&r.NoResearch, "no-research", false, "Never re-run company research (without --session)")
	cmd.Flags().StringVarP(&r.OutFile, "out", "o", "", "Write the letter to a file instead of stdout")
	cmd.Flags().StringVarP(&r.Format, "format", "f", "text", "Output format (text, html)")
	_ = cmd.MarkFlagRequired("feedback")

	return cmd
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return app.Sessions(cmd.Context())
			})
		},
	}
}

func showCmd() *cobra.Command {
	var (
		format string
		latest bool
	)

	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Print every revision of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return app.Show(cmd.Context(), args[0], format, latest)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, html)")
	cmd.Flags().BoolVar(&latest, "latest", false, "Print only the newest revision")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [session-id]",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(false, func(app *cli.App) error {
				return app.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func researchCmd() *cobra.Command {
	var r cli.ResearchOptions

	cmd := &cobra.Command{
		Use:   "research",
		Short: "Research a company",
		Long: `Search the web for information about a company, as the generate command
does before drafting. The company is named with --company or found in the
job description given with --job.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				return app.Research(cmd.Context(), r)
			})
		},
	}

	cmd.Flags().StringVarP(&r.Company, "company", "c", "", "Company name")
	cmd.Flags().StringVarP(&r.JobFile, "job", "j", "", "Job description file")
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve letter tools over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(app *cli.App) error {
				return app.ServeMCP(version)
			})
		},
	}
}
