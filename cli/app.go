// Wiring for CLI commands.
//
// Information Hiding:
// - Provider construction from settings hidden
// - Session store lifetime hidden
// - Pipeline and researcher assembly hidden

package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/richinex/scrivener/config"
	"github.com/richinex/scrivener/letter"
	"github.com/richinex/scrivener/llm"
	"github.com/richinex/scrivener/research"
	"github.com/richinex/scrivener/session"
	"github.com/richinex/scrivener/storage"
)

// Options holds the global CLI flags.
type Options struct {
	Provider string
	Model    string
	DBPath   string
	Verbose  bool
}

// App holds the collaborators shared by all commands.
type App struct {
	Settings config.Settings
	Provider llm.Provider
	Store    storage.SessionStore
	Logger   *slog.Logger
	Out      io.Writer
	Err      io.Writer

	// Backends overrides the research search backends when set.
	Backends research.BackendFactory

	// Pinned keeps Provider for revisions of sessions created with another
	// provider or model. Set when --provider or --model is given.
	Pinned bool

	// NewProvider builds providers for stored sessions. Defaults to the
	// environment-configured factory.
	NewProvider func(config.LLMConfig) (llm.Provider, error)
}

// NewLogger returns a text logger writing to w, at Debug level when verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LoadSettings reads settings from the environment and applies flag
// overrides.
func LoadSettings(opts Options) (config.Settings, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return config.Settings{}, err
	}
	if opts.Model != "" {
		settings.LLM.Model = opts.Model
	}
	if opts.DBPath != "" {
		settings.Storage.DBPath = opts.DBPath
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// NewApp builds an App from flags and the environment. needProvider is false
// for commands that only read the session store. The returned func releases
// the store.
func NewApp(opts Options, needProvider bool) (*App, func(), error) {
	settings, err := LoadSettings(opts)
	if err != nil {
		return nil, nil, err
	}

	logger := NewLogger(os.Stderr, opts.Verbose)
	app := &App{
		Settings: settings,
		Logger:   logger,
		Out:      os.Stdout,
		Err:      os.Stderr,
		Pinned:   opts.Provider != "" || opts.Model != "",
	}

	if needProvider {
		provider, err := createProvider(settings.LLM)
		if err != nil {
			return nil, nil, err
		}
		app.Provider = provider
	}

	store, err := storage.OpenSqlite(settings.Storage.DBPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open session store")
	}
	app.Store = store

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close session store", "error", err.Error())
		}
	}
	return app, cleanup, nil
}

func createProvider(cfg config.LLMConfig) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return providerType.
		Model(cfg.Model).
		MaxTokens(cfg.MaxTokens).
		Temperature(float32(cfg.Temperature)).
		FromEnv()
}

func (a *App) researcher(provider llm.Provider) *research.Researcher {
	r := research.NewResearcher(provider, llm.NewClient(provider), a.Settings.Research, a.Logger)
	if a.Backends != nil {
		r.WithBackends(a.Backends)
	}
	return r
}

func (a *App) pipeline(provider llm.Provider) *letter.Pipeline {
	return letter.NewPipeline(llm.NewClient(provider), a.researcher(provider), a.Logger)
}

// generatorFor builds a pipeline on the provider and model a session was
// created with. The other LLM settings come from the environment.
func (a *App) generatorFor(provider, model string) (session.Generator, error) {
	cfg := a.Settings.LLM
	cfg.Provider, cfg.Model = provider, model

	build := a.NewProvider
	if build == nil {
		build = createProvider
	}
	p, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return a.pipeline(p), nil
}

func (a *App) service() *session.Service {
	svc := session.NewService(a.pipeline(a.Provider), a.Store, a.Settings.LLM.Provider, a.Provider.Model(), a.Logger)
	if !a.Pinned {
		svc.WithGeneratorFactory(a.generatorFor)
	}
	return svc
}
