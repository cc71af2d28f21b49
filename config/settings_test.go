package config

import (
	"testing"
)

// clearEnv blanks every variable New reads so tests see defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MAX_TOKENS", "LLM_TEMPERATURE",
		"OPENAI_MODEL", "GEMINI_MODEL", "DEEPSEEK_MODEL", "ANTHROPIC_MODEL",
		"RESEARCH_ENABLED", "RESEARCH_MAX_TURNS", "RESEARCH_MAX_RESULTS",
		"TAVILY_API_KEY", "GOOGLE_CSE_API_KEY", "GOOGLE_CSE_ID",
		"SEARCH_TIMEOUT_SECS", "SCRIVENER_DB",
	} {
		t.Setenv(key, "")
	}
}

func TestNewValidProvider(t *testing.T) {
	clearEnv(t)
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
	if settings.Research.MaxTurns != 6 || settings.Research.MaxResults != 5 {
		t.Errorf("unexpected research defaults: %+v", settings.Research)
	}
	if !settings.Research.Enabled {
		t.Error("research should be enabled by default")
	}
	if settings.Storage.DBPath == "" {
		t.Error("expected a default database path")
	}
}

func TestNewWithAlias(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"claude":        "anthropic",
		"google_gemini": "gemini",
		"Google":        "gemini",
		"gpt":           "openai",
	}
	for alias, want := range tests {
		settings, err := New(alias)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", alias, err)
		}
		if settings.LLM.Provider != want {
			t.Errorf("expected %q (normalized from %q), got %q", want, alias, settings.LLM.Provider)
		}
	}
}

func TestNewProviderFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "deepseek")

	settings, err := New("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "deepseek" || settings.LLM.Model != "deepseek-chat" {
		t.Errorf("unexpected LLM settings: %+v", settings.LLM)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	clearEnv(t)
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid LLM_MAX_TOKENS")
	}
}

func TestNewValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero max turns", "RESEARCH_MAX_TURNS", "0"},
		{"too many results", "RESEARCH_MAX_RESULTS", "50"},
		{"temperature out of range", "LLM_TEMPERATURE", "3.5"},
		{"google key without engine", "GOOGLE_CSE_API_KEY", "key"},
		{"bad bool", "RESEARCH_ENABLED", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := New("openai"); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestResearchCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("TAVILY_API_KEY", "tvly")
	t.Setenv("GOOGLE_CSE_API_KEY", "key")
	t.Setenv("GOOGLE_CSE_ID", "cx")

	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.Research.HasTavily() || !settings.Research.HasGoogle() {
		t.Errorf("expected both credentials, got %+v", settings.Research)
	}
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) != 4 || providers[0] != "anthropic" {
		t.Errorf("unexpected providers: %v", providers)
	}
}
