// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing
// - Default value application
// - Provider-specific configuration lookup
// - Struct-tag validation of the result

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Settings holds all application configuration.
type Settings struct {
	LLM      LLMConfig
	Research ResearchConfig
	Storage  StorageConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string  `validate:"required,oneof=openai gemini deepseek anthropic"`
	Model       string  `validate:"required"`
	MaxTokens   uint32  `validate:"gt=0"`
	Temperature float64 `validate:"gte=0,lte=2"`
}

// ResearchConfig holds company research configuration.
type ResearchConfig struct {
	Enabled           bool
	MaxTurns          int    `validate:"gte=1,lte=20"`
	MaxResults        int    `validate:"gte=1,lte=10"`
	TavilyAPIKey      string
	GoogleAPIKey      string `validate:"required_with=GoogleSearchID"`
	GoogleSearchID    string `validate:"required_with=GoogleAPIKey"`
	SearchTimeoutSecs uint64 `validate:"gte=1,lte=300"`
}

// HasTavily reports whether Tavily credentials are configured.
func (r ResearchConfig) HasTavily() bool {
	return r.TavilyAPIKey != ""
}

// HasGoogle reports whether Google Custom Search credentials are configured.
func (r ResearchConfig) HasGoogle() bool {
	return r.GoogleAPIKey != "" && r.GoogleSearchID != ""
}

// StorageConfig holds the session store location.
type StorageConfig struct {
	DBPath string `validate:"required"`
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o-mini"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude":        "anthropic",
	"google":        "gemini",
	"google_gemini": "gemini",
	"gpt":           "openai",
}

// DefaultProvider is used when neither the caller nor LLM_PROVIDER names one.
const DefaultProvider = "openai"

var validate = validator.New()

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to LLM_PROVIDER, then DefaultProvider.
// Returns an error if the provider is unknown, an environment variable is
// malformed, or the resulting settings fail validation.
func New(provider string) (Settings, error) {
	if provider == "" {
		provider = getEnvString("LLM_PROVIDER", DefaultProvider)
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}

	researchEnabled, err := getEnvBool("RESEARCH_ENABLED", true)
	if err != nil {
		return Settings{}, err
	}

	maxTurns, err := getEnvInt("RESEARCH_MAX_TURNS", 6)
	if err != nil {
		return Settings{}, err
	}

	maxResults, err := getEnvInt("RESEARCH_MAX_RESULTS", 5)
	if err != nil {
		return Settings{}, err
	}

	searchTimeout, err := getEnvUint64("SEARCH_TIMEOUT_SECS", 20)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       getEnvString(info.modelEnv, info.defaultModel),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Research: ResearchConfig{
			Enabled:           researchEnabled,
			MaxTurns:          maxTurns,
			MaxResults:        maxResults,
			TavilyAPIKey:      os.Getenv("TAVILY_API_KEY"),
			GoogleAPIKey:      os.Getenv("GOOGLE_CSE_API_KEY"),
			GoogleSearchID:    os.Getenv("GOOGLE_CSE_ID"),
			SearchTimeoutSecs: searchTimeout,
		},
		Storage: StorageConfig{
			DBPath: getEnvString("SCRIVENER_DB", DefaultDBPath()),
		},
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate checks the struct-tag constraints.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// DefaultDBPath returns the session database location under the user's home
// directory, or a relative path when the home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".scrivener", "sessions.db")
	}
	return filepath.Join(home, ".scrivener", "sessions.db")
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// SupportedProviders returns the supported provider names in sorted order.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvUint64(key string, defaultVal uint64) (uint64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}
