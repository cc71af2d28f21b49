// LLM Provider Factory - builder-first API for the closed provider set.
//
//	// Defaults, API key from environment
//	p, err := llm.ProviderOpenAI.FromEnv()
//
//	// Full configuration
//	p, err := llm.ProviderGemini.
//	    Model(llm.ModelGeminiFlash25).
//	    MaxTokens(2048).
//	    Temperature(0.3).
//	    FromEnv()

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
)

// AllProviders lists every provider in declaration order.
var AllProviders = []ProviderType{ProviderOpenAI, ProviderGemini, ProviderDeepSeek, ProviderAnthropic}

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderGemini:
		return "gemini"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderAnthropic:
		return "anthropic"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// fallbackEnvVar is consulted when EnvVar is unset.
func (p ProviderType) fallbackEnvVar() string {
	if p == ProviderGemini {
		return "GOOGLE_API_KEY"
	}
	return ""
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return ModelOpenAIGPT4oMini
	case ProviderGemini:
		return ModelGeminiFlash25
	case ProviderDeepSeek:
		return ModelDeepSeekChat
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "gemini", "google", "google_gemini":
		return ProviderGemini, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// LookupAPIKey reads this provider's API key from the environment.
func (p ProviderType) LookupAPIKey() (string, error) {
	if key := os.Getenv(p.EnvVar()); key != "" {
		return key, nil
	}
	if fallback := p.fallbackEnvVar(); fallback != "" {
		if key := os.Getenv(fallback); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%s: %s environment variable not set", p, p.EnvVar())
}

// Model starts configuring this provider with a specific model.
func (p ProviderType) Model(model string) *ProviderBuilder {
	return NewProviderBuilder(p).Model(model)
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	model        string
	maxTokens    uint32
	temperature  *float32
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{providerType: providerType}
}

// Model sets the model to use. An empty model keeps the provider default.
func (b *ProviderBuilder) Model(model string) *ProviderBuilder {
	b.model = model
	return b
}

// MaxTokens sets maximum tokens for responses.
func (b *ProviderBuilder) MaxTokens(tokens uint32) *ProviderBuilder {
	b.maxTokens = tokens
	return b
}

// Temperature sets temperature (0.0 = deterministic, 1.0 = creative).
func (b *ProviderBuilder) Temperature(temp float32) *ProviderBuilder {
	b.temperature = &temp
	return b
}

// FromEnv builds the provider, reading API key from environment.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	apiKey, err := b.providerType.LookupAPIKey()
	if err != nil {
		return nil, err
	}
	return b.build(apiKey)
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	return b.build(key)
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	model := b.model
	if model == "" {
		model = b.providerType.DefaultModel()
	}

	maxTokens := b.maxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	temperature := float32(0.7)
	if b.temperature != nil {
		temperature = *b.temperature
	}

	switch b.providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

// OpenAI model identifiers
const (
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelOpenAIGPT35     = "gpt-3.5-turbo"
)

// Gemini model identifiers
const (
	ModelGeminiFlash25 = "gemini-2.5-flash"
	ModelGeminiPro25   = "gemini-2.5-pro"
)

// DeepSeek model identifiers
const (
	ModelDeepSeekChat     = "deepseek-chat"
	ModelDeepSeekReasoner = "deepseek-reasoner"
)

// Anthropic model identifiers
const (
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	ModelAnthropicClaudeHaiku35 = "claude-3-5-haiku-20241022"
)
