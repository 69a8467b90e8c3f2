// Package llm produces the natural-language summary of an analysis through a
// hosted language model.
package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Summarizer turns a prompt into summary text.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// New builds the backend named by cfg.Provider. Without an API key the
// returned Summarizer fails every call with a *ConfigurationError.
func New(ctx context.Context, cfg Config) (Summarizer, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderGemini
	}

	switch provider {
	case ProviderGemini:
		if cfg.APIKey == "" {
			return unconfigured{reason: "GEMINI_API_KEY not configured in environment"}, nil
		}
		return NewGemini(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model)
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return unconfigured{reason: "LLM_API_KEY not configured in environment"}, nil
		}
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

type unconfigured struct {
	reason string
}

func (u unconfigured) Summarize(context.Context, string) (string, error) {
	return "", &ConfigurationError{Reason: u.reason}
}

// Disabled is the summary recorded when a caller opts out of summarization.
const Disabled = "LLM summarization disabled for this request"

// Placeholder is the summary text substituted for a failed summarization.
func Placeholder(err error) string {
	return "LLM summarization failed: " + err.Error()
}
