package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// Gemini calls the Gemini API through the official genai client.
type Gemini struct {
	cli   *genai.Client
	model string
}

func NewGemini(ctx context.Context, apiKey, baseURL, model string) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}

	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{cli: cli, model: model}, nil
}

func (g *Gemini) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", &SummarizationError{Cause: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &SummarizationError{Cause: errors.New("no candidates returned")}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &SummarizationError{Cause: errors.New("empty candidate")}
	}
	return text, nil
}
