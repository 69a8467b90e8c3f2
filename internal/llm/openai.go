package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a technical analyst. Summarize GitHub repositories for developers evaluating them: " +
	"what the project does, its key features and the technologies it uses. Answer in plain prose or Markdown."

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAI) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", &SummarizationError{Cause: err}
	}

	if len(resp.Choices) == 0 {
		return "", &SummarizationError{Cause: errors.New("no choices returned")}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &SummarizationError{Cause: errors.New("empty completion")}
	}
	return content, nil
}
