// Package openai implements llm.Provider on the OpenAI chat API.
package openai

import (
	"context"
	"fmt"

	"convoscope/pkg/config"
	"convoscope/pkg/logging"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps the OpenAI SDK for chat completions.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a Client from the OpenAI config section. The key must
// already be resolved (config file or environment).
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("openai api key is missing")
	}
	model := cfg.ChatModel
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &Client{
		client: openai.NewClient(cfg.Key),
		model:  model,
	}, nil
}

// GenerateText sends a system instruction and a user prompt and returns the
// first choice's content.
func (c *Client) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   50,
		Temperature: 0.7,
	}

	logging.OpenAI().Info("Chat request", "model", c.model, "prompt_chars", len(prompt))
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logging.OpenAI().Error("Chat request failed", "model", c.model, "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	logging.OpenAI().Info("Chat response", "model", c.model, "total_tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck lists models to verify the key works.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	return nil
}
