package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/core"
)

// systemMessage primes the chat endpoint for single-turn prompts.
const systemMessage = "You are a helpful email assistant."

// Client is a TextGenerator backed by the OpenAI chat completion API. It also
// serves any OpenAI-compatible endpoint; the grok provider reuses it with a
// different base URL.
type Client struct {
	client    *openai.Client
	modelName string
	provider  string
	logger    *zap.Logger
}

// NewClient creates a new OpenAI-compatible client. provider names the
// backend in logs and errors (openai or grok).
func NewClient(client *openai.Client, modelName, provider string, logger *zap.Logger) *Client {
	return &Client{
		client:    client,
		modelName: modelName,
		provider:  provider,
		logger:    logger,
	}
}

var _ core.TextGenerator = (*Client)(nil)

// Generate produces completion text for the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemMessage,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with %s: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.provider)
	}

	c.logger.Debug("Chat completion received",
		zap.String("provider", c.provider),
		zap.String("model", c.modelName),
		zap.String("response_id", resp.ID))

	return resp.Choices[0].Message.Content, nil
}
