package gpt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"akane/pkg/llm"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Client calls the OpenAI chat completions API for a single model.
type Client struct {
	client openai.Client
	model  llm.Model
}

// NewClient builds a client for model. baseURL may be empty for the default endpoint.
// SDK retries are disabled; callers wrap the client with llm.NewRetryingGenerator.
func NewClient(apiKey, baseURL string, model llm.Model, timeout time.Duration) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Params builds the completion request. The capability tag is consulted here only.
func (c *Client) Params(req llm.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model.ID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}

	switch c.model.Capability {
	case llm.Reasoning:
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
		effort := c.model.ReasoningEffort
		if effort == "" {
			effort = string(shared.ReasoningEffortMedium)
		}
		params.ReasoningEffort = shared.ReasoningEffort(effort)
	default:
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
		params.Temperature = openai.Float(c.model.Temperature)
	}

	return params
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.Params(req))
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", c.model.ID, err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}
