package gemini

import (
	"context"
	"fmt"
	"strings"

	"akane/pkg/llm"

	"google.golang.org/genai"
)

// thinkingBudgets maps a reasoning effort onto a Gemini thinking token budget.
var thinkingBudgets = map[string]int32{
	"minimal": 512,
	"low":     1024,
	"medium":  8192,
	"high":    24576,
}

// Client generates text with the Gemini API through the genai SDK.
type Client struct {
	client *genai.Client
	model  llm.Model
}

// NewClient builds a Gemini client. baseURL is only set in tests.
func NewClient(ctx context.Context, apiKey, baseURL string, model llm.Model) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Config builds the generation config, branching on the capability tag once.
// Thinking tokens count against the output budget, so reasoning requests
// reserve the thinking budget on top of the reply budget.
func (c *Client) Config(req llm.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
	}

	switch c.model.Capability {
	case llm.Reasoning:
		budget, ok := thinkingBudgets[c.model.ReasoningEffort]
		if !ok {
			budget = thinkingBudgets["medium"]
		}
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)}
		cfg.MaxOutputTokens = int32(req.MaxTokens) + budget
	default:
		cfg.Temperature = genai.Ptr(float32(c.model.Temperature))
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	return cfg
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model.ID, genai.Text(req.User), c.Config(req))
	if err != nil {
		return "", fmt.Errorf("generate content (%s): %w", c.model.ID, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}
