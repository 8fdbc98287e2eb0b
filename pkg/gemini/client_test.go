package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"akane/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiServer(t *testing.T, reply string) (*httptest.Server, *string, *string) {
	t.Helper()
	var path, body string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"` + reply + `"}]},"finishReason":"STOP"}]}`))
	}))
	t.Cleanup(server.Close)
	return server, &path, &body
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "", llm.Model{ID: "gemini-2.5-flash"})
	assert.Error(t, err)
}

func TestGenerate_SamplingModel(t *testing.T) {
	server, path, body := newGeminiServer(t, "まいど！")
	model := llm.Model{ID: "gemini-2.0-flash", Capability: llm.Sampling, Temperature: 0.8}

	client, err := NewClient(context.Background(), "test-key", server.URL, model)
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), llm.Request{System: "persona", User: "おはよう", MaxTokens: 800})
	require.NoError(t, err)

	assert.Equal(t, "まいど！", out)
	assert.True(t, strings.Contains(*path, "gemini-2.0-flash:generateContent"), *path)
	assert.Contains(t, *body, `"temperature"`)
	assert.Contains(t, *body, `"maxOutputTokens":800`)
	assert.Contains(t, *body, `"systemInstruction"`)
	assert.NotContains(t, *body, `"thinkingConfig"`)
}

func TestGenerate_ReasoningModel(t *testing.T) {
	server, _, body := newGeminiServer(t, "分析するで")
	model := llm.Model{ID: "gemini-2.5-flash", Capability: llm.Reasoning, ReasoningEffort: "low", Temperature: 0.8}

	client, err := NewClient(context.Background(), "test-key", server.URL, model)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), llm.Request{System: "persona", User: "表現規制は妥当ですか？", MaxTokens: 2000})
	require.NoError(t, err)

	assert.Contains(t, *body, `"thinkingBudget":1024`)
	assert.Contains(t, *body, `"maxOutputTokens":3024`)
	assert.NotContains(t, *body, `"temperature"`)
}

func TestGenerate_EmptyReply(t *testing.T) {
	server, _, _ := newGeminiServer(t, "  ")
	client, err := NewClient(context.Background(), "test-key", server.URL, llm.Model{ID: "gemini-2.0-flash"})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), llm.Request{User: "hi", MaxTokens: 10})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestConfig_UnknownEffortUsesMedium(t *testing.T) {
	client := &Client{model: llm.Model{ID: "m", Capability: llm.Reasoning, ReasoningEffort: "extreme"}}

	cfg := client.Config(llm.Request{System: "s", MaxTokens: 100})
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int32(8192), *cfg.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(8292), cfg.MaxOutputTokens)
	assert.Nil(t, cfg.Temperature)
}
