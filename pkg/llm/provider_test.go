package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   map[string]interface{}
}

func newRecordingServer(t *testing.T, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Query = r.URL.Query()
		captured.Header = r.Header.Clone()
		captured.Body = map[string]interface{}{}
		if len(body) > 0 {
			require.NoError(t, json.Unmarshal(body, &captured.Body))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const openAIReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "browser_navigate", "arguments": "{\"url\":\"https://www.google.com\"}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
}`

func browsingRequest() Request {
	return Request{
		SystemPrompt: "You are a helpful web automation assistant.",
		Messages: []Message{
			{Role: RoleUser, Content: "open google"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_0", Name: "browser_snapshot", Parameters: map[string]interface{}{}}}},
			{Role: RoleTool, ToolCallID: "call_0", ToolName: "browser_snapshot", Content: "about:blank"},
		},
		Tools: []ToolSpec{{
			Name:        "browser_navigate",
			Description: "Navigate to a URL",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"url": map[string]interface{}{"type": "string"}},
				"required":   []interface{}{"url"},
			},
		}},
	}
}

func TestAzureOpenAIClient_Wire(t *testing.T) {
	var captured capturedRequest
	srv := newRecordingServer(t, openAIReply, &captured)

	client, err := NewFactory(Env{}, zerolog.Nop()).CreateClient(ProviderConfig{
		Provider:            ProviderAzureOpenAI,
		APIKey:              "azure-secret",
		AzureEndpoint:       srv.URL,
		AzureDeploymentName: "prod",
		MaxRetries:          Int(0),
	})
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), browsingRequest())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/openai/deployments/prod/chat/completions", captured.Path)
	assert.Equal(t, []string{"2024-02-15-preview"}, captured.Query["api-version"])
	assert.Equal(t, "azure-secret", captured.Header.Get("api-key"))
	assert.Empty(t, captured.Header.Get("Authorization"))
	assert.Equal(t, "gpt-4o", captured.Body["model"])
	assert.Equal(t, 0.0, captured.Body["temperature"])

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "browser_navigate", resp.ToolCalls[0].Name)
	assert.Equal(t, "https://www.google.com", resp.ToolCalls[0].Parameters["url"])
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 7, resp.Usage.OutputTokens)
}

func TestOpenAIClient_Wire(t *testing.T) {
	var captured capturedRequest
	srv := newRecordingServer(t, openAIReply, &captured)

	client, err := NewFactory(Env{"OPENAI_API_KEY": "sk-test"}, zerolog.Nop()).CreateClient(ProviderConfig{
		Provider:   ProviderOpenAI,
		BaseURL:    srv.URL,
		MaxRetries: Int(0),
	})
	require.NoError(t, err)

	_, err = client.Call(context.Background(), browsingRequest())
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "Bearer sk-test", captured.Header.Get("Authorization"))

	messages, ok := captured.Body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	toolMsg := messages[3].(map[string]interface{})
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_0", toolMsg["tool_call_id"])

	tools, ok := captured.Body["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, tools, 1)
}

func TestAnthropicClient_Wire(t *testing.T) {
	reply := `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-20241022",
  "content": [
    {"type": "text", "text": "Opening the page."},
    {"type": "tool_use", "id": "toolu_1", "name": "browser_navigate", "input": {"url": "https://www.google.com"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 20, "output_tokens": 9}
}`
	var captured capturedRequest
	srv := newRecordingServer(t, reply, &captured)

	client, err := NewFactory(Env{}, zerolog.Nop()).CreateClient(ProviderConfig{
		Provider:   ProviderAnthropic,
		APIKey:     "anthropic-secret",
		BaseURL:    srv.URL,
		MaxRetries: Int(0),
	})
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), browsingRequest())
	require.NoError(t, err)

	assert.Equal(t, "/v1/messages", captured.Path)
	assert.Equal(t, "anthropic-secret", captured.Header.Get("X-Api-Key"))
	assert.Equal(t, "claude-3-5-sonnet-20241022", captured.Body["model"])
	assert.EqualValues(t, DefaultMaxTokens, captured.Body["max_tokens"])

	messages, ok := captured.Body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 3)
	last := messages[2].(map[string]interface{})
	assert.Equal(t, "user", last["role"])

	assert.Equal(t, "Opening the page.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "https://www.google.com", resp.ToolCalls[0].Parameters["url"])
	assert.Equal(t, 20, resp.Usage.InputTokens)
}

func TestGeminiClient_Wire(t *testing.T) {
	reply := `{
  "candidates": [{
    "content": {
      "role": "model",
      "parts": [
        {"text": "The first result is Neuro SAN."},
        {"functionCall": {"name": "browser_navigate", "args": {"url": "https://www.google.com"}}}
      ]
    },
    "finishReason": "STOP"
  }],
  "usageMetadata": {"promptTokenCount": 30, "candidatesTokenCount": 11}
}`
	var captured capturedRequest
	srv := newRecordingServer(t, reply, &captured)

	client, err := NewFactory(Env{"GOOGLE_API_KEY": "google-secret"}, zerolog.Nop()).CreateClient(ProviderConfig{
		Provider:   ProviderGoogleGemini,
		BaseURL:    srv.URL,
		MaxRetries: Int(0),
	})
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), browsingRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(captured.Path, "models/gemini-2.5-flash:generateContent"), captured.Path)
	assert.Equal(t, "google-secret", captured.Header.Get("X-Goog-Api-Key"))

	assert.Equal(t, "The first result is Neuro SAN.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.True(t, strings.HasPrefix(resp.ToolCalls[0].ID, "call_"))
	assert.Equal(t, "browser_navigate", resp.ToolCalls[0].Name)
	assert.Equal(t, 30, resp.Usage.InputTokens)
	assert.Equal(t, 11, resp.Usage.OutputTokens)
}

func TestBuildGeminiContents_MergesToolResults(t *testing.T) {
	contents := buildGeminiContents([]Message{
		{Role: RoleUser, Content: "go"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "one"},
			{ID: "b", Name: "two"},
		}},
		{Role: RoleTool, ToolCallID: "a", ToolName: "one", Content: "1"},
		{Role: RoleTool, ToolCallID: "b", ToolName: "two", Content: "2"},
		{Role: RoleAssistant, Content: "done"},
	})

	require.Len(t, contents, 4)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Len(t, contents[1].Parts, 2)
	assert.Equal(t, "user", contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	assert.Equal(t, "two", contents[2].Parts[1].FunctionResponse.Name)
	assert.Equal(t, "model", contents[3].Role)
}
