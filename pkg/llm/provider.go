package llm

import (
	"context"
)

// Provider names a model vendor integration.
type Provider string

const (
	ProviderGoogleGemini Provider = "google-gemini"
	ProviderAnthropic    Provider = "anthropic"
	ProviderOpenAI       Provider = "openai"
	ProviderAzureOpenAI  Provider = "azure-openai"
)

// Providers returns the supported provider kinds in display order.
func Providers() []Provider {
	return []Provider{ProviderGoogleGemini, ProviderAnthropic, ProviderOpenAI, ProviderAzureOpenAI}
}

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Client is a constructed model handle.
type Client interface {
	// Call sends one model invocation
	Call(ctx context.Context, request Request) (*Response, error)

	// Provider returns the provider kind
	Provider() Provider

	// Settings returns the resolved construction settings
	Settings() Settings
}

// Request contains the parameters for one model call
type Request struct {
	Messages     []Message
	Tools        []ToolSpec
	SystemPrompt string
}

// Response contains the model output
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}

// Message is one conversation turn
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// ToolCall represents a tool invocation requested by the model
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ToolSpec describes a callable tool to the model
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates another usage record.
func (u *TokenUsage) Add(other *TokenUsage) {
	if u == nil || other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// schemaProperties returns the properties and required list of a JSON schema object.
func schemaProperties(schema map[string]interface{}) (map[string]interface{}, []string) {
	properties, _ := schema["properties"].(map[string]interface{})
	if properties == nil {
		properties = map[string]interface{}{}
	}

	var required []string
	switch req := schema["required"].(type) {
	case []string:
		required = append(required, req...)
	case []interface{}:
		for _, v := range req {
			if name, ok := v.(string); ok {
				required = append(required, name)
			}
		}
	}
	return properties, required
}

// objectSchema returns schema, or an empty object schema when nil.
func objectSchema(schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	if _, ok := schema["type"]; !ok {
		copied := make(map[string]interface{}, len(schema)+1)
		for k, v := range schema {
			copied[k] = v
		}
		copied["type"] = "object"
		return copied
	}
	return schema
}
