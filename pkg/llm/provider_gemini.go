package llm

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"google.golang.org/genai"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client   *genai.Client
	settings Settings
}

func newGeminiClient(settings Settings) (Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if settings.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: settings.BaseURL}
	}

	// Gemini API backend with an explicit key does not touch the network here
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client:   client,
		settings: settings,
	}, nil
}

// Provider returns the provider name
func (p *GeminiClient) Provider() Provider {
	return ProviderGoogleGemini
}

// Settings returns the resolved settings
func (p *GeminiClient) Settings() Settings {
	return p.settings
}

// Call makes an API call to Google Gemini. The SDK has no retry policy of its
// own, so MaxRetries is applied here.
func (p *GeminiClient) Call(ctx context.Context, request Request) (*Response, error) {
	contents := buildGeminiContents(request.Messages)

	temperature := float32(p.settings.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if p.settings.MaxTokens > 0 {
		config.MaxOutputTokens = int32(p.settings.MaxTokens)
	}
	if request.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		}
	}

	if len(request.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(request.Tools))
		for _, tool := range request.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: objectSchema(tool.InputSchema),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	response, err := withRetry(ctx, p.settings.MaxRetries, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return p.client.Models.GenerateContent(ctx, p.settings.Model, contents, config)
	})
	if err != nil {
		return nil, err
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates returned")
	}

	content := ""
	toolCalls := []ToolCall{}
	for _, part := range response.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" && !part.Thought {
			content += part.Text
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				generated, err := gonanoid.New()
				if err != nil {
					return nil, fmt.Errorf("failed to generate tool call id: %w", err)
				}
				id = "call_" + generated
			}
			params := part.FunctionCall.Args
			if params == nil {
				params = map[string]interface{}{}
			}
			toolCalls = append(toolCalls, ToolCall{
				ID:         id,
				Name:       part.FunctionCall.Name,
				Parameters: params,
			})
		}
	}

	usage := &TokenUsage{}
	if response.UsageMetadata != nil {
		usage.InputTokens = int(response.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(response.UsageMetadata.CandidatesTokenCount)
	}

	return &Response{
		Content:   content,
		ToolCalls: toolCalls,
		Usage:     usage,
	}, nil
}

// buildGeminiContents converts the transcript to Gemini contents. Consecutive
// tool results are merged into one user turn.
func buildGeminiContents(messages []Message) []*genai.Content {
	contents := []*genai.Content{}
	var pending *genai.Content

	for _, msg := range messages {
		if msg.Role == RoleTool {
			if pending == nil {
				pending = &genai.Content{Role: "user"}
			}
			pending.Parts = append(pending.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: map[string]interface{}{"output": msg.Content},
				},
			})
			continue
		}
		if pending != nil {
			contents = append(contents, pending)
			pending = nil
		}

		switch msg.Role {
		case RoleUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case RoleAssistant:
			parts := []*genai.Part{}
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: tc.Parameters,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		}
	}
	if pending != nil {
		contents = append(contents, pending)
	}

	return contents
}
