package toolexecutor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return nil, nil
}

func navigateTool(handler ToolHandler) ToolDefinition {
	return ToolDefinition{
		Name:        "browser_navigate",
		Description: "Navigate to a URL",
		Parameters: []ToolParameter{
			{Name: "url", Type: "string", Description: "Target URL", Required: true},
		},
		Handler: handler,
	}
}

func TestToolExecutor_RegisterTool(t *testing.T) {
	te := New()

	require.NoError(t, te.RegisterTool(navigateTool(noopHandler)))

	tool := te.GetTool("browser_navigate")
	require.NotNil(t, tool)
	assert.Equal(t, "browser_navigate", tool.Name)

	err := te.RegisterTool(navigateTool(noopHandler))
	assert.ErrorIs(t, err, ErrToolExists)
}

func TestToolExecutor_RegisterTool_InvalidDefinition(t *testing.T) {
	te := New()

	tests := []struct {
		name string
		def  ToolDefinition
	}{
		{"empty name", ToolDefinition{Description: "Test", Handler: noopHandler}},
		{"empty description", ToolDefinition{Name: "test", Handler: noopHandler}},
		{"nil handler", ToolDefinition{Name: "test", Description: "Test"}},
		{"bad parameter type", ToolDefinition{
			Name:        "test",
			Description: "Test",
			Handler:     noopHandler,
			Parameters:  []ToolParameter{{Name: "x", Type: "date", Description: "x"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, te.RegisterTool(tt.def))
		})
	}
}

func TestToolExecutor_RegisterTool_InputSchemaWithoutDescription(t *testing.T) {
	te := New()

	err := te.RegisterTool(ToolDefinition{
		Name:        "browser_snapshot",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		Handler:     noopHandler,
	})
	assert.NoError(t, err)
}

func TestToolExecutor_Execute_Success(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(navigateTool(func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return "navigated to " + params["url"].(string), nil
	})))

	result := te.Execute(context.Background(), "browser_navigate", map[string]interface{}{
		"url": "https://www.google.com",
	}, nil)

	assert.True(t, result.Success)
	assert.Equal(t, "navigated to https://www.google.com", result.Output)
	assert.Equal(t, "navigated to https://www.google.com", result.Text())
	assert.Empty(t, result.Error)
}

func TestToolExecutor_Execute_ToolNotFound(t *testing.T) {
	te := New()

	result := te.Execute(context.Background(), "nonexistent", nil, nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "tool not found")
	assert.True(t, strings.HasPrefix(result.Text(), "Error: "))
}

func TestToolExecutor_Execute_ValidationError(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(navigateTool(noopHandler)))

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"missing required", map[string]interface{}{}},
		{"wrong type", map[string]interface{}{"url": 42}},
		{"unknown field", map[string]interface{}{"url": "x", "extra": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := te.Execute(context.Background(), "browser_navigate", tt.params, nil)
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, "validation")
		})
	}
}

func TestToolExecutor_Execute_ValidatesAgainstInputSchema(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(ToolDefinition{
		Name:        "browser_type",
		Description: "Type text",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"ref":  map[string]interface{}{"type": "string"},
				"text": map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"ref", "text"},
		},
		Handler: noopHandler,
	}))

	result := te.Execute(context.Background(), "browser_type", map[string]interface{}{"ref": "e12"}, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "text")

	result = te.Execute(context.Background(), "browser_type", map[string]interface{}{"ref": "e12", "text": "Neuro SAN"}, nil)
	assert.True(t, result.Success)
}

func TestToolExecutor_Execute_HandlerError(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(ToolDefinition{
		Name:        "failing_tool",
		Description: "A tool that fails",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return nil, errors.New("handler error")
		},
	}))

	result := te.Execute(context.Background(), "failing_tool", nil, nil)

	assert.False(t, result.Success)
	assert.Equal(t, "Error: handler error", result.Text())
}

func TestToolExecutor_Execute_Timeout(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(ToolDefinition{
		Name:        "slow_tool",
		Description: "A slow tool",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			select {
			case <-time.After(2 * time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}))

	t.Run("execution context timeout", func(t *testing.T) {
		result := te.Execute(context.Background(), "slow_tool", nil, &ExecutionContext{Timeout: 50 * time.Millisecond})
		assert.False(t, result.Success)
	})

	t.Run("default timeout", func(t *testing.T) {
		te.SetDefaultTimeout(50 * time.Millisecond)
		result := te.Execute(context.Background(), "slow_tool", nil, nil)
		assert.False(t, result.Success)
	})

	t.Run("cancelled parent", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result := te.Execute(ctx, "slow_tool", nil, nil)
		assert.False(t, result.Success)
	})
}

func TestToolExecutor_Execute_OutputTruncation(t *testing.T) {
	te := New()
	te.SetMaxOutputBytes(1024)

	require.NoError(t, te.RegisterTool(ToolDefinition{
		Name:        "browser_snapshot",
		Description: "Large page snapshot",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return strings.Repeat("A", 4096), nil
		},
	}))

	result := te.Execute(context.Background(), "browser_snapshot", nil, nil)

	assert.True(t, result.Success)
	assert.True(t, result.Truncated)
	assert.Contains(t, result.Output.(string), "truncated")
	assert.Less(t, len(result.Output.(string)), 1100)
}

func TestToolExecutor_Execute_StructuredOutput(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(ToolDefinition{
		Name:        "page_info",
		Description: "Page info",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"title": "Google"}, nil
		},
	}))

	result := te.Execute(context.Background(), "page_info", nil, nil)
	require.True(t, result.Success)
	assert.JSONEq(t, `{"title":"Google"}`, result.Text())
}

func TestToolExecutor_Policy(t *testing.T) {
	te := New()
	for _, name := range []string{"browser_navigate", "browser_click", "browser_install"} {
		require.NoError(t, te.RegisterTool(ToolDefinition{Name: name, Description: name, Handler: noopHandler}))
	}

	te.SetPolicy(&ToolPolicy{Deny: []string{"browser_install"}})

	assert.Equal(t, []string{"browser_click", "browser_navigate"}, te.ListTools())
	assert.Equal(t, 3, te.GetToolCount())

	result := te.Execute(context.Background(), "browser_install", nil, nil)
	assert.False(t, result.Success)
	assert.Equal(t, true, result.Metadata["policy_violation"])

	te.SetPolicy(&ToolPolicy{Allow: []string{"browser_navigate"}})
	assert.Equal(t, []string{"browser_navigate"}, te.ListTools())
}

func TestToolPolicy_IsToolAllowed(t *testing.T) {
	var nilPolicy *ToolPolicy
	assert.True(t, nilPolicy.IsToolAllowed("anything"))

	policy := &ToolPolicy{Allow: []string{"*"}, Deny: []string{"rm"}}
	assert.True(t, policy.IsToolAllowed("ls"))
	assert.False(t, policy.IsToolAllowed("rm"))

	assert.False(t, (&ToolPolicy{Deny: []string{"*"}}).IsToolAllowed("ls"))

	glob := &ToolPolicy{Allow: []string{"browser_*"}, Deny: []string{"browser_install"}}
	assert.True(t, glob.IsToolAllowed("browser_navigate"))
	assert.False(t, glob.IsToolAllowed("browser_install"))
	assert.False(t, glob.IsToolAllowed("mcp_playwright_resources_list"))
}

func TestToolExecutor_Specs(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(navigateTool(noopHandler)))
	require.NoError(t, te.RegisterTool(ToolDefinition{
		Name:        "browser_close",
		Description: "Close the page",
		Handler:     noopHandler,
	}))

	specs := te.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "browser_close", specs[0].Name)
	assert.Equal(t, "browser_navigate", specs[1].Name)
	assert.Equal(t, "object", specs[1].InputSchema["type"])
	assert.Equal(t, []interface{}{"url"}, specs[1].InputSchema["required"])
}

func TestToolExecutor_UnregisterTool(t *testing.T) {
	te := New()
	require.NoError(t, te.RegisterTool(navigateTool(noopHandler)))
	assert.NotNil(t, te.GetTool("browser_navigate"))

	te.UnregisterTool("browser_navigate")

	assert.Nil(t, te.GetTool("browser_navigate"))
	assert.Equal(t, 0, te.GetToolCount())
}
