package toolexecutor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMCPServer(withResources bool) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "fake-playwright", Version: "test"}, nil)

	server.AddTool(&mcp.Tool{
		Name:        "browser_navigate",
		Description: "Navigate to a URL",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string"},
			},
			"required": []any{"url"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]string
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Navigated to " + args["url"]}},
		}, nil
	})

	server.AddTool(&mcp.Tool{
		Name:        "browser_click",
		Description: "Click an element",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ref": map[string]any{"type": "string"},
			},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "element not found"}},
		}, nil
	})

	if withResources {
		server.AddResource(&mcp.Resource{
			URI:      "file:///console.log",
			Name:     "console",
			MIMEType: "text/plain",
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: req.Params.URI, MIMEType: "text/plain", Text: "hello from mcp"}},
			}, nil
		})
	}

	return server
}

func startTestAdapter(t *testing.T, serverID string, withResources bool) *MCPServerAdapter {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := newTestMCPServer(withResources).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	adapter := NewMCPServerAdapterWithTransport(serverID, clientTransport)
	require.NoError(t, adapter.Start(ctx))

	t.Cleanup(func() {
		_ = adapter.Stop()
		_ = serverSession.Close()
	})
	return adapter
}

func TestMCPServerAdapter_NotStarted(t *testing.T) {
	_, clientTransport := mcp.NewInMemoryTransports()
	adapter := NewMCPServerAdapterWithTransport("playwright", clientTransport)

	_, err := adapter.GetTools(context.Background())
	assert.ErrorIs(t, err, ErrMCPNotStarted)
	assert.False(t, adapter.SupportsResources())
	assert.NoError(t, adapter.Stop())
}

func TestNewMCPServerAdapter_RequiresCommand(t *testing.T) {
	_, err := NewMCPServerAdapter(MCPServerConfig{ID: "playwright"})
	assert.Error(t, err)

	adapter, err := NewMCPServerAdapter(MCPServerConfig{
		ID:      "playwright",
		Command: "npx",
		Args:    []string{"-y", "@playwright/mcp@latest"},
		Env:     map[string]string{"PLAYWRIGHT_BROWSERS_PATH": "0"},
	})
	require.NoError(t, err)
	assert.Equal(t, "playwright", adapter.ID())
}

func TestMCPServerAdapter_GetTools(t *testing.T) {
	adapter := startTestAdapter(t, "playwright", false)

	tools, err := adapter.GetTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)

	byName := map[string]ToolDefinition{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	nav, ok := byName["browser_navigate"]
	require.True(t, ok)
	assert.Equal(t, "Navigate to a URL", nav.Description)
	assert.Equal(t, "object", nav.InputSchema["type"])
	assert.Equal(t, "playwright", nav.Source)
}

func TestMCPServerAdapter_ExecuteTool(t *testing.T) {
	adapter := startTestAdapter(t, "playwright", false)

	out, err := adapter.ExecuteTool(context.Background(), "browser_navigate", map[string]interface{}{"url": "https://www.google.com"})
	require.NoError(t, err)

	var content []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &content))
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	assert.Equal(t, "Navigated to https://www.google.com", content[0]["text"])

	_, err = adapter.ExecuteTool(context.Background(), "browser_click", map[string]interface{}{"ref": "e1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element not found")
}

func TestToolExecutor_RegisterMCPServer(t *testing.T) {
	adapter := startTestAdapter(t, "playwright", false)
	te := New()

	// A builtin tool already owns one of the names
	require.NoError(t, te.RegisterTool(ToolDefinition{
		Name:        "browser_click",
		Description: "builtin click",
		Handler:     noopHandler,
	}))

	names, err := te.RegisterMCPServer(context.Background(), adapter)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"browser_navigate", "playwright_browser_click"}, names)

	result := te.Execute(context.Background(), "browser_navigate", map[string]interface{}{"url": "https://example.com"}, nil)
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Text(), "Navigated to https://example.com")

	result = te.Execute(context.Background(), "browser_navigate", map[string]interface{}{}, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "validation")

	result = te.Execute(context.Background(), "playwright_browser_click", map[string]interface{}{"ref": "e1"}, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "element not found")
}

func TestToolExecutor_RegisterMCPServer_Resources(t *testing.T) {
	adapter := startTestAdapter(t, "playwright", true)
	require.True(t, adapter.SupportsResources())

	te := New()
	names, err := te.RegisterMCPServer(context.Background(), adapter)
	require.NoError(t, err)
	assert.Contains(t, names, "mcp_playwright_resources_list")
	assert.Contains(t, names, "mcp_playwright_resource_read")

	result := te.Execute(context.Background(), "mcp_playwright_resources_list", nil, nil)
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Text(), "file:///console.log")

	result = te.Execute(context.Background(), "mcp_playwright_resource_read", map[string]interface{}{"uri": "file:///console.log"}, nil)
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Text(), "hello from mcp")
}

func TestToolExecutor_RegisterMCPServer_Invalid(t *testing.T) {
	te := New()

	_, err := te.RegisterMCPServer(context.Background(), nil)
	assert.Error(t, err)

	_, clientTransport := mcp.NewInMemoryTransports()
	_, err = te.RegisterMCPServer(context.Background(), NewMCPServerAdapterWithTransport(" ", clientTransport))
	assert.Error(t, err)
}
