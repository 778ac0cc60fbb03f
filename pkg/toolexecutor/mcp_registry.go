package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RegisterMCPServer registers the server's tools, plus resource helpers when
// the server advertises resources. Names that collide with an existing tool
// are prefixed with the server id.
func (te *ToolExecutor) RegisterMCPServer(ctx context.Context, adapter *MCPServerAdapter) ([]string, error) {
	if adapter == nil {
		return nil, fmt.Errorf("mcp adapter is required")
	}
	serverID := adapter.ID()
	if strings.TrimSpace(serverID) == "" {
		return nil, fmt.Errorf("mcp server id is required")
	}

	tools, err := adapter.GetTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch MCP tools: %w", err)
	}

	registered := make([]string, 0, len(tools)+2)
	for _, tool := range tools {
		originalName := tool.Name
		tool.Name = te.freeName(serverID, originalName)
		tool.Handler = func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return adapter.ExecuteTool(ctx, originalName, params)
		}

		if err := te.RegisterTool(tool); err != nil {
			return registered, fmt.Errorf("failed to register MCP tool %s: %w", tool.Name, err)
		}
		registered = append(registered, tool.Name)
	}

	if !adapter.SupportsResources() {
		return registered, nil
	}

	listTool := ToolDefinition{
		Name:        te.freeName(serverID, fmt.Sprintf("mcp_%s_resources_list", serverID)),
		Description: "List resources exposed by MCP server",
		Source:      serverID,
		Handler: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
			return adapter.ListResources(ctx)
		},
	}
	if err := te.RegisterTool(listTool); err != nil {
		return registered, fmt.Errorf("failed to register MCP resources list tool: %w", err)
	}
	registered = append(registered, listTool.Name)

	readTool := ToolDefinition{
		Name:        te.freeName(serverID, fmt.Sprintf("mcp_%s_resource_read", serverID)),
		Description: "Read a resource exposed by MCP server",
		Source:      serverID,
		Parameters: []ToolParameter{{
			Name:        "uri",
			Type:        "string",
			Description: "Resource URI",
			Required:    true,
		}},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			uri, _ := params["uri"].(string)
			if strings.TrimSpace(uri) == "" {
				return nil, errors.New("uri parameter is required")
			}
			return adapter.ReadResource(ctx, uri)
		},
	}
	if err := te.RegisterTool(readTool); err != nil {
		return registered, fmt.Errorf("failed to register MCP resource read tool: %w", err)
	}
	registered = append(registered, readTool.Name)

	return registered, nil
}

func (te *ToolExecutor) freeName(serverID, name string) string {
	if te.GetTool(name) == nil {
		return name
	}
	return fmt.Sprintf("%s_%s", serverID, name)
}
