package toolexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// MCPServerConfig describes a stdio MCP server process
type MCPServerConfig struct {
	ID      string
	Command string
	Args    []string
	Env     map[string]string
	Dir     string
}

// MCPServerAdapter connects to one MCP server and exposes its tools
type MCPServerAdapter struct {
	serverID  string
	client    *mcp.Client
	transport mcp.Transport

	mu      sync.Mutex
	session *mcp.ClientSession
}

// ErrMCPNotStarted is returned when the adapter is used before Start
var ErrMCPNotStarted = errors.New("mcp server not started")

// NewMCPServerAdapter creates an adapter that launches cfg.Command over stdio
func NewMCPServerAdapter(cfg MCPServerConfig) (*MCPServerAdapter, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("mcp server command is required")
	}

	// #nosec G204 -- command comes from operator configuration
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Stderr = os.Stderr
	if len(cfg.Env) > 0 {
		keys := make([]string, 0, len(cfg.Env))
		for k := range cfg.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Env = os.Environ()
		for _, k := range keys {
			cmd.Env = append(cmd.Env, k+"="+cfg.Env[k])
		}
	}

	return NewMCPServerAdapterWithTransport(cfg.ID, &mcp.CommandTransport{Command: cmd}), nil
}

// NewMCPServerAdapterWithTransport creates an adapter over an existing transport
func NewMCPServerAdapterWithTransport(serverID string, transport mcp.Transport) *MCPServerAdapter {
	return &MCPServerAdapter{
		serverID:  serverID,
		client:    mcp.NewClient(&mcp.Implementation{Name: "browseragent", Version: "dev"}, nil),
		transport: transport,
	}
}

// ID returns the server identifier
func (a *MCPServerAdapter) ID() string {
	return a.serverID
}

// Start connects and performs the initialize handshake
func (a *MCPServerAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return nil
	}

	session, err := a.client.Connect(ctx, a.transport, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to MCP server %s: %w", a.serverID, err)
	}
	a.session = session

	log.Info().Str("server", a.serverID).Msg("MCP server connected")

	return nil
}

func (a *MCPServerAdapter) current() (*mcp.ClientSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return nil, ErrMCPNotStarted
	}
	return a.session, nil
}

// GetTools lists the server's tools as definitions without handlers
func (a *MCPServerAdapter) GetTools(ctx context.Context) ([]ToolDefinition, error) {
	session, err := a.current()
	if err != nil {
		return nil, err
	}

	tools := []ToolDefinition{}
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, err
		}
		if tool == nil || tool.Name == "" {
			continue
		}
		tools = append(tools, ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: toSchemaMap(tool.InputSchema),
			Source:      a.serverID,
		})
	}

	return tools, nil
}

// ExecuteTool calls a tool and returns its content list as JSON text. A result
// flagged isError becomes an error carrying the same text.
func (a *MCPServerAdapter) ExecuteTool(ctx context.Context, name string, params map[string]interface{}) (string, error) {
	session, err := a.current()
	if err != nil {
		return "", err
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: params,
	})
	if err != nil {
		return "", err
	}

	content := result.Content
	if content == nil {
		content = []mcp.Content{}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to encode MCP result: %w", err)
	}

	if result.IsError {
		return "", errors.New(string(data))
	}
	return string(data), nil
}

// SupportsResources reports whether the server advertised the resources capability
func (a *MCPServerAdapter) SupportsResources() bool {
	session, err := a.current()
	if err != nil {
		return false
	}
	initResult := session.InitializeResult()
	return initResult != nil && initResult.Capabilities != nil && initResult.Capabilities.Resources != nil
}

// ListResources returns the resources the server exposes
func (a *MCPServerAdapter) ListResources(ctx context.Context) ([]map[string]interface{}, error) {
	session, err := a.current()
	if err != nil {
		return nil, err
	}

	resources := []map[string]interface{}{}
	for res, err := range session.Resources(ctx, nil) {
		if err != nil {
			return nil, err
		}
		resources = append(resources, map[string]interface{}{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MIMEType,
		})
	}
	return resources, nil
}

// ReadResource reads one resource by URI
func (a *MCPServerAdapter) ReadResource(ctx context.Context, uri string) ([]map[string]interface{}, error) {
	session, err := a.current()
	if err != nil {
		return nil, err
	}

	result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return nil, err
	}

	contents := make([]map[string]interface{}, 0, len(result.Contents))
	for _, c := range result.Contents {
		if c == nil {
			continue
		}
		entry := map[string]interface{}{"uri": c.URI}
		if c.MIMEType != "" {
			entry["mimeType"] = c.MIMEType
		}
		if c.Text != "" {
			entry["text"] = c.Text
		}
		if len(c.Blob) > 0 {
			entry["blobBytes"] = len(c.Blob)
		}
		contents = append(contents, entry)
	}
	return contents, nil
}

// Stop closes the session and terminates the server process
func (a *MCPServerAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil

	log.Debug().Str("server", a.serverID).Msg("MCP server stopped")

	return err
}

// toSchemaMap normalizes a wire input schema to a JSON object map
func toSchemaMap(schema interface{}) map[string]interface{} {
	if schema == nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	if m, ok := schema.(map[string]interface{}); ok {
		return m
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]interface{}{"type": "object"}
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	return m
}
