// Package toolexecutor registers and executes structured tools for the agent.
//
// Invariants:
// - Tool names are unique; MCP tools that collide are prefixed with the server id.
// - Parameters are schema-validated before execution.
// - Every call is bounded by a timeout and its text output is truncated.
//
// Usage:
//
//	exec := toolexecutor.New()
//	adapter, _ := toolexecutor.NewMCPServerAdapter(toolexecutor.MCPServerConfig{
//		ID: "playwright", Command: "npx", Args: []string{"-y", "@playwright/mcp@latest"},
//	})
//	_ = adapter.Start(ctx)
//	names, _ := exec.RegisterMCPServer(ctx, adapter)
package toolexecutor
