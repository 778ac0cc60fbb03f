package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	t.Run("tools provider", func(t *testing.T) {
		assert.NoError(t, v.ValidateToolsProvider("mcp"))
		assert.NoError(t, v.ValidateToolsProvider("builtin"))
		assert.Error(t, v.ValidateToolsProvider(""))
		assert.Error(t, v.ValidateToolsProvider("MCP"))
	})

	t.Run("mcp server", func(t *testing.T) {
		assert.NoError(t, v.ValidateMCPServer(MCPConfig{ID: "playwright", Command: "npx"}))
		assert.Error(t, v.ValidateMCPServer(MCPConfig{ID: "playwright"}))
		assert.Error(t, v.ValidateMCPServer(MCPConfig{ID: "my server", Command: "npx"}))
	})

	t.Run("max turns", func(t *testing.T) {
		assert.NoError(t, v.ValidateMaxTurns(0))
		assert.NoError(t, v.ValidateMaxTurns(100))
		assert.Error(t, v.ValidateMaxTurns(-1))
		assert.Error(t, v.ValidateMaxTurns(101))
	})

	t.Run("log level", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			assert.NoError(t, v.ValidateLogLevel(level), level)
		}
		assert.Error(t, v.ValidateLogLevel("INFO"))
	})

	t.Run("domains", func(t *testing.T) {
		assert.NoError(t, v.ValidateDomains("k", []string{"example.com", "*.google.com", ".ads.net"}))
		assert.Error(t, v.ValidateDomains("k", []string{""}))
		assert.Error(t, v.ValidateDomains("k", []string{"example.com/path"}))
	})

	t.Run("sample ratio", func(t *testing.T) {
		assert.NoError(t, v.ValidateSampleRatio(0))
		assert.NoError(t, v.ValidateSampleRatio(0.25))
		assert.NoError(t, v.ValidateSampleRatio(1))
		assert.Error(t, v.ValidateSampleRatio(-0.1))
		assert.Error(t, v.ValidateSampleRatio(1.5))
	})

	t.Run("tool patterns", func(t *testing.T) {
		assert.NoError(t, v.ValidateToolPatterns("tools.allow", []string{"browser_*"}))
		assert.Error(t, v.ValidateToolPatterns("tools.allow", []string{" "}))
	})
}
