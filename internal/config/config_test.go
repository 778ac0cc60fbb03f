package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ToolsProviderMCP, cfg.Tools.Provider)
	assert.Equal(t, "npx", cfg.Tools.MCP.Command)
	assert.Equal(t, []string{"-y", "@playwright/mcp@latest"}, cfg.Tools.MCP.Args)
	assert.Equal(t, 60, cfg.Tools.TimeoutSeconds)
	assert.Equal(t, 64*1024, cfg.Tools.MaxOutputBytes)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, DefaultInstruction, cfg.Agent.Instruction)
	assert.Equal(t, 10, cfg.Agent.MaxTurns)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestConfigDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 60*time.Second, cfg.ToolTimeout())
	assert.Equal(t, 7*24*time.Hour, cfg.SessionMaxAge())
}

func TestMCPConfigEnvMap(t *testing.T) {
	mcp := MCPConfig{Env: []string{"DEBUG=pw:*", "PLAYWRIGHT_BROWSERS_PATH=/opt/pw", "EMPTY=", "broken", "=nokey"}}

	assert.Equal(t, map[string]string{
		"DEBUG":                    "pw:*",
		"PLAYWRIGHT_BROWSERS_PATH": "/opt/pw",
		"EMPTY":                    "",
	}, mcp.EnvMap())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "builtin tools need no MCP command",
			mutate: func(c *Config) { c.Tools.Provider = ToolsProviderBuiltin; c.Tools.MCP.Command = "" },
		},
		{
			name:    "unknown tools provider",
			mutate:  func(c *Config) { c.Tools.Provider = "selenium" },
			wantErr: "invalid tools provider",
		},
		{
			name:    "mcp without command",
			mutate:  func(c *Config) { c.Tools.MCP.Command = " " },
			wantErr: "tools.mcp.command is required",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Tools.TimeoutSeconds = -1 },
			wantErr: "tools.timeout_seconds must be >= 0",
		},
		{
			name:    "max turns too large",
			mutate:  func(c *Config) { c.Agent.MaxTurns = 1000 },
			wantErr: "agent.max_turns too large",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid log level",
		},
		{
			name:    "url in domain list",
			mutate:  func(c *Config) { c.Browser.AllowedDomains = []string{"https://example.com/"} },
			wantErr: "must be a host pattern",
		},
		{
			name:    "bad env entry",
			mutate:  func(c *Config) { c.Tools.MCP.Env = []string{"NOVALUE"} },
			wantErr: "must be KEY=VALUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.Provider = "selenium"
		cfg.Logging.Level = "loud"
		errs := NewValidator().ValidateConfig(cfg)
		assert.Len(t, errs, 2)
	})
}

func TestConfigString(t *testing.T) {
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(DefaultConfig().String()), &decoded))
	assert.Contains(t, decoded, "tools")
	assert.Contains(t, decoded, "agent")
}
