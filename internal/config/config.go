package config

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	ToolsProviderMCP     = "mcp"
	ToolsProviderBuiltin = "builtin"

	// DefaultInstruction is run when none is given on the command line.
	DefaultInstruction = "Search Google for 'Neuro SAN' and tell me the title of the first result."
)

// Config represents the browseragent configuration
type Config struct {
	Tools    ToolsConfig    `json:"tools" mapstructure:"tools"`
	Browser  BrowserConfig  `json:"browser" mapstructure:"browser"`
	Agent    AgentConfig    `json:"agent" mapstructure:"agent"`
	Sessions SessionsConfig `json:"sessions" mapstructure:"sessions"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
	Tracing  TracingConfig  `json:"tracing" mapstructure:"tracing"`

	// Data directory, default $HOME/.browseragent
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ToolsConfig selects and bounds the tool source
type ToolsConfig struct {
	Provider       string    `json:"provider" mapstructure:"provider"` // mcp, builtin
	MCP            MCPConfig `json:"mcp" mapstructure:"mcp"`
	TimeoutSeconds int       `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxOutputBytes int       `json:"max_output_bytes" mapstructure:"max_output_bytes"`
	Allow          []string  `json:"allow" mapstructure:"allow"`
	Deny           []string  `json:"deny" mapstructure:"deny"`
}

// MCPConfig describes the MCP server subprocess
type MCPConfig struct {
	ID      string   `json:"id" mapstructure:"id"`
	Command string   `json:"command" mapstructure:"command"`
	Args    []string `json:"args" mapstructure:"args"`
	// Env holds KEY=VALUE entries; a list keeps key case intact
	Env []string `json:"env" mapstructure:"env"`
	Dir string   `json:"dir" mapstructure:"dir"`
}

// BrowserConfig configures the builtin go-rod browser
type BrowserConfig struct {
	Headless                 bool     `json:"headless" mapstructure:"headless"`
	ChromePath               string   `json:"chrome_path" mapstructure:"chrome_path"`
	NoSandbox                bool     `json:"no_sandbox" mapstructure:"no_sandbox"`
	UserDataDir              string   `json:"user_data_dir" mapstructure:"user_data_dir"`
	NavigationTimeoutSeconds int      `json:"navigation_timeout_seconds" mapstructure:"navigation_timeout_seconds"`
	AllowFileURLs            bool     `json:"allow_file_urls" mapstructure:"allow_file_urls"`
	AllowLocalhostURLs       bool     `json:"allow_localhost_urls" mapstructure:"allow_localhost_urls"`
	AllowedDomains           []string `json:"allowed_domains" mapstructure:"allowed_domains"`
	BlockedDomains           []string `json:"blocked_domains" mapstructure:"blocked_domains"`
}

// AgentConfig configures the run loop
type AgentConfig struct {
	SystemPrompt string `json:"system_prompt" mapstructure:"system_prompt"`
	Instruction  string `json:"instruction" mapstructure:"instruction"`
	MaxTurns     int    `json:"max_turns" mapstructure:"max_turns"`
	HistoryLimit int    `json:"history_limit" mapstructure:"history_limit"`
}

// SessionsConfig configures transcript storage and pruning
type SessionsConfig struct {
	Dir         string `json:"dir" mapstructure:"dir"`
	MaxAgeHours int    `json:"max_age_hours" mapstructure:"max_age_hours"`
	MaxEntries  int    `json:"max_entries" mapstructure:"max_entries"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// TracingConfig controls span sampling
type TracingConfig struct {
	// SampleRatio is the fraction of runs whose spans are recorded, 0 to 1
	SampleRatio float64 `json:"sample_ratio" mapstructure:"sample_ratio"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Provider: ToolsProviderMCP,
			MCP: MCPConfig{
				ID:      "playwright",
				Command: "npx",
				Args:    []string{"-y", "@playwright/mcp@latest"},
				Env:     []string{},
			},
			TimeoutSeconds: 60,
			MaxOutputBytes: 64 * 1024,
			Allow:          []string{},
			Deny:           []string{},
		},
		Browser: BrowserConfig{
			Headless:                 true,
			NavigationTimeoutSeconds: 30,
			AllowLocalhostURLs:       true,
			AllowedDomains:           []string{},
			BlockedDomains:           []string{},
		},
		Agent: AgentConfig{
			Instruction:  DefaultInstruction,
			MaxTurns:     10,
			HistoryLimit: 40,
		},
		Sessions: SessionsConfig{
			MaxAgeHours: 7 * 24,
			MaxEntries:  500,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			Redaction: true,
		},
		Tracing: TracingConfig{
			SampleRatio: 1,
		},
	}
}

// EnvMap parses Env into a map. Entries without '=' are ignored.
func (m MCPConfig) EnvMap() map[string]string {
	env := make(map[string]string, len(m.Env))
	for _, entry := range m.Env {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// ToolTimeout returns the per-call tool timeout
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Tools.TimeoutSeconds) * time.Second
}

// SessionMaxAge returns the age after which sessions are pruned
func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.Sessions.MaxAgeHours) * time.Hour
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
