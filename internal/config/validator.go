package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateToolsProvider validates the tool source
func (v *Validator) ValidateToolsProvider(provider string) error {
	switch provider {
	case ToolsProviderMCP, ToolsProviderBuiltin:
		return nil
	}
	return fmt.Errorf("invalid tools provider: %q (must be one of: %s, %s)", provider, ToolsProviderMCP, ToolsProviderBuiltin)
}

// ValidateMCPServer validates the MCP server command
func (v *Validator) ValidateMCPServer(mcp MCPConfig) error {
	if strings.TrimSpace(mcp.Command) == "" {
		return fmt.Errorf("tools.mcp.command is required when tools.provider is %s", ToolsProviderMCP)
	}
	for _, entry := range mcp.Env {
		if key, _, ok := strings.Cut(entry, "="); !ok || key == "" {
			return fmt.Errorf("tools.mcp.env entry %q must be KEY=VALUE", entry)
		}
	}
	if strings.ContainsAny(mcp.ID, " \t/") {
		return fmt.Errorf("tools.mcp.id must not contain whitespace or slashes: %q", mcp.ID)
	}
	return nil
}

// ValidateMaxTurns validates the agent turn limit
func (v *Validator) ValidateMaxTurns(turns int) error {
	if turns < 0 {
		return fmt.Errorf("agent.max_turns must be >= 0, got %d", turns)
	}
	if turns > 100 {
		return fmt.Errorf("agent.max_turns too large (max 100), got %d", turns)
	}
	return nil
}

// ValidateNonNegative validates a count or duration setting
func (v *Validator) ValidateNonNegative(key string, value int) error {
	if value < 0 {
		return fmt.Errorf("%s must be >= 0, got %d", key, value)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateDomains rejects blank patterns and ones carrying a scheme or path
func (v *Validator) ValidateDomains(key string, domains []string) error {
	for _, domain := range domains {
		if strings.TrimSpace(domain) == "" {
			return fmt.Errorf("%s contains an empty domain", key)
		}
		if strings.Contains(domain, "/") {
			return fmt.Errorf("%s entry %q must be a host pattern, not a URL", key, domain)
		}
	}
	return nil
}

// ValidateToolPatterns rejects blank allow/deny entries
func (v *Validator) ValidateToolPatterns(key string, patterns []string) error {
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%s contains an empty tool name", key)
		}
	}
	return nil
}

// ValidateSampleRatio requires a ratio between 0 and 1
func (v *Validator) ValidateSampleRatio(ratio float64) error {
	if ratio < 0 || ratio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got %g", ratio)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error
	add := func(err error) {
		if err != nil {
			errors = append(errors, err)
		}
	}

	add(v.ValidateToolsProvider(cfg.Tools.Provider))
	if cfg.Tools.Provider == ToolsProviderMCP {
		add(v.ValidateMCPServer(cfg.Tools.MCP))
	}
	add(v.ValidateNonNegative("tools.timeout_seconds", cfg.Tools.TimeoutSeconds))
	add(v.ValidateNonNegative("tools.max_output_bytes", cfg.Tools.MaxOutputBytes))
	add(v.ValidateToolPatterns("tools.allow", cfg.Tools.Allow))
	add(v.ValidateToolPatterns("tools.deny", cfg.Tools.Deny))

	add(v.ValidateNonNegative("browser.navigation_timeout_seconds", cfg.Browser.NavigationTimeoutSeconds))
	add(v.ValidateDomains("browser.allowed_domains", cfg.Browser.AllowedDomains))
	add(v.ValidateDomains("browser.blocked_domains", cfg.Browser.BlockedDomains))

	add(v.ValidateMaxTurns(cfg.Agent.MaxTurns))
	add(v.ValidateNonNegative("agent.history_limit", cfg.Agent.HistoryLimit))

	add(v.ValidateNonNegative("sessions.max_age_hours", cfg.Sessions.MaxAgeHours))
	add(v.ValidateNonNegative("sessions.max_entries", cfg.Sessions.MaxEntries))

	add(v.ValidateLogLevel(cfg.Logging.Level))
	add(v.ValidateSampleRatio(cfg.Tracing.SampleRatio))

	return errors
}
