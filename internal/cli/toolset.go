package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/harun/browseragent/internal/config"
	"github.com/harun/browseragent/pkg/browser"
	"github.com/harun/browseragent/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// toolset is a populated executor plus whatever must be shut down after use
type toolset struct {
	executor *toolexecutor.ToolExecutor
	closers  []func() error
}

func (t *toolset) Close() error {
	var first error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// buildToolset wires the configured tool source into a new executor
func buildToolset(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*toolset, error) {
	executor := toolexecutor.New()
	executor.SetPolicy(&toolexecutor.ToolPolicy{
		Allow: cfg.Tools.Allow,
		Deny:  cfg.Tools.Deny,
	})
	if cfg.Tools.TimeoutSeconds > 0 {
		executor.SetDefaultTimeout(cfg.ToolTimeout())
	}
	if cfg.Tools.MaxOutputBytes > 0 {
		executor.SetMaxOutputBytes(cfg.Tools.MaxOutputBytes)
	}

	ts := &toolset{executor: executor}

	switch cfg.Tools.Provider {
	case config.ToolsProviderBuiltin:
		b := browser.New(browserConfig(cfg.Browser), logger)
		ts.closers = append(ts.closers, b.Close)
		if err := browser.RegisterTools(executor, b); err != nil {
			ts.Close()
			return nil, err
		}

	case config.ToolsProviderMCP:
		adapter, err := toolexecutor.NewMCPServerAdapter(toolexecutor.MCPServerConfig{
			ID:      cfg.Tools.MCP.ID,
			Command: cfg.Tools.MCP.Command,
			Args:    cfg.Tools.MCP.Args,
			Env:     cfg.Tools.MCP.EnvMap(),
			Dir:     cfg.Tools.MCP.Dir,
		})
		if err != nil {
			return nil, err
		}

		logger.Info().
			Str("command", cfg.Tools.MCP.Command).
			Strs("args", cfg.Tools.MCP.Args).
			Msg("Starting MCP tool server")

		if err := adapter.Start(ctx); err != nil {
			return nil, err
		}
		ts.closers = append(ts.closers, adapter.Stop)

		names, err := executor.RegisterMCPServer(ctx, adapter)
		if err != nil {
			ts.Close()
			return nil, err
		}
		logger.Info().Int("tools", len(names)).Msg("MCP tools registered")

	default:
		return nil, fmt.Errorf("unknown tools provider: %s", cfg.Tools.Provider)
	}

	return ts, nil
}

func browserConfig(cfg config.BrowserConfig) browser.Config {
	bc := browser.DefaultConfig()
	bc.Headless = cfg.Headless
	bc.ChromePath = cfg.ChromePath
	bc.NoSandbox = cfg.NoSandbox
	bc.UserDataDir = cfg.UserDataDir
	if cfg.NavigationTimeoutSeconds > 0 {
		bc.NavigationTimeout = time.Duration(cfg.NavigationTimeoutSeconds) * time.Second
	}
	bc.Security = browser.SecurityConfig{
		AllowFileUrls:      cfg.AllowFileURLs,
		AllowLocalhostUrls: cfg.AllowLocalhostURLs,
		AllowedDomains:     cfg.AllowedDomains,
		BlockedDomains:     cfg.BlockedDomains,
	}
	return bc
}
