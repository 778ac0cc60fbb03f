package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harun/browseragent/internal/config"
	"github.com/harun/browseragent/pkg/toolexecutor"
	"github.com/spf13/cobra"
)

var (
	toolsJSON     bool
	toolsProvider string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the browser tools the agent can call",
	Long: `Start the configured tool source, discover its tools and print them.
For an MCP server this performs the same initialize and tools/list exchange a
run does, then shuts the server down.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print tool definitions with input schemas as JSON")
	toolsCmd.Flags().StringVar(&toolsProvider, "tools", "", "tool source (mcp, builtin); overrides tools.provider")
	rootCmd.AddCommand(toolsCmd)
}

type toolListing struct {
	Name        string                 `json:"name"`
	Source      string                 `json:"source,omitempty"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
}

func runTools(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	if toolsProvider != "" {
		if err := config.NewValidator().ValidateToolsProvider(toolsProvider); err != nil {
			return err
		}
		a.cfg.Tools.Provider = toolsProvider
	}

	ts, err := buildToolset(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to set up tools: %w", err)
	}
	defer ts.Close()

	return printTools(cmd, ts.executor)
}

func printTools(cmd *cobra.Command, executor *toolexecutor.ToolExecutor) error {
	specs := executor.Specs()
	listings := make([]toolListing, 0, len(specs))
	for _, spec := range specs {
		listing := toolListing{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		}
		if def := executor.GetTool(spec.Name); def != nil {
			listing.Source = def.Source
		}
		listings = append(listings, listing)
	}

	out := cmd.OutOrStdout()
	if toolsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSOURCE\tDESCRIPTION")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Name, l.Source, firstLine(l.Description))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d tools\n", len(listings))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
