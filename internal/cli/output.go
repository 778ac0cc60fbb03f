package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/harun/browseragent/pkg/agent"
	"github.com/harun/browseragent/pkg/llm"
)

// maxPreview caps tool output in the text transcript; --json prints it whole.
const maxPreview = 400

func printResult(w io.Writer, result *agent.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(w, "Final Result:")
	for _, msg := range result.Messages {
		switch msg.Role {
		case llm.RoleUser:
			fmt.Fprintf(w, "[user] %s\n", msg.Content)
		case llm.RoleAssistant:
			if msg.Content != "" {
				fmt.Fprintf(w, "[assistant] %s\n", msg.Content)
			}
			for _, call := range msg.ToolCalls {
				args, _ := json.Marshal(call.Parameters)
				fmt.Fprintf(w, "[assistant] -> %s %s\n", call.Name, args)
			}
		case llm.RoleTool:
			fmt.Fprintf(w, "[tool %s] %s\n", msg.ToolName, preview(msg.Content))
		}
	}

	fmt.Fprintln(w)
	if result.Aborted {
		fmt.Fprintln(w, "Run aborted before the model finished.")
	} else {
		fmt.Fprintf(w, "Response: %s\n", result.Response)
	}
	fmt.Fprintf(w, "Provider: %s  Model: %s  Turns: %d  Tool calls: %d  Tokens: %d in / %d out\n",
		result.Provider, result.Model, result.Turns, len(result.ToolCalls),
		result.Usage.InputTokens, result.Usage.OutputTokens)
	return nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxPreview {
		return s
	}
	cut := maxPreview
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

