package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harun/browseragent/pkg/llm"
	"github.com/harun/browseragent/pkg/session"
	"github.com/spf13/cobra"
)

var (
	sessionsJSON    bool
	pruneMaxAge     time.Duration
	pruneMaxEntries int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored run transcripts",
	Long: `Runs started with --session append their transcript to a JSONL file under
sessions.dir so later runs with the same key continue the conversation.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session>...",
	Short: "Delete sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stale sessions and trim long ones",
	Long: `Delete sessions not modified within --max-age and trim the rest to their
most recent --max-entries messages. Defaults come from sessions.max_age_hours
and sessions.max_entries.`,
	Args: cobra.NoArgs,
	RunE: runSessionsPrune,
}

func init() {
	sessionsCmd.PersistentFlags().BoolVar(&sessionsJSON, "json", false, "print JSON")
	sessionsPruneCmd.Flags().DurationVar(&pruneMaxAge, "max-age", 0, "delete sessions older than this (e.g. 72h); 0 uses the configured value")
	sessionsPruneCmd.Flags().IntVar(&pruneMaxEntries, "max-entries", 0, "keep at most this many messages per session; 0 uses the configured value")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsPruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openSessions() (*app, *session.SessionManager, error) {
	a, err := setup()
	if err != nil {
		return nil, nil, err
	}
	sm, err := a.sessions()
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, sm, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a, sm, err := openSessions()
	if err != nil {
		return err
	}
	defer a.Close()

	keys, err := sm.List()
	if err != nil {
		return err
	}

	infos := make([]*session.Info, 0, len(keys))
	for _, key := range keys {
		info, err := sm.Stat(cmd.Context(), key)
		if err != nil {
			a.logger.Warn().Str("session_key", key).Err(err).Msg("Skipping unreadable session")
			continue
		}
		infos = append(infos, info)
	}

	out := cmd.OutOrStdout()
	if sessionsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(infos) == 0 {
		fmt.Fprintf(out, "No sessions in %s\n", sm.Dir())
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tMESSAGES\tSIZE\tLAST MODIFIED")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", info.SessionKey, info.MessageCount, info.Size, info.LastModified.Format(time.RFC3339))
	}
	return w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	a, sm, err := openSessions()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := sm.Stat(cmd.Context(), args[0]); err != nil {
		return err
	}
	entries, err := sm.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sessionsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, entry := range entries {
		msg := entry.Message
		ts := entry.Timestamp.Format(time.TimeOnly)
		switch msg.Role {
		case llm.RoleTool:
			fmt.Fprintf(out, "%s [tool %s] %s\n", ts, msg.ToolName, preview(msg.Content))
		case llm.RoleAssistant:
			if msg.Content != "" {
				fmt.Fprintf(out, "%s [assistant] %s\n", ts, msg.Content)
			}
			for _, call := range msg.ToolCalls {
				fmt.Fprintf(out, "%s [assistant] -> %s\n", ts, call.Name)
			}
		default:
			fmt.Fprintf(out, "%s [%s] %s\n", ts, msg.Role, msg.Content)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, sm, err := openSessions()
	if err != nil {
		return err
	}
	defer a.Close()

	for _, key := range args {
		if err := sm.Delete(cmd.Context(), key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", key)
	}
	return nil
}

func runSessionsPrune(cmd *cobra.Command, args []string) error {
	a, sm, err := openSessions()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := session.PruneOptions{
		MaxAge:     a.cfg.SessionMaxAge(),
		MaxEntries: a.cfg.Sessions.MaxEntries,
	}
	if pruneMaxAge > 0 {
		opts.MaxAge = pruneMaxAge
	}
	if pruneMaxEntries > 0 {
		opts.MaxEntries = pruneMaxEntries
	}

	stats, err := sm.Prune(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sessionsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(out, "Deleted %d sessions, trimmed %d\n", len(stats.Deleted), len(stats.Trimmed))
	return nil
}
