package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/harun/browseragent/internal/config"
	"github.com/harun/browseragent/internal/metrics"
	"github.com/harun/browseragent/pkg/agent"
	"github.com/harun/browseragent/pkg/llm"
	"github.com/harun/browseragent/pkg/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	runProvider      string
	runModel         string
	runSession       string
	runJSON          bool
	runMaxTurns      int
	runToolsProvider string
	runMetricsFile   string
)

// newModelClient builds the model client; tests replace it with a fake.
var newModelClient = func(cfg llm.ProviderConfig, logger zerolog.Logger) (llm.Client, error) {
	return llm.NewFactory(llm.OSEnv(), logger).CreateClient(cfg)
}

// ErrRunAborted is returned when a run is interrupted before it finishes
var ErrRunAborted = errors.New("run aborted")

var runCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Run one instruction through the browser agent",
	Long: `Run one instruction through the browser agent and print the transcript.

The model backend comes from LLM_PROVIDER / LLM_MODEL (or --provider / --model)
and the matching credential variable. Without an instruction the configured
agent.instruction is used.`,
	Example: `  browseragent run "Search Google for 'Neuro SAN' and tell me the title of the first result."
  LLM_PROVIDER=anthropic browseragent run --session research "Open example.com"`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runProvider, "provider", "", "model provider (google-gemini, anthropic, openai, azure-openai); overrides LLM_PROVIDER")
	runCmd.Flags().StringVar(&runModel, "model", "", "model name; overrides LLM_MODEL")
	runCmd.Flags().StringVar(&runSession, "session", "", "session key to continue and persist the transcript under")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
	runCmd.Flags().IntVar(&runMaxTurns, "max-turns", 0, "maximum model turns (default from agent.max_turns)")
	runCmd.Flags().StringVar(&runToolsProvider, "tools", "", "tool source (mcp, builtin); overrides tools.provider")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "write Prometheus metrics for the run to this file (textfile collector format)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if runToolsProvider != "" {
		if err := config.NewValidator().ValidateToolsProvider(runToolsProvider); err != nil {
			return err
		}
		cfg.Tools.Provider = runToolsProvider
	}
	if runMaxTurns != 0 {
		if err := config.NewValidator().ValidateMaxTurns(runMaxTurns); err != nil {
			return err
		}
		cfg.Agent.MaxTurns = runMaxTurns
	}
	if runSession != "" {
		if err := session.ValidateSessionKey(runSession); err != nil {
			return err
		}
	}

	instruction := strings.TrimSpace(strings.Join(args, " "))
	if instruction == "" {
		instruction = cfg.Agent.Instruction
	}
	if instruction == "" {
		return fmt.Errorf("no instruction given and agent.instruction is empty")
	}

	providerCfg, err := llm.LoadConfigFromEnv(llm.OSEnv())
	if err != nil {
		return err
	}
	if runProvider != "" {
		providerCfg.Provider = llm.Provider(runProvider)
	}
	if runModel != "" {
		providerCfg.Model = runModel
	}

	client, err := newModelClient(providerCfg, a.logger)
	if err != nil {
		if llm.IsConfigError(err, llm.KindMissingCredential) || llm.IsConfigError(err, llm.KindUnsupportedProvider) {
			return fmt.Errorf("%w (run 'browseragent providers' for the supported providers and their variables)", err)
		}
		return err
	}
	settings := client.Settings()
	a.logger.Info().
		Str("provider", string(settings.Provider)).
		Str("model", settings.Model).
		Msg("Using LLM provider")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tools, err := buildToolset(ctx, cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to set up tools: %w", err)
	}
	defer func() {
		if err := tools.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to shut down tools")
		}
	}()

	var sessions *session.SessionManager
	if runSession != "" {
		if sessions, err = a.sessions(); err != nil {
			return err
		}
	}

	var m *metrics.Metrics
	var observer agent.Observer
	if runMetricsFile != "" {
		m = metrics.NewMetrics()
		observer = m
	}

	runner, err := agent.NewRunner(agent.Config{
		Client:       client,
		ToolExecutor: tools.executor,
		Sessions:     sessions,
		Logger:       a.logger,
		SystemPrompt: cfg.Agent.SystemPrompt,
		MaxTurns:     cfg.Agent.MaxTurns,
		HistoryLimit: cfg.Agent.HistoryLimit,
		ToolTimeout:  cfg.ToolTimeout(),
		Observer:     observer,
	})
	if err != nil {
		return err
	}

	a.logger.Info().Str("instruction", instruction).Msg("Starting task")

	result, runErr := runner.RunSession(ctx, runSession, instruction)
	if m != nil {
		if err := m.WriteTextfile(runMetricsFile); err != nil {
			a.logger.Warn().Err(err).Str("path", runMetricsFile).Msg("Failed to write metrics")
		}
	}
	if result == nil {
		return runErr
	}
	if err := printResult(cmd.OutOrStdout(), result, runJSON); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if result.Aborted {
		return ErrRunAborted
	}
	return nil
}
