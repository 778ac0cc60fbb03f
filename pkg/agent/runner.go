package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harun/browseragent/internal/tracing"
	"github.com/harun/browseragent/pkg/llm"
	"github.com/harun/browseragent/pkg/session"
	"github.com/harun/browseragent/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "browseragent.agent"

// Runner drives the model/tool loop for one instruction at a time
type Runner struct {
	client       llm.Client
	toolExecutor *toolexecutor.ToolExecutor
	sessions     *session.SessionManager
	logger       zerolog.Logger
	systemPrompt string
	maxTurns     int
	historyLimit int
	toolTimeout  time.Duration
	observer     Observer
}

// Config holds runner configuration
type Config struct {
	Client       llm.Client
	ToolExecutor *toolexecutor.ToolExecutor
	// Sessions is optional; without it runs never share history.
	Sessions     *session.SessionManager
	Logger       zerolog.Logger
	SystemPrompt string
	MaxTurns     int
	HistoryLimit int
	ToolTimeout  time.Duration
	// Observer is optional.
	Observer Observer
}

// NewRunner creates a new agent runner
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if cfg.ToolExecutor == nil {
		return nil, fmt.Errorf("tool executor is required")
	}
	if cfg.MaxTurns < 0 {
		return nil, fmt.Errorf("max turns cannot be negative")
	}

	r := &Runner{
		client:       cfg.Client,
		toolExecutor: cfg.ToolExecutor,
		sessions:     cfg.Sessions,
		logger:       cfg.Logger,
		systemPrompt: cfg.SystemPrompt,
		maxTurns:     cfg.MaxTurns,
		historyLimit: cfg.HistoryLimit,
		toolTimeout:  cfg.ToolTimeout,
		observer:     cfg.Observer,
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.systemPrompt == "" {
		r.systemPrompt = DefaultSystemPrompt
	}
	if r.maxTurns == 0 {
		r.maxTurns = DefaultMaxTurns
	}
	if r.historyLimit == 0 {
		r.historyLimit = DefaultHistoryLimit
	}
	return r, nil
}

// Run executes one instruction without session history
func (r *Runner) Run(ctx context.Context, instruction string) (*Result, error) {
	return r.RunSession(ctx, "", instruction)
}

// RunSession executes one instruction on top of a stored session. An empty
// sessionKey runs without history. The transcript is persisted only when the
// run completes. On ErrMaxTurnsExceeded the partial result is returned with
// the error.
func (r *Runner) RunSession(ctx context.Context, sessionKey, instruction string) (result *Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if instruction == "" {
		return nil, fmt.Errorf("instruction cannot be empty")
	}

	ctx = tracing.NewRunContext(ctx)
	if sessionKey != "" {
		ctx = tracing.WithSessionKey(ctx, sessionKey)
	}
	settings := r.client.Settings()
	ctx, span := tracing.StartSpan(ctx, tracerName, "agent.run",
		attribute.String("run_id", tracing.GetRunID(ctx)),
		attribute.String("provider", string(settings.Provider)),
		attribute.String("model", settings.Model),
	)
	defer func() { tracing.EndSpan(span, err) }()
	logger := tracing.LoggerFromContext(ctx, r.logger)

	start := time.Now()
	defer func() { r.observer.RunFinished(runOutcome(result, err), time.Since(start)) }()

	result = &Result{
		RunID:      tracing.GetRunID(ctx),
		SessionKey: sessionKey,
		Provider:   settings.Provider,
		Model:      settings.Model,
		Messages:   []llm.Message{},
		ToolCalls:  []ToolCallRecord{},
	}

	history, err := r.loadHistory(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	result.History = len(history)

	result.Messages = append(result.Messages, llm.Message{Role: llm.RoleUser, Content: instruction})

	logger.Info().
		Int("history", len(history)).
		Int("tools", r.toolExecutor.GetToolCount()).
		Msg("Agent run started")

	if err := r.executeWithTools(ctx, history, result); err != nil {
		if errors.Is(err, ErrMaxTurnsExceeded) {
			logger.Warn().Int("turns", result.Turns).Msg("Agent run hit the turn limit")
			return result, err
		}
		return nil, err
	}

	if result.Aborted {
		logger.Warn().Int("turns", result.Turns).Msg("Agent run aborted")
		return result, nil
	}

	if sessionKey != "" && r.sessions != nil {
		if err := r.sessions.Append(ctx, sessionKey, result.Messages...); err != nil {
			logger.Error().Err(err).Msg("Failed to persist transcript")
			return nil, fmt.Errorf("failed to save transcript: %w", err)
		}
	}

	logger.Info().
		Int("turns", result.Turns).
		Int("toolCalls", len(result.ToolCalls)).
		Int("inputTokens", result.Usage.InputTokens).
		Int("outputTokens", result.Usage.OutputTokens).
		Msg("Agent run completed")

	return result, nil
}

func (r *Runner) loadHistory(ctx context.Context, sessionKey string) ([]llm.Message, error) {
	if sessionKey == "" || r.sessions == nil {
		return nil, nil
	}
	history, err := r.sessions.LoadMessages(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return trimHistory(history, r.historyLimit), nil
}

// executeWithTools handles the tool execution loop. It appends to result as
// it goes so a cancelled or exhausted run still reports what happened.
func (r *Runner) executeWithTools(ctx context.Context, history []llm.Message, result *Result) error {
	tools := r.toolExecutor.Specs()

	for turn := 0; turn < r.maxTurns; turn++ {
		if ctx.Err() != nil {
			result.Aborted = true
			return nil
		}

		messages := make([]llm.Message, 0, len(history)+len(result.Messages))
		messages = append(messages, history...)
		messages = append(messages, result.Messages...)

		response, err := r.callModel(ctx, turn, llm.Request{
			Messages:     messages,
			Tools:        tools,
			SystemPrompt: r.systemPrompt,
		})
		if err != nil {
			if ctx.Err() != nil {
				result.Aborted = true
				return nil
			}
			return fmt.Errorf("model call failed: %w", err)
		}
		result.Turns = turn + 1
		result.Usage.Add(response.Usage)

		result.Messages = append(result.Messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		// No tool calls - we're done
		if len(response.ToolCalls) == 0 {
			result.Response = response.Content
			return nil
		}

		for _, toolCall := range response.ToolCalls {
			record := r.executeTool(ctx, toolCall)
			result.ToolCalls = append(result.ToolCalls, record)

			content := record.Output
			if record.Error != "" {
				content = "Error: " + record.Error
			}
			result.Messages = append(result.Messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: toolCall.ID,
				ToolName:   toolCall.Name,
			})
		}
	}

	return ErrMaxTurnsExceeded
}

func (r *Runner) callModel(ctx context.Context, turn int, request llm.Request) (resp *llm.Response, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "agent.turn",
		attribute.Int("turn", turn+1),
		attribute.Int("messages", len(request.Messages)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	resp, err = r.client.Call(ctx, request)
	var usage *llm.TokenUsage
	if resp != nil {
		usage = resp.Usage
	}
	r.observer.ModelCall(r.client.Provider(), time.Since(start), usage, err)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("empty model response")
	}
	span.SetAttributes(attribute.Int("tool_calls", len(resp.ToolCalls)))
	return resp, nil
}

func (r *Runner) executeTool(ctx context.Context, toolCall llm.ToolCall) ToolCallRecord {
	ctx, span := tracing.StartSpan(ctx, tracerName, "tool.execute",
		attribute.String("tool", toolCall.Name),
		attribute.String("tool_call_id", toolCall.ID),
	)

	start := time.Now()
	res := r.toolExecutor.Execute(ctx, toolCall.Name, toolCall.Parameters, &toolexecutor.ExecutionContext{
		SessionKey: tracing.GetSessionKey(ctx),
		RunID:      tracing.GetRunID(ctx),
		Timeout:    r.toolTimeout,
	})

	record := ToolCallRecord{
		ID:         toolCall.ID,
		Name:       toolCall.Name,
		Parameters: toolCall.Parameters,
		Truncated:  res.Truncated,
		Duration:   time.Since(start),
	}
	r.observer.ToolCall(toolCall.Name, record.Duration, res.Success)
	if res.Success {
		record.Output = res.Text()
		tracing.EndSpan(span, nil)
	} else {
		record.Error = res.Error
		tracing.EndSpan(span, errors.New(res.Error))
	}

	logger := tracing.LoggerFromContext(ctx, r.logger)
	logger.Debug().
		Str("tool", toolCall.Name).
		Bool("success", res.Success).
		Dur("duration", record.Duration).
		Msg("Tool call finished")

	return record
}

func runOutcome(result *Result, err error) string {
	switch {
	case errors.Is(err, ErrMaxTurnsExceeded):
		return RunMaxTurns
	case err != nil:
		return RunFailed
	case result != nil && result.Aborted:
		return RunAborted
	default:
		return RunCompleted
	}
}
