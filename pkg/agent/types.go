package agent

import (
	"errors"
	"time"

	"github.com/harun/browseragent/pkg/llm"
)

const (
	// DefaultMaxTurns bounds the model/tool loop of a single run.
	DefaultMaxTurns = 10

	// DefaultHistoryLimit caps how many prior session messages are replayed.
	DefaultHistoryLimit = 40

	// DefaultSystemPrompt frames the model as a browser operator.
	DefaultSystemPrompt = "You are a helpful web automation assistant. Use the browser tools to complete the user's request."
)

// ErrMaxTurnsExceeded is returned when the model keeps requesting tools
// past the turn limit.
var ErrMaxTurnsExceeded = errors.New("maximum tool execution turns exceeded")

// Run outcomes reported to an Observer
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
	RunMaxTurns  = "max_turns"
	RunFailed    = "error"
)

// Observer receives measurements as a run progresses
type Observer interface {
	ModelCall(provider llm.Provider, duration time.Duration, usage *llm.TokenUsage, err error)
	ToolCall(name string, duration time.Duration, success bool)
	RunFinished(outcome string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ModelCall(llm.Provider, time.Duration, *llm.TokenUsage, error) {}
func (nopObserver) ToolCall(string, time.Duration, bool)                         {}
func (nopObserver) RunFinished(string, time.Duration)                            {}

// ToolCallRecord is one executed tool call and its outcome
type ToolCallRecord struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
	Output     string                 `json:"output,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Truncated  bool                   `json:"truncated,omitempty"`
	Duration   time.Duration          `json:"duration"`
}

// Result contains the output of one run
type Result struct {
	RunID      string           `json:"run_id"`
	SessionKey string           `json:"session_key,omitempty"`
	Provider   llm.Provider     `json:"provider"`
	Model      string           `json:"model"`
	Response   string           `json:"response"`
	Messages   []llm.Message    `json:"messages"`
	ToolCalls  []ToolCallRecord `json:"tool_calls,omitempty"`
	Usage      llm.TokenUsage   `json:"usage"`
	Turns      int              `json:"turns"`
	History    int              `json:"history,omitempty"`
	Aborted    bool             `json:"aborted,omitempty"`
}

// trimHistory keeps at most limit trailing messages, starting at a user turn
func trimHistory(history []llm.Message, limit int) []llm.Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	recent := history[len(history)-limit:]
	for i, msg := range recent {
		if msg.Role == llm.RoleUser {
			return recent[i:]
		}
	}
	return []llm.Message{}
}
