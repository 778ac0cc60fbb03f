// Package agent runs an instruction through a model/tool loop.
//
// Invariants:
// - Tool calls route through toolexecutor only.
// - A run stops when the model answers without tool calls, when the context
//   is cancelled (Result.Aborted), or after MaxTurns (ErrMaxTurnsExceeded).
// - Session transcripts are persisted only for completed runs.
//
// Usage:
//
//	runner, _ := agent.NewRunner(agent.Config{Client: client, ToolExecutor: exec})
//	result, _ := runner.Run(ctx, "Search Google for 'Neuro SAN'")
//	fmt.Println(result.Response)
package agent
