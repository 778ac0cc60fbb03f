// Package session persists agent transcripts as JSONL files, one per session key.
//
// Invariants:
// - Session keys are validated and path-safe.
// - Writes for the same session are serialized.
// - A pruned transcript always starts at a user turn.
//
// Usage:
//
//	mgr, _ := session.New("/tmp/browseragent/sessions")
//	_ = mgr.Append(ctx, "neuro-san", llm.Message{Role: llm.RoleUser, Content: "hello"})
//	history, _ := mgr.LoadMessages(ctx, "neuro-san")
//	_ = history
package session
