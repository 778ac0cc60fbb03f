// Package llm builds language-model clients from provider configuration.
//
// Invariants:
// - Provider kinds are a closed set: google-gemini, anthropic, openai, azure-openai.
// - Field resolution order is explicit config, then environment, then built-in default.
// - Construction performs no network I/O and fails atomically with a *ConfigError.
//
// Usage:
//
//	factory := llm.NewFactory(llm.OSEnv(), logger)
//	client, err := factory.CreateClientFromEnvironment()
//	if err != nil {
//		return err
//	}
//	resp, err := client.Call(ctx, llm.Request{Messages: msgs})
package llm
