// Package browser provides the builtin go-rod browser toolset.
//
// It is the in-process alternative to an MCP browser server: one Chrome
// process, one working page, and five tools (browser_navigate,
// browser_extract_text, browser_click, browser_type, browser_screenshot)
// registered with a toolexecutor.ToolExecutor. Chrome is launched on the
// first tool call.
package browser
