package browser

import (
	"context"
	"fmt"

	"github.com/harun/browseragent/pkg/toolexecutor"
)

// SourceBuiltin marks tools served in-process rather than by an MCP server
const SourceBuiltin = "builtin"

// RegisterTools registers the builtin browser toolset with the executor
func RegisterTools(executor *toolexecutor.ToolExecutor, b *Browser) error {
	if executor == nil {
		return fmt.Errorf("tool executor is required")
	}
	if b == nil {
		return fmt.Errorf("browser is required")
	}

	tools := []toolexecutor.ToolDefinition{
		createNavigateTool(b),
		createExtractTextTool(b),
		createClickTool(b),
		createTypeTool(b),
		createScreenshotTool(b),
	}

	for _, tool := range tools {
		if err := executor.RegisterTool(tool); err != nil {
			return fmt.Errorf("failed to register %s: %w", tool.Name, err)
		}
	}

	return nil
}

func createNavigateTool(b *Browser) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        "browser_navigate",
		Description: "Navigate the browser to a URL and wait for the page to load. Returns the final URL and page title.",
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "url",
				Type:        "string",
				Description: "Absolute URL to open (http or https)",
				Required:    true,
			},
		},
		Source: SourceBuiltin,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			url, _ := params["url"].(string)
			return b.Navigate(ctx, url)
		},
	}
}

func createExtractTextTool(b *Browser) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        "browser_extract_text",
		Description: "Read the visible text of the current page, or of the first element matching a CSS selector.",
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "selector",
				Type:        "string",
				Description: "CSS selector to read from (default: whole page)",
			},
		},
		Source: SourceBuiltin,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			selector, _ := params["selector"].(string)
			return b.ExtractText(ctx, selector)
		},
	}
}

func createClickTool(b *Browser) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        "browser_click",
		Description: "Click the first element matching a CSS selector.",
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "selector",
				Type:        "string",
				Description: "CSS selector of the element to click",
				Required:    true,
			},
		},
		Source: SourceBuiltin,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			selector, _ := params["selector"].(string)
			return b.Click(ctx, selector)
		},
	}
}

func createTypeTool(b *Browser) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        "browser_type",
		Description: "Type text into the input matching a CSS selector, optionally pressing Enter afterwards.",
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "selector",
				Type:        "string",
				Description: "CSS selector of the input element",
				Required:    true,
			},
			{
				Name:        "text",
				Type:        "string",
				Description: "Text to enter",
				Required:    true,
			},
			{
				Name:        "submit",
				Type:        "boolean",
				Description: "Press Enter after typing (default: false)",
				Default:     false,
			},
		},
		Source: SourceBuiltin,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			selector, _ := params["selector"].(string)
			text, _ := params["text"].(string)
			submit, _ := params["submit"].(bool)
			return b.Type(ctx, selector, text, submit)
		},
	}
}

func createScreenshotTool(b *Browser) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        "browser_screenshot",
		Description: "Capture a PNG screenshot of the current page. Returns base64 encoded image data.",
		Parameters: []toolexecutor.ToolParameter{
			{
				Name:        "fullPage",
				Type:        "boolean",
				Description: "Capture the full scrollable page instead of the viewport",
				Default:     false,
			},
		},
		Source: SourceBuiltin,
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			fullPage, _ := params["fullPage"].(bool)
			return b.Screenshot(ctx, fullPage)
		},
	}
}
