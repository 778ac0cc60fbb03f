package toolexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harun/browseragent/pkg/llm"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultTimeout bounds a single tool call when no timeout is configured.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxOutputBytes caps the text handed back to the model.
	DefaultMaxOutputBytes = 64 * 1024
)

// ErrToolExists is returned when a tool name is already registered.
var ErrToolExists = errors.New("tool already registered")

// ToolPolicy defines which tools the agent can use
type ToolPolicy struct {
	Allow []string `json:"allow"` // names or globs such as browser_*
	Deny  []string `json:"deny"`  // overrides allow
}

// IsToolAllowed checks if a tool is allowed by the policy
func (tp *ToolPolicy) IsToolAllowed(toolName string) bool {
	if tp == nil {
		return true
	}

	for _, denied := range tp.Deny {
		if matchToolPattern(denied, toolName) {
			return false
		}
	}

	// An empty allow list permits everything not denied
	if len(tp.Allow) == 0 {
		return true
	}
	for _, allowed := range tp.Allow {
		if matchToolPattern(allowed, toolName) {
			return true
		}
	}

	return false
}

func matchToolPattern(pattern, toolName string) bool {
	if pattern == toolName || pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, toolName)
	return err == nil && ok
}

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// ToolDefinition defines a tool's metadata and handler. InputSchema, when
// set, is used as-is; otherwise a schema is generated from Parameters.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  []ToolParameter        `json:"parameters,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema,omitempty"`
	Source      string                 `json:"source,omitempty"` // "builtin" or the MCP server id
	Handler     ToolHandler            `json:"-"`
}

// ToolHandler is the function signature for tool execution
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ExecutionContext provides runtime information for tool execution
type ExecutionContext struct {
	SessionKey string
	RunID      string
	Timeout    time.Duration
}

// ToolResult represents the result of a tool execution
type ToolResult struct {
	Success   bool                   `json:"success"`
	Output    interface{}            `json:"output,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Truncated bool                   `json:"truncated,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Text renders the result as the message content returned to the model.
func (r ToolResult) Text() string {
	if !r.Success {
		return "Error: " + r.Error
	}
	return outputText(r.Output)
}

type registeredTool struct {
	def       *ToolDefinition
	schemaMap map[string]interface{}
	schema    *gojsonschema.Schema
}

// ToolExecutor manages and executes tools
type ToolExecutor struct {
	tools          map[string]*registeredTool
	policy         *ToolPolicy
	timeout        time.Duration
	maxOutputBytes int
	mu             sync.RWMutex
}

// New creates a new ToolExecutor
func New() *ToolExecutor {
	te := &ToolExecutor{
		tools:          make(map[string]*registeredTool),
		timeout:        DefaultTimeout,
		maxOutputBytes: DefaultMaxOutputBytes,
	}

	log.Debug().Msg("Tool executor initialized")

	return te
}

// SetPolicy restricts which registered tools may be listed and executed
func (te *ToolExecutor) SetPolicy(policy *ToolPolicy) {
	te.mu.Lock()
	defer te.mu.Unlock()
	te.policy = policy
}

// SetDefaultTimeout sets the timeout used when the execution context has none
func (te *ToolExecutor) SetDefaultTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	te.mu.Lock()
	defer te.mu.Unlock()
	te.timeout = timeout
}

// SetMaxOutputBytes sets the output truncation limit
func (te *ToolExecutor) SetMaxOutputBytes(n int) {
	if n <= 0 {
		return
	}
	te.mu.Lock()
	defer te.mu.Unlock()
	te.maxOutputBytes = n
}

// RegisterTool registers a new tool
func (te *ToolExecutor) RegisterTool(def ToolDefinition) error {
	if err := te.validateToolDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schemaMap := def.InputSchema
	if schemaMap == nil {
		schemaMap = generateSchemaMap(def.Parameters)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		if def.InputSchema == nil {
			return fmt.Errorf("failed to compile schema for %s: %w", def.Name, err)
		}
		// Server-provided schemas the validator cannot compile are passed through unchecked
		log.Warn().Str("tool", def.Name).Err(err).Msg("Input schema not compilable, skipping validation")
		schema = nil
	}

	te.mu.Lock()
	defer te.mu.Unlock()

	if _, exists := te.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolExists, def.Name)
	}
	te.tools[def.Name] = &registeredTool{
		def:       &def,
		schemaMap: schemaMap,
		schema:    schema,
	}

	log.Debug().Str("tool", def.Name).Str("source", def.Source).Msg("Tool registered")

	return nil
}

// UnregisterTool removes a tool
func (te *ToolExecutor) UnregisterTool(name string) {
	te.mu.Lock()
	defer te.mu.Unlock()

	delete(te.tools, name)

	log.Debug().Str("tool", name).Msg("Tool unregistered")
}

// GetTool returns a tool definition by name
func (te *ToolExecutor) GetTool(name string) *ToolDefinition {
	te.mu.RLock()
	defer te.mu.RUnlock()

	if tool, ok := te.tools[name]; ok {
		return tool.def
	}
	return nil
}

// ListTools returns the names of tools permitted by the policy, sorted
func (te *ToolExecutor) ListTools() []string {
	te.mu.RLock()
	defer te.mu.RUnlock()

	tools := make([]string, 0, len(te.tools))
	for name := range te.tools {
		if te.policy.IsToolAllowed(name) {
			tools = append(tools, name)
		}
	}
	sort.Strings(tools)

	return tools
}

// GetToolCount returns the number of registered tools
func (te *ToolExecutor) GetToolCount() int {
	te.mu.RLock()
	defer te.mu.RUnlock()

	return len(te.tools)
}

// Specs describes the permitted tools to a model, sorted by name
func (te *ToolExecutor) Specs() []llm.ToolSpec {
	names := te.ListTools()

	te.mu.RLock()
	defer te.mu.RUnlock()

	specs := make([]llm.ToolSpec, 0, len(names))
	for _, name := range names {
		tool := te.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        tool.def.Name,
			Description: tool.def.Description,
			InputSchema: tool.schemaMap,
		})
	}
	return specs
}

// Execute executes a tool with the given parameters
func (te *ToolExecutor) Execute(ctx context.Context, toolName string, params map[string]interface{}, execCtx *ExecutionContext) ToolResult {
	startTime := time.Now()

	te.mu.RLock()
	tool := te.tools[toolName]
	policy := te.policy
	timeout := te.timeout
	maxOutput := te.maxOutputBytes
	te.mu.RUnlock()

	if !policy.IsToolAllowed(toolName) {
		log.Warn().Str("tool", toolName).Msg("Tool execution blocked by policy")
		return ToolResult{
			Success:  false,
			Error:    fmt.Sprintf("tool '%s' is not allowed by policy", toolName),
			Metadata: map[string]interface{}{"policy_violation": true},
		}
	}

	if tool == nil {
		log.Error().Str("tool", toolName).Msg("Tool not found")
		return ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool not found: %s", toolName),
		}
	}

	if params == nil {
		params = map[string]interface{}{}
	}

	if err := validateParameters(tool.schema, params); err != nil {
		log.Error().Str("tool", toolName).Err(err).Msg("Parameter validation failed")
		return ToolResult{
			Success: false,
			Error:   fmt.Sprintf("parameter validation failed: %v", err),
		}
	}

	log.Debug().Str("tool", toolName).Msg("Executing tool")

	if execCtx != nil && execCtx.Timeout > 0 {
		timeout = execCtx.Timeout
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		result, err := tool.def.Handler(timeoutCtx, params)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- result
		}
	}()

	select {
	case result := <-resultChan:
		duration := time.Since(startTime)

		output, truncated := truncateOutput(result, maxOutput)

		log.Debug().
			Str("tool", toolName).
			Dur("duration", duration).
			Bool("truncated", truncated).
			Msg("Tool execution completed")

		return ToolResult{
			Success:   true,
			Output:    output,
			Truncated: truncated,
			Metadata: map[string]interface{}{
				"duration": duration.Milliseconds(),
			},
		}

	case err := <-errChan:
		duration := time.Since(startTime)

		log.Error().
			Str("tool", toolName).
			Dur("duration", duration).
			Err(err).
			Msg("Tool execution failed")

		return ToolResult{
			Success: false,
			Error:   err.Error(),
			Metadata: map[string]interface{}{
				"duration": duration.Milliseconds(),
			},
		}

	case <-timeoutCtx.Done():
		duration := time.Since(startTime)

		if ctx.Err() != nil {
			log.Warn().Str("tool", toolName).Msg("Tool execution cancelled")
			return ToolResult{
				Success:  false,
				Error:    fmt.Sprintf("tool execution cancelled: %v", ctx.Err()),
				Metadata: map[string]interface{}{"duration": duration.Milliseconds()},
			}
		}

		log.Error().
			Str("tool", toolName).
			Dur("duration", duration).
			Msg("Tool execution timeout")

		return ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool execution timeout after %v", timeout),
			Metadata: map[string]interface{}{
				"duration": duration.Milliseconds(),
			},
		}
	}
}

// validateToolDefinition validates a tool definition
func (te *ToolExecutor) validateToolDefinition(def ToolDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}
	// MCP servers may omit descriptions; builtin tools must not
	if def.Description == "" && def.InputSchema == nil {
		return fmt.Errorf("tool description cannot be empty")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if param.Type == "" {
			return fmt.Errorf("parameter type cannot be empty for %s", param.Name)
		}
		if param.Description == "" {
			return fmt.Errorf("parameter description cannot be empty for %s", param.Name)
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
		}
	}

	return nil
}

// generateSchemaMap builds a JSON Schema object from tool parameters
func generateSchemaMap(params []ToolParameter) map[string]interface{} {
	properties := make(map[string]interface{}, len(params))
	required := []interface{}{}

	for _, param := range params {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}
	return schemaMap
}

// validateParameters validates parameters against a JSON Schema
func validateParameters(schema *gojsonschema.Schema, params map[string]interface{}) error {
	if schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return err
	}

	if !result.Valid() {
		errs := []string{}
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("validation errors: %v", errs)
	}

	return nil
}

// outputText renders a handler result as text. Strings pass through and
// everything else is JSON encoded.
func outputText(output interface{}) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	return string(data)
}

// truncateOutput truncates output if it exceeds the size limit
func truncateOutput(output interface{}, maxSize int) (interface{}, bool) {
	str := outputText(output)

	if len(str) <= maxSize {
		return output, false
	}

	truncated := strings.ToValidUTF8(str[:maxSize], "") + "\n... [output truncated]"
	log.Warn().
		Int("original", len(str)).
		Int("truncated", maxSize).
		Msg("Output truncated")

	return truncated, true
}
