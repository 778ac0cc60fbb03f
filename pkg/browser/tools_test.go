package browser

import (
	"context"
	"testing"

	"github.com/harun/browseragent/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests never launch Chrome: every call fails validation first.

func newTestBrowser() *Browser {
	return New(DefaultConfig(), zerolog.Nop())
}

func TestRegisterTools(t *testing.T) {
	executor := toolexecutor.New()
	b := newTestBrowser()

	require.NoError(t, RegisterTools(executor, b))

	assert.Equal(t, []string{
		"browser_click",
		"browser_extract_text",
		"browser_navigate",
		"browser_screenshot",
		"browser_type",
	}, executor.ListTools())

	for _, name := range executor.ListTools() {
		def := executor.GetTool(name)
		require.NotNil(t, def)
		assert.Equal(t, SourceBuiltin, def.Source, name)
		assert.NotEmpty(t, def.Description, name)
	}

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := RegisterTools(executor, b)
		require.Error(t, err)
		assert.ErrorIs(t, err, toolexecutor.ErrToolExists)
	})

	t.Run("nil arguments", func(t *testing.T) {
		assert.Error(t, RegisterTools(nil, b))
		assert.Error(t, RegisterTools(toolexecutor.New(), nil))
	})

	assert.False(t, b.IsRunning())
}

func TestRegisterTools_Schemas(t *testing.T) {
	executor := toolexecutor.New()
	require.NoError(t, RegisterTools(executor, newTestBrowser()))

	schemas := map[string]map[string]interface{}{}
	for _, spec := range executor.Specs() {
		schemas[spec.Name] = spec.InputSchema
	}

	assert.Equal(t, []interface{}{"url"}, schemas["browser_navigate"]["required"])
	assert.Equal(t, []interface{}{"selector"}, schemas["browser_click"]["required"])
	assert.Equal(t, []interface{}{"selector", "text"}, schemas["browser_type"]["required"])
	assert.NotContains(t, schemas["browser_extract_text"], "required")
	assert.NotContains(t, schemas["browser_screenshot"], "required")
}

func TestBrowserTools_RejectBeforeLaunch(t *testing.T) {
	executor := toolexecutor.New()
	b := newTestBrowser()
	require.NoError(t, RegisterTools(executor, b))
	ctx := context.Background()

	t.Run("missing url fails schema validation", func(t *testing.T) {
		result := executor.Execute(ctx, "browser_navigate", map[string]interface{}{}, nil)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "parameter validation failed")
	})

	t.Run("blocked scheme", func(t *testing.T) {
		result := executor.Execute(ctx, "browser_navigate", map[string]interface{}{
			"url": "file:///etc/passwd",
		}, nil)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, ErrCodeSecurity)
	})

	t.Run("invalid selector", func(t *testing.T) {
		result := executor.Execute(ctx, "browser_click", map[string]interface{}{
			"selector": "javascript:alert(1)",
		}, nil)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, ErrCodeValidation)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		result := executor.Execute(ctx, "browser_type", map[string]interface{}{
			"selector": "input",
			"text":     "hello",
			"delay":    10,
		}, nil)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "parameter validation failed")
	})

	assert.False(t, b.IsRunning())
}

func TestBrowser_Close(t *testing.T) {
	b := newTestBrowser()

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.Screenshot(context.Background(), false)
	require.Error(t, err)
	var browserErr *Error
	require.ErrorAs(t, err, &browserErr)
	assert.Equal(t, ErrCodeClosed, browserErr.Code)
}

func TestNew_AppliesDefaults(t *testing.T) {
	b := New(Config{}, zerolog.Nop())
	assert.Equal(t, DefaultNavigationTimeout, b.config.NavigationTimeout)
	assert.Equal(t, DefaultActionTimeout, b.config.ActionTimeout)
}
