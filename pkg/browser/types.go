package browser

import (
	"fmt"
	"time"
)

const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultActionTimeout     = 10 * time.Second

	// maxTextBytes caps extracted page text before the executor's own cap.
	maxTextBytes = 32 * 1024
)

// Config controls how the builtin browser is launched and what it may visit
type Config struct {
	Headless          bool           `json:"headless"`
	ChromePath        string         `json:"chromePath,omitempty"`
	NoSandbox         bool           `json:"noSandbox"`
	UserDataDir       string         `json:"userDataDir,omitempty"`
	NavigationTimeout time.Duration  `json:"navigationTimeout"`
	ActionTimeout     time.Duration  `json:"actionTimeout"`
	Security          SecurityConfig `json:"security"`
}

// SecurityConfig restricts which URLs browser_navigate accepts
type SecurityConfig struct {
	AllowFileUrls      bool     `json:"allowFileUrls"`
	AllowLocalhostUrls bool     `json:"allowLocalhostUrls"`
	AllowedDomains     []string `json:"allowedDomains,omitempty"`
	BlockedDomains     []string `json:"blockedDomains,omitempty"`
}

// DefaultConfig returns a headless configuration with localhost allowed
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		NavigationTimeout: DefaultNavigationTimeout,
		ActionTimeout:     DefaultActionTimeout,
		Security: SecurityConfig{
			AllowLocalhostUrls: true,
		},
	}
}

// PageInfo describes the page after an action
type PageInfo struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Duration int64  `json:"duration_ms"`
}

// TextResult is extracted page or element text
type TextResult struct {
	URL       string `json:"url"`
	Selector  string `json:"selector,omitempty"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

// ScreenshotResult is a base64 encoded PNG of the viewport
type ScreenshotResult struct {
	URL    string `json:"url"`
	Format string `json:"format"`
	Data   string `json:"data"`
	Size   int    `json:"size"`
}

// Error is returned by browser actions
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNavigation      = "NAVIGATION_ERROR"
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeScriptExecution = "SCRIPT_EXECUTION_ERROR"
	ErrCodeSecurity        = "SECURITY_ERROR"
	ErrCodeLaunch          = "LAUNCH_ERROR"
	ErrCodeClosed          = "BROWSER_CLOSED"
)

func newError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
