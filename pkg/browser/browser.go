package browser

import (
	"context"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Browser owns one Chrome process and a single working page. Chrome is
// launched on first use so registering the toolset stays cheap.
type Browser struct {
	config    Config
	validator *SecurityValidator
	logger    zerolog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	closed   bool
}

// New creates a browser that launches lazily
func New(cfg Config, logger zerolog.Logger) *Browser {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = DefaultNavigationTimeout
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = DefaultActionTimeout
	}
	return &Browser{
		config:    cfg,
		validator: NewSecurityValidator(cfg.Security),
		logger:    logger.With().Str("component", "browser").Logger(),
	}
}

// IsRunning reports whether Chrome has been launched and not closed
func (b *Browser) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.browser != nil && !b.closed
}

// currentPage returns the working page bound to ctx, launching Chrome if needed
func (b *Browser) currentPage(ctx context.Context) (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, newError(ErrCodeClosed, "browser has been closed")
	}
	if b.browser == nil {
		if err := b.launch(); err != nil {
			return nil, err
		}
	}
	if b.page == nil {
		page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			return nil, newError(ErrCodeLaunch, "failed to open page: %v", err)
		}
		b.page = page
	}
	return b.page.Context(ctx), nil
}

// launch must be called with b.mu held
func (b *Browser) launch() error {
	if b.config.UserDataDir != "" {
		if err := os.MkdirAll(b.config.UserDataDir, 0o755); err != nil {
			return newError(ErrCodeLaunch, "failed to create user data directory: %v", err)
		}
	}

	l := launcher.New().
		Headless(b.config.Headless).
		NoSandbox(b.config.NoSandbox)
	if b.config.ChromePath != "" {
		l = l.Bin(b.config.ChromePath)
	}
	if b.config.UserDataDir != "" {
		l = l.UserDataDir(b.config.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return newError(ErrCodeLaunch, "failed to launch Chrome: %v", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return newError(ErrCodeLaunch, "failed to connect to Chrome: %v", err)
	}

	b.launcher = l
	b.browser = browser
	b.logger.Info().
		Bool("headless", b.config.Headless).
		Str("control_url", controlURL).
		Msg("Browser launched")
	return nil
}

// Close shuts Chrome down. It is safe to call more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		if b.config.UserDataDir == "" {
			b.launcher.Cleanup()
		}
	}
	b.browser = nil
	b.page = nil

	if err != nil {
		b.logger.Warn().Err(err).Msg("Browser did not close cleanly")
	}
	return err
}
