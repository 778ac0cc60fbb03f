package browser

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// Navigate opens url in the working page and waits for the load event
func (b *Browser) Navigate(ctx context.Context, rawURL string) (*PageInfo, error) {
	if err := b.validator.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page = page.Timeout(b.config.NavigationTimeout)
	if err := page.Navigate(rawURL); err != nil {
		return nil, newError(ErrCodeNavigation, "failed to navigate to %s: %v", rawURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, newError(ErrCodeNavigation, "page load timeout: %v", err)
	}

	info, err := pageInfo(page)
	if err != nil {
		return nil, err
	}
	info.Duration = time.Since(start).Milliseconds()

	b.logger.Debug().Str("url", info.URL).Str("title", info.Title).Msg("Navigated")
	return info, nil
}

// ExtractText returns the visible text of the page, or of the first element
// matching selector when one is given
func (b *Browser) ExtractText(ctx context.Context, selector string) (*TextResult, error) {
	if selector != "" && !IsValidSelector(selector) {
		return nil, newError(ErrCodeValidation, "invalid selector: %q", selector)
	}
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Timeout(b.config.ActionTimeout)

	var text string
	if selector == "" {
		obj, err := page.Eval(`() => document.body ? document.body.innerText : ""`)
		if err != nil {
			return nil, newError(ErrCodeScriptExecution, "failed to extract text: %v", err)
		}
		text = obj.Value.String()
	} else {
		elem, err := b.element(page, selector)
		if err != nil {
			return nil, err
		}
		if text, err = elem.Text(); err != nil {
			return nil, newError(ErrCodeScriptExecution, "failed to extract text from element: %v", err)
		}
	}

	result := &TextResult{Selector: selector, Text: text}
	if len(result.Text) > maxTextBytes {
		result.Text = strings.ToValidUTF8(result.Text[:maxTextBytes], "")
		result.Truncated = true
	}
	if info, err := page.Info(); err == nil {
		result.URL = info.URL
	}
	return result, nil
}

// Click clicks the first element matching selector
func (b *Browser) Click(ctx context.Context, selector string) (*PageInfo, error) {
	if !IsValidSelector(selector) {
		return nil, newError(ErrCodeValidation, "invalid selector: %q", selector)
	}
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Timeout(b.config.ActionTimeout)

	start := time.Now()
	elem, err := b.element(page, selector)
	if err != nil {
		return nil, err
	}
	if err := elem.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, newError(ErrCodeScriptExecution, "failed to click %s: %v", selector, err)
	}
	// Clicks often navigate; give the page a moment to settle.
	_ = page.WaitIdle(time.Second)

	info, err := pageInfo(page)
	if err != nil {
		return nil, err
	}
	info.Duration = time.Since(start).Milliseconds()
	return info, nil
}

// Type replaces the value of the input matching selector with text and
// optionally presses Enter
func (b *Browser) Type(ctx context.Context, selector, text string, submit bool) (*PageInfo, error) {
	if !IsValidSelector(selector) {
		return nil, newError(ErrCodeValidation, "invalid selector: %q", selector)
	}
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Timeout(b.config.ActionTimeout)

	start := time.Now()
	elem, err := b.element(page, selector)
	if err != nil {
		return nil, err
	}
	if err := elem.Input(text); err != nil {
		return nil, newError(ErrCodeScriptExecution, "failed to type into %s: %v", selector, err)
	}
	if submit {
		if err := elem.Type(input.Enter); err != nil {
			return nil, newError(ErrCodeScriptExecution, "failed to submit %s: %v", selector, err)
		}
		_ = page.WaitIdle(time.Second)
	}

	info, err := pageInfo(page)
	if err != nil {
		return nil, err
	}
	info.Duration = time.Since(start).Milliseconds()
	return info, nil
}

// Screenshot captures the viewport, or the whole page when fullPage is set
func (b *Browser) Screenshot(ctx context.Context, fullPage bool) (*ScreenshotResult, error) {
	page, err := b.currentPage(ctx)
	if err != nil {
		return nil, err
	}
	page = page.Timeout(b.config.ActionTimeout)

	data, err := page.Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, newError(ErrCodeScriptExecution, "failed to capture screenshot: %v", err)
	}

	result := &ScreenshotResult{
		Format: "png",
		Data:   base64.StdEncoding.EncodeToString(data),
		Size:   len(data),
	}
	if info, err := page.Info(); err == nil {
		result.URL = info.URL
	}
	return result, nil
}

func (b *Browser) element(page *rod.Page, selector string) (*rod.Element, error) {
	elem, err := page.Element(selector)
	if err != nil {
		return nil, newError(ErrCodeElementNotFound, "element not found: %s", selector)
	}
	return elem, nil
}

func pageInfo(page *rod.Page) (*PageInfo, error) {
	info, err := page.Info()
	if err != nil {
		return nil, newError(ErrCodeScriptExecution, "failed to read page info: %v", err)
	}
	return &PageInfo{URL: info.URL, Title: info.Title}, nil
}
