package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// baseRetryDelay is the first backoff step; it doubles per attempt up to
// maxRetryDelay.
var (
	baseRetryDelay = time.Second
	maxRetryDelay  = 30 * time.Second
)

// IsRetryableError reports whether a Gemini call failure is transient:
// HTTP 429 and 500-504 API errors, or a dropped connection.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return retryableStatus(apiErrPtr.Code)
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "econnreset") ||
		strings.Contains(errMsg, "etimedout") ||
		strings.Contains(errMsg, "connection reset")
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		(code >= http.StatusInternalServerError && code <= http.StatusGatewayTimeout)
}

// backoffDelay returns the wait before retry number attempt+1
func backoffDelay(attempt int) time.Duration {
	delay := baseRetryDelay
	for i := 0; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// withRetry runs call up to maxRetries+1 times with exponential backoff.
func withRetry[T any](ctx context.Context, maxRetries int, call func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryableError(err) || attempt == maxRetries {
			break
		}

		delay := backoffDelay(attempt)
		log.Debug().
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("Retrying after error")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
