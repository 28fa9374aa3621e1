package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrProviderUnavailable is returned when a capability has no credentials configured.
var ErrProviderUnavailable = errors.New("ai provider unavailable")

type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type GenerateRequest struct {
	Model           string
	Instructions    string
	Input           string
	Temperature     float64
	MaxOutputTokens int
}

type GenerateResult struct {
	Text    string
	ModelID string
	Usage   TokenUsage
}

// TextGenerator turns a prompt into free text. Implementations may fail; the
// caller decides whether to fall back.
type TextGenerator interface {
	Generate(ctx context.Context, request GenerateRequest) (GenerateResult, error)
	Available() bool
}

type providerHTTPError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *providerHTTPError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func isRetryableProviderError(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *providerHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "timeout") || strings.Contains(message, "tempor")
}

// withRetry calls fn up to maxRetries+1 times, backing off linearly between
// retryable failures.
func withRetry[T any](ctx context.Context, maxRetries int, provider string, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableProviderError(err) || attempt == maxRetries {
			break
		}

		backoff := time.Duration(350*(attempt+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("unknown %s error", provider)
	}
	return zero, lastErr
}

func trimErrorBody(body []byte) string {
	message := strings.TrimSpace(string(body))
	if len(message) > 700 {
		message = message[:700]
	}
	return message
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// postJSON sends one JSON POST under its own timeout and returns the body of a
// 2xx response. Non-2xx answers become *providerHTTPError.
func postJSON(
	ctx context.Context,
	client *http.Client,
	timeout time.Duration,
	provider string,
	url string,
	headers map[string]string,
	payload []byte,
) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", provider, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")
	for key, value := range headers {
		if value != "" {
			httpRequest.Header.Set(key, value)
		}
	}

	httpResponse, err := client.Do(httpRequest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timeout: %w", provider, err)
		}
		return nil, fmt.Errorf("%s transport error: %w", provider, err)
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", provider, err)
	}
	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return nil, &providerHTTPError{
			Provider:   provider,
			StatusCode: httpResponse.StatusCode,
			Message:    trimErrorBody(body),
		}
	}
	return body, nil
}
