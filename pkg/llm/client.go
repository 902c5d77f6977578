package llm

import (
	"context"
	"errors"
	"strings"
)

// Completer is the summarizer contract: one prompt in, generated text out.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	ModelName() string
}

var (
	// ErrRateLimited means the provider rejected the call with a 429.
	ErrRateLimited = errors.New("llm rate limited")
	// ErrUnavailable means the provider could not be reached or answered 5xx.
	ErrUnavailable = errors.New("llm unavailable")
	// ErrContentFiltered means the provider refused to complete the prompt.
	ErrContentFiltered = errors.New("llm content filtered")
)

// classifyProviderError maps a raw SDK/network error onto the sentinel set so
// handlers can degrade without knowing which provider is behind the interface.
func classifyProviderError(provider string, err error) error {
	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return &providerError{provider: provider, kind: ErrRateLimited, cause: err}
	}
	for _, s := range []string{"500", "502", "503", "529", "overloaded", "connection refused", "timeout", "deadline exceeded", "EOF", "reset by peer", "no such host"} {
		if strings.Contains(msg, s) {
			return &providerError{provider: provider, kind: ErrUnavailable, cause: err}
		}
	}
	return &providerError{provider: provider, kind: nil, cause: err}
}

type providerError struct {
	provider string
	kind     error
	cause    error
}

func (e *providerError) Error() string {
	return e.provider + " API error: " + e.cause.Error()
}

func (e *providerError) Unwrap() error {
	if e.kind != nil {
		return e.kind
	}
	return e.cause
}

// CleanResponse strips markdown fences and surrounding prose from a model
// reply that is expected to be JSON.
func CleanResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
