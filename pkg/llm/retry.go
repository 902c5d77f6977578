package llm

import (
	"context"
	"errors"
	"time"
)

// RetryCompleter wraps a Completer with a single bounded retry. Only
// rate-limit and availability failures are retried; a content filter or any
// other error surfaces immediately.
type RetryCompleter struct {
	inner     Completer
	baseDelay time.Duration
}

func WithRetry(c Completer) *RetryCompleter {
	return &RetryCompleter{inner: c, baseDelay: 500 * time.Millisecond}
}

func (r *RetryCompleter) ModelName() string {
	return r.inner.ModelName()
}

func (r *RetryCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	text, err := r.inner.Complete(ctx, prompt, maxTokens)
	if err == nil || !isRetryable(err) {
		return text, err
	}

	select {
	case <-time.After(r.baseDelay):
	case <-ctx.Done():
		return "", err
	}

	return r.inner.Complete(ctx, prompt, maxTokens)
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
