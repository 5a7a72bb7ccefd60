package llm

import (
	"context"
	"math/rand"
	"time"

	"github.com/funcall-ai/funcall/internal/consts"
	"github.com/funcall-ai/funcall/internal/logger"
)

// retryClient wraps another Client and hides transient failures behind
// bounded exponential backoff with jitter. Terminal classifications
// (auth, bad request, not found, unknown) propagate immediately.
type retryClient struct {
	delegate   Client
	maxRetries int
	baseDelay  time.Duration
	maxJitter  time.Duration
}

// NewRetryClient returns a Client that retries transient failures up to
// consts.MaxCompletionRetries additional attempts after the first.
func NewRetryClient(base Client) Client {
	if base == nil {
		return nil
	}
	return &retryClient{
		delegate:   base,
		maxRetries: consts.MaxCompletionRetries,
		baseDelay:  consts.RetryBaseDelay,
		maxJitter:  consts.RetryMaxJitter,
	}
}

func (c *retryClient) ModelName() string {
	return c.delegate.ModelName()
}

func (c *retryClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.delegate.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !Retryable(err) {
			logger.Warn("Completion failed with terminal error: %v", err)
			return nil, err
		}
		if attempt >= c.maxRetries {
			logger.Warn("Completion retries exhausted after %d attempts: %v", attempt+1, err)
			return nil, lastErr
		}

		delay := c.backoffDelay(attempt)
		logger.Info("Completion failed (attempt %d/%d), retrying in %s: %v",
			attempt+1, c.maxRetries+1, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoffDelay computes 2^attempt * baseDelay plus uniform jitter in [0, maxJitter).
func (c *retryClient) backoffDelay(attempt int) time.Duration {
	delay := c.baseDelay << uint(attempt)
	if c.maxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(c.maxJitter)))
	}
	return delay
}
