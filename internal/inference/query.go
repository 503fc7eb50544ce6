package inference

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultQueryAttempts = 3
	queryBackoffBase     = time.Second
)

// backoffDelay returns the wait before the next attempt, doubling after
// each failure.
func backoffDelay(attempt int) time.Duration {
	return queryBackoffBase << (attempt - 1)
}

// Query performs a completion with bounded retries. Transient provider
// errors are retried with exponential backoff; context cancellation aborts
// immediately.
func Query(ctx context.Context, b Backend, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= defaultQueryAttempts; attempt++ {
		resp, err := b.Complete(ctx, req)
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt < defaultQueryAttempts {
			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("query failed after %d attempts: %w", defaultQueryAttempts, lastErr)
}
