package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/models"
)

type retryOptions struct {
	maxRetries      int
	refreshOnExpiry bool
}

func (w *Worker) searchRetryOptions() retryOptions {
	return retryOptions{maxRetries: w.cfg.MaxRetries, refreshOnExpiry: true}
}

// retryCall is the single choke point for remote calls: bounded retries with
// exponential backoff (BaseDelay * 2^attempt). After a failure, if the cached
// token expiration has passed, the token is refreshed before the next attempt
// without consuming one; a failed refresh is terminal for the operation.
func retryCall[T any](ctx context.Context, w *Worker, account *models.HubspotAccount, operation string, opts retryOptions, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}

		w.log.Warn("api call failed, retrying",
			zap.String("operation", operation),
			zap.String("hub_id", account.HubID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if opts.refreshOnExpiry && w.now().After(account.TokenExpiresAt) {
			if refreshErr := w.refreshAccessToken(ctx, account); refreshErr != nil {
				return zero, fmt.Errorf("failed to refresh access token during %s: %w", operation, refreshErr)
			}
		}

		if attempt >= opts.maxRetries {
			return zero, fmt.Errorf("failed to execute %s after %d retries: %w", operation, opts.maxRetries, err)
		}

		delay := w.cfg.RetryBaseDelay * (1 << (attempt + 1))
		if sleepErr := w.sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}
	}
}
