package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhvinik1/crmsync/internal/hubspot"
)

func TestRetryCall_SucceedsAfterFailures(t *testing.T) {
	crm := &fakeCRM{}
	w := newTestWorker(crm, &fakeDomainStore{}, &fakeSink{})
	account := testAccount()

	attempts := 0
	result, err := retryCall(context.Background(), w, account, "testOp", w.searchRetryOptions(),
		func(context.Context) (string, error) {
			attempts++
			if attempts <= 3 {
				return "", errRemote
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 4, attempts)
}

func TestRetryCall_ExhaustsRetries(t *testing.T) {
	crm := &fakeCRM{}
	w := newTestWorker(crm, &fakeDomainStore{}, &fakeSink{})
	account := testAccount()

	attempts := 0
	_, err := retryCall(context.Background(), w, account, "testOp", w.searchRetryOptions(),
		func(context.Context) (string, error) {
			attempts++
			return "", errRemote
		})

	require.Error(t, err)
	assert.Equal(t, 5, attempts, "default budget is one call plus four retries")
	assert.ErrorIs(t, err, errRemote)
	assert.Contains(t, err.Error(), "testOp")
	assert.Contains(t, err.Error(), "after 4 retries")
}

func TestRetryCall_BackoffDoublesPerAttempt(t *testing.T) {
	crm := &fakeCRM{}
	w := newTestWorker(crm, &fakeDomainStore{}, &fakeSink{})
	account := testAccount()

	var delays []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := retryCall(context.Background(), w, account, "testOp", w.searchRetryOptions(),
		func(context.Context) (string, error) { return "", errRemote })
	require.Error(t, err)

	require.Len(t, delays, 4)
	for i := 1; i < len(delays); i++ {
		assert.Equal(t, 2*delays[i-1], delays[i], "delay %d should double", i)
	}
	assert.Equal(t, 2*w.cfg.RetryBaseDelay, delays[0])
}

func TestRetryCall_RefreshesExpiredToken(t *testing.T) {
	crm := &fakeCRM{}
	w := newTestWorker(crm, &fakeDomainStore{}, &fakeSink{})
	account := testAccount()
	account.TokenExpiresAt = time.Now().Add(-time.Minute)

	attempts := 0
	_, err := retryCall(context.Background(), w, account, "testOp", w.searchRetryOptions(),
		func(context.Context) (string, error) {
			attempts++
			if attempts == 1 {
				return "", errRemote
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, 1, crm.refreshCalls)
	assert.Equal(t, "fresh-token", account.AccessToken)
	assert.True(t, account.TokenExpiresAt.After(time.Now()), "expiration should be recomputed")
}

func TestRetryCall_NoRefreshWhileTokenValid(t *testing.T) {
	crm := &fakeCRM{}
	w := newTestWorker(crm, &fakeDomainStore{}, &fakeSink{})
	account := testAccount()

	_, err := retryCall(context.Background(), w, account, "testOp", w.searchRetryOptions(),
		func(context.Context) (string, error) { return "", errRemote })

	require.Error(t, err)
	assert.Equal(t, 0, crm.refreshCalls)
}

func TestRetryCall_RefreshFailureIsTerminal(t *testing.T) {
	crm := &fakeCRM{
		refreshFn: func(string) (*hubspot.TokenResponse, error) { return nil, errRemote },
	}
	w := newTestWorker(crm, &fakeDomainStore{}, &fakeSink{})
	account := testAccount()
	account.TokenExpiresAt = time.Now().Add(-time.Minute)

	attempts := 0
	_, err := retryCall(context.Background(), w, account, "testOp", w.searchRetryOptions(),
		func(context.Context) (string, error) {
			attempts++
			return "", errRemote
		})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to refresh access token")
	assert.Equal(t, 1, attempts, "refresh failure aborts before the next attempt")
	assert.Equal(t, 3, crm.refreshCalls, "token exchange gets its own bounded retries")
}
