package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"social-support-intake/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{config: &ClientConfig{
		RequestTimeout: time.Second,
		RetryConfig:    &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestExecuteWithRetry_RetriesTransient(t *testing.T) {
	c := newTestClient()
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return int64(2251799813685249), nil
	}, "create-process-instance")

	require.NoError(t, err)
	assert.Equal(t, int64(2251799813685249), result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanent(t *testing.T) {
	c := newTestClient()
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("rpc error: code = NotFound desc = process not found")
	}, "create-process-instance")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCode("RESOURCE_NOT_FOUND"), stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecuteWithRetry_ExhaustedIsRetryable(t *testing.T) {
	c := newTestClient()

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, stderrors.New("context deadline exceeded")
	}, "create-process-instance")

	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.Contains(t, err.Error(), "timeout")
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("connection reset by peer")))
	assert.True(t, isRetryableZeebeError(stderrors.New("code = RESOURCE_EXHAUSTED")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid argument")))
}

func TestBackoff(t *testing.T) {
	cfg := &RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 0))
	assert.Equal(t, 200*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 300*time.Millisecond, backoff(cfg, 2))
}
