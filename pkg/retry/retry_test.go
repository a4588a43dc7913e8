package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igfetch/pkg/config"
	errs "igfetch/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{BaseDelay: 100 * time.Millisecond, Multiplier: 2, JitterFactor: 0.5}
	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func fastPolicy(attempts int) *Policy {
	return &Policy{MaxAttempts: attempts, Backoff: &ConstantBackoff{Delay: time.Millisecond}}
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errs.NewNetworkError("https://cdn.example/a", 503, nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) error {
		calls++
		return errs.NewNetworkError("https://cdn.example/a", 404, nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
	assert.Equal(t, errs.ErrorTypeNotFound, errs.CategoryOf(err))
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, err error, delay time.Duration) { retried = append(retried, attempt) }

	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return errs.NewNetworkError("u", 0, errors.New("reset"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Policy{MaxAttempts: 10, Backoff: &ConstantBackoff{Delay: time.Hour}}

	calls := 0
	err := Do(ctx, p, func(ctx context.Context) error {
		calls++
		cancel()
		return errs.NewNetworkError("u", 500, nil)
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNilPolicyRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), nil, func(ctx context.Context) error {
		calls++
		return errs.NewNetworkError("u", 500, nil)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastPolicy(3), func(ctx context.Context) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, errs.NewNetworkError("u", 502, nil)
		}
		return []byte("ok"), nil
	})

	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), got)
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.RetryConfig{MaxAttempts: 4, BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 3}, nil)
	assert.Equal(t, 4, p.MaxAttempts)
	eb, ok := p.Backoff.(*ExponentialBackoff)
	require.True(t, ok)
	assert.Equal(t, 3.0, eb.Multiplier)
	assert.False(t, p.RetryIf(errs.NewParseError("bad", nil)))
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(errors.New("unknown")))
	assert.True(t, DefaultRetryIf(errs.NewNetworkError("u", 429, nil)))
}
