package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability("reasoning")
	require.NoError(t, err)
	assert.Equal(t, Reasoning, c)
	assert.Equal(t, "reasoning", c.String())

	c, err = ParseCapability("sampling")
	require.NoError(t, err)
	assert.Equal(t, Sampling, c)

	_, err = ParseCapability("o1")
	assert.Error(t, err)
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(3), func(attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsBudget(t *testing.T) {
	boom := errors.New("provider down")
	var retried []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	calls := 0
	err := WithRetry(context.Background(), cfg, func(int) error {
		calls++
		return boom
	})

	var attemptsErr *AttemptsError
	require.ErrorAs(t, err, &attemptsErr)
	assert.Equal(t, 3, attemptsErr.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestWithRetry_BackoffDoubles(t *testing.T) {
	var stamps []time.Time
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: 20 * time.Millisecond, Multiplier: 2}

	_ = WithRetry(context.Background(), cfg, func(int) error {
		stamps = append(stamps, time.Now())
		return errors.New("fail")
	})

	require.Len(t, stamps, 3)
	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)
	assert.GreaterOrEqual(t, second, 40*time.Millisecond)
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, Multiplier: 2}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- WithRetry(ctx, cfg, func(int) error {
			calls++
			return errors.New("fail")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry loop ignored cancellation")
	}
}

func TestRetryingGenerator(t *testing.T) {
	calls := 0
	flaky := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("rate limited")
		}
		return "まいど！ " + req.User, nil
	})

	gen := NewRetryingGenerator(flaky, fastRetry(3))
	out, err := gen.Generate(context.Background(), Request{User: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "まいど！ hi", out)
	assert.Equal(t, 2, calls)
}

func TestRetryingGenerator_AllAttemptsFail(t *testing.T) {
	calls := 0
	broken := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		return "", ErrEmptyResponse
	})

	_, err := NewRetryingGenerator(broken, fastRetry(3)).Generate(context.Background(), Request{})

	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 3, calls)
}

func TestRateLimitedGenerator(t *testing.T) {
	echo := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		return req.User, nil
	})

	_, wrapped := NewRateLimitedGenerator(echo, 0, 0).(*rateLimitedGenerator)
	assert.False(t, wrapped, "disabled limiter returns the inner generator")

	limited := NewRateLimitedGenerator(echo, 1000, 1)
	out, err := limited.Generate(context.Background(), Request{User: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewRateLimitedGenerator(echo, 0.001, 1)
	_, _ = slow.Generate(context.Background(), Request{})
	_, err = slow.Generate(ctx, Request{})
	assert.Error(t, err)
}
