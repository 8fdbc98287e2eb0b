package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// OnRetry runs after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// AttemptsError reports the last failure after the retry budget ran out.
type AttemptsError struct {
	Attempts int
	Err      error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AttemptsError) Unwrap() error { return e.Err }

// WithRetry runs fn until it succeeds, the attempts run out, or ctx ends.
// The delay starts at InitialDelay and is multiplied after each failure.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 2.0
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return &AttemptsError{Attempts: cfg.MaxAttempts, Err: lastErr}
}

type retryingGenerator struct {
	next Generator
	cfg  RetryConfig
}

// NewRetryingGenerator wraps next so every Generate call gets the retry budget.
func NewRetryingGenerator(next Generator, cfg RetryConfig) Generator {
	return &retryingGenerator{next: next, cfg: cfg}
}

func (g *retryingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	cfg := g.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error) {
			log.WithFields(log.Fields{
				"component": "llm",
				"attempt":   attempt,
			}).Warnf("Generation failed, retrying: %v", err)
		}
	}

	var out string
	err := WithRetry(ctx, cfg, func(int) error {
		text, err := g.next.Generate(ctx, req)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
