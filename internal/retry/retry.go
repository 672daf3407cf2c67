package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/loykin/apismoke/internal/common"
)

// Config controls how history writes are retried on transient database errors.
type Config struct {
	MaxAttempts   int           // total attempts including the first one
	InitialDelay  time.Duration // wait before the second attempt
	MaxDelay      time.Duration // upper bound for a single wait
	BackoffFactor float64
	// Transient lists lower-case error fragments that are worth another attempt.
	Transient []string
}

// Default returns the retry policy used by the history store.
func Default() *Config {
	return &Config{
		MaxAttempts:   4,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		Transient: []string{
			"database is locked",
			"sqlite_busy",
			"connection refused",
			"connection reset",
			"broken pipe",
			"deadlock",
			"too many clients",
			"i/o timeout",
		},
	}
}

// IsTransient reports whether err matches one of the configured fragments.
// Context errors are never transient.
func (c *Config) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range c.Transient {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// Backoff returns the wait after the given failed attempt (1-based).
func (c *Config) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return c.InitialDelay
	}
	d := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails permanently, attempts run out or ctx ends.
func Do(ctx context.Context, cfg *Config, what string, op func(context.Context) error) error {
	if cfg == nil {
		cfg = Default()
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	logger := common.GetLogger().WithComponent("history-retry")

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("write succeeded after retry", "op", what, "attempt", attempt)
			}
			return nil
		}
		lastErr = err
		if !cfg.IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		wait := cfg.Backoff(attempt)
		logger.Warn("transient database error, retrying", "op", what, "error", err, "attempt", attempt, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s cancelled during retry: %w", what, ctx.Err())
		case <-timer.C:
		}
	}
	logger.Error("write failed after retries", "op", what, "error", lastErr, "attempts", attempts)
	return fmt.Errorf("%s failed after %d attempts: %w", what, attempts, lastErr)
}
