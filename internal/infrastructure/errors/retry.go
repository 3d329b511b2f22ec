package errors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"kaizen/internal/infrastructure/logging"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts     int           // Maximum number of attempts, including the first
	InitialDelay    time.Duration // Delay before the second attempt
	MaxDelay        time.Duration // Upper bound on any delay
	BackoffFactor   float64       // Exponential backoff factor
	Jitter          bool          // Whether to add up to 25% jitter
	RetryableErrors []ErrorCode   // Codes eligible for retry
}

// DefaultRetryConfig suits local stores: a few quick attempts on lock
// contention and transaction conflicts
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeBusy,
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeTransaction,
		},
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func() error

type loggerHolder struct{ logging.Logger }

var retryLogger atomic.Value

// SetRetryLogger sets the logger used to report retries. Nil disables it.
func SetRetryLogger(logger logging.Logger) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	retryLogger.Store(loggerHolder{logger})
}

func currentRetryLogger() logging.Logger {
	if h, ok := retryLogger.Load().(loggerHolder); ok {
		return h.Logger
	}
	return logging.NopLogger{}
}

// WithRetry executes an operation with retry logic
func WithRetry(ctx context.Context, config *RetryConfig, operation RetryableOperation) error {
	return WithRetryContext(ctx, config, operation, "")
}

// WithRetryContext executes a named operation with retry logic. The name
// appears in log fields and in the final error.
func WithRetryContext(ctx context.Context, config *RetryConfig, operation RetryableOperation, operationName string) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	logger := currentRetryLogger()

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				logger.Info("Store operation succeeded after retry", "operation", operationName, "attempts", attempt+1)
			}
			return nil
		}
		lastErr = err

		if !shouldRetry(err, config) {
			return err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateDelay(attempt, config)
		logger.Warn("Store operation failed, retrying",
			"operation", operationName,
			"attempt", attempt+1,
			"max_attempts", config.MaxAttempts,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation '%s' cancelled during retry: %w", operationName, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation '%s' failed after %d attempts: %w", operationName, config.MaxAttempts, lastErr)
}

// shouldRetry only retries classified errors whose code is configured
func shouldRetry(err error, config *RetryConfig) bool {
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) {
		return false
	}
	if !repoErr.IsRetryable() {
		return false
	}
	return slices.Contains(config.RetryableErrors, repoErr.Code)
}

// calculateDelay returns the backoff before attempt+1
func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	multiplier := 1.0
	for range attempt {
		multiplier *= config.BackoffFactor
	}

	delay := time.Duration(float64(config.InitialDelay) * multiplier)

	if config.Jitter && delay > 0 {
		jitterAmount := time.Duration(float64(delay) * 0.25)
		if jitterAmount > 0 {
			delay += time.Duration(time.Now().UnixNano() % int64(jitterAmount))
		}
	}

	return min(delay, config.MaxDelay)
}
