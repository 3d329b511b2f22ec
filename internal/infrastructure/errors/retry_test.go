package errors

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kaizen/internal/testutils"
)

func fastConfig() *RetryConfig {
	config := DefaultRetryConfig()
	config.InitialDelay = time.Millisecond
	config.Jitter = false
	return config
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts to be 3, got %d", config.MaxAttempts)
	}
	if config.InitialDelay != 50*time.Millisecond {
		t.Errorf("Expected InitialDelay to be 50ms, got %v", config.InitialDelay)
	}
	if config.BackoffFactor != 2.0 {
		t.Errorf("Expected BackoffFactor to be 2.0, got %f", config.BackoffFactor)
	}
	if len(config.RetryableErrors) != 4 {
		t.Errorf("Expected 4 retryable error codes, got %d", len(config.RetryableErrors))
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		code      ErrorCode
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, ErrCodeBusy, 1, false},
		{"busy then success", 2, ErrCodeBusy, 3, false},
		{"conflict then success", 1, ErrCodeTransaction, 2, false},
		{"not found is not retried", 5, ErrCodeNotFound, 1, true},
		{"corruption is not retried", 5, ErrCodeCorruption, 1, true},
		{"attempts exhausted", 5, ErrCodeConnection, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), fastConfig(), func() error {
				calls++
				if calls <= tt.failures {
					return NewRepositoryError("put", errors.New("boom"), tt.code)
				}
				return nil
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("WithRetry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("operation called %d times, want %d", calls, tt.wantCalls)
			}
			if err != nil && CodeOf(err) != tt.code {
				t.Errorf("CodeOf() = %v, want %v", CodeOf(err), tt.code)
			}
		})
	}
}

func TestWithRetry_PlainErrorNotRetried(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func() error {
		calls++
		return errors.New("database is locked")
	})
	if err == nil || calls != 1 {
		t.Errorf("unclassified errors should fail fast, calls=%d err=%v", calls, err)
	}
}

func TestWithRetryContext_ExhaustedMessage(t *testing.T) {
	err := WithRetryContext(context.Background(), fastConfig(), func() error {
		return NewRepositoryError("put", errors.New("locked"), ErrCodeBusy)
	}, "put_document")

	if err == nil || !strings.Contains(err.Error(), "operation 'put_document' failed after 3 attempts") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := DefaultRetryConfig()
	config.InitialDelay = 200 * time.Millisecond
	config.Jitter = false

	calls := 0
	err := WithRetry(ctx, config, func() error {
		calls++
		if calls == 1 {
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
		}
		return NewRepositoryError("get", errors.New("busy"), ErrCodeBusy)
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected operation to be called once, got %d", calls)
	}
}

func TestWithRetry_NilConfig(t *testing.T) {
	calls := 0
	if err := WithRetry(context.Background(), nil, func() error { calls++; return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected operation to be called once, got %d", calls)
	}
}

func TestCalculateDelay(t *testing.T) {
	config := &RetryConfig{
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      300 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for attempt, expected := range want {
		if got := calculateDelay(attempt, config); got != expected {
			t.Errorf("calculateDelay(%d) = %v, want %v", attempt, got, expected)
		}
	}

	config.Jitter = true
	config.MaxDelay = time.Second
	for i := 0; i < 20; i++ {
		got := calculateDelay(0, config)
		if got < 100*time.Millisecond || got > 125*time.Millisecond {
			t.Fatalf("jittered delay %v outside [100ms, 125ms]", got)
		}
	}
}

func TestSetRetryLogger(t *testing.T) {
	rec := &testutils.RecordingLogger{}
	SetRetryLogger(rec)
	t.Cleanup(func() { SetRetryLogger(nil) })

	calls := 0
	err := WithRetryContext(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 2 {
			return NewRepositoryError("put", errors.New("locked"), ErrCodeBusy)
		}
		return nil
	}, "put_document")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	warns := rec.Calls("WARN")
	if len(warns) != 1 {
		t.Fatalf("Expected 1 retry warning, got %d", len(warns))
	}
	if testutils.FieldsToMap(t, warns[0].Fields)["operation"] != "put_document" {
		t.Errorf("retry warning missing operation: %v", warns[0].Fields)
	}
	if !rec.Contains("INFO", "succeeded after retry") {
		t.Error("Expected success-after-retry message")
	}
}
