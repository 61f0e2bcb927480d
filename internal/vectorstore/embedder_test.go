package vectorstore

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestWithRateLimit_PassThrough(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, text string) ([]float32, error) {
		calls++
		return []float32{1}, nil
	}

	wrapped := WithRateLimit(fn, rate.NewLimiter(rate.Inf, 1))
	if _, err := wrapped(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("inner func called %d times, want 1", calls)
	}
}

func TestWithRateLimit_NilLimiter(t *testing.T) {
	fn := func(_ context.Context, text string) ([]float32, error) {
		return []float32{1}, nil
	}
	wrapped := WithRateLimit(fn, nil)
	if _, err := wrapped(context.Background(), "hello"); err != nil {
		t.Fatalf("nil limiter must pass through: %v", err)
	}
}

func TestWithRateLimit_CanceledContext(t *testing.T) {
	calls := 0
	fn := func(_ context.Context, text string) ([]float32, error) {
		calls++
		return []float32{1}, nil
	}

	// One token per hour; first call drains the bucket.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	wrapped := WithRateLimit(fn, limiter)
	if _, err := wrapped(context.Background(), "first"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := wrapped(ctx, "second"); err == nil {
		t.Fatal("expected error once the limiter blocks on a canceled context")
	}
	if calls != 1 {
		t.Errorf("inner func called %d times, want 1", calls)
	}
}
