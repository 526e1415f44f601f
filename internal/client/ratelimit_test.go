package client

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiter_Positive(t *testing.T) {
	rl := NewRateLimiter(10)
	if !rl.Enabled() {
		t.Fatal("expected rate limiter to be enabled with positive rate")
	}
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("expected a fresh limiter to admit a request: %v", err)
	}
}

func TestNewRateLimiter_Zero(t *testing.T) {
	rl := NewRateLimiter(0)
	if rl.Enabled() {
		t.Fatal("expected rate limiter to be disabled with zero rate")
	}
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("expected a disabled limiter never to wait: %v", err)
	}
}

func TestNewRateLimiter_Fractional(t *testing.T) {
	rl := NewRateLimiter(0.5)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("expected a fractional rate to admit the first request: %v", err)
	}
}

func TestRateLimiter_Wait_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewRateLimiter(0).Wait(ctx); err == nil {
		t.Fatal("expected cancelled context to surface from disabled limiter")
	}
}
