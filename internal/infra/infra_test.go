package infra

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ── Cache ──

func TestCacheSetGet(t *testing.T) {
	c := NewCache[string](time.Hour)
	c.Set("park city", "12000")
	v, ok := c.Get("park city")
	if !ok || v != "12000" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	now = now.Add(45 * time.Second)
	c.Set("b", 2)

	now = now.Add(30 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("b = %d, %v", v, ok)
	}
	if n := c.Cleanup(); n != 1 {
		t.Errorf("Cleanup removed %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestCacheZeroTTLDisables(t *testing.T) {
	c := NewCache[int](0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("zero TTL should not store")
	}
}

// ── Rate limiter ──

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("token %d should be available", i)
		}
	}
	if rl.tryAcquire() {
		t.Error("bucket should be empty")
	}
}

func TestRateLimiterRefill(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	rl.poll = time.Millisecond
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("second Wait should succeed after refill: %v", err)
	}
}

func TestRateLimiterCancel(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.tryAcquire()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestPerMinute(t *testing.T) {
	rl := PerMinute(60)
	if rl.maxTokens != 60 || rl.refillRate != time.Second {
		t.Errorf("PerMinute(60) = %d tokens / %v", rl.maxTokens, rl.refillRate)
	}
	if PerMinute(0).maxTokens != 1 {
		t.Error("PerMinute should clamp to 1")
	}
}
