package gateway

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGovernor(capacity int, refillPerSecond float64) (*RateGovernor, *fakeClock) {
	clock := newFakeClock()
	g := NewRateGovernor(capacity, refillPerSecond)
	g.now = clock.Now
	g.lastRefill = clock.Now()
	return g, clock
}

func TestNewRateGovernorStartsFull(t *testing.T) {
	g, _ := newTestGovernor(10, 5)

	if got := g.Available(); got != 10 {
		t.Errorf("Expected 10 tokens initially, got %v", got)
	}
}

func TestRateGovernorDebitExact(t *testing.T) {
	g, _ := newTestGovernor(5, 1)

	for i := 0; i < 5; i++ {
		wait, ok := g.tryAcquire(1)
		if !ok {
			t.Fatalf("Expected token %d to be granted, got wait %v", i+1, wait)
		}
	}

	wait, ok := g.tryAcquire(1)
	if ok {
		t.Error("Expected 6th acquire to be denied")
	}
	if wait <= 0 {
		t.Errorf("Expected positive wait hint, got %v", wait)
	}
}

func TestRateGovernorRefill(t *testing.T) {
	g, clock := newTestGovernor(10, 2)

	for i := 0; i < 10; i++ {
		g.tryAcquire(1)
	}
	if got := g.Available(); got != 0 {
		t.Fatalf("Expected 0 tokens after drain, got %v", got)
	}

	// 2 令牌/秒,推进 1.5 秒应补充 3 个
	clock.Advance(1500 * time.Millisecond)
	if got := g.Available(); got != 3 {
		t.Errorf("Expected 3 tokens after refill, got %v", got)
	}
}

func TestRateGovernorRefillCappedAtCapacity(t *testing.T) {
	g, clock := newTestGovernor(5, 10)

	g.tryAcquire(1)
	clock.Advance(time.Hour)

	if got := g.Available(); got != 5 {
		t.Errorf("Expected refill capped at capacity 5, got %v", got)
	}
}

func TestRateGovernorWaitHintMatchesDeficit(t *testing.T) {
	g, _ := newTestGovernor(1, 2)

	g.tryAcquire(1)
	wait, ok := g.tryAcquire(1)
	if ok {
		t.Fatal("Expected acquire to be denied on empty bucket")
	}

	// 缺口 1 个令牌,速率 2/秒,等待应为 500ms
	if wait != 500*time.Millisecond {
		t.Errorf("Expected wait 500ms, got %v", wait)
	}
}

func TestRateGovernorAcquireContextCanceled(t *testing.T) {
	g := NewRateGovernor(1, 0.001)
	if err := g.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Expected immediate acquire to succeed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Acquire(ctx, 1)
	if err == nil {
		t.Fatal("Expected acquire to fail on canceled context")
	}
	if err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestRateGovernorConcurrentDebitNeverExceedsBudget(t *testing.T) {
	g, _ := newTestGovernor(5, 0.0001)

	var granted int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.tryAcquire(1); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Errorf("Expected exactly 5 grants under contention, got %d", granted)
	}
}

func TestRateGovernorAcquireClampsCostToCapacity(t *testing.T) {
	g := NewRateGovernor(3, 1)

	// 超过容量的需求按容量扣除,否则永远凑不齐令牌
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.Acquire(ctx, 10); err != nil {
		t.Fatalf("Expected oversized acquire to succeed via clamping, got %v", err)
	}

	if got := g.Available(); got >= 1 {
		t.Errorf("Expected bucket near empty after clamped acquire, got %v", got)
	}
}

func TestRateGovernorAcquireBlocksUntilRefill(t *testing.T) {
	g := NewRateGovernor(1, 50)
	if err := g.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if err := g.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 50 令牌/秒,空桶取 1 个约需 20ms
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Expected acquire to block for refill, returned after %v", elapsed)
	}
}
