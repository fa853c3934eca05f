package gateway

import (
	"context"
	"sync"
	"time"
)

// RateGovernor 进程级令牌桶限速器
// 所有出站物理调用在发出前先取令牌;令牌不足时只会等待,不会失败
type RateGovernor struct {
	mu              sync.Mutex
	capacity        float64
	tokens          float64
	refillPerSecond float64
	lastRefill      time.Time

	// now 可注入,便于不依赖真实时钟的测试
	now func() time.Time
}

// NewRateGovernor 创建限速器,初始令牌为满额
func NewRateGovernor(capacity int, refillPerSecond float64) *RateGovernor {
	if capacity <= 0 {
		capacity = 1
	}
	if refillPerSecond <= 0 {
		refillPerSecond = 1
	}
	g := &RateGovernor{
		capacity:        float64(capacity),
		tokens:          float64(capacity),
		refillPerSecond: refillPerSecond,
		now:             time.Now,
	}
	g.lastRefill = g.now()
	return g
}

// Acquire 阻塞直到取得 cost 个令牌
// 只有 ctx 取消会返回错误;限流压力对调用方表现为纯延迟
func (g *RateGovernor) Acquire(ctx context.Context, cost int) error {
	if cost <= 0 {
		cost = 1
	}
	// 超过容量的需求永远无法满足,钳制到容量避免永久等待
	if float64(cost) > g.capacity {
		cost = int(g.capacity)
	}

	for {
		wait, ok := g.tryAcquire(cost)
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire 补充令牌后尝试扣除
// 不足时返回精确的缺口等待时长,调用方按此休眠后重查,避免忙等
func (g *RateGovernor) tryAcquire(cost int) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refillLocked()

	need := float64(cost)
	if g.tokens >= need {
		g.tokens -= need
		return 0, true
	}

	deficit := need - g.tokens
	wait := time.Duration(deficit / g.refillPerSecond * float64(time.Second))
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait, false
}

// refillLocked 按流逝时间连续补充令牌,封顶于容量
// 调用方必须持有 g.mu
func (g *RateGovernor) refillLocked() {
	now := g.now()
	elapsed := now.Sub(g.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	g.tokens += elapsed * g.refillPerSecond
	if g.tokens > g.capacity {
		g.tokens = g.capacity
	}
	g.lastRefill = now
}

// Available 当前可用令牌数快照,用于指标与测试
func (g *RateGovernor) Available() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refillLocked()
	return g.tokens
}
