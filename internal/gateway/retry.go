package gateway

import (
	"time"
)

// RetryPolicy 瞬时失败的有界指数退避重试策略
type RetryPolicy struct {
	MaxAttempts    int           // 总尝试次数上限(含首次)
	InitialBackoff time.Duration // 首次重试前的退避
	MaxBackoff     time.Duration // 退避封顶
	Multiplier     float64       // 指数倍率
}

// DefaultRetryPolicy 默认重试策略
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
}

// Backoff 第 attempt 次失败后的退避时长(attempt 从 1 起)
// 纯函数,便于不依赖真实时钟的测试
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= p.Multiplier
		if backoff >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}

	d := time.Duration(backoff)
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// retryState 重试状态机:尝试计数 + 退避排程
// 显式建模而非嵌套循环,可独立单测
type retryState struct {
	policy  RetryPolicy
	attempt int // 已完成的尝试次数
}

// newRetryState 创建初始状态
func newRetryState(policy RetryPolicy) *retryState {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &retryState{policy: policy}
}

// Next 记录一次失败并决定是否继续
// 返回下一次尝试前的退避时长;错误不可重试或次数耗尽时返回 false
func (s *retryState) Next(err error) (time.Duration, bool) {
	s.attempt++

	if !IsTransient(err) {
		return 0, false
	}
	if s.attempt >= s.policy.MaxAttempts {
		return 0, false
	}

	return s.policy.Backoff(s.attempt), true
}

// Attempt 当前已完成的尝试次数
func (s *retryState) Attempt() int {
	return s.attempt
}
