package gateway

import (
	"context"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
)

// Config 网关配置
type Config struct {
	RateCapacity        int
	RateRefillPerSecond float64
	CacheTTL            time.Duration
	CacheCapacity       int
	DefaultLimit        int
	MaxLimit            int
	MemberCap           int
	Retry               RetryPolicy
}

// DefaultConfig 默认网关配置
func DefaultConfig() Config {
	return Config{
		RateCapacity:        25,
		RateRefillPerSecond: 5,
		CacheTTL:            5 * time.Minute,
		CacheCapacity:       256,
		DefaultLimit:        100,
		MaxLimit:            1000,
		MemberCap:           20,
		Retry:               DefaultRetryPolicy(),
	}
}

// Gateway 网关主体,显式持有限速器、缓存与调度器
// 进程启动时构造一次,引用传给所有调用方,不做隐式全局单例
type Gateway struct {
	governor   *RateGovernor
	cache      Cache
	dispatcher *Dispatcher
	engine     *BoundedDeliveryEngine
	metrics    *Metrics
	ttl        time.Duration
}

// New 创建网关
// cache 传 nil 时使用进程内 TTL+LRU 缓存
func New(cfg Config, upstream Upstream, cache Cache, metrics *Metrics) *Gateway {
	governor := NewRateGovernor(cfg.RateCapacity, cfg.RateRefillPerSecond)
	if cache == nil {
		cache = NewMemoryCache(cfg.CacheCapacity)
	}

	return &Gateway{
		governor:   governor,
		cache:      cache,
		dispatcher: NewDispatcher(upstream, governor, cfg.Retry, metrics),
		engine:     NewBoundedDeliveryEngine(cfg.DefaultLimit, cfg.MaxLimit, cfg.MemberCap),
		metrics:    metrics,
		ttl:        cfg.CacheTTL,
	}
}

// Engine 有界交付引擎,表层用它取默认预算
func (g *Gateway) Engine() *BoundedDeliveryEngine {
	return g.engine
}

// Fetch 执行一次逻辑请求并交付有界视图
// 流程:预算校验 → 指纹 → 缓存查询(命中直接封顶返回) → 取令牌调度 → 规范化 → 回填缓存 → 封顶
// 缓存命中与新取的响应除延迟外不可区分
func (g *Gateway) Fetch(ctx context.Context, spec *RequestSpec, budget Budget) (*BoundedView, bool, error) {
	// 非法预算在任何缓存查询和物理调用之前拒绝,不消耗限速令牌
	if err := g.engine.ValidateBudget(spec.Shape, budget); err != nil {
		return nil, false, err
	}

	result, cacheHit, err := g.FetchCanonical(ctx, spec)
	if err != nil {
		return nil, cacheHit, err
	}
	view, err := g.engine.Bound(result, spec.Shape, budget)
	return view, cacheHit, err
}

// FetchCanonical 执行一次逻辑请求并返回未裁剪的规范化结果
// 离线入库等需要完整数据的路径走这里;第二个返回值标记是否命中缓存
func (g *Gateway) FetchCanonical(ctx context.Context, spec *RequestSpec) (*CanonicalResult, bool, error) {
	fingerprint := spec.Fingerprint()

	if cached, ok := g.cache.Get(ctx, fingerprint); ok {
		g.metrics.observeCache(true)
		logx.Debug("Result cache hit, operation %s, fingerprint %s", spec.Operation, fingerprint[:12])
		return cached, true, nil
	}
	g.metrics.observeCache(false)

	result, err := g.dispatcher.Dispatch(ctx, spec)
	if err != nil {
		g.metrics.observeRequest(spec.Operation, OutcomeFailure)
		return nil, false, err
	}

	g.metrics.observeRequest(spec.Operation, result.Outcome)

	// 全败结果不进缓存,避免把一次抖动钉死整个 TTL 窗口
	if result.Outcome != OutcomeFailure {
		g.cache.Put(ctx, fingerprint, result, g.ttl)
	}

	logx.Info("Gateway request completed, operation %s, outcome %s, succeeded %d, failed %d",
		spec.Operation, result.Outcome, result.Succeeded, result.Failed)

	return result, false, nil
}
