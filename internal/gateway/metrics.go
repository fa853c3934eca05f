package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 网关侧 Prometheus 指标
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	UpstreamCalls   *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	RateWaitSeconds prometheus.Histogram
}

// NewMetrics 创建并注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zenstat",
			Name:      "gateway_requests_total",
			Help:      "Logical gateway requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zenstat",
			Name:      "upstream_calls_total",
			Help:      "Physical upstream calls by operation and result.",
		}, []string{"operation", "result"}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zenstat",
			Name:      "upstream_retries_total",
			Help:      "Retry attempts against the upstream service.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zenstat",
			Name:      "result_cache_hits_total",
			Help:      "Result cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zenstat",
			Name:      "result_cache_misses_total",
			Help:      "Result cache misses.",
		}),
		RateWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zenstat",
			Name:      "rate_wait_seconds",
			Help:      "Time spent waiting for rate budget tokens.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestsTotal,
			m.UpstreamCalls,
			m.RetriesTotal,
			m.CacheHits,
			m.CacheMisses,
			m.RateWaitSeconds,
		)
	}
	return m
}

// observeRequest 记录一次逻辑请求
func (m *Metrics) observeRequest(operation string, outcome Outcome) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, string(outcome)).Inc()
}

// observeUpstream 记录一次物理调用
func (m *Metrics) observeUpstream(operation, result string) {
	if m == nil {
		return
	}
	m.UpstreamCalls.WithLabelValues(operation, result).Inc()
}

// observeRetry 记录一次重试
func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// observeCache 记录一次缓存查询
func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// observeRateWait 记录令牌等待时长
func (m *Metrics) observeRateWait(seconds float64) {
	if m == nil {
		return
	}
	m.RateWaitSeconds.Observe(seconds)
}
