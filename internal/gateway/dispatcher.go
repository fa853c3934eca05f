package gateway

import (
	"context"
	"sync"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
)

// Upstream 上游物理调用接口,由 internal/upstream 实现
// params 为本次物理调用携带的参数集,批量调用时多个,逐项调用时一个
type Upstream interface {
	Call(ctx context.Context, operation string, params []map[string]any) ([]byte, error)
	Batchable(operation string) bool
}

// Dispatcher 将一次逻辑操作展开为一或多次物理调用
// 每次物理调用先向 RateGovernor 取令牌;瞬时失败按策略重试,
// 重试耗尽只让对应子项失败,不牵连同批次的兄弟子项
type Dispatcher struct {
	upstream Upstream
	governor *RateGovernor
	policy   RetryPolicy
	metrics  *Metrics
}

// NewDispatcher 创建调度器
func NewDispatcher(upstream Upstream, governor *RateGovernor, policy RetryPolicy, metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		upstream: upstream,
		governor: governor,
		policy:   policy,
		metrics:  metrics,
	}
}

// Dispatch 执行一次逻辑请求并返回规范化结果
// 批量且上游不支持批量输入时逐子项并发调用,结果写回预留下标,
// 与请求子项的位置对应关系不受完成顺序影响
func (d *Dispatcher) Dispatch(ctx context.Context, spec *RequestSpec) (*CanonicalResult, error) {
	if spec.Shape == ShapeBulk && len(spec.Params) > 1 && !d.upstream.Batchable(spec.Operation) {
		return d.dispatchFanOut(ctx, spec)
	}

	raw, err := d.callWithRetry(ctx, spec.Operation, spec.Params)
	if err != nil {
		// 传输层失败:所有子项一并失败,结论为 Failure,不中断交付流程
		return failedResult(spec, err), nil
	}

	return Normalize(spec, raw)
}

// dispatchFanOut 逐子项并发调用
// 取消只作用于尚未完成的物理调用,已完成的子项在 PartialSuccess 中保持有效
func (d *Dispatcher) dispatchFanOut(ctx context.Context, spec *RequestSpec) (*CanonicalResult, error) {
	items := make([]ResultItem, len(spec.Params))

	var wg sync.WaitGroup
	for i, params := range spec.Params {
		wg.Add(1)
		go func(index int, params map[string]any) {
			defer wg.Done()
			items[index] = d.callSubItem(ctx, spec.Operation, index, params)
		}(i, params)
	}
	wg.Wait()

	return NewCanonicalResult(items), nil
}

// callSubItem 调用单个子项并规范化为一个结果条目
func (d *Dispatcher) callSubItem(ctx context.Context, operation string, index int, params map[string]any) ResultItem {
	raw, err := d.callWithRetry(ctx, operation, []map[string]any{params})
	if err != nil {
		return ResultItem{Index: index, ErrorMessage: err.Error()}
	}

	sub := &RequestSpec{Operation: operation, Params: []map[string]any{params}, Shape: ShapeSingle}
	result, err := Normalize(sub, raw)
	if err != nil {
		return ResultItem{Index: index, ErrorMessage: err.Error()}
	}

	// 单子项调用只产出一个条目;多于一个时取首个,上游不该这么回
	item := result.Items[0]
	item.Index = index
	return item
}

// callWithRetry 一次物理调用,瞬时失败按退避排程重试
func (d *Dispatcher) callWithRetry(ctx context.Context, operation string, params []map[string]any) ([]byte, error) {
	state := newRetryState(d.policy)

	for {
		waitStart := time.Now()
		if err := d.governor.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		d.metrics.observeRateWait(time.Since(waitStart).Seconds())

		raw, err := d.upstream.Call(ctx, operation, params)
		if err == nil {
			d.metrics.observeUpstream(operation, "success")
			return raw, nil
		}

		delay, retry := state.Next(err)
		if !retry {
			d.metrics.observeUpstream(operation, "failure")
			return nil, err
		}

		d.metrics.observeRetry()
		logx.Warn("Upstream call failed, operation %s, attempt %d, retrying in %s: %v",
			operation, state.Attempt(), delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.metrics.observeUpstream(operation, "failure")
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// failedResult 传输层整体失败时,为每个子项生成失败条目
func failedResult(spec *RequestSpec, err error) *CanonicalResult {
	n := len(spec.Params)
	if n == 0 {
		n = 1
	}
	items := make([]ResultItem, n)
	for i := range items {
		items[i] = ResultItem{Index: i, ErrorMessage: err.Error()}
	}
	return NewCanonicalResult(items)
}
