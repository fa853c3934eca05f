package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeUpstream 可编程的上游假实现
type fakeUpstream struct {
	mu        sync.Mutex
	calls     int
	batchable bool
	handler   func(call int, operation string, params []map[string]any) ([]byte, error)
}

func (f *fakeUpstream) Call(_ context.Context, operation string, params []map[string]any) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.handler(call, operation, params)
}

func (f *fakeUpstream) Batchable(string) bool { return f.batchable }

func (f *fakeUpstream) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func newTestDispatcher(up *fakeUpstream, policy RetryPolicy) *Dispatcher {
	return NewDispatcher(up, NewRateGovernor(1000, 1000), policy, nil)
}

func TestDispatchBatchableSingleCall(t *testing.T) {
	up := &fakeUpstream{
		batchable: true,
		handler: func(_ int, _ string, params []map[string]any) ([]byte, error) {
			envelopes := make([]string, len(params))
			for i, p := range params {
				envelopes[i] = fmt.Sprintf(`{"status":"SUCCESS","object":{"vectorId":%v}}`, p["vectorId"])
			}
			return []byte("[" + strings.Join(envelopes, ",") + "]"), nil
		},
	}
	d := newTestDispatcher(up, fastPolicy())

	result, err := d.Dispatch(context.Background(), bulkSpec("getDataFromVectorsAndLatestNPeriods", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if up.Calls() != 1 {
		t.Errorf("Expected one physical call for batchable operation, got %d", up.Calls())
	}
	if result.Outcome != OutcomeSuccess || len(result.Items) != 3 {
		t.Errorf("Expected 3 successful items, got %+v", result)
	}
}

func TestDispatchFanOutPreservesOrder(t *testing.T) {
	// 完成顺序与提交顺序无关,结果必须按请求子项位置排列
	up := &fakeUpstream{
		batchable: false,
		handler: func(_ int, _ string, params []map[string]any) ([]byte, error) {
			id := params[0]["vectorId"].(int)
			time.Sleep(time.Duration(110-id) * time.Millisecond / 10)
			return []byte(fmt.Sprintf(`{"status":"SUCCESS","object":{"vectorId":%d}}`, id)), nil
		},
	}
	d := newTestDispatcher(up, fastPolicy())

	result, err := d.Dispatch(context.Background(), bulkSpec("getDataFromCubePidCoordAndLatestNPeriods", 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if up.Calls() != 5 {
		t.Errorf("Expected 5 physical calls, got %d", up.Calls())
	}
	for i, item := range result.Items {
		if item.Index != i {
			t.Errorf("Expected item index %d at position %d", i, item.Index)
		}
		var payload struct {
			VectorID int `json:"vectorId"`
		}
		if err := json.Unmarshal(item.Payload, &payload); err != nil {
			t.Fatalf("item %d: %v", i, err)
		}
		if payload.VectorID != 100+i {
			t.Errorf("Expected vectorId %d at position %d, got %d", 100+i, i, payload.VectorID)
		}
	}
}

func TestDispatchFanOutIsolatesFailures(t *testing.T) {
	// 单个子项重试耗尽只让该子项失败,不牵连兄弟子项
	up := &fakeUpstream{
		batchable: false,
		handler: func(_ int, _ string, params []map[string]any) ([]byte, error) {
			id := params[0]["vectorId"].(int)
			if id == 101 {
				return nil, NewTransientError("connection reset", nil)
			}
			return []byte(fmt.Sprintf(`{"status":"SUCCESS","object":{"vectorId":%d}}`, id)), nil
		},
	}
	d := newTestDispatcher(up, fastPolicy())

	result, err := d.Dispatch(context.Background(), bulkSpec("getDataFromCubePidCoordAndLatestNPeriods", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomePartialSuccess {
		t.Errorf("Expected partial_success, got %s", result.Outcome)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("Expected 2/1, got %d/%d", result.Succeeded, result.Failed)
	}
	if result.Items[1].OK() {
		t.Error("Expected item 1 to carry the failure")
	}

	// 2 次成功 + 1 个子项重试 3 次
	if up.Calls() != 5 {
		t.Errorf("Expected 5 physical calls, got %d", up.Calls())
	}
}

func TestDispatchRetriesTransientThenSucceeds(t *testing.T) {
	up := &fakeUpstream{
		batchable: true,
		handler: func(call int, _ string, _ []map[string]any) ([]byte, error) {
			if call < 3 {
				return nil, NewTransientError("503 from upstream", nil)
			}
			return []byte(`{"status":"SUCCESS","object":{}}`), nil
		},
	}
	d := newTestDispatcher(up, fastPolicy())

	spec := &RequestSpec{Operation: "getCodeSets", Shape: ShapeSingle}
	result, err := d.Dispatch(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if up.Calls() != 3 {
		t.Errorf("Expected 3 attempts, got %d", up.Calls())
	}
	if result.Outcome != OutcomeSuccess {
		t.Errorf("Expected success after retries, got %s", result.Outcome)
	}
}

func TestDispatchDoesNotRetryPermanentError(t *testing.T) {
	up := &fakeUpstream{
		batchable: true,
		handler: func(_ int, _ string, _ []map[string]any) ([]byte, error) {
			return nil, NewUpstreamError("400 bad request", nil)
		},
	}
	d := newTestDispatcher(up, fastPolicy())

	result, err := d.Dispatch(context.Background(), bulkSpec("getDataFromVectorsAndLatestNPeriods", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if up.Calls() != 1 {
		t.Errorf("Expected single attempt for permanent error, got %d", up.Calls())
	}
	if result.Outcome != OutcomeFailure {
		t.Errorf("Expected failure outcome, got %s", result.Outcome)
	}
}

func TestDispatchTransportFailureFailsAllSubItems(t *testing.T) {
	up := &fakeUpstream{
		batchable: true,
		handler: func(_ int, _ string, _ []map[string]any) ([]byte, error) {
			return nil, NewTransientError("upstream unreachable", nil)
		},
	}
	d := newTestDispatcher(up, fastPolicy())

	result, err := d.Dispatch(context.Background(), bulkSpec("getDataFromVectorsAndLatestNPeriods", 4))
	if err != nil {
		t.Fatalf("Expected failed result rather than error, got %v", err)
	}

	if result.Outcome != OutcomeFailure {
		t.Errorf("Expected failure, got %s", result.Outcome)
	}
	if len(result.Items) != 4 || result.Failed != 4 {
		t.Errorf("Expected all 4 sub-items failed, got %+v", result)
	}
	for i, item := range result.Items {
		if item.Index != i || item.OK() {
			t.Errorf("Expected failed item at index %d, got %+v", i, item)
		}
	}
}

func TestDispatchCancelStopsRetries(t *testing.T) {
	up := &fakeUpstream{
		batchable: true,
		handler: func(_ int, _ string, _ []map[string]any) ([]byte, error) {
			return nil, NewTransientError("flaky", nil)
		},
	}
	d := NewDispatcher(up, NewRateGovernor(1000, 1000), RetryPolicy{
		MaxAttempts:    10,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := d.Dispatch(ctx, bulkSpec("getDataFromVectorsAndLatestNPeriods", 1))
	if err != nil {
		t.Fatalf("Expected failed result rather than error, got %v", err)
	}
	if result.Outcome != OutcomeFailure {
		t.Errorf("Expected failure on cancel, got %s", result.Outcome)
	}
	if up.Calls() > 2 {
		t.Errorf("Expected retries to stop on cancel, got %d calls", up.Calls())
	}
}
