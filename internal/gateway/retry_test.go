package gateway

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyBackoffGrowth(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		Multiplier:     2.0,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{10, 1 * time.Second},
	}

	for _, tc := range cases {
		if got := p.Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d): expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestRetryPolicyBackoffClampsAttempt(t *testing.T) {
	p := DefaultRetryPolicy()
	if got := p.Backoff(0); got != p.InitialBackoff {
		t.Errorf("Expected attempt 0 clamped to initial backoff %v, got %v", p.InitialBackoff, got)
	}
}

func TestRetryStateTransientExhaustsAttempts(t *testing.T) {
	state := newRetryState(RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	})
	transient := NewTransientError("connection reset", nil)

	delay, retry := state.Next(transient)
	if !retry || delay != 10*time.Millisecond {
		t.Errorf("Expected retry after 10ms, got retry=%v delay=%v", retry, delay)
	}

	delay, retry = state.Next(transient)
	if !retry || delay != 20*time.Millisecond {
		t.Errorf("Expected retry after 20ms, got retry=%v delay=%v", retry, delay)
	}

	// 第三次失败耗尽尝试次数
	_, retry = state.Next(transient)
	if retry {
		t.Error("Expected no retry after max attempts")
	}
	if state.Attempt() != 3 {
		t.Errorf("Expected 3 attempts recorded, got %d", state.Attempt())
	}
}

func TestRetryStateStopsOnPermanentError(t *testing.T) {
	state := newRetryState(DefaultRetryPolicy())

	if _, retry := state.Next(NewUpstreamError("invalid vector", nil)); retry {
		t.Error("Expected no retry for upstream-reported failure")
	}
}

func TestRetryStateStopsOnContextCancel(t *testing.T) {
	state := newRetryState(DefaultRetryPolicy())

	if _, retry := state.Next(context.Canceled); retry {
		t.Error("Expected no retry for canceled context")
	}

	state = newRetryState(DefaultRetryPolicy())
	if _, retry := state.Next(context.DeadlineExceeded); retry {
		t.Error("Expected no retry for deadline exceeded")
	}
}

func TestIsTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", NewTransientError("503", nil), true},
		{"upstream", NewUpstreamError("bad request", nil), false},
		{"validation", NewValidationError("limit must be positive"), false},
		{"normalization", NewNormalizationError("unknown shape", nil), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"unclassified", errors.New("boom"), true},
		{"wrapped transient", NewUpstreamError("outer", NewTransientError("inner", nil)), false},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%s): expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestErrorIsMatchesByType(t *testing.T) {
	err := NewValidationError("limit must be positive, got %d", -1)

	if !errors.Is(err, &Error{Type: ErrorTypeValidation}) {
		t.Error("Expected errors.Is to match by error type")
	}
	if errors.Is(err, &Error{Type: ErrorTypeTransient}) {
		t.Error("Expected errors.Is to reject different error type")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewTransientError("upstream unreachable", cause)

	if !errors.Is(err, cause) {
		t.Error("Expected wrapped cause to be reachable via errors.Is")
	}
}
