package imcp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/opsre/zenstat/internal/gateway"
)

func TestParseVectors(t *testing.T) {
	got, err := parseVectors("32164132, v32164133 ,32164134")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{32164132, 32164133, 32164134}
	if len(got) != len(want) {
		t.Fatalf("Expected %d vectors, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %d at %d, got %d", want[i], i, got[i])
		}
	}

	if _, err := parseVectors(""); err == nil {
		t.Error("Expected error for empty input")
	}
	if _, err := parseVectors("abc"); err == nil {
		t.Error("Expected error for non-numeric id")
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]any{
		"n":   float64(5),
		"s":   "7",
		"bad": "seven",
	}

	if got := intArg(args, "n", 1); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
	if got := intArg(args, "s", 1); got != 7 {
		t.Errorf("Expected string number parsed to 7, got %d", got)
	}
	if got := intArg(args, "bad", 1); got != 1 {
		t.Errorf("Expected fallback for unparseable value, got %d", got)
	}
	if got := intArg(args, "missing", 9); got != 9 {
		t.Errorf("Expected fallback for missing key, got %d", got)
	}
}

func TestFormatBoundedView(t *testing.T) {
	view := &gateway.BoundedView{
		Preview:   json.RawMessage(`[{"vectorId":100}]`),
		Outcome:   gateway.OutcomePartialSuccess,
		Truncated: true,
		Continuation: &gateway.Continuation{
			Offset:         0,
			Limit:          1,
			TotalAvailable: 3,
		},
		Guidance: "Showing records 1-1 of 3. Request offset=1 with limit=1 for the next page.",
		Errors: []gateway.ResultItem{
			{Index: 1, ErrorMessage: "upstream reported status FAILED"},
		},
	}

	text := formatBoundedView("序列数据", view)

	for _, fragment := range []string{
		"部分成功",
		"失败子项 1 个",
		"[1] upstream reported status FAILED",
		"offset=0 limit=1 total=3",
		"truncated: true",
		"Request offset=1 with limit=1",
		`"vectorId": 100`,
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("Expected output to contain %q, got:\n%s", fragment, text)
		}
	}
}

func TestFormatBoundedViewIdentical(t *testing.T) {
	view := &gateway.BoundedView{
		Preview: json.RawMessage(`[]`),
		Outcome: gateway.OutcomeSuccess,
	}

	// 相同视图两次格式化必须逐字节一致
	if formatBoundedView("t", view) != formatBoundedView("t", view) {
		t.Error("Expected deterministic formatting")
	}
}
