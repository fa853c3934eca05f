package gateway

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func bulkSpec(operation string, n int) *RequestSpec {
	params := make([]map[string]any, n)
	for i := range params {
		params[i] = map[string]any{"vectorId": 100 + i}
	}
	return &RequestSpec{Operation: operation, Params: params, Shape: ShapeBulk}
}

func TestNormalizeStatusArrayPartialSuccess(t *testing.T) {
	raw := []byte(`[
		{"status":"SUCCESS","object":{"vectorId":100,"value":1.5}},
		{"status":"FAILED","object":"Vector does not exist"},
		{"status":"SUCCESS","object":{"vectorId":102,"value":2.5}}
	]`)

	result, err := Normalize(bulkSpec("getDataFromVectorsAndLatestNPeriods", 3), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomePartialSuccess {
		t.Errorf("Expected partial_success, got %s", result.Outcome)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("Expected 2 succeeded / 1 failed, got %d / %d", result.Succeeded, result.Failed)
	}
	if len(result.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(result.Items))
	}

	// 失败条目保持位置对应,错误文本带上游状态
	failed := result.Items[1]
	if failed.Index != 1 || failed.OK() {
		t.Errorf("Expected item 1 to be the failed one, got %+v", failed)
	}
	if !strings.Contains(failed.ErrorMessage, "FAILED") || !strings.Contains(failed.ErrorMessage, "Vector does not exist") {
		t.Errorf("Expected error text with status and reason, got %q", failed.ErrorMessage)
	}

	// 成功条目只携带 object 内的载荷
	var payload struct {
		VectorID int `json:"vectorId"`
	}
	if err := json.Unmarshal(result.Items[2].Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.VectorID != 102 {
		t.Errorf("Expected vectorId 102, got %d", payload.VectorID)
	}
}

func TestNormalizeStatusArrayAllFailed(t *testing.T) {
	raw := []byte(`[
		{"status":"FAILED","object":"no such vector"},
		{"status":"FAILED","object":{"responseStatusCode":2,"message":"bad coordinate"}}
	]`)

	result, err := Normalize(bulkSpec("getDataFromVectorsAndLatestNPeriods", 2), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomeFailure {
		t.Errorf("Expected failure, got %s", result.Outcome)
	}

	// 对象形式的错误载荷压成一行
	if !strings.Contains(result.Items[1].ErrorMessage, "bad coordinate") {
		t.Errorf("Expected compacted object error, got %q", result.Items[1].ErrorMessage)
	}
}

func TestNormalizeSingleObject(t *testing.T) {
	raw := []byte(`{"status":"SUCCESS","object":{"codeSets":{"frequency":[]}}}`)

	spec := &RequestSpec{Operation: "getCodeSets", Shape: ShapeSingle}
	result, err := Normalize(spec, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomeSuccess {
		t.Errorf("Expected success, got %s", result.Outcome)
	}
	if len(result.Items) != 1 || !result.Items[0].OK() {
		t.Fatalf("Expected single successful item, got %+v", result.Items)
	}
}

func TestNormalizeSingleObjectFailure(t *testing.T) {
	raw := []byte(`{"status":"FAILED","object":null}`)

	result, err := Normalize(&RequestSpec{Operation: "getCodeSets", Shape: ShapeSingle}, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomeFailure {
		t.Errorf("Expected failure, got %s", result.Outcome)
	}
	if !strings.Contains(result.Items[0].ErrorMessage, "FAILED") {
		t.Errorf("Expected status in error text, got %q", result.Items[0].ErrorMessage)
	}
}

func TestNormalizeBareArray(t *testing.T) {
	raw := []byte(`[{"productId":35100003},{"productId":35100004},{"productId":35100005}]`)

	result, err := Normalize(&RequestSpec{Operation: "getAllCubesListLite", Shape: ShapeBulk}, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 普通列表整体是一个成功条目,总量按列表元素计
	if result.Outcome != OutcomeSuccess {
		t.Errorf("Expected success, got %s", result.Outcome)
	}
	if len(result.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result.Items))
	}
	if result.TotalAvailable != 3 {
		t.Errorf("Expected total_available 3, got %d", result.TotalAvailable)
	}
}

func TestNormalizeEmptyArray(t *testing.T) {
	result, err := Normalize(&RequestSpec{Operation: "getChangedSeriesList", Shape: ShapeBulk}, []byte(`[]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != OutcomeSuccess {
		t.Errorf("Expected success for empty list, got %s", result.Outcome)
	}
	if result.TotalAvailable != 0 {
		t.Errorf("Expected total_available 0, got %d", result.TotalAvailable)
	}
}

func TestNormalizeMixedArrayTreatedAsBareList(t *testing.T) {
	// 只要有一个元素不带 status,整体按普通列表处理
	raw := []byte(`[{"status":"SUCCESS","object":{}},{"productId":1}]`)

	result, err := Normalize(&RequestSpec{Operation: "getAllCubesList", Shape: ShapeBulk}, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Errorf("Expected bare list as one item, got %d items", len(result.Items))
	}
	if result.TotalAvailable != 2 {
		t.Errorf("Expected total_available 2, got %d", result.TotalAvailable)
	}
}

func TestNormalizeUnknownShape(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"scalar", `42`},
		{"string", `"hello"`},
		{"object without status", `{"vectorId":100}`},
		{"empty body", ``},
		{"malformed", `{"status":`},
	}

	for _, tc := range cases {
		_, err := Normalize(&RequestSpec{Operation: "getCodeSets", Shape: ShapeSingle}, []byte(tc.raw))
		if err == nil {
			t.Errorf("%s: expected normalization error", tc.name)
			continue
		}
		if !errors.Is(err, &Error{Type: ErrorTypeNormalization}) {
			t.Errorf("%s: expected normalization error type, got %v", tc.name, err)
		}
	}
}

func TestFingerprintStable(t *testing.T) {
	a := &RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    []map[string]any{{"vectorId": 100, "latestN": 5}},
	}
	b := &RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    []map[string]any{{"latestN": 5, "vectorId": 100}},
	}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Expected fingerprint to be independent of parameter key order")
	}
}

func TestFingerprintDistinguishes(t *testing.T) {
	base := &RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    []map[string]any{{"vectorId": 100, "latestN": 5}},
	}
	otherOp := &RequestSpec{
		Operation: "getSeriesInfoFromVector",
		Params:    []map[string]any{{"vectorId": 100, "latestN": 5}},
	}
	otherParams := &RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    []map[string]any{{"vectorId": 100, "latestN": 10}},
	}
	otherOrder := &RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    []map[string]any{{"latestN": 5}, {"vectorId": 100}},
	}

	fp := base.Fingerprint()
	for name, other := range map[string]*RequestSpec{
		"operation": otherOp, "params": otherParams, "param sets": otherOrder,
	} {
		if other.Fingerprint() == fp {
			t.Errorf("Expected different fingerprint when %s differ", name)
		}
	}
}
