package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// 上游信封形状的封闭变体
// 同一逻辑操作有时返回单对象,有时返回数组;批量调用可能部分成功
// 形状只在这里判定一次,其余代码不做形状探测
type envelopeKind int

const (
	envelopeUnknown envelopeKind = iota
	// envelopeSingleObject 带 status 字段的裸对象
	envelopeSingleObject
	// envelopeStatusArray 数组,每个元素独立携带 status 与载荷,与请求子项按位置对应
	envelopeStatusArray
	// envelopeBareArray 无 status 包装的普通列表
	envelopeBareArray
)

// statusSuccess 上游成功信封的 status 取值
const statusSuccess = "SUCCESS"

// statusEnvelope 上游标准信封:status + 载荷
// 失败时 Object 携带错误描述
type statusEnvelope struct {
	Status string          `json:"status"`
	Object json.RawMessage `json:"object"`
}

// hasStatus 判断原始 JSON 对象是否携带非空 status 字段
func hasStatus(raw json.RawMessage) bool {
	var probe struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return probe.Status != nil && *probe.Status != ""
}

// classifyEnvelope 判定响应信封形状
func classifyEnvelope(raw []byte) (envelopeKind, []json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return envelopeUnknown, nil, fmt.Errorf("empty response body")
	}

	switch trimmed[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return envelopeUnknown, nil, fmt.Errorf("malformed array response: %w", err)
		}
		// 空数组按普通列表处理:一个空列表也是合法结果
		if len(elements) == 0 {
			return envelopeBareArray, elements, nil
		}
		// 所有元素都携带 status 才视为状态数组,否则整体视为普通列表
		for _, el := range elements {
			el = bytes.TrimSpace(el)
			if len(el) == 0 || el[0] != '{' || !hasStatus(el) {
				return envelopeBareArray, elements, nil
			}
		}
		return envelopeStatusArray, elements, nil
	case '{':
		if !hasStatus(trimmed) {
			return envelopeUnknown, nil, fmt.Errorf("object response without status field")
		}
		return envelopeSingleObject, nil, nil
	default:
		return envelopeUnknown, nil, fmt.Errorf("response is neither object nor array")
	}
}

// Normalize 将上游原始载荷规范化为 CanonicalResult
// 规则按序应用:
//  1. 列表且每个元素带 status → 按位置对应请求子项,逐元素成败
//  2. 列表但无 status 包装 → 整个列表作为单个成功条目
//  3. 带 status 的裸对象 → 按该字段判定的单个条目
//
// 不匹配任何规则时返回 NormalizationError,绝不 panic
func Normalize(spec *RequestSpec, raw []byte) (*CanonicalResult, error) {
	kind, elements, err := classifyEnvelope(raw)
	if err != nil {
		return nil, NewNormalizationError(
			fmt.Sprintf("unrecognized response shape for operation %s", spec.Operation), err)
	}

	switch kind {
	case envelopeStatusArray:
		items := make([]ResultItem, len(elements))
		for i, el := range elements {
			items[i] = normalizeElement(i, el)
		}
		return NewCanonicalResult(items), nil

	case envelopeBareArray:
		// 普通列表整体作为单个成功条目,分页在交付时按列表元素展开
		listRaw, err := json.Marshal(elements)
		if err != nil {
			return nil, NewNormalizationError("failed to re-encode list payload", err)
		}
		result := NewCanonicalResult([]ResultItem{{Index: 0, Payload: listRaw}})
		result.TotalAvailable = len(elements)
		return result, nil

	case envelopeSingleObject:
		item := normalizeElement(0, raw)
		return NewCanonicalResult([]ResultItem{item}), nil

	default:
		return nil, NewNormalizationError(
			fmt.Sprintf("unrecognized response shape for operation %s", spec.Operation), nil)
	}
}

// normalizeElement 将一个带 status 的信封元素转为结果条目
func normalizeElement(index int, raw json.RawMessage) ResultItem {
	var env statusEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ResultItem{Index: index, ErrorMessage: fmt.Sprintf("malformed envelope element: %v", err)}
	}

	if env.Status == statusSuccess {
		return ResultItem{Index: index, Payload: env.Object}
	}

	return ResultItem{Index: index, ErrorMessage: extractErrorText(env.Status, env.Object)}
}

// extractErrorText 从失败信封中提取错误文本
// 上游的错误载荷可能是字符串、对象或缺失,统一压成一行描述
func extractErrorText(status string, object json.RawMessage) string {
	trimmed := bytes.TrimSpace(object)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Sprintf("upstream reported status %s", status)
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil && text != "" {
		return fmt.Sprintf("upstream reported status %s: %s", status, strings.TrimSpace(text))
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, trimmed); err == nil {
		return fmt.Sprintf("upstream reported status %s: %s", status, compact.String())
	}

	return fmt.Sprintf("upstream reported status %s", status)
}
