package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ShapeHint 请求结果的形状提示,决定有界交付策略
type ShapeHint string

const (
	// ShapeSingle 单对象结果,不做分页
	ShapeSingle ShapeHint = "single"
	// ShapeBulk 同构记录列表,使用 offset/limit 平铺分页
	ShapeBulk ShapeHint = "bulk-homogeneous"
	// ShapeHierarchical 嵌套元数据树,使用逐字段封顶
	ShapeHierarchical ShapeHint = "hierarchical"
)

// RequestSpec 一次逻辑上游请求
// Params 每个元素对应一个子项(如一个 vector id 或一个 coordinate)
type RequestSpec struct {
	Operation string           `json:"operation"`
	Params    []map[string]any `json:"params"`
	Shape     ShapeHint        `json:"shape"`
}

// Fingerprint 计算请求指纹,作为缓存键
// 对操作名 + 排序后的参数做稳定哈希,与参数书写顺序无关
func (s *RequestSpec) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(s.Operation))
	h.Write([]byte{0})

	for _, params := range s.Params {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(fmt.Sprintf("%v", params[k]))
			sb.WriteByte(';')
		}
		h.Write([]byte(sb.String()))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Outcome 规范化结果的整体结论
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailure        Outcome = "failure"
)

// ResultItem 规范化结果中的一个条目
// Payload 与 ErrorMessage 互斥:失败条目只带错误文本
type ResultItem struct {
	Index        int             `json:"index"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// OK 条目是否成功
func (it *ResultItem) OK() bool {
	return it.ErrorMessage == ""
}

// CanonicalResult 规范化后的上游结果,与信封形状无关
type CanonicalResult struct {
	Outcome        Outcome      `json:"outcome"`
	Items          []ResultItem `json:"items"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	TotalAvailable int          `json:"total_available"`
}

// NewCanonicalResult 根据条目推导计数与整体结论
// 不变量: Succeeded+Failed == len(Items);
// 全部失败为 Failure,零失败且至少一个成功为 Success,其余为 PartialSuccess
func NewCanonicalResult(items []ResultItem) *CanonicalResult {
	result := &CanonicalResult{Items: items}
	for i := range items {
		if items[i].OK() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	switch {
	case result.Succeeded == 0:
		result.Outcome = OutcomeFailure
	case result.Failed == 0:
		result.Outcome = OutcomeSuccess
	default:
		result.Outcome = OutcomePartialSuccess
	}

	result.TotalAvailable = len(items)
	return result
}
