package gateway

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Budget 单次交付的尺寸预算
type Budget struct {
	// Offset/Limit 平铺分页参数,仅对 bulk-homogeneous 生效
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	// MemberCap 层级封顶的默认逐字段上限,仅对 hierarchical 生效
	MemberCap int `json:"member_cap"`
	// FieldCaps 按字段名覆盖默认上限
	FieldCaps map[string]int `json:"field_caps,omitempty"`
}

// CappedField 一个被封顶的列表字段
type CappedField struct {
	Path       string `json:"path"`
	ShownCount int    `json:"shown_count"`
	TotalCount int    `json:"total_count"`
}

// Continuation 续取元数据,告诉消费者如何取回被省略的数据
type Continuation struct {
	Offset         int           `json:"offset,omitempty"`
	Limit          int           `json:"limit,omitempty"`
	TotalAvailable int           `json:"total_available,omitempty"`
	CappedFields   []CappedField `json:"capped_fields,omitempty"`
}

// BoundedView 面向上下文受限消费者的有界投影
// Succeeded/Failed 照搬规范化结果的计数,裁剪不改变成败统计
type BoundedView struct {
	Preview      json.RawMessage `json:"preview"`
	Outcome      Outcome         `json:"outcome"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	Truncated    bool            `json:"truncated"`
	Continuation *Continuation   `json:"continuation,omitempty"`
	Guidance     string          `json:"guidance,omitempty"`
	Errors       []ResultItem    `json:"errors,omitempty"`
}

// BoundedDeliveryEngine 有界交付引擎
// 两种策略:同构记录列表的平铺分页,嵌套元数据树的层级封顶
// 两种策略都幂等:对已有界视图以相同预算再次封顶得到相同视图
type BoundedDeliveryEngine struct {
	defaultLimit int
	maxLimit     int
	memberCap    int
}

// NewBoundedDeliveryEngine 创建交付引擎
func NewBoundedDeliveryEngine(defaultLimit, maxLimit, memberCap int) *BoundedDeliveryEngine {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	if maxLimit <= 0 {
		maxLimit = 1000
	}
	if memberCap <= 0 {
		memberCap = 20
	}
	return &BoundedDeliveryEngine{
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		memberCap:    memberCap,
	}
}

// DefaultLimit 默认分页大小
func (e *BoundedDeliveryEngine) DefaultLimit() int { return e.defaultLimit }

// MemberCap 默认逐字段上限
func (e *BoundedDeliveryEngine) MemberCap() int { return e.memberCap }

// ValidateBudget 校验预算与形状是否匹配
// 在取数之前调用:非法预算必须在消耗任何限速令牌之前被拒绝
func (e *BoundedDeliveryEngine) ValidateBudget(shape ShapeHint, budget Budget) error {
	if shape == ShapeBulk && budget.Limit <= 0 {
		return NewValidationError("limit must be positive, got %d", budget.Limit)
	}
	return nil
}

// Bound 按形状提示与预算产出有界视图
// 校验失败在任何数据处理之前返回 ValidationError
func (e *BoundedDeliveryEngine) Bound(result *CanonicalResult, shape ShapeHint, budget Budget) (*BoundedView, error) {
	switch shape {
	case ShapeBulk:
		return e.boundFlat(result, budget)
	case ShapeHierarchical:
		return e.boundHierarchical(result, budget)
	default:
		return e.boundSingle(result)
	}
}

// boundSingle 单对象结果直接交付,不做截断
func (e *BoundedDeliveryEngine) boundSingle(result *CanonicalResult) (*BoundedView, error) {
	preview, err := json.Marshal(result.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return &BoundedView{
		Preview:   preview,
		Outcome:   result.Outcome,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Truncated: false,
		Errors:    failedItems(result),
	}, nil
}

// boundFlat 平铺分页:返回 records[offset : offset+limit]
func (e *BoundedDeliveryEngine) boundFlat(result *CanonicalResult, budget Budget) (*BoundedView, error) {
	if err := e.ValidateBudget(ShapeBulk, budget); err != nil {
		return nil, err
	}

	limit := budget.Limit
	if limit > e.maxLimit {
		limit = e.maxLimit
	}

	records := flattenRecords(result)
	total := len(records)

	// offset 钳制在 [0, total]
	offset := budget.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	end := offset + limit
	if end > total {
		end = total
	}

	preview, err := json.Marshal(records[offset:end])
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	truncated := end < total
	view := &BoundedView{
		Preview:   preview,
		Outcome:   result.Outcome,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Truncated: truncated,
		Continuation: &Continuation{
			Offset:         offset,
			Limit:          limit,
			TotalAvailable: total,
		},
		Guidance: flatGuidance(total, offset, end, limit),
		Errors:   failedItems(result),
	}
	return view, nil
}

// boundHierarchical 层级封顶:超长列表字段就地截短,兄弟字段与元素内容不变
func (e *BoundedDeliveryEngine) boundHierarchical(result *CanonicalResult, budget Budget) (*BoundedView, error) {
	memberCap := budget.MemberCap
	if memberCap <= 0 {
		memberCap = e.memberCap
	}

	var capped []CappedField
	previews := make([]ResultItem, len(result.Items))
	for i, item := range result.Items {
		previews[i] = item
		if !item.OK() || len(item.Payload) == 0 {
			continue
		}

		var tree any
		if err := json.Unmarshal(item.Payload, &tree); err != nil {
			// 非 JSON 载荷原样交付
			continue
		}

		path := ""
		if len(result.Items) > 1 {
			path = fmt.Sprintf("items[%d]", i)
		}
		tree = capTree(tree, path, memberCap, budget.FieldCaps, &capped)

		encoded, err := json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("failed to encode capped tree: %w", err)
		}
		previews[i].Payload = encoded
	}

	preview, err := json.Marshal(previews)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	sort.Slice(capped, func(i, j int) bool { return capped[i].Path < capped[j].Path })

	view := &BoundedView{
		Preview:   preview,
		Outcome:   result.Outcome,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Truncated: len(capped) > 0,
		Errors:    failedItems(result),
	}
	if len(capped) > 0 {
		view.Continuation = &Continuation{CappedFields: capped}
		view.Guidance = cappedGuidance(capped)
	}
	return view, nil
}

// capTree 递归封顶
// 列表长度超过上限时保留前 cap 个元素并记录封顶字段;不删除兄弟字段,不改元素内容
func capTree(node any, path string, defaultCap int, fieldCaps map[string]int, capped *[]CappedField) any {
	switch v := node.(type) {
	case map[string]any:
		// 键排序保证封顶记录顺序确定
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v[k] = capTree(v[k], joinPath(path, k), defaultCap, fieldCaps, capped)
		}
		return v

	case []any:
		fieldCap := defaultCap
		if override, ok := fieldCaps[lastSegment(path)]; ok && override > 0 {
			fieldCap = override
		}

		kept := v
		if len(v) > fieldCap {
			*capped = append(*capped, CappedField{
				Path:       path,
				ShownCount: fieldCap,
				TotalCount: len(v),
			})
			kept = v[:fieldCap]
		}
		for i := range kept {
			kept[i] = capTree(kept[i], fmt.Sprintf("%s[%d]", path, i), defaultCap, fieldCaps, capped)
		}
		return kept

	default:
		return v
	}
}

// flattenRecords 解析平铺分页的记录列表
// 单个成功条目携带 JSON 数组时按数组元素分页(普通列表结果),
// 否则按规范化条目逐条分页(批量子项结果)
func flattenRecords(result *CanonicalResult) []json.RawMessage {
	if len(result.Items) == 1 && result.Items[0].OK() {
		payload := result.Items[0].Payload
		var elements []json.RawMessage
		if err := json.Unmarshal(payload, &elements); err == nil {
			return elements
		}
	}

	records := make([]json.RawMessage, len(result.Items))
	for i, item := range result.Items {
		encoded, err := json.Marshal(item)
		if err != nil {
			encoded = []byte(fmt.Sprintf(`{"index":%d,"error_message":"encode failure"}`, item.Index))
		}
		records[i] = encoded
	}
	return records
}

// failedItems 提取失败条目,供消费者查看逐项错误
func failedItems(result *CanonicalResult) []ResultItem {
	if result.Failed == 0 {
		return nil
	}
	failed := make([]ResultItem, 0, result.Failed)
	for _, item := range result.Items {
		if !item.OK() {
			failed = append(failed, item)
		}
	}
	return failed
}

// flatGuidance 平铺分页的续取指引
// 由续取元数据确定性生成,可作为 (total, offset, end, limit) 的纯函数测试
func flatGuidance(total, offset, end, limit int) string {
	if end >= total {
		return fmt.Sprintf("All %d records delivered.", total)
	}
	return fmt.Sprintf("Showing records %d-%d of %d. Request offset=%d with limit=%d for the next page.",
		offset+1, end, total, end, limit)
}

// cappedGuidance 层级封顶的续取指引
func cappedGuidance(capped []CappedField) string {
	parts := make([]string, 0, len(capped))
	for _, f := range capped {
		parts = append(parts, fmt.Sprintf("field %s shows %d of %d entries", f.Path, f.ShownCount, f.TotalCount))
	}
	return fmt.Sprintf("Oversized fields were capped: %s. Request a higher member cap or fetch the field-specific operation for the remainder.",
		strings.Join(parts, "; "))
}

// joinPath 拼接字段路径
func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

// lastSegment 路径的末段字段名,用于按字段覆盖上限
func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.Index(path, "["); i >= 0 {
		path = path[:i]
	}
	return path
}
