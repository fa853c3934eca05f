package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opsre/zenstat/internal/gateway"
)

// FilterCubes 按关键词过滤立方列表的规范化结果
// 列表结果是单个成功条目内的 JSON 数组;关键词为空时原样返回,
// 过滤后的结果仍走标准推导,保持结论/计数不变量
func FilterCubes(result *gateway.CanonicalResult, keyword string) (*gateway.CanonicalResult, error) {
	if keyword == "" || result.Outcome == gateway.OutcomeFailure || len(result.Items) != 1 {
		return result, nil
	}

	var cubes []json.RawMessage
	if err := json.Unmarshal(result.Items[0].Payload, &cubes); err != nil {
		return result, nil
	}

	needle := strings.ToLower(keyword)
	matched := make([]json.RawMessage, 0, 32)
	for _, cube := range cubes {
		if strings.Contains(strings.ToLower(string(cube)), needle) {
			matched = append(matched, cube)
		}
	}

	payload, err := json.Marshal(matched)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filtered cubes: %w", err)
	}

	filtered := gateway.NewCanonicalResult([]gateway.ResultItem{{Index: 0, Payload: payload}})
	filtered.TotalAvailable = len(matched)
	return filtered, nil
}
