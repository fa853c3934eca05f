package imcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opsre/zenstat/internal/gateway"
)

// ==================== 参数解析 ====================

// toolArgs 取出工具调用参数表
func toolArgs(request mcp.CallToolRequest) map[string]any {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return args
}

// parseVectors 解析逗号分隔的向量 ID 列表
func parseVectors(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	vectors := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "v"))
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector id %q", part)
		}
		vectors = append(vectors, id)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vector ids provided")
	}
	return vectors, nil
}

// intArg 读取数值参数,缺失或非法时返回默认值
// MCP 参数经 JSON 解码后数值是 float64
func intArg(args map[string]any, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}

// pageBudget 从参数组装平铺分页预算
func (s *MCPServer) pageBudget(args map[string]any) gateway.Budget {
	return gateway.Budget{
		Offset: intArg(args, "offset", 0),
		Limit:  intArg(args, "limit", s.gateway.Engine().DefaultLimit()),
	}
}

// ==================== 请求执行 ====================

// run 执行一次网关请求,记录请求日志
func (s *MCPServer) run(ctx context.Context, spec *gateway.RequestSpec, budget gateway.Budget) (*gateway.BoundedView, error) {
	start := time.Now()
	view, cacheHit, err := s.gateway.Fetch(ctx, spec, budget)
	latency := time.Since(start)

	if s.fetchLog != nil {
		var canonical *gateway.CanonicalResult
		if view != nil {
			canonical = &gateway.CanonicalResult{
				Outcome:   view.Outcome,
				Succeeded: view.Succeeded,
				Failed:    view.Failed,
			}
		}
		if _, logErr := s.fetchLog.LogFetch(spec, canonical, cacheHit, latency); logErr != nil {
			logx.Warn("Failed to write fetch log: %v", logErr)
		}
	}

	return view, err
}

// ==================== 格式化函数 ====================

// formatBoundedView 把有界视图格式化为工具输出文本
// 截断标记与续取指引原样带给助手
func formatBoundedView(title string, view *gateway.BoundedView) string {
	var result strings.Builder
	result.WriteString(title)
	result.WriteString("\n\n")
	result.WriteString(fmt.Sprintf("结论: %s\n", outcomeLabel(view.Outcome)))

	if len(view.Errors) > 0 {
		result.WriteString(fmt.Sprintf("失败子项 %d 个:\n", len(view.Errors)))
		for _, item := range view.Errors {
			result.WriteString(fmt.Sprintf("  [%d] %s\n", item.Index, item.ErrorMessage))
		}
	}

	if view.Continuation != nil && view.Continuation.TotalAvailable > 0 {
		c := view.Continuation
		result.WriteString(fmt.Sprintf("分页: offset=%d limit=%d total=%d\n", c.Offset, c.Limit, c.TotalAvailable))
	}

	result.WriteString(fmt.Sprintf("truncated: %t\n", view.Truncated))
	if view.Guidance != "" {
		result.WriteString(fmt.Sprintf("guidance: %s\n", view.Guidance))
	}

	result.WriteString("\n数据:\n")
	result.Write(prettyJSON(view.Preview))
	result.WriteString("\n")

	return result.String()
}

// outcomeLabel 结论的可读标签
func outcomeLabel(outcome gateway.Outcome) string {
	switch outcome {
	case gateway.OutcomeSuccess:
		return "全部成功"
	case gateway.OutcomePartialSuccess:
		return "部分成功"
	case gateway.OutcomeFailure:
		return "全部失败"
	default:
		return string(outcome)
	}
}

// prettyJSON 缩进输出 JSON,失败时原样返回
func prettyJSON(raw json.RawMessage) []byte {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return raw
	}
	return encoded
}
