package imcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opsre/zenstat/internal/gateway"
)

// handleSaveSeriesToStore 拉取向量数据并写入离线库
func (s *MCPServer) handleSaveSeriesToStore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)

	raw, ok := args["vectors"].(string)
	if !ok || raw == "" {
		return mcp.NewToolResultError("vectors parameter is required"), nil
	}

	vectors, err := parseVectors(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	latestN := intArg(args, "latest_n", 10)
	params := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		params[i] = map[string]any{"vectorId": v, "latestN": latestN}
	}

	spec := &gateway.RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    params,
		Shape:     gateway.ShapeBulk,
	}

	// 入库需要完整数据,走未裁剪的规范化结果
	result, _, err := s.gateway.FetchCanonical(ctx, spec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	seriesCount, obsCount, err := s.store.SaveSeriesResult(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("已入库 %d 个序列、%d 条观测值 (结论: %s, 失败子项 %d 个)。可用 query_store 查询表 stored_series 与 stored_observations。",
		seriesCount, obsCount, outcomeLabel(result.Outcome), result.Failed)
	return mcp.NewToolResultText(text), nil
}

// handleQueryStore 只读 SQL 查询离线库
func (s *MCPServer) handleQueryStore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)

	sqlText, ok := args["sql"].(string)
	if !ok || sqlText == "" {
		return mcp.NewToolResultError("sql parameter is required"), nil
	}

	rows, err := s.store.Query(sqlText)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// 行数同样受预算约束,超限截断并提示
	limit := intArg(args, "limit", s.gateway.Engine().DefaultLimit())
	if limit <= 0 {
		return mcp.NewToolResultError(gateway.NewValidationError("limit must be positive, got %d", limit).Error()), nil
	}

	total := len(rows)
	truncated := total > limit
	if truncated {
		rows = rows[:limit]
	}

	encoded, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode rows: %v", err)), nil
	}

	text := fmt.Sprintf("查询返回 %d 行 (truncated: %t)\n", total, truncated)
	if truncated {
		text += fmt.Sprintf("guidance: Showing rows 1-%d of %d. Narrow the query or raise limit to fetch the remainder.\n", limit, total)
	}
	text += "\n" + string(encoded)

	return mcp.NewToolResultText(text), nil
}
