package imcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opsre/zenstat/internal/gateway"
)

// handleGetSeriesData 查询向量最近 N 期数据
func (s *MCPServer) handleGetSeriesData(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	view, err := s.run(ctx, spec, s.pageBudget(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := fmt.Sprintf("向量数据 (共 %d 个向量, 最近 %d 期)", len(vectors), latestN)
	return mcp.NewToolResultText(formatBoundedView(title, view)), nil
}

// handleGetBulkVectorRange 按日期范围批量查询向量数据
func (s *MCPServer) handleGetBulkVectorRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)

	raw, ok := args["vectors"].(string)
	if !ok || raw == "" {
		return mcp.NewToolResultError("vectors parameter is required"), nil
	}

	vectors, err := parseVectors(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	startDate, _ := args["start_date"].(string)
	endDate, _ := args["end_date"].(string)

	params := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		p := map[string]any{"vectorId": v}
		if startDate != "" {
			p["startDataPointReleaseDate"] = startDate
		}
		if endDate != "" {
			p["endDataPointReleaseDate"] = endDate
		}
		params[i] = p
	}

	spec := &gateway.RequestSpec{
		Operation: "getBulkVectorDataByRange",
		Params:    params,
		Shape:     gateway.ShapeBulk,
	}

	view, err := s.run(ctx, spec, s.pageBudget(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := fmt.Sprintf("向量区间数据 (共 %d 个向量, %s ~ %s)", len(vectors), startDate, endDate)
	return mcp.NewToolResultText(formatBoundedView(title, view)), nil
}

// handleGetSeriesInfo 查询向量的序列信息
func (s *MCPServer) handleGetSeriesInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)

	raw, ok := args["vectors"].(string)
	if !ok || raw == "" {
		return mcp.NewToolResultError("vectors parameter is required"), nil
	}

	vectors, err := parseVectors(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		params[i] = map[string]any{"vectorId": v}
	}

	spec := &gateway.RequestSpec{
		Operation: "getSeriesInfoFromVector",
		Params:    params,
		Shape:     gateway.ShapeBulk,
	}

	view, err := s.run(ctx, spec, gateway.Budget{Limit: s.gateway.Engine().DefaultLimit()})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := fmt.Sprintf("序列信息 (共 %d 个向量)", len(vectors))
	return mcp.NewToolResultText(formatBoundedView(title, view)), nil
}

// handleGetChangedSeries 查询指定日期有变更的序列
func (s *MCPServer) handleGetChangedSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)

	date, ok := args["date"].(string)
	if !ok || date == "" {
		return mcp.NewToolResultError("date parameter is required"), nil
	}

	spec := &gateway.RequestSpec{
		Operation: "getChangedSeriesList",
		Params:    []map[string]any{{"date": date}},
		Shape:     gateway.ShapeBulk,
	}

	view, err := s.run(ctx, spec, s.pageBudget(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := fmt.Sprintf("变更序列 (%s)", date)
	return mcp.NewToolResultText(formatBoundedView(title, view)), nil
}
