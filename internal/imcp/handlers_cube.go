package imcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opsre/zenstat/internal/gateway"
	"github.com/opsre/zenstat/internal/service"
)

// handleGetCubeMetadata 查询数据立方元数据树
func (s *MCPServer) handleGetCubeMetadata(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)

	// product_id 可能以数字或字符串传入,intArg 两者都认
	productID := intArg(args, "product_id", 0)
	if productID == 0 {
		return mcp.NewToolResultError("product_id parameter is required"), nil
	}

	spec := &gateway.RequestSpec{
		Operation: "getCubeMetadata",
		Params:    []map[string]any{{"productId": productID}},
		Shape:     gateway.ShapeHierarchical,
	}

	budget := gateway.Budget{
		MemberCap: intArg(args, "member_cap", s.gateway.Engine().MemberCap()),
	}

	view, err := s.run(ctx, spec, budget)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := fmt.Sprintf("数据立方元数据 (product %d)", productID)
	return mcp.NewToolResultText(formatBoundedView(title, view)), nil
}

// handleSearchCubes 按关键词搜索数据立方列表
// 全量列表经缓存共享,关键词过滤在规范化结果上进行,再按预算分页
func (s *MCPServer) handleSearchCubes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArgs(request)
	keyword, _ := args["keyword"].(string)

	spec := &gateway.RequestSpec{
		Operation: "getAllCubesListLite",
		Params:    nil,
		Shape:     gateway.ShapeBulk,
	}

	// 非法预算同样在物理调用之前拒绝
	budget := s.pageBudget(args)
	if err := s.gateway.Engine().ValidateBudget(gateway.ShapeBulk, budget); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, _, err := s.gateway.FetchCanonical(ctx, spec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filtered, err := service.FilterCubes(result, keyword)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	view, err := s.gateway.Engine().Bound(filtered, gateway.ShapeBulk, budget)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := fmt.Sprintf("数据立方搜索 (keyword=%q)", keyword)
	return mcp.NewToolResultText(formatBoundedView(title, view)), nil
}
