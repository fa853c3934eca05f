package imcp

import (
	"fmt"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/opsre/zenstat/internal/config"
	"github.com/opsre/zenstat/internal/gateway"
	"github.com/opsre/zenstat/internal/service"
	"github.com/opsre/zenstat/internal/upstream"
)

// MCPServer 面向助手消费者的 MCP 服务
// 工具输出经过网关的有界交付,永远不会把超预算的载荷塞给助手
type MCPServer struct {
	config   *config.Config
	gateway  *gateway.Gateway
	upstream *upstream.Client
	store    *service.StoreService
	fetchLog *service.FetchLogService
	server   *server.MCPServer
}

// NewMCPServer 创建 MCP 服务并注册工具
func NewMCPServer(cfg *config.Config, gw *gateway.Gateway, up *upstream.Client,
	store *service.StoreService, fetchLog *service.FetchLogService, version string) *MCPServer {

	s := &MCPServer{
		config:   cfg,
		gateway:  gw,
		upstream: up,
		store:    store,
		fetchLog: fetchLog,
	}

	s.server = server.NewMCPServer(
		"zenstat",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.registerTools()
	return s
}

// registerTools 注册全部工具
func (s *MCPServer) registerTools() {
	s.server.AddTool(mcp.NewTool("get_series_data",
		mcp.WithDescription("查询一个或多个向量的最近 N 期数据,支持 offset/limit 分页"),
		mcp.WithString("vectors", mcp.Required(), mcp.Description("向量 ID,逗号分隔,如 32164132,32164133")),
		mcp.WithNumber("latest_n", mcp.Description("每个向量取最近几期,默认 10")),
		mcp.WithNumber("offset", mcp.Description("分页起点,默认 0")),
		mcp.WithNumber("limit", mcp.Description("本页条数,默认取配置值")),
	), s.handleGetSeriesData)

	s.server.AddTool(mcp.NewTool("get_bulk_vector_range",
		mcp.WithDescription("按日期范围批量查询向量数据,支持 offset/limit 分页"),
		mcp.WithString("vectors", mcp.Required(), mcp.Description("向量 ID,逗号分隔")),
		mcp.WithString("start_date", mcp.Description("起始发布日期,如 2024-01-01")),
		mcp.WithString("end_date", mcp.Description("结束发布日期,如 2024-12-31")),
		mcp.WithNumber("offset", mcp.Description("分页起点,默认 0")),
		mcp.WithNumber("limit", mcp.Description("本页条数,默认取配置值")),
	), s.handleGetBulkVectorRange)

	s.server.AddTool(mcp.NewTool("get_series_info",
		mcp.WithDescription("查询向量的序列信息(标题、坐标、频率等)"),
		mcp.WithString("vectors", mcp.Required(), mcp.Description("向量 ID,逗号分隔")),
	), s.handleGetSeriesInfo)

	s.server.AddTool(mcp.NewTool("get_cube_metadata",
		mcp.WithDescription("查询数据立方的维度/成员元数据树,超长成员列表会按上限截短并给出续取指引"),
		mcp.WithString("product_id", mcp.Required(), mcp.Description("数据立方的 product ID,如 35100003")),
		mcp.WithNumber("member_cap", mcp.Description("每个列表字段保留的最大成员数,默认取配置值")),
	), s.handleGetCubeMetadata)

	s.server.AddTool(mcp.NewTool("search_cubes",
		mcp.WithDescription("按关键词搜索数据立方列表,支持 offset/limit 分页"),
		mcp.WithString("keyword", mcp.Description("标题关键词,留空列出全部")),
		mcp.WithNumber("offset", mcp.Description("分页起点,默认 0")),
		mcp.WithNumber("limit", mcp.Description("本页条数,默认取配置值")),
	), s.handleSearchCubes)

	s.server.AddTool(mcp.NewTool("get_changed_series",
		mcp.WithDescription("查询指定日期有数据变更的序列,支持 offset/limit 分页"),
		mcp.WithString("date", mcp.Required(), mcp.Description("日期,如 2024-01-15")),
		mcp.WithNumber("offset", mcp.Description("分页起点,默认 0")),
		mcp.WithNumber("limit", mcp.Description("本页条数,默认取配置值")),
	), s.handleGetChangedSeries)

	s.server.AddTool(mcp.NewTool("save_series_to_store",
		mcp.WithDescription("拉取向量数据并写入本地离线库,之后可用 query_store 做 SQL 查询"),
		mcp.WithString("vectors", mcp.Required(), mcp.Description("向量 ID,逗号分隔")),
		mcp.WithNumber("latest_n", mcp.Description("每个向量取最近几期,默认 10")),
	), s.handleSaveSeriesToStore)

	s.server.AddTool(mcp.NewTool("query_store",
		mcp.WithDescription("对本地离线库执行只读 SQL 查询(仅 SELECT)"),
		mcp.WithString("sql", mcp.Required(), mcp.Description("SELECT 语句")),
		mcp.WithNumber("limit", mcp.Description("最多返回的行数,默认取配置值")),
	), s.handleQueryStore)
}

// ServeStdio 以 stdio 传输运行
func (s *MCPServer) ServeStdio() error {
	logx.Info("Starting MCP server on stdio")
	return server.ServeStdio(s.server)
}

// ServeSSE 以 SSE 传输运行
func (s *MCPServer) ServeSSE(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logx.Info("Starting MCP server on %s (sse)", addr)
	sse := server.NewSSEServer(s.server)
	return sse.Start(addr)
}
