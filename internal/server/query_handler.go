package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opsre/zenstat/internal/gateway"
	"github.com/opsre/zenstat/internal/model"
	"github.com/opsre/zenstat/internal/service"
)

// bulkSeriesRequest 批量序列数据请求体
type bulkSeriesRequest struct {
	Vectors []int64 `json:"vectors" binding:"required"`
	LatestN int     `json:"latest_n"`
	Offset  int     `json:"offset"`
	Limit   int     `json:"limit"`
}

// handleGetSeriesData 查询单个向量的数据
func (s *HTTPGinServer) handleGetSeriesData(c *gin.Context) {
	vector, err := strconv.ParseInt(strings.TrimPrefix(c.Param("vector"), "v"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.Response{Code: 400, Message: "invalid vector id"})
		return
	}

	latestN := queryInt(c, "latest_n", 10)
	spec := &gateway.RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    []map[string]any{{"vectorId": vector, "latestN": latestN}},
		Shape:     gateway.ShapeBulk,
	}

	s.deliver(c, spec, gateway.Budget{
		Offset: queryInt(c, "offset", 0),
		Limit:  queryInt(c, "limit", s.gateway.Engine().DefaultLimit()),
	})
}

// handleBulkSeriesData 批量查询向量数据
func (s *HTTPGinServer) handleBulkSeriesData(c *gin.Context) {
	var req bulkSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{Code: 400, Message: err.Error()})
		return
	}

	if req.LatestN <= 0 {
		req.LatestN = 10
	}
	if req.Limit <= 0 {
		req.Limit = s.gateway.Engine().DefaultLimit()
	}

	params := make([]map[string]any, len(req.Vectors))
	for i, v := range req.Vectors {
		params[i] = map[string]any{"vectorId": v, "latestN": req.LatestN}
	}

	spec := &gateway.RequestSpec{
		Operation: "getDataFromVectorsAndLatestNPeriods",
		Params:    params,
		Shape:     gateway.ShapeBulk,
	}

	s.deliver(c, spec, gateway.Budget{Offset: req.Offset, Limit: req.Limit})
}

// handleGetCubeMetadata 查询数据立方元数据
func (s *HTTPGinServer) handleGetCubeMetadata(c *gin.Context) {
	product, err := strconv.ParseInt(c.Param("product"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.Response{Code: 400, Message: "invalid product id"})
		return
	}

	spec := &gateway.RequestSpec{
		Operation: "getCubeMetadata",
		Params:    []map[string]any{{"productId": product}},
		Shape:     gateway.ShapeHierarchical,
	}

	s.deliver(c, spec, gateway.Budget{
		MemberCap: queryInt(c, "member_cap", s.gateway.Engine().MemberCap()),
	})
}

// handleSearchCubes 数据立方列表,支持关键词过滤
// 全量列表经缓存共享,关键词过滤在规范化结果上进行,再按预算分页
func (s *HTTPGinServer) handleSearchCubes(c *gin.Context) {
	spec := &gateway.RequestSpec{
		Operation: "getAllCubesListLite",
		Params:    nil,
		Shape:     gateway.ShapeBulk,
	}

	budget := gateway.Budget{
		Offset: queryInt(c, "offset", 0),
		Limit:  queryInt(c, "limit", s.gateway.Engine().DefaultLimit()),
	}

	keyword := c.Query("keyword")
	if keyword == "" {
		s.deliver(c, spec, budget)
		return
	}

	// 非法预算同样在物理调用之前拒绝
	if err := s.gateway.Engine().ValidateBudget(gateway.ShapeBulk, budget); err != nil {
		s.respondError(c, err)
		return
	}

	result, _, err := s.gateway.FetchCanonical(c.Request.Context(), spec)
	if err != nil {
		s.respondError(c, err)
		return
	}

	filtered, err := service.FilterCubes(result, keyword)
	if err != nil {
		s.respondError(c, err)
		return
	}

	view, err := s.gateway.Engine().Bound(filtered, gateway.ShapeBulk, budget)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Code: 0, Message: "ok", Data: view})
}

// handleGetChangedSeries 指定日期的变更序列
func (s *HTTPGinServer) handleGetChangedSeries(c *gin.Context) {
	spec := &gateway.RequestSpec{
		Operation: "getChangedSeriesList",
		Params:    []map[string]any{{"date": c.Param("date")}},
		Shape:     gateway.ShapeBulk,
	}

	s.deliver(c, spec, gateway.Budget{
		Offset: queryInt(c, "offset", 0),
		Limit:  queryInt(c, "limit", s.gateway.Engine().DefaultLimit()),
	})
}

// deliver 执行网关请求并按统一信封返回有界视图
func (s *HTTPGinServer) deliver(c *gin.Context, spec *gateway.RequestSpec, budget gateway.Budget) {
	view, _, err := s.gateway.Fetch(c.Request.Context(), spec, budget)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Code: 0, Message: "ok", Data: view})
}

// respondError 把网关错误映射为 HTTP 状态:校验错误 400,其余 502
func (s *HTTPGinServer) respondError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, &gateway.Error{Type: gateway.ErrorTypeValidation}) {
		status = http.StatusBadRequest
	}
	c.JSON(status, model.Response{Code: status, Message: err.Error()})
}

// queryInt 读取整型查询参数
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
