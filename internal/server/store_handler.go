package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsre/zenstat/internal/model"
)

// storeQueryRequest 离线库查询请求体
type storeQueryRequest struct {
	SQL string `json:"sql" binding:"required"`
}

// handleStoreQuery 只读 SQL 查询离线库
func (s *HTTPGinServer) handleStoreQuery(c *gin.Context) {
	var req storeQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.Response{Code: 400, Message: err.Error()})
		return
	}

	rows, err := s.store.Query(req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.Response{Code: 400, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.Response{Code: 0, Message: "ok", Data: rows})
}

// handleListFetchLogs 查询网关请求日志
func (s *HTTPGinServer) handleListFetchLogs(c *gin.Context) {
	operation := c.Query("operation")
	outcome := c.Query("outcome")
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	logs, total, err := s.fetchLog.ListFetchLogs(operation, outcome, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.Response{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.Response{Code: 0, Message: "ok", Data: gin.H{
		"items": logs,
		"total": total,
	}})
}
