package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsre/zenstat/internal/config"
	"github.com/opsre/zenstat/internal/gateway"
	"github.com/opsre/zenstat/internal/service"
)

// HTTPGinServer 基于 Gin 的 HTTP 服务器
type HTTPGinServer struct {
	config   *config.Config
	engine   *gin.Engine
	server   *http.Server
	gateway  *gateway.Gateway
	store    *service.StoreService
	fetchLog *service.FetchLogService
	registry *prometheus.Registry
}

// NewHTTPGinServer 创建基于 Gin 的 HTTP 服务器
func NewHTTPGinServer(cfg *config.Config, gw *gateway.Gateway, store *service.StoreService,
	fetchLog *service.FetchLogService, registry *prometheus.Registry) *HTTPGinServer {

	// 设置 Gin 模式
	if cfg.Server.HTTP.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	s := &HTTPGinServer{
		config:   cfg,
		engine:   engine,
		gateway:  gw,
		store:    store,
		fetchLog: fetchLog,
		registry: registry,
	}

	// 注册中间件
	s.registerMiddlewares()

	// 注册路由
	s.registerRoutes()

	return s
}

// registerMiddlewares 注册中间件
func (s *HTTPGinServer) registerMiddlewares() {
	// 恢复中间件 - 从 panic 恢复
	s.engine.Use(gin.Recovery())

	// 自定义日志中间件
	s.engine.Use(s.loggingMiddleware())

	// CORS 中间件
	s.engine.Use(s.corsMiddleware())
}

// loggingMiddleware 自定义日志中间件
func (s *HTTPGinServer) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		logx.Info("HTTP request, method %s, path %s, status %d, duration %s",
			method, path, status, duration)
	}
}

// corsMiddleware CORS 中间件
func (s *HTTPGinServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// registerRoutes 注册路由
func (s *HTTPGinServer) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)

	if s.registry != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	api := s.engine.Group("/api/v1")
	{
		api.GET("/series/:vector/data", s.handleGetSeriesData)
		api.POST("/series/data", s.handleBulkSeriesData)
		api.GET("/cubes", s.handleSearchCubes)
		api.GET("/cubes/:product/metadata", s.handleGetCubeMetadata)
		api.GET("/changes/series/:date", s.handleGetChangedSeries)
		api.POST("/store/query", s.handleStoreQuery)
		api.GET("/logs/fetch", s.handleListFetchLogs)
	}
}

// handleHealthz 健康检查
func (s *HTTPGinServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start 启动 HTTP 服务器
func (s *HTTPGinServer) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Server.HTTP.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	logx.Info("Starting HTTP server on %s", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭
func (s *HTTPGinServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
