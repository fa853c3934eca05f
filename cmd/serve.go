package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/opsre/zenstat/internal/database"
	"github.com/opsre/zenstat/internal/imcp"
	"github.com/opsre/zenstat/internal/server"
	"github.com/opsre/zenstat/internal/service"
)

// serveCmd 服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动网关服务",
	Long:  `按配置启动 HTTP 与 MCP 两种表层,共享同一个网关实例与出站预算。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	// 初始化数据库
	database.SetPath(cfg.Database.Path)
	db := database.GetDB()
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	defer database.Close()

	registry := prometheus.NewRegistry()
	gw, up := buildGateway(cfg, registry)

	store := service.NewStoreService(db)
	fetchLog := service.NewFetchLogService(db)

	errCh := make(chan error, 2)

	var httpServer *server.HTTPGinServer
	if cfg.Server.HTTP.Enabled {
		httpServer = server.NewHTTPGinServer(cfg, gw, store, fetchLog, registry)
		go func() {
			if err := httpServer.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	if cfg.Server.MCP.Enabled {
		mcpServer := imcp.NewMCPServer(cfg, gw, up, store, fetchLog, Version)
		go func() {
			var err error
			switch cfg.Server.MCP.Transport {
			case "sse":
				err = mcpServer.ServeSSE(cfg.Server.MCP.Port)
			default:
				err = mcpServer.ServeStdio()
			}
			if err != nil {
				errCh <- err
			}
		}()
	}

	if !cfg.Server.HTTP.Enabled && !cfg.Server.MCP.Enabled {
		return fmt.Errorf("no server enabled, check server.http.enabled / server.mcp.enabled")
	}

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logx.Info("Received signal %s, shutting down", sig)
	}

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logx.Error("HTTP server shutdown failed: %v", err)
		}
	}

	logx.Info("Server stopped")
	return nil
}
