package cmd

import (
	"fmt"
	"os"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/opsre/zenstat/internal/config"
	"github.com/opsre/zenstat/internal/gateway"
	"github.com/opsre/zenstat/internal/upstream"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "zenstat",
	Short: "面向助手的统计数据服务网关",
	Long: `ZenStat 是统计数据服务的网关:把上游不稳定的响应信封规范化,
按共享预算治理出站调用频率,并对超预算结果做确定性的截断与续取指引,
通过 MCP 与 HTTP 两种方式提供给上下文受限的助手消费者。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径 (默认搜索 ./config.yaml)")
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildGateway 按配置组装网关
// 网关对象构造一次,引用传给各个表层
func buildGateway(cfg *config.Config, registry *prometheus.Registry) (*gateway.Gateway, *upstream.Client) {
	up := upstream.NewClient(cfg.Upstream.BaseURL, time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second)
	metrics := gateway.NewMetrics(registry)

	var cache gateway.Cache
	if cfg.Cache.Type == "redis" {
		redisCache, err := gateway.NewRedisCache(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err != nil {
			logx.Warn("Redis cache unavailable, falling back to memory cache: %v", err)
		} else {
			cache = redisCache
		}
	}

	gw := gateway.New(gateway.Config{
		RateCapacity:        cfg.Rate.Capacity,
		RateRefillPerSecond: cfg.Rate.RefillPerSecond,
		CacheTTL:            time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		CacheCapacity:       cfg.Cache.Capacity,
		DefaultLimit:        cfg.Bounds.DefaultLimit,
		MaxLimit:            cfg.Bounds.MaxLimit,
		MemberCap:           cfg.Bounds.MemberCap,
		Retry: gateway.RetryPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
			Multiplier:     cfg.Retry.Multiplier,
		},
	}, up, cache, metrics)

	return gw, up
}
