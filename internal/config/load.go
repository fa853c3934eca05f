package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig 加载配置文件
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		// 默认配置文件搜索路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.zenstat")
		v.AddConfigPath("/etc/zenstat")
	}

	// 支持环境变量
	v.SetEnvPrefix("ZENSTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果是找不到配置文件,则使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 替换环境变量
	expandEnvVars(&config)

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Server 默认配置
	v.SetDefault("server.http.enabled", true)
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.mcp.enabled", true)
	v.SetDefault("server.mcp.transport", "stdio")
	v.SetDefault("server.mcp.port", 8081)

	// Upstream 默认配置
	v.SetDefault("upstream.base_url", "https://www150.statcan.gc.ca/t1/wds/rest")
	v.SetDefault("upstream.timeout_seconds", 30)

	// Rate 默认配置:上游限速是全体调用方共享的硬上限,默认留出余量
	v.SetDefault("rate.capacity", 25)
	v.SetDefault("rate.refill_per_second", 5)

	// Cache 默认配置
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.capacity", 256)
	v.SetDefault("cache.redis.addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis.db", 0)

	// Bounds 默认配置
	v.SetDefault("bounds.default_limit", 100)
	v.SetDefault("bounds.max_limit", 1000)
	v.SetDefault("bounds.member_cap", 20)

	// Retry 默认配置
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 200)
	v.SetDefault("retry.max_backoff_ms", 5000)
	v.SetDefault("retry.multiplier", 2.0)

	// Database 默认配置
	v.SetDefault("database.path", "./data/zenstat.db")
}

// expandEnvVars 展开环境变量
func expandEnvVars(config *Config) {
	config.Upstream.BaseURL = os.ExpandEnv(config.Upstream.BaseURL)
	config.Cache.Redis.Addr = os.ExpandEnv(config.Cache.Redis.Addr)
	config.Cache.Redis.Password = os.ExpandEnv(config.Cache.Redis.Password)
	config.Database.Path = os.ExpandEnv(config.Database.Path)
}
