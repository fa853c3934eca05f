package config

// Config ZenStat 全量配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Rate     RateConfig     `mapstructure:"rate"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Bounds   BoundsConfig   `mapstructure:"bounds"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig 服务端配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	MCP  MCPConfig  `mapstructure:"mcp"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
	Debug   bool `mapstructure:"debug"`
}

// MCPConfig MCP 服务配置
// Transport 支持 stdio 与 sse
type MCPConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

// UpstreamConfig 上游统计数据服务配置
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RateConfig 出站限速预算
// 所有物理调用共享同一令牌桶
type RateConfig struct {
	Capacity        int     `mapstructure:"capacity"`
	RefillPerSecond float64 `mapstructure:"refill_per_second"`
}

// CacheConfig 结果缓存配置
// Type 支持 memory 与 redis
type CacheConfig struct {
	Type       string      `mapstructure:"type"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	Capacity   int         `mapstructure:"capacity"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig Redis 缓存后端配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BoundsConfig 有界交付预算
type BoundsConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
	MemberCap    int `mapstructure:"member_cap"`
}

// RetryConfig 瞬时失败重试配置
type RetryConfig struct {
	MaxAttempts      int     `mapstructure:"max_attempts"`
	InitialBackoffMS int     `mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int     `mapstructure:"max_backoff_ms"`
	Multiplier       float64 `mapstructure:"multiplier"`
}

// DatabaseConfig 离线存储配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}
