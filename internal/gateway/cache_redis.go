package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix 缓存键前缀
const redisKeyPrefix = "zenstat:result:"

// RedisCache Redis 结果缓存
// 多副本部署时共享缓存用;TTL 由 Redis 管理,LRU 交给 maxmemory 策略
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 Redis 缓存并测试连接
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get 查询缓存
func (r *RedisCache) Get(ctx context.Context, fingerprint string) (*CanonicalResult, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if err != redis.Nil {
			logx.Warn("Redis cache get failed, fingerprint %s: %v", fingerprint, err)
		}
		return nil, false
	}

	var result CanonicalResult
	if err := json.Unmarshal(data, &result); err != nil {
		logx.Warn("Redis cache entry corrupted, fingerprint %s: %v", fingerprint, err)
		return nil, false
	}

	return &result, true
}

// Put 写入缓存
// 缓存失败只记日志,不影响交付
func (r *RedisCache) Put(ctx context.Context, fingerprint string, result *CanonicalResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		logx.Warn("Failed to encode result for redis cache: %v", err)
		return
	}

	if err := r.client.Set(ctx, redisKeyPrefix+fingerprint, data, ttl).Err(); err != nil {
		logx.Warn("Redis cache put failed, fingerprint %s: %v", fingerprint, err)
	}
}
