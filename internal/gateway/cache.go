package gateway

import (
	"context"
	"sync"
	"time"
)

// Cache 规范化结果缓存
// 缓存存的是未裁剪的规范化结果,交付时每次重新封顶,
// 同一指纹下不同 offset/limit 的消费者共享同一条目
type Cache interface {
	Get(ctx context.Context, fingerprint string) (*CanonicalResult, bool)
	Put(ctx context.Context, fingerprint string, result *CanonicalResult, ttl time.Duration)
}

// cacheEntry 一条缓存记录
type cacheEntry struct {
	fingerprint    string
	result         *CanonicalResult
	insertedAt     time.Time
	expiresAt      time.Time
	lastAccessedAt time.Time
}

// MemoryCache 进程内 TTL + LRU 缓存
// 惰性过期:Get 时检查 expiresAt,过期条目视为不存在;
// 容量超限时先驱逐 lastAccessedAt 最旧的条目
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*cacheEntry

	// now 可注入,便于 TTL 边界测试
	now func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
		now:      time.Now,
	}
}

// Get 查询缓存,命中时刷新访问时间
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (*CanonicalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}

	now := c.now()
	if !now.Before(entry.expiresAt) {
		delete(c.entries, fingerprint)
		return nil, false
	}

	entry.lastAccessedAt = now
	return entry.result, true
}

// Put 写入缓存,整条替换而非原地修改
func (c *MemoryCache) Put(_ context.Context, fingerprint string, result *CanonicalResult, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[fingerprint]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked()
	}

	c.entries[fingerprint] = &cacheEntry{
		fingerprint:    fingerprint,
		result:         result,
		insertedAt:     now,
		expiresAt:      now.Add(ttl),
		lastAccessedAt: now,
	}
}

// evictLocked 驱逐最久未访问的条目
// 顺带清掉已过期条目;调用方必须持有 c.mu
func (c *MemoryCache) evictLocked() {
	now := c.now()
	var oldest *cacheEntry
	for _, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, entry.fingerprint)
			continue
		}
		if oldest == nil || entry.lastAccessedAt.Before(oldest.lastAccessedAt) {
			oldest = entry
		}
	}

	if len(c.entries) >= c.capacity && oldest != nil {
		delete(c.entries, oldest.fingerprint)
	}
}

// Len 当前条目数,用于测试
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
