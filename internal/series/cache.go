package series

import (
	"context"
	"fmt"
	"sync"

	"stacker/internal/market"
)

// Loader 是缓存未命中时的回源入口；*Fetcher 即其实现。
type Loader interface {
	Fetch(ctx context.Context, q Query) []market.Candle
}

// Cache 以完全相等的 Query 为键做进程生命周期内的记忆化，不淘汰、无 TTL、
// 不跨进程共享。并发的相同查询允许重复回源：写入是同一键等值的幂等重算，
// 后写覆盖无碍正确性。
type Cache struct {
	loader Loader

	mu      sync.RWMutex
	entries map[Query][]market.Candle
}

func NewCache(loader Loader) (*Cache, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	return &Cache{loader: loader, entries: make(map[Query][]market.Candle)}, nil
}

// GetOrFetch 返回缓存命中的序列，否则回源并缓存结果（包含部分结果）。
func (c *Cache) GetOrFetch(ctx context.Context, q Query) []market.Candle {
	q = q.Normalize()
	c.mu.RLock()
	cached, ok := c.entries[q]
	c.mu.RUnlock()
	if ok {
		return cached
	}
	records := c.loader.Fetch(ctx, q)
	c.mu.Lock()
	c.entries[q] = records
	c.mu.Unlock()
	return records
}

// Len 返回当前缓存的查询数。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
