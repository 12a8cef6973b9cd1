package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"deal.local/internal/platform/metrics"
	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// Entry 是一条已拼装链接的缓存值。字段是扁平字符串，
// 序列化进 Redis 时不依赖领域包的类型。
type Entry struct {
	URL        string `json:"url"`
	Affiliated bool   `json:"affiliated"`
	Family     string `json:"family"`
	Region     string `json:"region"`
	IDBased    bool   `json:"id_based"`
}

// LinkCache 是改写结果的两级缓存：L1 本地（ristretto）、L2 Redis（可选）。
//
// 约定：
// - 同一 (原始URL, 区域) 在 TTL 窗口内重复调用必须直接返回既有结果
// - 不做 single-flight：调用来自 UI 渲染，竞争极低，偶尔重复计算无妨
// - 写丢失可接受（last-write-wins），读必须永远看到完整条目
type LinkCache struct {
	local *LocalCache
	rdb   *redis.Client
	ttl   time.Duration
}

// NewLinkCache 创建链接缓存。rdb 传 nil 时只有 L1。
func NewLinkCache(local *LocalCache, rdb *redis.Client, ttl time.Duration) *LinkCache {
	return &LinkCache{
		local: local,
		rdb:   rdb,
		ttl:   ttl,
	}
}

// Key 由原始 URL 和区域散列出缓存键。
// xxhash 不是加密散列，这里只需要均匀和快。
func Key(rawURL string, region string) string {
	h := xxhash.Sum64String(rawURL + "|" + region)
	return "al:" + strconv.FormatUint(h, 16)
}

// GetOrCompute 先查 L1，再查 L2，都未命中才调用 compute。
// 返回值第二项表示是否缓存命中。
func (c *LinkCache) GetOrCompute(ctx context.Context, key string, compute func() (Entry, error)) (Entry, bool, error) {
	if c.local != nil {
		if e, ok := c.local.Get(key); ok {
			metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			return e, true, nil
		}
		metrics.CacheOperations.WithLabelValues("l1", "miss").Inc()
	}

	if c.rdb != nil {
		res, err := c.rdb.Get(ctx, key).Result()
		if err == nil {
			var e Entry
			if jsonErr := json.Unmarshal([]byte(res), &e); jsonErr == nil {
				metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
				// 回填本地缓存
				if c.local != nil {
					c.local.Set(key, e)
				}
				return e, true, nil
			}
		} else if err == redis.Nil {
			metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		}
		// Redis 故障不挡请求：当作未命中往下走
	}

	e, err := compute()
	if err != nil {
		return Entry{}, false, err
	}

	if c.local != nil {
		c.local.Set(key, e)
	}
	if c.rdb != nil {
		if data, jsonErr := json.Marshal(e); jsonErr == nil {
			// 写失败可忽略：下次重算即可
			wctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			_ = c.rdb.Set(wctx, key, data, c.ttl).Err()
		}
	}
	return e, false, nil
}

// Wait 等待 L1 的异步写对读可见，测试里用。
func (c *LinkCache) Wait() {
	if c.local != nil {
		c.local.Wait()
	}
}

func (c *LinkCache) Close() {
	if c.local != nil {
		c.local.Close()
	}
}
