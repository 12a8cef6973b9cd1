package cache

import (
	"context"
	"log/slog"
	"time"

	"deal.local/internal/platform/metrics"
	"github.com/redis/go-redis/v9"
)

const notFoundSentinel = "__nil__"

// TargetCache 缓存短码到跳转目标的映射（L1 本地 + L2 Redis）。
// value 是 repo 层序列化好的字符串，缓存层不关心内容。
type TargetCache struct {
	client   *redis.Client
	local    *LocalCache
	ttl      time.Duration
	emptyTTL time.Duration
}

func NewTargetCache(client *redis.Client, local *LocalCache) *TargetCache {
	return &TargetCache{
		client:   client,
		local:    local,
		ttl:      time.Hour,
		emptyTTL: 30 * time.Second,
	}
}

func (c *TargetCache) Get(ctx context.Context, code string) (string, error) {
	// L1: 本地缓存
	if c.local != nil {
		if v, ok := c.local.Get(code); ok {
			if v == notFoundSentinel {
				metrics.CacheOperations.WithLabelValues("l1", "hit_negative").Inc()
			} else {
				metrics.CacheOperations.WithLabelValues("l1", "hit").Inc()
			}
			return v, nil
		}
	}

	// L2: Redis
	key := "tl:" + code
	res, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.CacheOperations.WithLabelValues("l2", "miss").Inc()
		return "", nil // 缓存未命中
	}
	if err != nil {
		return "", err
	}
	if res == notFoundSentinel {
		metrics.CacheOperations.WithLabelValues("l2", "hit_negative").Inc()
	} else {
		metrics.CacheOperations.WithLabelValues("l2", "hit").Inc()
	}

	// 回填本地缓存
	if c.local != nil {
		if res == notFoundSentinel {
			c.local.SetNotFound(code)
		} else {
			c.local.Set(code, res)
		}
	}
	return res, nil
}

func (c *TargetCache) Set(ctx context.Context, code, value string) error {
	if c.local != nil {
		c.local.Set(code, value)
	}
	return c.client.Set(ctx, "tl:"+code, value, c.ttl).Err()
}

func (c *TargetCache) Delete(ctx context.Context, code string) error {
	if c.local != nil {
		c.local.Del(code)
	}
	return c.client.Del(ctx, "tl:"+code).Err()
}

// SetNotFound 用明确哨兵值做"负缓存"，避免缓存穿透。
// 不要用 "" 作为哨兵值（可读性差、也容易把"未命中"和"命中空值"混淆）。
func (c *TargetCache) SetNotFound(ctx context.Context, code string) error {
	if c.local != nil {
		c.local.SetNotFound(code)
	}
	return c.client.Set(ctx, "tl:"+code, notFoundSentinel, c.emptyTTL).Err()
}

// IsNotFound 判断缓存值是否是负缓存哨兵。
func IsNotFound(value string) bool {
	return value == notFoundSentinel
}

func (c *TargetCache) Close() {
	if c.local != nil {
		c.local.Close()
		slog.Info("local target cache closed")
	}
}
