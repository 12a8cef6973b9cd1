package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LocalCache 基于 ristretto 的本地内存缓存（L1）。
type LocalCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewLocalCache 创建本地缓存。
// maxItems: 最大缓存条目数；超出后 ristretto 按访问频率淘汰旧条目。
// ttl: 条目存活时间。拼装是确定性的，TTL 的意义是让 tag 配置变更
// 在几分钟内生效，而不是数据正确性。
func NewLocalCache(maxItems int64, ttl time.Duration) (*LocalCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10, // 计数器数量，建议为 maxItems 的 10 倍
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		cache: c,
		ttl:   ttl,
	}, nil
}

func (l *LocalCache) Get(key string) (Entry, bool) {
	if v, ok := l.cache.Get(key); ok {
		return v.(Entry), true
	}
	return Entry{}, false
}

func (l *LocalCache) Set(key string, e Entry) {
	// cost=1 表示按条目数限制
	l.cache.SetWithTTL(key, e, 1, l.ttl)
}

// Wait 等待异步写缓冲落盘，测试里用。
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

func (l *LocalCache) Close() {
	l.cache.Close()
}
