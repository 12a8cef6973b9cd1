package affiliate

import (
	"context"
	"errors"
	"sync/atomic"

	"deal.local/internal/app/affiliate/cache"
	"deal.local/internal/platform/metrics"
)

// Rewrite 是一次改写的结果。
// Affiliated=false 表示输出就是原始输入（未识别的站点或 tag 未配置），
// 调用方据此决定要不要展示"已加推广标识"。
type Rewrite struct {
	URL        string    `json:"url"`
	Affiliated bool      `json:"affiliated"`
	Family     Family    `json:"family,omitempty"`
	Region     RegionKey `json:"region,omitempty"`
	IDBased    bool      `json:"id_based"`
	CacheHit   bool      `json:"cache_hit"`
}

// Service 把整条流水线串起来：
// normalize → extract → resolve region → lookup tag → compose → cache。
//
// 并发模型：每次调用独立，唯一的共享状态是注册表（原子替换、读多写极少）
// 和缓存（并发安全）。核心自身不做任何 I/O。
type Service struct {
	registry atomic.Pointer[Registry]
	fallback FallbackResolver
	cache    *cache.LinkCache
}

// NewService 构造服务。fallback 和 linkCache 都允许为 nil：
// 前者降级到默认区域，后者退化为每次重算。
func NewService(reg *Registry, fallback FallbackResolver, linkCache *cache.LinkCache) *Service {
	s := &Service{
		fallback: fallback,
		cache:    linkCache,
	}
	s.registry.Store(reg)
	return s
}

// ReplaceRegistry 原子替换 tag 注册表（后台配置更新时调用）。
// 进行中的请求继续用旧表，缓存的 TTL 决定新表多快全面生效。
func (s *Service) ReplaceRegistry(reg *Registry) {
	s.registry.Store(reg)
}

// Registry 返回当前生效的注册表（状态接口用）。
func (s *Service) Registry() *Registry {
	return s.registry.Load()
}

// Rewrite 执行一次改写。
//
// 错误只有一种：ErrInvalidURL。其余情况一律降级：
// - 未识别的家族：原样返回，Affiliated=false
// - tag 未配置：原样返回，Affiliated=false
// - 提取不到商品 ID：降级为仅设置 tag 参数
func (s *Service) Rewrite(ctx context.Context, rawURL string, explicitRegion string) (Rewrite, error) {
	norm, err := Normalize(rawURL)
	if err != nil {
		metrics.LinkRewritesTotal.WithLabelValues("unknown", "invalid_url").Inc()
		return Rewrite{}, err
	}

	family := norm.Family()
	if family == FamilyUnknown {
		metrics.LinkRewritesTotal.WithLabelValues(family.String(), "unknown_family").Inc()
		return Rewrite{URL: norm.Raw(), Affiliated: false}, nil
	}

	var explicit RegionKey
	if explicitRegion != "" {
		// 非法的区域输入走正常探测链，不报错
		if r, ok := NormalizeRegion(explicitRegion); ok {
			explicit = r
		}
	}
	region := ResolveRegion(norm, explicit, s.fallback)

	if s.cache == nil {
		result := s.compute(norm, family, region)
		return result, nil
	}

	key := cache.Key(norm.Raw(), string(region))
	entry, hit, err := s.cache.GetOrCompute(ctx, key, func() (cache.Entry, error) {
		r := s.compute(norm, family, region)
		return toEntry(r), nil
	})
	if err != nil {
		return Rewrite{}, err
	}
	result := fromEntry(entry)
	result.CacheHit = hit
	return result, nil
}

// compute 是缓存未命中时的完整计算路径。
func (s *Service) compute(norm NormalizedURL, family Family, region RegionKey) Rewrite {
	tag, err := s.registry.Load().Lookup(family, region)
	if err != nil {
		if errors.Is(err, ErrTagNotConfigured) {
			metrics.LinkRewritesTotal.WithLabelValues(family.String(), "not_configured").Inc()
			// 安全网：占位/缺失的 tag 绝不能流出，原样返回
			return Rewrite{URL: norm.Raw(), Affiliated: false, Family: family, Region: region}
		}
		// Lookup 目前只有 ErrTagNotConfigured 一种错误；防御未来扩展
		return Rewrite{URL: norm.Raw(), Affiliated: false, Family: family, Region: region}
	}

	id, hasID := ExtractID(norm, family)
	composed := Compose(norm, family, region, tag, id, hasID)

	outcome := "fallback_param"
	if composed.IDBased {
		outcome = "composed"
	}
	metrics.LinkRewritesTotal.WithLabelValues(family.String(), outcome).Inc()

	return Rewrite{
		URL:        composed.URL,
		Affiliated: true,
		Family:     family,
		Region:     region,
		IDBased:    composed.IDBased,
	}
}

func toEntry(r Rewrite) cache.Entry {
	return cache.Entry{
		URL:        r.URL,
		Affiliated: r.Affiliated,
		Family:     string(r.Family),
		Region:     string(r.Region),
		IDBased:    r.IDBased,
	}
}

func fromEntry(e cache.Entry) Rewrite {
	return Rewrite{
		URL:        e.URL,
		Affiliated: e.Affiliated,
		Family:     Family(e.Family),
		Region:     RegionKey(e.Region),
		IDBased:    e.IDBased,
	}
}
