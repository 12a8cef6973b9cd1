package affiliate

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"deal.local/internal/app/affiliate/cache"
)

func testRegistry() *Registry {
	return NewRegistry(map[Family]map[RegionKey]string{
		FamilyAmazon: {
			RegionUS: "mysite-20",
			RegionGB: "mysite-21",
		},
		FamilyEbay: {
			RegionUS: "5338177094",
		},
	})
}

func newTestService(t *testing.T, reg *Registry) (*Service, *cache.LinkCache) {
	t.Helper()
	local, err := cache.NewLocalCache(1000, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewLocalCache: %v", err)
	}
	lc := cache.NewLinkCache(local, nil, 5*time.Minute)
	t.Cleanup(lc.Close)
	return NewService(reg, nil, lc), lc
}

// 场景：配置齐全的商品页 → ID 模式改写，ref 被剥离，跟踪参数齐全
func TestRewriteProductPage(t *testing.T) {
	svc, _ := newTestService(t, testRegistry())

	got, err := svc.Rewrite(context.Background(), "https://www.amazon.com/dp/B0ABCD1234?ref=xyz", "")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !got.Affiliated || !got.IDBased {
		t.Fatalf("flags: %+v", got)
	}
	if got.Family != FamilyAmazon || got.Region != RegionUS {
		t.Errorf("family/region: %+v", got)
	}
	u, err := url.Parse(got.URL)
	if err != nil {
		t.Fatalf("output url: %v", err)
	}
	if u.Path != "/dp/B0ABCD1234" {
		t.Errorf("path: got %q", u.Path)
	}
	if u.Query().Get("tag") != "mysite-20" {
		t.Errorf("tag: got %q", u.Query().Get("tag"))
	}
	if u.Query().Get("ref") != "" {
		t.Error("ref should be stripped")
	}
}

// 场景：tag 是占位符 → 输出与输入逐字节相同，且标记为未推广
func TestRewritePassThroughWhenNotConfigured(t *testing.T) {
	reg := NewRegistry(map[Family]map[RegionKey]string{
		FamilyAmazon: {RegionUS: "YOUR_TAG_HERE"},
	})
	svc, _ := newTestService(t, reg)

	in := "https://www.amazon.com/dp/B0ABCD1234?ref=xyz"
	got, err := svc.Rewrite(context.Background(), in, "")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got.Affiliated {
		t.Error("should be flagged not affiliated")
	}
	if got.URL != in {
		t.Errorf("pass-through must be byte-identical:\n got %q\nwant %q", got.URL, in)
	}
}

// 场景：搜索页（无商品 ID）→ 仅设置 tag 参数，path 不变
func TestRewriteSearchPageFallback(t *testing.T) {
	svc, _ := newTestService(t, testRegistry())

	got, err := svc.Rewrite(context.Background(), "https://www.amazon.com/s?k=laptop+stand", "")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !got.Affiliated || got.IDBased {
		t.Fatalf("flags: %+v", got)
	}
	u, _ := url.Parse(got.URL)
	if u.Path != "/s" || u.Query().Get("k") != "laptop stand" {
		t.Errorf("original url shape changed: %s", got.URL)
	}
	if u.Query().Get("tag") != "mysite-20" {
		t.Errorf("tag: got %q", u.Query().Get("tag"))
	}
}

// 场景：explicit 区域覆盖 host 推断 → 使用覆盖区域的 tag 和域名
func TestRewriteExplicitRegionOverride(t *testing.T) {
	svc, _ := newTestService(t, testRegistry())

	got, err := svc.Rewrite(context.Background(), "https://www.amazon.com/dp/B0ABCD1234", "GB")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got.Region != RegionGB {
		t.Errorf("region: got %v, want GB", got.Region)
	}
	u, _ := url.Parse(got.URL)
	if u.Host != "www.amazon.co.uk" {
		t.Errorf("host: got %q, want GB storefront", u.Host)
	}
	if u.Query().Get("tag") != "mysite-21" {
		t.Errorf("tag: got %q, want GB tag", u.Query().Get("tag"))
	}
}

// 场景：TTL 内相同输入的第二次调用必须命中缓存且输出完全一致
func TestRewriteCacheHit(t *testing.T) {
	svc, lc := newTestService(t, testRegistry())

	in := "https://www.amazon.com/dp/B0ABCD1234"
	first, err := svc.Rewrite(context.Background(), in, "")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.CacheHit {
		t.Error("first call should not be a cache hit")
	}
	lc.Wait() // ristretto 的写入是异步的

	second, err := svc.Rewrite(context.Background(), in, "")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !second.CacheHit {
		t.Error("second call should hit the cache")
	}
	if second.URL != first.URL {
		t.Errorf("cached output differs:\n%q\n%q", second.URL, first.URL)
	}
}

func TestRewriteInvalidURL(t *testing.T) {
	svc, _ := newTestService(t, testRegistry())

	_, err := svc.Rewrite(context.Background(), "javascript:alert(1)", "")
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("got %v, want ErrInvalidURL", err)
	}
}

func TestRewriteUnknownHostPassesThrough(t *testing.T) {
	svc, _ := newTestService(t, testRegistry())

	in := "https://shop.example.com/item/42"
	got, err := svc.Rewrite(context.Background(), in, "")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got.Affiliated || got.URL != in {
		t.Errorf("unknown host should pass through untouched: %+v", got)
	}
}

// 配置替换后（缓存之外的路径）新 tag 立即生效
func TestReplaceRegistry(t *testing.T) {
	svc := NewService(testRegistry(), nil, nil) // 无缓存，直接走计算路径

	got, _ := svc.Rewrite(context.Background(), "https://www.amazon.com/dp/B0ABCD1234", "")
	u, _ := url.Parse(got.URL)
	if u.Query().Get("tag") != "mysite-20" {
		t.Fatalf("before swap: %q", u.Query().Get("tag"))
	}

	svc.ReplaceRegistry(NewRegistry(map[Family]map[RegionKey]string{
		FamilyAmazon: {RegionUS: "newsite-20"},
	}))

	got, _ = svc.Rewrite(context.Background(), "https://www.amazon.com/dp/B0ABCD1234", "")
	u, _ = url.Parse(got.URL)
	if u.Query().Get("tag") != "newsite-20" {
		t.Errorf("after swap: got %q, want newsite-20", u.Query().Get("tag"))
	}
}
