package cache

import (
	"context"
	"testing"
	"time"
)

func newTestLinkCache(t *testing.T, ttl time.Duration) *LinkCache {
	t.Helper()
	local, err := NewLocalCache(1000, ttl)
	if err != nil {
		t.Fatalf("NewLocalCache: %v", err)
	}
	lc := NewLinkCache(local, nil, ttl)
	t.Cleanup(lc.Close)
	return lc
}

// TTL 内重复调用不得再触发 compute（用计数器观察）
func TestGetOrComputeMemoizes(t *testing.T) {
	lc := newTestLinkCache(t, time.Minute)

	calls := 0
	compute := func() (Entry, error) {
		calls++
		return Entry{URL: "https://www.amazon.com/dp/B0ABCD1234?tag=mysite-20", Affiliated: true}, nil
	}

	key := Key("https://www.amazon.com/dp/B0ABCD1234", "US")

	first, hit, err := lc.GetOrCompute(context.Background(), key, compute)
	if err != nil || hit {
		t.Fatalf("first: hit=%v err=%v", hit, err)
	}
	lc.Wait()

	second, hit, err := lc.GetOrCompute(context.Background(), key, compute)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !hit {
		t.Error("second call should be a cache hit")
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if second != first {
		t.Errorf("cached entry differs: %+v vs %+v", second, first)
	}
}

func TestGetOrComputeDistinctKeys(t *testing.T) {
	lc := newTestLinkCache(t, time.Minute)

	calls := 0
	compute := func() (Entry, error) {
		calls++
		return Entry{URL: "u"}, nil
	}

	if _, _, err := lc.GetOrCompute(context.Background(), Key("https://a.example", "US"), compute); err != nil {
		t.Fatal(err)
	}
	lc.Wait()
	if _, _, err := lc.GetOrCompute(context.Background(), Key("https://a.example", "GB"), compute); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("different (url,region) must compute separately, calls=%d", calls)
	}
}

// 同一 URL 不同区域的键不能撞在一起
func TestKeyIncludesRegion(t *testing.T) {
	if Key("https://a.example", "US") == Key("https://a.example", "GB") {
		t.Error("keys must differ by region")
	}
	if Key("https://a.example", "US") != Key("https://a.example", "US") {
		t.Error("key must be deterministic")
	}
}

func TestGetOrComputeTTLExpiry(t *testing.T) {
	lc := newTestLinkCache(t, 50*time.Millisecond)

	calls := 0
	compute := func() (Entry, error) {
		calls++
		return Entry{URL: "u"}, nil
	}

	key := Key("https://a.example", "US")
	if _, _, err := lc.GetOrCompute(context.Background(), key, compute); err != nil {
		t.Fatal(err)
	}
	lc.Wait()

	time.Sleep(100 * time.Millisecond)

	if _, hit, err := lc.GetOrCompute(context.Background(), key, compute); err != nil || hit {
		t.Fatalf("expired entry should miss: hit=%v err=%v", hit, err)
	}
	if calls != 2 {
		t.Errorf("compute should rerun after TTL, calls=%d", calls)
	}
}
