package affiliate

import (
	"net/url"
	"strings"
	"testing"
)

func TestComposeAmazonIDBased(t *testing.T) {
	n := mustNormalize(t, "https://www.amazon.com/dp/B0ABCD1234?ref=xyz")
	id := ProductID{Value: "B0ABCD1234", Family: FamilyAmazon}

	link := Compose(n, FamilyAmazon, RegionGB, "mysite-21", id, true)

	if !link.IDBased {
		t.Fatal("expected ID-based composition")
	}
	u, err := url.Parse(link.URL)
	if err != nil {
		t.Fatalf("output not a valid url: %v", err)
	}
	if u.Host != "www.amazon.co.uk" {
		t.Errorf("host: got %q, want region storefront", u.Host)
	}
	if u.Path != "/dp/B0ABCD1234" {
		t.Errorf("path: got %q", u.Path)
	}
	q := u.Query()
	if q.Get("tag") != "mysite-21" {
		t.Errorf("tag param: got %q", q.Get("tag"))
	}
	for _, p := range []string{"linkCode", "camp", "creative"} {
		if q.Get(p) == "" {
			t.Errorf("tracking param %q missing", p)
		}
	}
	// 原 query 在 ID 模式下全部丢弃
	if q.Get("ref") != "" {
		t.Error("ref param should be stripped in ID-based mode")
	}
}

// rover 跳转链的必填参数一个都不能少
func TestComposeRoverRequiredParams(t *testing.T) {
	n := mustNormalize(t, "https://www.ebay.de/itm/123456789012")
	id := ProductID{Value: "123456789012", Family: FamilyEbay}

	link := Compose(n, FamilyEbay, RegionDE, "5338177094", id, true)

	u, err := url.Parse(link.URL)
	if err != nil {
		t.Fatalf("output not a valid url: %v", err)
	}
	if u.Host != "rover.ebay.com" {
		t.Errorf("host: got %q, want rover.ebay.com", u.Host)
	}
	q := u.Query()
	for _, p := range []string{"campid", "toolid", "mkcid", "mkevt", "mkrid", "mpre"} {
		if q.Get(p) == "" {
			t.Errorf("required rover param %q missing", p)
		}
	}
	if q.Get("campid") != "5338177094" {
		t.Errorf("campid: got %q", q.Get("campid"))
	}
	// mkrid 必须和路径里的 rotation 一致
	if !strings.Contains(u.Path, q.Get("mkrid")) {
		t.Errorf("path %q does not carry rotation %q", u.Path, q.Get("mkrid"))
	}
	// mpre 解码后指向区域门店的商品页
	target, err := url.Parse(q.Get("mpre"))
	if err != nil {
		t.Fatalf("mpre not a valid url: %v", err)
	}
	if target.Host != "www.ebay.de" || target.Path != "/itm/123456789012" {
		t.Errorf("mpre target: got %s", target.String())
	}
}

func TestComposeFallbackOnlyTouchesTagParam(t *testing.T) {
	raw := "https://www.amazon.com/s?k=laptop+stand&ref=nav&page=2"
	n := mustNormalize(t, raw)

	link := Compose(n, FamilyAmazon, RegionUS, "mysite-20", ProductID{}, false)

	if link.IDBased {
		t.Fatal("expected fallback composition")
	}
	u, err := url.Parse(link.URL)
	if err != nil {
		t.Fatalf("output not a valid url: %v", err)
	}
	if u.Path != "/s" {
		t.Errorf("path must not change: got %q", u.Path)
	}
	q := u.Query()
	if q.Get("tag") != "mysite-20" {
		t.Errorf("tag: got %q", q.Get("tag"))
	}
	if q.Get("k") != "laptop stand" || q.Get("ref") != "nav" || q.Get("page") != "2" {
		t.Errorf("unrelated params changed: %s", u.RawQuery)
	}
	// 其他参数保持原有编码形态
	if !strings.Contains(u.RawQuery, "k=laptop+stand") {
		t.Errorf("original encoding not preserved: %s", u.RawQuery)
	}
}

func TestComposeFallbackOverwritesExistingTag(t *testing.T) {
	n := mustNormalize(t, "https://www.amazon.com/s?k=shoes&tag=someone-else-20")

	link := Compose(n, FamilyAmazon, RegionUS, "mysite-20", ProductID{}, false)

	u, _ := url.Parse(link.URL)
	vals := u.Query()["tag"]
	if len(vals) != 1 || vals[0] != "mysite-20" {
		t.Errorf("tag values: got %v, want exactly [mysite-20]", vals)
	}
}

func TestComposeRoverUnknownRegionUsesDefaultRotation(t *testing.T) {
	n := mustNormalize(t, "https://www.ebay.in/itm/123456789012")
	id := ProductID{Value: "123456789012", Family: FamilyEbay}

	link := Compose(n, FamilyEbay, RegionIN, "5338177094", id, true)

	u, _ := url.Parse(link.URL)
	if u.Query().Get("mkrid") != roverRotations[DefaultRegion] {
		t.Errorf("mkrid: got %q, want default rotation", u.Query().Get("mkrid"))
	}
}
