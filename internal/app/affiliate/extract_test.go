package affiliate

import "testing"

func mustNormalize(t *testing.T, raw string) NormalizedURL {
	t.Helper()
	n, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize(%q): %v", raw, err)
	}
	return n
}

func TestExtractAmazonASIN(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"dp path", "https://www.amazon.com/dp/B0ABCD1234", "B0ABCD1234", true},
		{"dp with title prefix", "https://www.amazon.com/Some-Product-Title/dp/B0ABCD1234/ref=sr_1_1", "B0ABCD1234", true},
		{"gp product", "https://www.amazon.de/gp/product/B0WXYZ9876?psc=1", "B0WXYZ9876", true},
		{"mobile gp aw d", "https://www.amazon.co.jp/gp/aw/d/B0MOBILE12", "B0MOBILE12", true},
		{"lowercase uppercased", "https://www.amazon.com/dp/b0abcd1234", "B0ABCD1234", true},
		{"query param", "https://www.amazon.com/s?asin=B0QUERY123", "B0QUERY123", true},
		{"search page no id", "https://www.amazon.com/s?k=laptop+stand", "", false},
		{"too long segment", "https://www.amazon.com/dp/PROMOTION2025", "", false},
		{"too short segment", "https://www.amazon.com/dp/B0SHORT", "", false},
		{"bad charset", "https://www.amazon.com/dp/B0-BAD-123", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractID(mustNormalize(t, tt.url), FamilyAmazon)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && id.Value != tt.want {
				t.Errorf("id: got %q, want %q", id.Value, tt.want)
			}
		})
	}
}

// 规则序：具体的 path 规则必须先于宽松的兜底规则命中。
// 这里路径段提取为长度不合法的候选，query 里的合法 ASIN 由后续规则接住。
func TestExtractPriorityOrder(t *testing.T) {
	// path 候选 SALE20250101 超长被拒，query 规则给出合法 ASIN
	n := mustNormalize(t, "https://www.amazon.com/dp/SALE20250101?asin=B0REALID99")
	id, ok := ExtractID(n, FamilyAmazon)
	if !ok {
		t.Fatal("expected query fallback to match")
	}
	if id.Value != "B0REALID99" {
		t.Errorf("got %q, want query-sourced ASIN", id.Value)
	}

	// path 和 query 都合法时 path 规则优先
	n = mustNormalize(t, "https://www.amazon.com/dp/B0PATHID11?asin=B0QUERYID2")
	id, ok = ExtractID(n, FamilyAmazon)
	if !ok || id.Value != "B0PATHID11" {
		t.Errorf("got %q, want path-sourced ASIN", id.Value)
	}
}

func TestExtractEbayItem(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"itm direct", "https://www.ebay.com/itm/123456789012", "123456789012", true},
		{"itm with slug", "https://www.ebay.co.uk/itm/vintage-camera-lens/234567890123", "234567890123", true},
		{"product page", "https://www.ebay.com/p/2255432012", "2255432012", true},
		{"query param", "https://www.ebay.de/ws/eBayISAPI.dll?ViewItem&item=345678901234", "345678901234", true},
		{"search page", "https://www.ebay.com/sch/i.html?_nkw=camera", "", false},
		{"too few digits", "https://www.ebay.com/itm/1234", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractID(mustNormalize(t, tt.url), FamilyEbay)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && id.Value != tt.want {
				t.Errorf("id: got %q, want %q", id.Value, tt.want)
			}
		})
	}
}

func TestExtractUnknownFamily(t *testing.T) {
	n := mustNormalize(t, "https://shop.example.com/item/42")
	if _, ok := ExtractID(n, FamilyUnknown); ok {
		t.Error("unknown family should never extract an id")
	}
}
