package affiliate

import (
	"regexp"
	"strings"
)

// ProductID 是提取出的规范商品标识，只有通过家族格式校验才会被构造。
type ProductID struct {
	Value  string
	Family Family
}

// idRule 是一条有序提取规则：先 path 正则，再可选的 query 参数名。
// 顺序是设计约定：最具体的 path 模式在前，宽松的兜底在后——
// 促销/跟踪路径段可能被宽松规则误命中，必须让具体规则先试。
type idRule struct {
	path  *regexp.Regexp
	query string
}

var amazonRules = []idRule{
	// /dp/B0ABCDEFGH 是最常见的商品页形态
	{path: regexp.MustCompile(`(?i)/dp/([^/?#]+)`)},
	{path: regexp.MustCompile(`(?i)/gp/product/([^/?#]+)`)},
	{path: regexp.MustCompile(`(?i)/gp/aw/d/([^/?#]+)`)},
	{path: regexp.MustCompile(`(?i)/product/([^/?#]+)`)},
	{query: "asin"},
}

var ebayRules = []idRule{
	// /itm/123456789012 与带 slug 的 /itm/some-title/123456789012
	{path: regexp.MustCompile(`(?i)/itm/(\d+)$`)},
	{path: regexp.MustCompile(`(?i)/itm/[^/]+/(\d+)$`)},
	{path: regexp.MustCompile(`(?i)/p/(\d+)$`)},
	{query: "item"},
	{query: "itm"},
}

var familyRules = map[Family][]idRule{
	FamilyAmazon: amazonRules,
	FamilyEbay:   ebayRules,
}

// asinRe：ASIN 恰好 10 位大写字母/数字。
// 候选即使被 path 规则捕获，长度或字符集不符也一律拒绝，
// 否则形如 /dp/PROMO202517 的运营路径会被当成商品 ID。
var asinRe = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ebayItemRe：eBay item ID 是 9~15 位纯数字。
var ebayItemRe = regexp.MustCompile(`^\d{9,15}$`)

// ExtractID 按家族规则序提取商品 ID，返回第一个通过校验的候选。
// 没有规则命中是预期的常见情况（搜索页、店铺页），返回 ok=false 而不是错误；
// 调用方应降级为"仅改 query 参数"的改写模式。
func ExtractID(u NormalizedURL, family Family) (ProductID, bool) {
	rules, ok := familyRules[family]
	if !ok {
		return ProductID{}, false
	}

	path := u.Path()
	query := u.Query()

	for _, rule := range rules {
		var candidate string
		switch {
		case rule.path != nil:
			if m := rule.path.FindStringSubmatch(path); m != nil {
				candidate = m[1]
			}
		case rule.query != "":
			candidate = query.Get(rule.query)
		}
		if candidate == "" {
			continue
		}
		if id, valid := validateID(family, candidate); valid {
			return id, true
		}
	}
	return ProductID{}, false
}

// validateID 套用家族的规范格式。校验失败意味着"没提取到"，
// 继续尝试后续规则，绝不返回一个格式错误的 ID。
func validateID(family Family, candidate string) (ProductID, bool) {
	switch family {
	case FamilyAmazon:
		candidate = strings.ToUpper(candidate)
		if asinRe.MatchString(candidate) {
			return ProductID{Value: candidate, Family: family}, true
		}
	case FamilyEbay:
		if ebayItemRe.MatchString(candidate) {
			return ProductID{Value: candidate, Family: family}, true
		}
	}
	return ProductID{}, false
}
