package affiliate

import "strings"

// Family 标识一个 marketplace 家族：同一家族共享一套商品 ID 提取规则
// 和一套链接拼装模板。
type Family string

const (
	FamilyUnknown Family = ""
	FamilyAmazon  Family = "amazon"
	FamilyEbay    Family = "ebay"
)

// familyHosts 把 host 中的核心标识映射到家族。
// 用二级域名标识而不是完整 host，同一家族的所有区域站点
//（amazon.com / amazon.co.uk / amazon.de ...）共用一条规则。
var familyHosts = map[string]Family{
	"amazon": FamilyAmazon,
	"ebay":   FamilyEbay,
}

// FamilyForHost 从 host 推断家族。不认识的 host 返回 FamilyUnknown，
// 调用方应将其视为"不做改写"而不是错误。
func FamilyForHost(host string) Family {
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	labels := strings.Split(host, ".")
	for _, label := range labels {
		if f, ok := familyHosts[label]; ok {
			return f
		}
	}
	return FamilyUnknown
}

func (f Family) String() string {
	if f == FamilyUnknown {
		return "unknown"
	}
	return string(f)
}

// storefrontDomains 是每个家族按区域的门店域名。
// Amazon 部分来源于公开的 marketplace 列表。
var storefrontDomains = map[Family]map[RegionKey]string{
	FamilyAmazon: {
		RegionUS: "www.amazon.com",
		RegionCA: "www.amazon.ca",
		RegionGB: "www.amazon.co.uk",
		RegionDE: "www.amazon.de",
		RegionFR: "www.amazon.fr",
		RegionES: "www.amazon.es",
		RegionIT: "www.amazon.it",
		RegionIN: "www.amazon.in",
		RegionJP: "www.amazon.co.jp",
		RegionAU: "www.amazon.com.au",
		RegionBR: "www.amazon.com.br",
		RegionMX: "www.amazon.com.mx",
	},
	FamilyEbay: {
		RegionUS: "www.ebay.com",
		RegionCA: "www.ebay.ca",
		RegionGB: "www.ebay.co.uk",
		RegionDE: "www.ebay.de",
		RegionFR: "www.ebay.fr",
		RegionES: "www.ebay.es",
		RegionIT: "www.ebay.it",
		RegionIN: "www.ebay.in",
		RegionAU: "www.ebay.com.au",
	},
}

// StorefrontDomain 返回家族在指定区域的门店域名；
// 区域没有对应站点时退回默认区域（和区域解析的降级方向保持一致）。
func StorefrontDomain(f Family, region RegionKey) string {
	domains, ok := storefrontDomains[f]
	if !ok {
		return ""
	}
	if d, ok := domains[region]; ok {
		return d
	}
	return domains[DefaultRegion]
}
