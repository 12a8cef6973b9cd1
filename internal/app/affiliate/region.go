package affiliate

import "strings"

// RegionKey 是门店/区域的规范标识（ISO Alpha-2）。
type RegionKey string

const (
	RegionUS RegionKey = "US"
	RegionCA RegionKey = "CA"
	RegionGB RegionKey = "GB"
	RegionDE RegionKey = "DE"
	RegionFR RegionKey = "FR"
	RegionES RegionKey = "ES"
	RegionIT RegionKey = "IT"
	RegionIN RegionKey = "IN"
	RegionJP RegionKey = "JP"
	RegionAU RegionKey = "AU"
	RegionBR RegionKey = "BR"
	RegionMX RegionKey = "MX"
)

// DefaultRegion 是所有解析路径都失败后的兜底区域。
const DefaultRegion = RegionUS

var knownRegions = map[RegionKey]struct{}{
	RegionUS: {}, RegionCA: {}, RegionGB: {}, RegionDE: {},
	RegionFR: {}, RegionES: {}, RegionIT: {}, RegionIN: {},
	RegionJP: {}, RegionAU: {}, RegionBR: {}, RegionMX: {},
}

// regionAliases 把常见别名映射回规范代码（商家习惯写 UK 而不是 ISO 的 GB）。
var regionAliases = map[string]RegionKey{
	"UK": RegionGB,
}

// NormalizeRegion 把用户输入（大小写、别名）规整为已知的 RegionKey。
func NormalizeRegion(raw string) (RegionKey, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := regionAliases[normalized]; ok {
		normalized = string(canonical)
	}
	r := RegionKey(normalized)
	if _, ok := knownRegions[r]; ok {
		return r, true
	}
	return "", false
}

// hostSuffixRegions 按后缀推断区域。
// 顺序是约定的一部分：长后缀在前，否则 .com.au 会先被 .com 吃掉。
var hostSuffixRegions = []struct {
	suffix string
	region RegionKey
}{
	{".com.au", RegionAU},
	{".com.br", RegionBR},
	{".com.mx", RegionMX},
	{".co.uk", RegionGB},
	{".co.jp", RegionJP},
	{".ca", RegionCA},
	{".de", RegionDE},
	{".fr", RegionFR},
	{".es", RegionES},
	{".it", RegionIT},
	{".in", RegionIN},
	{".com", RegionUS},
}

// FallbackResolver 是宿主应用注入的区域探测能力
//（locale/时区/geo-IP 都可以，核心不关心实现）。
type FallbackResolver func() RegionKey

// ResolveRegion 解析请求应使用的区域。
//
// 优先级链（必须严格保持）：
//  1. explicit 覆盖（用户手动选择）
//  2. host 后缀匹配（长后缀优先）
//  3. 注入的 FallbackResolver
//  4. DefaultRegion
//
// 解析永不失败：fallback 缺失、panic 或返回未知区域都降级到默认值。
func ResolveRegion(u NormalizedURL, explicit RegionKey, fallback FallbackResolver) RegionKey {
	if explicit != "" {
		if r, ok := NormalizeRegion(string(explicit)); ok {
			return r
		}
	}

	host := u.Host()
	for _, entry := range hostSuffixRegions {
		if strings.HasSuffix(host, entry.suffix) {
			return entry.region
		}
	}

	if r, ok := safeFallback(fallback); ok {
		return r
	}

	return DefaultRegion
}

// safeFallback 调用注入的 resolver 并吞掉它的 panic。
// 协作方的契约是"返回一个区域、不要抛错"，但核心不依赖对方守约。
func safeFallback(fallback FallbackResolver) (r RegionKey, ok bool) {
	if fallback == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			r, ok = "", false
		}
	}()
	if candidate, valid := NormalizeRegion(string(fallback())); valid {
		return candidate, true
	}
	return "", false
}
