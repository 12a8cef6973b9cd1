package affiliate

import (
	"net/url"
	"strings"
)

// ComposedLink 是拼装结果。创建后不再修改：缓存条目只会被整体替换。
type ComposedLink struct {
	URL     string
	Family  Family
	Region  RegionKey
	Tag     Tag
	IDBased bool
}

// amazon ID 模式的固定跟踪参数（Associates 链接契约要求的字段）。
const (
	amazonLinkCode = "ll1"
	amazonCamp     = "1789"
	amazonCreative = "9325"
)

// roverRotations 是 eBay Partner Network 按区域的 rotation ID。
// rover 跳转链里 mkrid 和路径里的 rotation 必须一致。
var roverRotations = map[RegionKey]string{
	RegionUS: "711-53200-19255-0",
	RegionGB: "710-53481-19255-0",
	RegionDE: "707-53477-19255-0",
	RegionFR: "709-53476-19255-0",
	RegionIT: "724-53478-19255-0",
	RegionES: "1185-53479-19255-0",
	RegionCA: "706-53473-19255-0",
	RegionAU: "705-53470-19255-0",
}

// tagParam 是降级模式下要设置/覆盖的 query 参数名。
func tagParam(family Family) string {
	switch family {
	case FamilyAmazon:
		return "tag"
	case FamilyEbay:
		return "campid"
	}
	return ""
}

// Compose 把商品 ID、区域和 tag 拼成最终外链。
//
// 两种模式，由是否提取到 ProductID 决定：
//  1. ID 模式：家族模板 + 区域门店域名 + 固定跟踪参数，原 query 全部丢弃
//  2. 降级模式：原 URL 原样保留，仅设置/覆盖 tag 参数，path 和其他参数不动
//
// tag 已知时拼装本身不会失败；上游的 ErrTagNotConfigured 由调用方处理
//（跳过拼装、原样返回），不会走到这里。
func Compose(u NormalizedURL, family Family, region RegionKey, tag Tag, id ProductID, hasID bool) ComposedLink {
	if !hasID {
		return composeFallback(u, family, region, tag)
	}

	switch family {
	case FamilyAmazon:
		return composeAmazon(region, tag, id)
	case FamilyEbay:
		return composeRover(region, tag, id)
	}
	return composeFallback(u, family, region, tag)
}

func composeAmazon(region RegionKey, tag Tag, id ProductID) ComposedLink {
	q := url.Values{}
	q.Set("tag", string(tag))
	q.Set("linkCode", amazonLinkCode)
	q.Set("camp", amazonCamp)
	q.Set("creative", amazonCreative)

	out := url.URL{
		Scheme:   "https",
		Host:     StorefrontDomain(FamilyAmazon, region),
		Path:     "/dp/" + id.Value,
		RawQuery: q.Encode(),
	}
	return ComposedLink{
		URL:     out.String(),
		Family:  FamilyAmazon,
		Region:  region,
		Tag:     tag,
		IDBased: true,
	}
}

// composeRover 构造经由 eBay rover 跟踪跳转服务的间接链接。
// campid/toolid/mkcid/mkevt/mkrid/mpre 全部是必填参数：
// 少一个整条链接就无法归因，这里不允许任何"可选增强"的理解。
func composeRover(region RegionKey, tag Tag, id ProductID) ComposedLink {
	rotation, ok := roverRotations[region]
	if !ok {
		rotation = roverRotations[DefaultRegion]
	}

	target := url.URL{
		Scheme: "https",
		Host:   StorefrontDomain(FamilyEbay, region),
		Path:   "/itm/" + id.Value,
	}

	q := url.Values{}
	q.Set("campid", string(tag))
	q.Set("toolid", "10001")
	q.Set("mkcid", "1")
	q.Set("mkevt", "1")
	q.Set("mkrid", rotation)
	q.Set("mpre", target.String())

	out := url.URL{
		Scheme:   "https",
		Host:     "rover.ebay.com",
		Path:     "/rover/1/" + rotation + "/1",
		RawQuery: q.Encode(),
	}
	return ComposedLink{
		URL:     out.String(),
		Family:  FamilyEbay,
		Region:  region,
		Tag:     tag,
		IDBased: true,
	}
}

// composeFallback 只动 tag 参数。为了不打乱原 query 里其他参数的形态，
// 在 RawQuery 上做最小替换而不是整体重编码。
func composeFallback(u NormalizedURL, family Family, region RegionKey, tag Tag) ComposedLink {
	out := u.URL()
	out.RawQuery = setQueryParam(out.RawQuery, tagParam(family), string(tag))
	return ComposedLink{
		URL:     out.String(),
		Family:  family,
		Region:  region,
		Tag:     tag,
		IDBased: false,
	}
}

// setQueryParam 在原始 query 串上设置/覆盖单个参数，其余 key=value 原样保留
//（包括它们原本的编码方式和顺序）。
func setQueryParam(rawQuery, key, value string) string {
	encoded := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if rawQuery == "" {
		return encoded
	}

	parts := strings.Split(rawQuery, "&")
	replaced := false
	for i, part := range parts {
		name := part
		if j := strings.IndexByte(part, '='); j >= 0 {
			name = part[:j]
		}
		if decoded, err := url.QueryUnescape(name); err == nil && decoded == key {
			parts[i] = encoded
			replaced = true
		}
	}
	if !replaced {
		parts = append(parts, encoded)
	}
	return strings.Join(parts, "&")
}
