package affiliate

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// Tag 是绑定到 (Family, RegionKey) 的追踪凭证。
type Tag string

// ErrTagNotConfigured：指定家族+区域没有可用的（非占位符）tag。
//
// 设计原因：
// - 必须是可区分的错误种类，不能并进一般性失败：
//   上层对它的正确处理是"跳过拼装、原样返回"，而不是报错
var ErrTagNotConfigured = errors.New("affiliate tag not configured")

// placeholderMarkers 是模板默认值的标记子串。
// 命中任意一个（不分大小写、不限位置）即视为未配置——
// 占位 tag 一旦进入线上外链，点击归因就全部作废。
var placeholderMarkers = []string{
	"your_",
	"replace",
	"placeholder",
}

// IsPlaceholder 判断 tag 值是否还是模板默认值。
func IsPlaceholder(tag string) bool {
	lower := strings.ToLower(tag)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// 形式校验：amazon tag 形如 mysite-21；ebay campid 是 8~12 位数字。
var (
	amazonTagRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{1,48}$`)
	ebayTagRe   = regexp.MustCompile(`^\d{8,12}$`)
)

func wellFormed(family Family, tag string) bool {
	if tag == "" || IsPlaceholder(tag) {
		return false
	}
	switch family {
	case FamilyAmazon:
		return amazonTagRe.MatchString(tag)
	case FamilyEbay:
		return ebayTagRe.MatchString(tag)
	}
	return false
}

// ValidTag 判断标签能否进入注册表：非空、非占位符、符合家族格式。
// 管理接口在写库前用它做前置校验。
func ValidTag(family Family, tag string) bool {
	return wellFormed(family, tag)
}

// Registry 持有 (Family, RegionKey) -> Tag 的映射。
// 构造后不可变：配置更新通过整体替换 Registry 实现，核心没有任何全局可变状态。
type Registry struct {
	tags map[Family]map[RegionKey]Tag
	// familyDefault：家族级兜底 tag。区域没有单独配置、
	// 但家族至少有一个可用 tag 时退回它（优先取默认区域的）。
	familyDefault map[Family]Tag
}

// NewRegistry 从调用方提供的配置构造注册表。
// 占位符和格式不合法的条目在这里就被剔除，Lookup 阶段不再重复判断。
func NewRegistry(cfg map[Family]map[RegionKey]string) *Registry {
	r := &Registry{
		tags:          make(map[Family]map[RegionKey]Tag),
		familyDefault: make(map[Family]Tag),
	}
	for family, regions := range cfg {
		for region, raw := range regions {
			if !wellFormed(family, raw) {
				continue
			}
			if r.tags[family] == nil {
				r.tags[family] = make(map[RegionKey]Tag)
			}
			r.tags[family][region] = Tag(raw)
		}
	}
	for family, regions := range r.tags {
		if tag, ok := regions[DefaultRegion]; ok {
			r.familyDefault[family] = tag
			continue
		}
		// 默认区域没配置时取区域序最小的那个，保证兜底结果确定
		keys := make([]string, 0, len(regions))
		for region := range regions {
			keys = append(keys, string(region))
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			r.familyDefault[family] = regions[RegionKey(keys[0])]
		}
	}
	return r
}

// Lookup 返回家族+区域的 tag。
// 区域缺失时退回家族兜底；两者都没有则返回 ErrTagNotConfigured。
func (r *Registry) Lookup(family Family, region RegionKey) (Tag, error) {
	if regions, ok := r.tags[family]; ok {
		if tag, ok := regions[region]; ok {
			return tag, nil
		}
	}
	if tag, ok := r.familyDefault[family]; ok {
		return tag, nil
	}
	return "", ErrTagNotConfigured
}

// Configured 报告家族在任一区域是否有可用 tag（供状态接口展示）。
func (r *Registry) Configured(family Family) bool {
	_, ok := r.familyDefault[family]
	return ok
}
