package affiliate

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL 是对"输入不是可用的 http(s) URL"的统一错误。
//
// 设计原因：
// - 上层（HTTP）可以稳定地把它映射成 400，而不需要关心底层校验细节
// - 非 http(s) 协议（javascript:、file: 等）必须显式拒绝，不能原样放行
var ErrInvalidURL = errors.New("invalid url")

// NormalizedURL 是通过校验的输入 URL。
// 原始 query 原样保留，提取和拼装在后续阶段进行。
type NormalizedURL struct {
	raw    string
	u      *url.URL
	family Family
}

// Normalize 校验输入字符串并解析为 NormalizedURL。
//
// 规则：
// - 必须可被解析为 URL
// - scheme 必须是 http/https
// - host 不能为空
func Normalize(raw string) (NormalizedURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return NormalizedURL{}, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NormalizedURL{}, ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return NormalizedURL{}, ErrInvalidURL
	}
	return NormalizedURL{
		raw:    raw,
		u:      u,
		family: FamilyForHost(u.Host),
	}, nil
}

// Raw 返回未经改动的原始输入，供"原样返回"路径使用。
func (n NormalizedURL) Raw() string { return n.raw }

func (n NormalizedURL) Family() Family { return n.family }

func (n NormalizedURL) Host() string {
	host := strings.ToLower(n.u.Host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

func (n NormalizedURL) Path() string { return n.u.Path }

func (n NormalizedURL) Query() url.Values { return n.u.Query() }

// URL 返回底层 *url.URL 的拷贝，调用方可以安全修改。
func (n NormalizedURL) URL() *url.URL {
	clone := *n.u
	return &clone
}
