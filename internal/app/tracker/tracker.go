package tracker

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidCode 是领域层对“短码不合法”的统一错误。
//
// 设计原因：
// - 上层（HTTP）可以稳定地把它映射成 400，而不需要关心底层校验细节
// - 统一错误类型，避免各处返回不同字符串导致难以判断/测试
var ErrInvalidCode = errors.New("invalid code")

var codeRe = regexp.MustCompile(`^[A-Za-z0-9]{3,32}$`)

var reservedCodes = map[string]struct{}{
	"api":     {},
	"healthz": {},
	"readyz":  {},
	"version": {},
	"metrics": {},
	"favicon": {},
	"r":       {},
}

// ValidateCode 校验用户自定义短码。
//
// 规则：
// - 仅允许字母/数字
// - 长度 3~32
// - 禁止与服务已有路由前缀冲突（例如 /api、/healthz、/metrics）
func ValidateCode(code string) error {
	code = strings.TrimSpace(code)
	if !codeRe.MatchString(code) {
		return ErrInvalidCode
	}
	if _, ok := reservedCodes[strings.ToLower(code)]; ok {
		return ErrInvalidCode
	}
	return nil
}
