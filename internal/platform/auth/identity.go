package auth

import "context"

// Identity 是请求上下文中携带的已认证身份。
type Identity struct {
	UserID string
	Role   string
}

// 自定义 key 类型，避免和其他包的 context key 冲突。
type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
