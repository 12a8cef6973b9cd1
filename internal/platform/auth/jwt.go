package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 是业务层关心的最小身份信息。
type Claims struct {
	UserID string
	Role   string
}

// TokenService 抽象签发/校验，便于测试时替换实现。
type TokenService interface {
	Sign(userID string, role string) (string, error)
	Verify(tokenString string) (Claims, error)
}

// jwtClaims 是写进 token 的完整载荷；Role 放自定义字段，其余走注册字段。
type jwtClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewHS256Service 构造基于 HS256 对称密钥的 TokenService。
func NewHS256Service(secret string, issuer string, ttl time.Duration) (TokenService, error) {
	if secret == "" {
		return nil, errors.New("empty jwt secret")
	}
	if issuer == "" {
		return nil, errors.New("empty jwt issuer")
	}
	if ttl <= 0 {
		return nil, errors.New("non-positive jwt ttl")
	}
	return &hs256Service{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}, nil
}
