package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"deal.local/web"
)

const requestIDHeader = "X-Request-ID"

// ReqID 透传上游已有的请求 ID，没有就生成一个，并回写到响应头。
func ReqID() web.HandlerFunc {
	return func(ctx *web.Context) {
		id := ctx.Req.Header.Get(requestIDHeader)
		if id == "" {
			id = GenerateReqID()
			if id == "" {
				// crypto/rand 极少失败；失败时退化到时间戳，保证 ID 不为空
				id = strconv.FormatInt(time.Now().UnixNano(), 10)
			}
			ctx.Req.Header.Set(requestIDHeader, id)
		}
		ctx.SetHeader(requestIDHeader, id)

		ctx.Next()
	}
}

func GenerateReqID() string {
	src := make([]byte, 16)
	if _, err := rand.Read(src); err != nil {
		return ""
	}
	return hex.EncodeToString(src)
}
