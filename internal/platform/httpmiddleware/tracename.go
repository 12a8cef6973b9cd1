package httpmiddleware

import (
	"deal.local/web"
	"go.opentelemetry.io/otel/trace"
)

// TraceName 把 otelhttp 生成的 span 重命名为“方法 + 路由模板”，
// 否则所有请求的 span 名都是 HTTP 动词，没法区分接口。
func TraceName() web.HandlerFunc {
	return func(ctx *web.Context) {
		span := trace.SpanFromContext(ctx.Req.Context())
		span.SetName(ctx.Method + " " + ctx.RoutePattern)
		ctx.Next()
	}
}
