package httpmiddleware

import (
	"strconv"
	"time"

	"deal.local/internal/platform/metrics"
	"deal.local/web"
)

func Metrics() web.HandlerFunc {
	return func(ctx *web.Context) {
		start := time.Now()
		metrics.HTTPInflightRequests.Inc()
		defer metrics.HTTPInflightRequests.Dec()
		// 按路由模板打标签而不是实际 path，避免 /r/:code 的每个 code 都产生一条时间序列。
		routePattern := ctx.RoutePattern
		if routePattern == "" {
			routePattern = "UNMATCHED"
		}
		defer func() {
			duration := time.Since(start).Seconds()
			status := ctx.Writer.Status()
			metrics.HTTPRequestsTotal.WithLabelValues(ctx.Method, routePattern, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Method, routePattern).Observe(duration)
		}()
		ctx.Next()
	}
}
