package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// HTTPRequestsTotal：累计请求数（Counter），用于计算 QPS/错误率。
	//
	// labels：
	// - method：HTTP 方法
	// - route：路由模板（用 pattern 而不是真实 path，避免 /r/abc123 这种高基数 label）
	// - status：HTTP 状态码字符串
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds：请求耗时分布（Histogram），供 Grafana 算 P95/P99。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests：当前正在处理中的请求数（Gauge）。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// LinkRewritesTotal：改写结果计数。
	//
	// labels：
	// - family：marketplace 家族（amazon/ebay/unknown）
	// - outcome：composed（ID 模式）/ fallback_param（仅设置 tag 参数）/
	//   not_configured（tag 未配置，原样返回）/ invalid_url / unknown_family
	LinkRewritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_rewrites_total",
			Help: "改写请求的总数（按家族和结果分类）",
		},
		[]string{"family", "outcome"},
	)

	// CacheOperations：各层缓存命中情况。
	//
	// labels：
	// - layer：l1（本地）/ l2（Redis）
	// - op：hit / miss / hit_negative
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "缓存操作计数",
		},
		[]string{"layer", "op"},
	)

	// TrackedRedirects：/r/:code 跳转次数。
	TrackedRedirects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracked_redirects_total",
			Help: "跟踪链接跳转的总数",
		},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			LinkRewritesTotal,
			CacheOperations,
			TrackedRedirects,
		)
	})
}
