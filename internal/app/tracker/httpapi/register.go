package httpapi

import (
	"net/http"
	"time"

	"deal.local/internal/app/affiliate"
	"deal.local/internal/app/tracker/repo"
	"deal.local/internal/app/tracker/stats"
	"deal.local/internal/platform/auth"
	"deal.local/internal/platform/httpmiddleware"
	"deal.local/internal/platform/ratelimit"
	"deal.local/web"
)

// RegisterAPIRoutes 用于在给定的路由分组下挂载 API 路由（例如 /api/v1）。
//
// 约定：本包只做“传输层（transport）”工作；改写逻辑在 internal/app/affiliate，
// 存储在 internal/app/tracker/repo。
//
// 设计原因：
// - cmd/api 只负责"组装"和"挂载"，各业务模块自己提供 Register*Routes，避免路由散落在 main.go
// - API 路由一般用于机器调用（JSON），统一放在 /api/v1 下便于版本化
func RegisterAPIRoutes(api *web.RouterGroup, linksRepo *repo.LinksRepo, usersRepo *repo.UsersRepo, alertsRepo *repo.AlertsRepo, tagsRepo *repo.TagsRepo, svc *affiliate.Service, ts auth.TokenService, limiter *ratelimit.Limiter) {
	//无需登录的路由
	api.Use(httpmiddleware.AuthOptional(ts))
	//实时改写 60次/分钟（插件高频调用，限流放松）
	api.POST("/links/rewrite", httpmiddleware.RateLimit(limiter, "rewrite", 60, time.Minute), NewRewriteHandler(svc))
	//创建跟踪链接 限流 10次/分钟
	api.POST("/links", httpmiddleware.RateLimit(limiter, "create", 10, time.Minute), NewCreateHandler(linksRepo, svc))
	api.GET("/links/:code", NewFindLinkHandler(linksRepo))
	//注册 3次/分钟
	api.POST("/register", httpmiddleware.RateLimit(limiter, "register", 3, time.Minute), NewRegisterUserHandler(usersRepo))
	//登录 5次/分钟
	api.POST("/login", httpmiddleware.RateLimit(limiter, "login", 5, time.Minute), NewLoginHandler(usersRepo, ts))

	// 需要登录的路由
	users := api.Group("/users")
	users.Use(httpmiddleware.AuthRequired(ts))
	users.GET("/me", NewUserMeHandler())
	users.GET("/mine", NewMineHandler(linksRepo))
	users.DELETE("/mine/:code", NewRemoveFromMineHandler(linksRepo))
	users.GET("/links/:code/stats", NewGetStatsHandler(linksRepo))

	// 降价提醒（需要登录）
	alerts := api.Group("/alerts")
	alerts.Use(httpmiddleware.AuthRequired(ts))
	alerts.POST("", NewCreateAlertHandler(alertsRepo))
	alerts.GET("", NewListAlertsHandler(alertsRepo))
	alerts.GET("/:id", NewGetAlertHandler(alertsRepo))
	alerts.DELETE("/:id", NewDeleteAlertHandler(alertsRepo))

	// 需要管理员的路由
	admin := api.Group("/admin")
	admin.Use(httpmiddleware.AuthRequired(ts), httpmiddleware.RequireRole("admin"))
	admin.GET("/ping", func(ctx *web.Context) {
		ctx.String(http.StatusOK, "pong")
	})
	admin.GET("/tags", NewListTagsHandler(tagsRepo))
	admin.PUT("/tags", NewUpsertTagHandler(tagsRepo, svc))
	admin.DELETE("/tags/:family/:region", NewDeleteTagHandler(tagsRepo, svc))
	admin.POST("/links/:code/disable", NewDisableHandler(linksRepo))
}

// RegisterPublicRoutes 用于在根路由上挂载公开跳转路由（GET /r/:code）。
//
// 跳转入口刻意不放在 /api/v1 下，方便直接在浏览器/邮件里使用短链 URL。
// 前缀 /r/ 把跳转和其它根路由（healthz、metrics）隔开。
func RegisterPublicRoutes(engine *web.Engine, r *repo.LinksRepo, collector stats.Collector, limiter *ratelimit.Limiter) {
	//跳转 100次/分钟
	engine.GET("/r/:code", httpmiddleware.RateLimit(limiter, "redirect", 100, time.Minute), NewRedirectHandler(r, collector))
}
