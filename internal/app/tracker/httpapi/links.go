package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"deal.local/internal/app/affiliate"
	"deal.local/internal/app/tracker"
	"deal.local/internal/app/tracker/repo"
	"deal.local/internal/app/tracker/stats"
	"deal.local/internal/platform/httpmiddleware"
	"deal.local/internal/platform/metrics"
	"deal.local/web"
)

// 本包只做“传输层（transport）”工作：
// - request/response 结构体放在这里
// - 改写逻辑在 internal/app/affiliate，存储在 internal/app/tracker/repo
// - handler 只做 HTTP <-> 领域 的翻译（参数校验、错误映射、响应格式）

type CreateLinkRequest struct {
	URL    string `json:"url"`
	Region string `json:"region,omitempty"`
	Code   string `json:"code,omitempty"`
}

type CreateLinkResponse struct {
	Code      string `json:"code"`
	ShortURL  string `json:"short_url"`
	URL       string `json:"url"`
	TargetURL string `json:"target_url"`
	Family    string `json:"family"`
	Region    string `json:"region"`
}

func NewCreateHandler(r *repo.LinksRepo, svc *affiliate.Service) web.HandlerFunc {
	return func(ctx *web.Context) {
		var req CreateLinkRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}

		// 先改写：target 是带联盟标签的跳转目标；不可改写的 URL 原样保存
		result, err := svc.Rewrite(ctx.Req.Context(), req.URL, req.Region)
		if err != nil {
			if errors.Is(err, affiliate.ErrInvalidURL) {
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "rewrite failed")
			return
		}

		customCode := strings.TrimSpace(req.Code)
		if customCode != "" {
			if err := tracker.ValidateCode(customCode); err != nil {
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
				return
			}
		}

		userID, ok := tryGetUserID(ctx)
		if !ok {
			return
		}

		var code string
		if customCode != "" {
			code, err = r.CreateWithCustomCode(ctx.Req.Context(), req.URL, result.URL, string(result.Family), string(result.Region), customCode, userID)
			if err != nil {
				if errors.Is(err, repo.ErrCodeAlreadyExists) || errors.Is(err, repo.ErrURLAlreadyHasDifferentCode) {
					ctx.AbortWithError(http.StatusConflict, err.Error())
					return
				}
				ctx.AbortWithError(http.StatusInternalServerError, "link create failed")
				return
			}
		} else {
			code, err = r.Create(ctx.Req.Context(), req.URL, result.URL, string(result.Family), string(result.Region), userID)
			if err != nil {
				ctx.AbortWithError(http.StatusInternalServerError, "link create failed")
				return
			}
		}

		path := "/r/" + code
		scheme := ctx.Req.Header.Get("X-Forwarded-Proto")
		if scheme == "" {
			scheme = "http"
		}
		shortURL := path
		if host := ctx.Req.Host; host != "" {
			shortURL = scheme + "://" + host + path
		}

		ctx.JSON(http.StatusOK, CreateLinkResponse{
			Code:      code,
			ShortURL:  shortURL,
			URL:       req.URL,
			TargetURL: result.URL,
			Family:    string(result.Family),
			Region:    string(result.Region),
		})
	}
}

func NewRedirectHandler(r *repo.LinksRepo, collector stats.Collector) web.HandlerFunc {
	return func(ctx *web.Context) {
		code := ctx.Param("code")
		link, ok := r.Resolve(ctx.Req.Context(), code)
		if !ok {
			ctx.AbortWithError(http.StatusNotFound, "link not found")
			return
		}
		metrics.TrackedRedirects.Inc()

		//异步记录点击
		collector.Collect(stats.ClickEvent{
			Code:      code,
			ClickedAt: time.Now(),
			IP:        httpmiddleware.ClientIP(ctx.Req),
			UserAgent: ctx.Req.UserAgent(),
			Referer:   ctx.Req.Referer(),
			Family:    link.Family,
			Region:    link.Region,
		})

		ctx.SetHeader("Location", link.TargetURL)
		ctx.Status(http.StatusFound)
	}
}

func NewFindLinkHandler(r *repo.LinksRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		code := ctx.Param("code")
		data, err := r.FindByCode(ctx.Req.Context(), code)
		if err != nil {
			if errors.Is(err, repo.ErrLinkNotFound) {
				ctx.AbortWithError(http.StatusNotFound, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, err.Error())
			return
		}
		ctx.JSON(http.StatusOK, data)
	}
}

func NewDisableHandler(r *repo.LinksRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		code := ctx.Param("code")
		err := r.DisableByCode(ctx.Req.Context(), code)
		if err != nil {
			if errors.Is(err, repo.ErrLinkNotFound) {
				ctx.AbortWithError(http.StatusNotFound, err.Error())
				return
			}
			if errors.Is(err, repo.ErrAlreadyDisabled) {
				ctx.AbortWithError(http.StatusConflict, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, err.Error())
			return
		}
		ctx.Status(http.StatusOK)
	}
}

func NewRemoveFromMineHandler(r *repo.LinksRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		code := ctx.Param("code")
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		if err := r.RemoveFromUserList(ctx.Req.Context(), userID, code); err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.Status(http.StatusOK)
	}
}

func NewGetStatsHandler(r *repo.LinksRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		code := ctx.Param("code")
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		// 检查权限
		owns, err := r.UserOwnsLink(ctx.Req.Context(), userID, code)
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		if !owns {
			ctx.AbortWithError(http.StatusForbidden, "no permission")
			return
		}

		limit := 20
		if l := ctx.Query("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
				limit = n
			} else {
				ctx.AbortWithError(http.StatusBadRequest, "invalid limit")
				return
			}
		}
		var cursor int64 = 0
		if c := ctx.Query("cursor"); c != "" {
			if n, err := strconv.ParseInt(c, 10, 64); err == nil && n > 0 {
				cursor = n
			} else {
				ctx.AbortWithError(http.StatusBadRequest, "invalid cursor")
				return
			}
		}

		result, err := r.ListStatsByCode(ctx.Req.Context(), code, limit, cursor)
		if err != nil {
			if errors.Is(err, repo.ErrLinkNotFound) {
				ctx.AbortWithError(http.StatusNotFound, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}
