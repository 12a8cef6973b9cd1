package httpapi

import (
	"errors"
	"net/http"

	"deal.local/internal/app/affiliate"
	"deal.local/web"
)

type RewriteRequest struct {
	URL    string `json:"url"`
	Region string `json:"region,omitempty"`
}

// NewRewriteHandler 改写单个 URL，不落库。
// 浏览器插件/前端实时改写用这个接口；需要可分享的短链走 POST /links。
func NewRewriteHandler(svc *affiliate.Service) web.HandlerFunc {
	return func(ctx *web.Context) {
		var req RewriteRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}

		result, err := svc.Rewrite(ctx.Req.Context(), req.URL, req.Region)
		if err != nil {
			if errors.Is(err, affiliate.ErrInvalidURL) {
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "rewrite failed")
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}
