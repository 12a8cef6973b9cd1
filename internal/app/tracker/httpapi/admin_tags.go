package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"deal.local/internal/app/affiliate"
	"deal.local/internal/app/tracker/repo"
	"deal.local/web"
)

type TagUpsertRequest struct {
	Family string `json:"family"`
	Region string `json:"region"`
	Tag    string `json:"tag"`
}

func NewListTagsHandler(r *repo.TagsRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		list, err := r.List(ctx.Req.Context())
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, list)
	}
}

// NewUpsertTagHandler 写入单条标签并热替换内存里的标签表。
// 校验规则与装配时一致：占位符和格式不对的标签直接拒绝，不落库。
func NewUpsertTagHandler(r *repo.TagsRepo, svc *affiliate.Service) web.HandlerFunc {
	return func(ctx *web.Context) {
		var req TagUpsertRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}

		family := affiliate.Family(strings.ToLower(strings.TrimSpace(req.Family)))
		if family != affiliate.FamilyAmazon && family != affiliate.FamilyEbay {
			ctx.AbortWithError(http.StatusBadRequest, "unknown family")
			return
		}
		region, ok := affiliate.NormalizeRegion(req.Region)
		if !ok {
			ctx.AbortWithError(http.StatusBadRequest, "unknown region")
			return
		}
		tag := strings.TrimSpace(req.Tag)
		if !affiliate.ValidTag(family, tag) {
			ctx.AbortWithError(http.StatusBadRequest, "malformed or placeholder tag")
			return
		}

		if err := r.Upsert(ctx.Req.Context(), string(family), string(region), tag); err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "tag upsert failed")
			return
		}

		reloadRegistry(ctx, r, svc)
	}
}

func NewDeleteTagHandler(r *repo.TagsRepo, svc *affiliate.Service) web.HandlerFunc {
	return func(ctx *web.Context) {
		family := strings.ToLower(strings.TrimSpace(ctx.Param("family")))
		region, ok := affiliate.NormalizeRegion(ctx.Param("region"))
		if !ok {
			ctx.AbortWithError(http.StatusBadRequest, "unknown region")
			return
		}
		if err := r.Delete(ctx.Req.Context(), family, string(region)); err != nil {
			if errors.Is(err, repo.ErrTagNotFound) {
				ctx.AbortWithError(http.StatusNotFound, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "tag delete failed")
			return
		}

		reloadRegistry(ctx, r, svc)
	}
}

// reloadRegistry 从 DB 重新装配标签表并原子替换。
// 重载失败时旧表继续生效，改写不会中断。
func reloadRegistry(ctx *web.Context, r *repo.TagsRepo, svc *affiliate.Service) {
	reg, err := r.LoadRegistry(ctx.Req.Context())
	if err != nil {
		slog.Error("registry reload failed, keeping previous", "err", err)
		ctx.AbortWithError(http.StatusInternalServerError, "registry reload failed")
		return
	}
	svc.ReplaceRegistry(reg)
	ctx.Status(http.StatusOK)
}
