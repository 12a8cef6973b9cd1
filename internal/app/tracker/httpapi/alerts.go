package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"deal.local/internal/app/affiliate"
	"deal.local/internal/app/tracker/repo"
	"deal.local/web"
)

type CreateAlertRequest struct {
	URL         string `json:"url"`
	Region      string `json:"region,omitempty"`
	TargetPrice int64  `json:"target_price_cents"`
	Currency    string `json:"currency"`
}

// NewCreateAlertHandler 创建降价提醒。
// family/region 在创建时就从 URL 解析好存库，轮询 worker 不用重复解析。
func NewCreateAlertHandler(r *repo.AlertsRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		var req CreateAlertRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		if req.TargetPrice <= 0 {
			ctx.AbortWithError(http.StatusBadRequest, "target price must be positive")
			return
		}
		currency := strings.ToUpper(strings.TrimSpace(req.Currency))
		if len(currency) != 3 {
			ctx.AbortWithError(http.StatusBadRequest, "currency must be a 3-letter code")
			return
		}

		norm, err := affiliate.Normalize(req.URL)
		if err != nil {
			ctx.AbortWithError(http.StatusBadRequest, err.Error())
			return
		}
		var explicit affiliate.RegionKey
		if req.Region != "" {
			if rk, ok := affiliate.NormalizeRegion(req.Region); ok {
				explicit = rk
			}
		}
		region := affiliate.ResolveRegion(norm, explicit, nil)

		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}

		id, err := r.Create(ctx.Req.Context(), userID, repo.PriceAlert{
			URL:         norm.Raw(),
			Family:      string(norm.Family()),
			Region:      string(region),
			TargetPrice: req.TargetPrice,
			Currency:    currency,
		})
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "alert create failed")
			return
		}
		ctx.JSON(http.StatusCreated, map[string]int64{"id": id})
	}
}

func NewListAlertsHandler(r *repo.AlertsRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		list, err := r.ListByUserID(ctx.Req.Context(), userID, 50)
		if err != nil {
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, list)
	}
}

func NewGetAlertHandler(r *repo.AlertsRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			ctx.AbortWithError(http.StatusBadRequest, "invalid alert id")
			return
		}
		alert, err := r.FindByID(ctx.Req.Context(), userID, id)
		if err != nil {
			if errors.Is(err, repo.ErrAlertNotFound) {
				ctx.AbortWithError(http.StatusNotFound, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, alert)
	}
}

func NewDeleteAlertHandler(r *repo.AlertsRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			ctx.AbortWithError(http.StatusBadRequest, "invalid alert id")
			return
		}
		if err := r.Delete(ctx.Req.Context(), userID, id); err != nil {
			if errors.Is(err, repo.ErrAlertNotFound) {
				ctx.AbortWithError(http.StatusNotFound, err.Error())
				return
			}
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.Status(http.StatusOK)
	}
}
