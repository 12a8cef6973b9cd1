package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"deal.local/internal/app/tracker/repo"
	"deal.local/internal/platform/auth"
	"deal.local/web"
	"golang.org/x/crypto/bcrypt"
)

type UserRegisterRequest struct {
	UserName string `json:"username"`
	PassWord string `json:"password"`
}

type UserRegisterResponse struct {
	Id       int64  `json:"id"`
	UserName string `json:"username"`
}

func NewRegisterUserHandler(r *repo.UsersRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		var req UserRegisterRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		userID, err := r.RegisterUser(ctx.Req.Context(), req.UserName, req.PassWord)
		if err != nil {
			if errors.Is(err, repo.ErrUserAlreadyExists) {
				ctx.AbortWithError(http.StatusConflict, err.Error())
			} else if errors.Is(err, repo.ErrInvalidPassword) || errors.Is(err, repo.ErrInvalidUsername) {
				ctx.AbortWithError(http.StatusBadRequest, err.Error())
			} else {
				ctx.AbortWithError(http.StatusInternalServerError, err.Error())
			}
			return
		}
		ctx.JSON(http.StatusCreated, UserRegisterResponse{
			Id:       userID,
			UserName: req.UserName,
		})
	}
}

type LoginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

func NewLoginHandler(usersRepo *repo.UsersRepo, ts auth.TokenService) web.HandlerFunc {
	return func(ctx *web.Context) {
		var req LoginRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		dbctx, cancel := context.WithTimeout(ctx.Req.Context(), 1*time.Second)
		defer cancel()
		user, err := usersRepo.FindByUsername(dbctx, req.UserName)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				ctx.AbortWithError(http.StatusUnauthorized, "invalid credentials")
				return
			}
			slog.Error("find user failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			ctx.AbortWithError(http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := ts.Sign(strconv.FormatInt(user.ID, 10), user.Role)
		if err != nil {
			ctx.AbortWithError(http.StatusBadGateway, "sign failed")
			return
		}
		ctx.JSON(http.StatusOK, map[string]string{"token": token})
	}
}

func NewUserMeHandler() web.HandlerFunc {
	return func(ctx *web.Context) {
		id, ok := auth.GetIdentity(ctx.Req.Context())
		if !ok {
			ctx.AbortWithError(http.StatusInternalServerError, "missing identity")
			return
		}
		ctx.JSON(http.StatusOK, map[string]string{
			"user_id": id.UserID,
			"role":    id.Role,
		})
	}
}

func NewMineHandler(r *repo.LinksRepo) web.HandlerFunc {
	return func(ctx *web.Context) {
		userID, ok := mustGetUserID(ctx)
		if !ok {
			return
		}
		list, err := r.ListByUserID(ctx.Req.Context(), userID, 50)
		if err != nil {
			slog.Error("list user links failed", "user_id", userID, "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, list)
	}
}
