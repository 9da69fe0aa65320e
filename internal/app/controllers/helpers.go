// Package controllers handles HTTP request handling
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/ebdashboard/internal/app/auth"
	"github.com/yigit/ebdashboard/internal/middleware"
	"github.com/yigit/ebdashboard/internal/pkg/apperrors"
)

// parseIDParam reads a positive int64 path parameter, writing a 400 response when it is not one
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("Invalid "+name+" parameter"))
		return 0, false
	}
	return id, true
}

// currentActor returns the authenticated caller, writing a 401 response when there is none
func currentActor(ctx *gin.Context) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthorized)
		return auth.Actor{}, false
	}
	return actor, true
}

// queryInt reads an optional integer query parameter
func queryInt(ctx *gin.Context, name string, fallback int) int {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
