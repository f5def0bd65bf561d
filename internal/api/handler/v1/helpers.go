package v1

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tiketku/tiketku-api/internal/api/handler/v1/response"
	"github.com/tiketku/tiketku-api/internal/api/middleware"
)

func getUserIDFromContext(ctx *gin.Context) (uint, *response.Err) {
	value, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return 0, response.ErrUnauthorized(errors.New("no user in context"))
	}

	userID, ok := value.(uint)
	if !ok {
		return 0, response.ErrUnauthorized(errors.New("malformed user in context"))
	}

	return userID, nil
}

func getRoleFromContext(ctx *gin.Context) string {
	role, _ := ctx.Get(middleware.ContextKeyRole)
	if s, ok := role.(string); ok {
		return s
	}
	return ""
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}

	return uint(id), nil
}
