package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiketku/tiketku-api/internal/api/handler/v1/response"
	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/service"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type PointsService interface {
	Balance(ctx context.Context, userID uint, now time.Time) (int64, error)
	Grants(ctx context.Context, userID uint, now time.Time) ([]domain.PointsGrant, error)
}

type UserHandler struct {
	svc    UserService
	points PointsService
}

func NewUserHandler(svc UserService, points PointsService) *UserHandler {
	return &UserHandler{
		svc:    svc,
		points: points,
	}
}

// HandleGetUser godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        userID   path      int  true  "User ID"
// @Success      200      {object}   domain.User
// @Failure      401      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID} [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	userID, err := parseIDParam(ctx, "userID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid user ID: %w", err)))
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "ID", userID))
			return
		}

		err = fmt.Errorf("v1.HandleGetUser -> h.svc.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleGetUserPoints godoc
// @Summary      Get a user's usable points balance
// @Tags         users
// @Produce      json
// @Param        userID   path      int  true  "User ID"
// @Success      200      {object}   response.PointsBalanceResponse
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/{userID}/points [get]
// @Security BearerAuth
func (h *UserHandler) HandleGetUserPoints(ctx *gin.Context) {
	authedID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	userID, err := parseIDParam(ctx, "userID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid user ID: %w", err)))
		return
	}

	if userID != authedID && getRoleFromContext(ctx) != domain.RoleAdmin {
		response.RenderErr(ctx, response.ErrPermissionDenied(
			fmt.Errorf("user %v cannot view points of user %v", authedID, userID)))
		return
	}

	now := time.Now()

	balance, err := h.points.Balance(ctx.Request.Context(), userID, now)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetUserPoints -> h.points.Balance -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	grants, err := h.points.Grants(ctx.Request.Context(), userID, now)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetUserPoints -> h.points.Grants -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.PointsBalanceResponse{
		UserID:  userID,
		Balance: balance,
		Grants:  grants,
	})
}
