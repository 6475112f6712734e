package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/authkit/internal/domain"
)

type userUsecaser interface {
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error)
}

type UserHandler struct {
	userUsecase userUsecaser
	logger      *slog.Logger
}

func NewUserHandler(userUsecase userUsecaser, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUsecase: userUsecase,
		logger:      logger.With("component", "user_handler"),
	}
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	Avatar    *string `json:"avatar" binding:"omitempty,url"`
}

// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userUsecase.Me(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.respondUserError(c, "get current user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /users/me
func (h *UserHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.userUsecase.UpdateProfile(c.Request.Context(), c.GetString("userID"), domain.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Avatar:    req.Avatar,
	})
	if err != nil {
		h.respondUserError(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) respondUserError(c *gin.Context, op string, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, codeNotFound, errUserNotFound)
		return
	}
	h.logger.ErrorContext(c.Request.Context(), op, "error", err)
	respondError(c, http.StatusInternalServerError, codeInternal, errInternalServer)
}
