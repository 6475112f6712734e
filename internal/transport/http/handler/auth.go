package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/authkit/internal/domain"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Refresh(ctx context.Context, userID string) (string, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/login
// Returns {"user": ..., "token": "<jwt>"}.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	session, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, errInternalServer)
		return
	}

	c.JSON(http.StatusOK, session)
}

// POST /auth/refresh (bearer)
// Returns {"token": "<jwt>"}.
func (h *AuthHandler) Refresh(c *gin.Context) {
	userID := c.GetString("userID")

	token, err := h.authUsecase.Refresh(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", domain.ErrTokenInvalid.Error())
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "refresh token", "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, errInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
