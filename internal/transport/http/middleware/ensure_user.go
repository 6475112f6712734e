package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/repository"
)

// EnsureUser runs after Auth. It rejects tokens whose subject no longer
// exists, so a recreated user store invalidates outstanding tokens.
func EnsureUser(repo repository.UserRepository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		if _, err := repo.FindByID(c.Request.Context(), userID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				abortUnauthorized(c)
				return
			}
			logger.ErrorContext(c.Request.Context(), "ensure user lookup", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "Internal server error",
				"code":    "INTERNAL",
			})
			return
		}
		c.Next()
	}
}
