package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/ErlanBelekov/authkit/internal/repository"
	"github.com/ErlanBelekov/authkit/internal/transport/http/handler"
	"github.com/ErlanBelekov/authkit/internal/transport/http/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	File   *handler.FileHandler
	Health *handler.HealthHandler
}

func NewRouter(logger *slog.Logger, h Handlers, userRepo repository.UserRepository, jwtKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)

	authMW := middleware.Auth(jwtKey)
	ensureUser := middleware.EnsureUser(userRepo, logger)

	auth := r.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", authMW, ensureUser, h.Auth.Refresh)

	users := r.Group("/users", authMW, ensureUser)
	users.GET("/me", h.User.Me)
	users.PATCH("/me", h.User.Update)

	files := r.Group("/files", authMW, ensureUser)
	files.POST("", h.File.Upload)
	files.GET("/:id", h.File.Download)

	return r
}
