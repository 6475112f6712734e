package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/authkit/config"
	"github.com/ErlanBelekov/authkit/internal/email"
	"github.com/ErlanBelekov/authkit/internal/health"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/backend"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/kvstore"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/memory"
	"github.com/ErlanBelekov/authkit/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/authkit/internal/log"
	"github.com/ErlanBelekov/authkit/internal/metrics"
	"github.com/ErlanBelekov/authkit/internal/repository"
	"github.com/ErlanBelekov/authkit/internal/storage"
	httptransport "github.com/ErlanBelekov/authkit/internal/transport/http"
	"github.com/ErlanBelekov/authkit/internal/transport/http/handler"
	"github.com/ErlanBelekov/authkit/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.IsDevelopment(), cfg.SlogLevel())

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer)

	// Users
	var userRepo repository.UserRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.DefaultPoolOptions())
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()

		pgUsers := postgres.NewUserRepository(pool)
		if err := pgUsers.Migrate(ctx); err != nil {
			stop()
			log.Fatalf("migrate: %v", err)
		}
		userRepo = pgUsers
		checker.Add("postgres", pool)
	} else {
		logger.Warn("DATABASE_URL not set, users are kept in memory")
		userRepo = memory.NewUserRepository()
	}

	// Files
	if err := backend.RequireBlobs(cfg.StorageDriver); err != nil {
		stop()
		log.Fatalf("storage: %v", err)
	}
	opened, err := backend.Open(ctx, cfg, "server")
	if err != nil {
		stop()
		log.Fatalf("storage: %v", err)
	}
	defer opened.Close()
	if p, ok := opened.Backend.(health.Pinger); ok {
		checker.Add("storage", p)
	}
	fileRepo := kvstore.NewFileRepository(storage.New(opened.Backend, logger))

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	handlers := httptransport.Handlers{
		Auth:   handler.NewAuthHandler(usecase.NewAuthUsecase(userRepo, sender, logger, []byte(cfg.JWTSecret), cfg.JWTTTL(), cfg.AppName), logger),
		User:   handler.NewUserHandler(usecase.NewUserUsecase(userRepo), logger),
		File:   handler.NewFileHandler(usecase.NewFileUsecase(fileRepo), logger),
		Health: handler.NewHealthHandler(checker),
	}

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, handlers, userRepo, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("server started", "port", cfg.Port, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
