package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/budget-calc-api/internal/handler"
	"github.com/noah-isme/budget-calc-api/internal/middleware"
	"github.com/noah-isme/budget-calc-api/internal/repository"
	"github.com/noah-isme/budget-calc-api/internal/service"
	"github.com/noah-isme/budget-calc-api/pkg/cache"
	"github.com/noah-isme/budget-calc-api/pkg/config"
	"github.com/noah-isme/budget-calc-api/pkg/database"
	"github.com/noah-isme/budget-calc-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/budget-calc-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/budget-calc-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summaries will not be cached", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	monthRepo := repository.NewMonthRepository(db)
	itemRepo := repository.NewItemRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	auditSvc := service.NewAuditService(auditRepo, cfg.Audit, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	codec := service.NewCodec(cfg.JWT)
	authSvc := service.NewAuthService(userRepo, roleRepo, tokenRepo, codec, auditSvc, cfg.JWT, validate, logr)
	setupSvc := service.NewSetupService(userRepo, roleRepo, logr)
	claimsSvc := service.NewClaimsService(userRepo, roleRepo, logr)
	monthSvc := service.NewMonthService(monthRepo, cacheRepo, metricsSvc, cfg.Summary, validate, logr)
	itemSvc := service.NewItemService(itemRepo, monthRepo, cacheRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, roleRepo, monthRepo, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, codec, handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc, metricsSvc),
		Setup:   handler.NewSetupHandler(setupSvc),
		Claims:  handler.NewClaimsHandler(claimsSvc),
		Month:   handler.NewMonthHandler(monthSvc),
		Item:    handler.NewItemHandler(itemSvc),
		User:    handler.NewUserHandler(userSvc),
		Metrics: handler.NewMetricsHandler(metricsSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
