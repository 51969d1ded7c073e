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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pointku-api/api/swagger"
	"github.com/noah-isme/pointku-api/internal/handler"
	"github.com/noah-isme/pointku-api/internal/middleware"
	"github.com/noah-isme/pointku-api/internal/repository"
	"github.com/noah-isme/pointku-api/internal/service"
	"github.com/noah-isme/pointku-api/pkg/cache"
	"github.com/noah-isme/pointku-api/pkg/config"
	"github.com/noah-isme/pointku-api/pkg/database"
	"github.com/noah-isme/pointku-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pointku-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pointku-api/pkg/middleware/requestid"
)

// @title Pointku API
// @version 1.0.0
// @description Student merit and demerit point ledger
// @BasePath /
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Ranking.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, ranking cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	validate := validator.New()
	tokenSvc := service.NewTokenService(cfg.JWT)
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Ranking.CacheTTL, logr, redisClient != nil)
	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewPointHistoryRepository(db)

	rankingSvc := service.NewRankingService(userRepo, cacheSvc, validate, logr, service.RankingServiceConfig{
		DefaultLimit: cfg.Ranking.DefaultLimit,
		CacheTTL:     cfg.Ranking.CacheTTL,
		Workers:      cfg.Ledger.QueueWorkers,
		MaxRetries:   cfg.Ledger.QueueRetries,
	})
	rankingSvc.Start(ctx)
	defer rankingSvc.Stop()

	ledgerSvc := service.NewPointLedgerService(historyRepo, validate, logr, metricsSvc, rankingSvc).
		WithMaxQueryLimit(cfg.Ledger.MaxQueryLimit)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, handler.Routes{
		Prefix:       cfg.APIPrefix,
		Tokens:       tokenSvc,
		PointHistory: handler.NewPointHistoryHandler(ledgerSvc),
		Ranking:      handler.NewRankingHandler(rankingSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
