package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/HyperBlockHQ/guildpulse/config"
	"github.com/HyperBlockHQ/guildpulse/internal/api"
	"github.com/HyperBlockHQ/guildpulse/internal/handler"
	"github.com/HyperBlockHQ/guildpulse/internal/pkg/kafka"
	redispkg "github.com/HyperBlockHQ/guildpulse/internal/pkg/redis"
	"github.com/HyperBlockHQ/guildpulse/internal/repository"
	"github.com/HyperBlockHQ/guildpulse/internal/scheduler"
	"github.com/HyperBlockHQ/guildpulse/internal/service"
	"github.com/HyperBlockHQ/guildpulse/internal/storage"
	"github.com/HyperBlockHQ/guildpulse/middleware/jwt"
	logger "github.com/HyperBlockHQ/guildpulse/middleware/log"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Close()

	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	db, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		zlog.Fatal("failed to init postgres", zap.Error(err))
	}

	// Redis and Kafka are optional: the core degrades to direct reads and
	// no event publication when they are unavailable.
	var cache service.AnalyticsCache
	redisClient, err := redispkg.NewClient(&cfg.Redis)
	if err != nil {
		zlog.Warn("redis unavailable, analytics caching disabled", zap.Error(err))
	} else {
		cache = redisClient
		defer redisClient.Close()
	}

	var publisher service.EventPublisher
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog.Logger)
	if err != nil {
		zlog.Warn("kafka unavailable, event publication disabled", zap.Error(err))
	} else {
		publisher = producer
		defer producer.Close()
	}

	guildRepo := repository.NewGuildRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	aggregator := service.NewMetricAggregator(userRepo, activityRepo, zlog.Logger)
	calculator := service.NewScoreCalculator(cfg.Analytics)
	analyticsService := service.NewAnalyticsService(guildRepo, aggregator, calculator, cache, publisher, zlog.Logger)
	exchangeService := service.NewExchangeService(guildRepo, userRepo, activityRepo, cache, publisher, zlog.Logger)

	sched := scheduler.New(cfg.Scheduler, analyticsService.RunGuildAnalytics, zlog.Logger)
	sched.Start()
	defer sched.Stop()

	tokenManager := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)
	mw := api.NewMiddlewareManager(tokenManager, zlog.Logger)

	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, sched, zlog.Logger)
	exchangeHandler := handler.NewExchangeHandler(exchangeService)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.RegisterRoutes(r, mw, analyticsHandler, exchangeHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		zlog.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
}
