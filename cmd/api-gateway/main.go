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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"resty.dev/v3"

	_ "github.com/noah-isme/edu-resource-portal/api/swagger"
	"github.com/noah-isme/edu-resource-portal/internal/analytics"
	"github.com/noah-isme/edu-resource-portal/internal/download"
	"github.com/noah-isme/edu-resource-portal/internal/handler"
	"github.com/noah-isme/edu-resource-portal/internal/repository"
	"github.com/noah-isme/edu-resource-portal/internal/search"
	"github.com/noah-isme/edu-resource-portal/internal/service"
	"github.com/noah-isme/edu-resource-portal/internal/store"
	"github.com/noah-isme/edu-resource-portal/internal/validate"
	"github.com/noah-isme/edu-resource-portal/pkg/cache"
	"github.com/noah-isme/edu-resource-portal/pkg/config"
	"github.com/noah-isme/edu-resource-portal/pkg/database"
	"github.com/noah-isme/edu-resource-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-resource-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-resource-portal/pkg/middleware/requestid"
	"github.com/noah-isme/edu-resource-portal/pkg/storage"
)

// @title Edu Resource Portal API
// @version 0.1.0
// @description Educational resource catalog with search, downloads and analytics
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared infrastructure.
	kv := store.New(store.NewRedisBackend(redisClient), cfg.Store.Namespace, logr)
	files, err := storage.NewLocalStorage(cfg.Downloads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("download storage init failed", "error", err)
	}
	httpClient := resty.New()
	defer httpClient.Close()

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metricsService, cfg.Catalog.CacheTTL, logr, true)
	resourceService := service.NewResourceService(
		repository.NewResourceRepository(db),
		cacheService,
		search.NewEngine(),
		validate.New(),
		metricsService,
		cfg.Catalog.CacheTTL,
		logr,
	)
	if err := resourceService.RefreshIndex(ctx); err != nil {
		logr.Sugar().Warnw("initial catalog index failed", "error", err)
	}

	authService := service.NewAuthService(nil, logr, service.AuthConfig(cfg.Auth))
	favoritesService := service.NewFavoritesService(kv, cfg.Catalog.FavoritesKey, logr)
	recentSearches := search.NewRecentSearches(kv, cfg.Search.RecentSearchesCap, logr)

	tracker := analytics.NewTracker(httpClient, kv, analytics.Config{
		Enabled:       cfg.Analytics.Enabled,
		Endpoint:      cfg.Analytics.Endpoint,
		FlushInterval: cfg.Analytics.FlushInterval,
		BatchSize:     cfg.Analytics.BatchSize,
		SessionTTL:    cfg.Analytics.SessionTTL,
		SendTimeout:   cfg.Analytics.SendTimeout,
	}, logr)
	tracker.Start(ctx)
	defer tracker.Close()

	history := download.NewHistory(kv, cfg.Downloads.HistoryCap, logr)
	manager := download.NewManager(httpClient, files, history, download.Config{
		MaxRetries:     cfg.Downloads.MaxRetries,
		RetryBaseDelay: cfg.Downloads.RetryBaseDelay,
		BatchDelay:     cfg.Downloads.BatchDelay,
		ProbeTimeout:   cfg.Downloads.ProbeTimeout,
	}, logr)
	manager.StartPrefetch(ctx)
	defer manager.StopPrefetch()

	signer := storage.NewSignedURLSigner(cfg.Downloads.SignedURLSecret, cfg.Downloads.SignedURLTTL)
	downloadService := service.NewDownloadService(resourceService, manager, history, signer, tracker, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Resources: handler.NewResourceHandler(resourceService, tracker, cfg.Catalog.MaxPageSize),
		Search:    handler.NewSearchHandler(resourceService, recentSearches, tracker, cfg.Search.SuggestionLimit),
		Downloads: handler.NewDownloadHandler(downloadService, files),
		Favorites: handler.NewFavoritesHandler(favoritesService, resourceService),
		Analytics: handler.NewAnalyticsHandler(tracker),
		Store:     handler.NewStoreHandler(kv),
		Metrics:   handler.NewMetricsHandler(metricsService),
	}, authService, metricsService)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
