// File: halaqat/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"halaqat/config"
	"halaqat/handlers"
	"halaqat/middleware"
	"halaqat/routes"
	"halaqat/services/student"
	"halaqat/services/viewcache"
	"halaqat/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// View cache backend.
	var (
		store       viewcache.Store
		redisClient *redis.Client
	)
	switch cfg.ViewCacheBackend {
	case "redis":
		redisClient = utils.GetViewCacheClient()
		store = viewcache.NewRedisStore(redisClient, cfg.ViewCacheTTL())
	case "memory", "":
		store = viewcache.NewMemoryStore(cfg.ViewCacheTTL())
	default:
		logger.Sugar().Fatalf("main: unknown VIEW_CACHE_BACKEND %q", cfg.ViewCacheBackend)
	}

	registry, err := student.NewRegistry(student.Config{
		APIBaseURL:     cfg.APIBaseURL,
		HandshakeURL:   cfg.TokenHandshakeURL,
		CookieName:     cfg.TokenCookieName,
		HeaderName:     cfg.TokenHeaderName,
		RequestTimeout: cfg.RequestTimeout(),
		IdleTimeout:    cfg.SessionIdle(),
	}, store, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to create session registry: %v", err)
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	registry.StartSweeper(bgCtx, time.Minute)
	utils.StartHealthMonitor(bgCtx, redisClient, 60*time.Second)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	handlerBundle := handlers.NewHandlerBundle(registry, cfg.SessionCookieName, config.IsProduction())
	routes.RegisterRoutes(router, handlerBundle, cfg.AllowedOrigins)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
