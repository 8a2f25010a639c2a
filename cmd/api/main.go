// ABOUTME: Main entry point for the admin API server
// ABOUTME: Wires the crawl runtime, the job worker and the gin router, then serves until signalled

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsfeed-canon/api"
	"newsfeed-canon/api/handlers"
	"newsfeed-canon/core/workers"
	"newsfeed-canon/infrastructure/logger/structured"
	"newsfeed-canon/internal/bootstrap"
	"newsfeed-canon/pkg/config"
	"newsfeed-canon/pkg/featureflags"
)

const version = "1.0.0"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := structured.NewLogger(cfg.Log)
	logger.Info("Starting admin API", map[string]interface{}{
		"port":    cfg.Server.Port,
		"cache":   cfg.Cache.Type,
		"storage": cfg.Storage.Driver,
	})

	rt, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build runtime: %v", err)
	}
	defer rt.Close()

	workerCfg := workers.DefaultWorkerConfig()
	workerCfg.Parallelism = cfg.Crawler.Parallelism
	worker := workers.NewCrawlWorker(rt.Engine, workerCfg, logger)
	if err := worker.Start(); err != nil {
		log.Fatalf("Failed to start crawl worker: %v", err)
	}

	ctx := context.Background()
	apiConfig := api.APIConfig{
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       rt.Registry,
		DisableMetrics: !rt.Flags.IsEnabled(ctx, featureflags.MetricsEnabled),
		Version:        version,
	}
	if rt.Flags.IsEnabled(ctx, featureflags.RateLimitEnabled) {
		apiConfig.RateLimit = cfg.Server.RateLimit
		apiConfig.RateWindow = time.Minute
	}

	handler := handlers.NewHandler(worker, rt.Sources, rt.Store, logger)
	router := api.NewRouter(apiConfig, handler)
	defer router.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Running crawls are cancelled; their partial reports stay in the job history
	if n := worker.Cancel(""); n > 0 {
		logger.Info("Cancelled active crawl jobs", map[string]interface{}{"jobs": n})
	}
	if err := worker.Stop(); err != nil {
		logger.Error("Crawl worker stop failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Server stopped", nil)
}
