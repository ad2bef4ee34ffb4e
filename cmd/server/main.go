package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/config"
	"github.com/imannovv/gravitee-audit/internal/handler"
	"github.com/imannovv/gravitee-audit/internal/pkg/logger"
	"github.com/imannovv/gravitee-audit/internal/repository"
	"github.com/imannovv/gravitee-audit/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	// 2. Open the document store (Mongo > fixture)
	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Mongo.Timeout+5*time.Second)
	store, err := repository.Open(startCtx, cfg)
	cancelStart()
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	// 3. Initialize Core Services
	resolver := service.NewResolver(store)
	enricher := service.NewEnricher(resolver, cfg.Enrichment.Concurrency)
	auditSvc := service.NewAuditService(store, service.NewFilterBuilder(store), enricher)
	aggregateSvc := service.NewAggregateService(store, resolver, enricher)
	directorySvc := service.NewDirectoryService(store, resolver, cfg.Enrichment.Concurrency)

	// 4. Initialize Handlers
	pager := handler.Pager{MaxLimit: cfg.Server.MaxPageSize}
	r := handler.NewRouter(cfg, handler.Handlers{
		Audits:    handler.NewAuditHandler(auditSvc, pager),
		Stats:     handler.NewStatsHandler(aggregateSvc),
		Directory: handler.NewDirectoryHandler(directorySvc, pager),
		Store:     store,
	})

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 Audit viewer started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := store.Close(ctx); err != nil {
		logger.Error("Failed to close store", "error", err)
	}

	logger.Info("Server exiting")
}
