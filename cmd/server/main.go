package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tenantops/auditgate/internal/audit"
	"github.com/tenantops/auditgate/internal/config"
	"github.com/tenantops/auditgate/internal/db"
	"github.com/tenantops/auditgate/internal/recommendations"
	"github.com/tenantops/auditgate/internal/repository"
	"github.com/tenantops/auditgate/internal/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := cfg.Logger.BuildLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	registry := prometheus.NewRegistry()

	auditLogRepo := repository.NewAuditLogRepository(conn.Pool)
	recommendationRepo := repository.NewRecommendationRepository(conn.Pool)

	guard := audit.NewGuard(
		audit.NewPool(conn.Pool),
		auditLogRepo,
		logger.Named("audit"),
		audit.NewMetrics(registry),
	)

	recommendationService := recommendations.NewService(guard, recommendationRepo, logger.Named("recommendations"))

	srv := server.New(auditLogRepo, recommendationService, registry, logger.Named("http"), server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout*2)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
