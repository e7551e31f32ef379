// Package main provides the HTTP API of the financial product advisor for
// local development and container deployments.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"financial-product-advisor/internal/config"
	"financial-product-advisor/internal/handlers"
	"financial-product-advisor/internal/metrics"
	"financial-product-advisor/internal/services/database"
	"financial-product-advisor/internal/services/manager"
	"financial-product-advisor/internal/services/ses"
	"financial-product-advisor/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger first
	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, cleanup, err := manager.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build product manager", zap.Error(err))
	}
	defer cleanup()

	var db handlers.Pinger
	if cfg.DataBackend == config.BackendPostgres {
		conn, err := database.New(ctx, cfg)
		if err != nil {
			logger.Warn("Database health check unavailable", zap.Error(err))
		} else {
			defer conn.Close()
			db = conn
		}
	}

	var mailer digestSender
	if cfg.SESSenderEmail != "" {
		svc, err := ses.NewService(ctx, cfg.AWSRegion, cfg.SESSenderEmail, logger)
		if err != nil {
			logger.Warn("Email digests disabled", zap.Error(err))
		} else {
			mailer = svc
		}
	} else {
		logger.Info("SES_SENDER_EMAIL not set, email digests disabled")
	}

	metrics.Register()

	server := NewServer(m, mailer, handlers.NewHealthHandler(db, cfg.Stage), logger)

	mux := server.Routes()
	mux.Handle("GET /metrics", promhttp.Handler())

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.Handler(metrics.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Financial Product Advisor API Server",
		zap.String("addr", addr),
		zap.String("backend", cfg.DataBackend),
		zap.String("stage", cfg.Stage),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
