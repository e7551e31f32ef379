// Health Check Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"financial-product-advisor/internal/config"
	"financial-product-advisor/internal/handlers"
	"financial-product-advisor/internal/services/database"
	"financial-product-advisor/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	_ = utils.InitLogger(cfg.LogLevel)
	defer utils.Sync()

	// Only the postgres backend has a database to report on
	var db handlers.Pinger
	if cfg.DataBackend == config.BackendPostgres {
		conn, err := database.New(context.Background(), cfg)
		if err != nil {
			utils.GetLogger().Warn("Database unavailable", zap.Error(err))
		} else {
			defer conn.Close()
			db = conn
		}
	}

	// Start Lambda
	lambda.Start(handlers.NewHealthHandler(db, cfg.Stage).Handle)
}
