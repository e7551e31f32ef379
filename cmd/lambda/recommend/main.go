// Recommend Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"financial-product-advisor/internal/config"
	"financial-product-advisor/internal/handlers"
	"financial-product-advisor/internal/services/manager"
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
	logger := utils.GetLogger()

	m, cleanup, err := manager.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build product manager", zap.Error(err))
	}
	defer cleanup()

	// Start Lambda
	lambda.Start(handlers.NewRecommendHandler(m, logger).Handle)
}
