package main

import (
	"fmt"
	"os"

	"finly/internal/config"
	"finly/internal/database"
	"finly/internal/events"
	"finly/internal/logger"
	"finly/internal/server"
	"finly/internal/validator"

	_ "finly/internal/docs" // Import swagger docs
)

// @title           Finly API
// @version         1.0
// @description     Finly is a personal bookkeeping API: record income and expenses, plan category budgets and read monthly reports.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, err := events.NewPublisher(appConfig.AMQPURL, appConfig.AMQPExchange)
	if err != nil {
		return fmt.Errorf("failed to connect event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnf("failed to close event publisher: %v", err)
		}
	}()

	validator.Register()

	router := server.NewRouter(server.Options{
		DB:             dbManager.DB(),
		Publisher:      publisher,
		FrontendURL:    appConfig.FrontendURL,
		RequestLogging: true,
	})

	log.Infof("Starting Finly server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
