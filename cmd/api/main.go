package main

import (
	"os"

	"github.com/yigit/ebdashboard/internal/pkg/logger"
	"github.com/yigit/ebdashboard/internal/server"
)

// @title Environmental Benefits Dashboard API
// @version 1.0
// @description Student purchase requests against sustainability credit limits, with ledger and dashboards

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer(os.Getenv("CONFIG_PATH"))
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
