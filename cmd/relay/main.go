package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/khushisaxena01/boomkart/internal/network"
	"github.com/khushisaxena01/boomkart/internal/server"
	"github.com/khushisaxena01/boomkart/internal/version"
	"github.com/khushisaxena01/boomkart/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	logger.Log.Info("Starting boomkart relay...")
	logger.Log.Info(version.String())

	port := os.Getenv("RELAY_PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(network.NewRegistry(), port)
	if err := srv.Run(ctx); err != nil {
		logger.Log.WithError(err).Fatal("Relay server failed")
	}
	logger.Log.Info("Relay stopped")
}
