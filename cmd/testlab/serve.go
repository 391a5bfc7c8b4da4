package main

import (
	"fmt"
	"testlab/internal/app"
	"testlab/internal/handlers"
	"testlab/internal/logger"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.New("main").Function("runServe")

	ctx, stop := signalContext()
	defer stop()

	application, err := app.New()
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Er("failed to close app", err)
		}
	}()
	logger.Init(application.Config.GeneralLogLevel, application.Config.GeneralLogFormat)

	server, err := handlers.NewServer(application)
	if err != nil {
		return log.Err("failed to create server", err)
	}

	errCh := make(chan error, 1)
	address := fmt.Sprintf(":%d", application.Config.ServerPort)
	go func() {
		log.Info("Starting server", "address", address, "environment", application.Config.GeneralEnvironment)
		errCh <- server.Listen(address)
	}()

	select {
	case err := <-errCh:
		return log.Err("server stopped", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return log.Err("failed to shut down server", err)
	}
	return nil
}
