/*
Package main is the entry point for the planning poker server.

It loads configuration, initializes the global logging system, restores saved rooms
from the configured state backend, serves HTTP and WebSocket traffic, saves room state
periodically, and on SIGINT or SIGTERM stops all rooms and saves once more before exiting.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poker/internal/app/persist"
	"poker/internal/app/poker"
	"poker/internal/app/store"
	"poker/internal/configs"
	"poker/internal/handler"
	"poker/internal/pkg/logx"
)

func main() {
	// Load configuration from the environment, .env and CONFIG_FILE
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("state_backend", cfg.StateBackend).
		Dur("save_interval", cfg.SaveInterval).
		Bool("proxy_secret", cfg.ProxyHeaderKey != "").
		Bool("headers_logging", cfg.EnableHeadersLogging).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stateStore, err := store.New(ctx, cfg.StoreConfig())
	if err != nil {
		logx.Fatal(err, "Failed to initialize state store", "backend", cfg.StateBackend)
	}
	defer stateStore.Close()

	// Initialize the room directory and hydrate it from the last save
	manager := poker.NewManager()
	saver := persist.NewSaver(manager, stateStore, cfg.SaveInterval, nil)
	saver.Restore(ctx)

	saverDone := make(chan struct{})
	go func() {
		defer close(saverDone)
		saver.Run(ctx)
	}()

	// Setup HTTP server and routes
	router := handler.Router(ctx, &handler.AppDeps{
		Manager: manager,
		Config:  cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Poker server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	// Hijacked WebSocket connections outlive server.Shutdown; stopping the
	// rooms closes them and freezes the state for the final save.
	manager.Shutdown()
	<-saverDone

	if err := saver.Save(context.Background()); err != nil {
		logx.Error(err, "Final save failed")
	}

	logx.Info("Server gracefully stopped.")
}
