package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/sol-safety-check/internal/config"
	"github.com/aman-zulfiqar/sol-safety-check/internal/engine"
	"github.com/aman-zulfiqar/sol-safety-check/internal/server"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Analyzer plus Redis cache, flags, pub/sub, ClickHouse history and AI
	eng, err := engine.NewEngine(ctx, cfg, engine.Options{Shared: true, AI: true, Logger: logger})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize engine")
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.WithError(err).Warn("engine close")
		}
	}()

	// Create handlers with all dependencies injected; nil pointers stay nil interfaces
	h := &server.Handlers{
		Reports:      eng.Analyzer,
		Providers:    eng.Analyzer.ProviderNames(),
		AIBaseConfig: eng.AgentConfig(cfg),
		Jupiter:      eng.Jupiter,
		Metrics:      eng.Metrics,
		HistoryOn:    eng.History != nil,
		RequestTTL:   cfg.AnalysisTimeout + cfg.HTTPTimeout,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}
	if eng.Flags != nil {
		h.Flags = eng.Flags
	}
	if eng.PubSub != nil {
		h.Events = eng.PubSub
	}
	if eng.AI != nil {
		h.AI = eng.AI
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
