package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/aman-zulfiqar/sol-safety-check/internal/address"
	"github.com/aman-zulfiqar/sol-safety-check/internal/config"
	"github.com/aman-zulfiqar/sol-safety-check/internal/engine"
	"github.com/aman-zulfiqar/sol-safety-check/internal/watch"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mints := flag.String("mints", "", "comma separated mints to watch (overrides WATCHLIST)")
	interval := flag.Duration("interval", 0, "re-score interval (overrides WATCH_INTERVAL)")
	flag.Parse()

	// Logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Config
	cfg := config.Load()
	if *mints != "" {
		cfg.Watchlist = nil
		for _, m := range strings.Split(*mints, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Watchlist = append(cfg.Watchlist, m)
			}
		}
	}
	if *interval > 0 {
		cfg.WatchInterval = *interval
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	valid := cfg.Watchlist[:0]
	for _, m := range cfg.Watchlist {
		if err := address.Validate(m); err != nil {
			logger.WithError(err).WithField("mint", m).Warn("skipping invalid mint")
			continue
		}
		valid = append(valid, m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down watchlist...")
		cancel()
	}()

	// Shared so every sweep refreshes the cache, history and report channels
	eng, err := engine.NewEngine(ctx, cfg, engine.Options{Shared: true, Logger: logger})
	if err != nil {
		logger.WithError(err).Fatal("failed to create engine")
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.WithError(err).Warn("engine close failed")
		}
	}()

	w, err := watch.New(watch.Config{
		Analyzer: eng.Analyzer,
		Mints:    valid,
		Interval: cfg.WatchInterval,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create watchlist")
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("watchlist stopped with error")
	}
}
