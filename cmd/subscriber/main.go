package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/sol-safety-check/internal/cache"
	"github.com/aman-zulfiqar/sol-safety-check/internal/config"
	"github.com/aman-zulfiqar/sol-safety-check/internal/models"
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

	level := flag.String("level", "", "only reports of this risk level (safe, caution, high_risk)")
	mint := flag.String("mint", "", "only reports for this mint")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down subscriber...")
		cancel()
	}()

	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer rc.Close()

	channel := cache.ChannelReportsAll
	switch {
	case *mint != "":
		channel = cache.MintChannel(*mint)
	case *level != "":
		channel = cache.LevelChannel(models.RiskLevel(*level))
	}

	events, err := cache.NewPubSubManager(rc.Client()).Subscribe(ctx, channel)
	if err != nil {
		logger.WithError(err).Fatal("failed to subscribe")
	}

	logger.WithField("channel", channel).Info("subscriber running, press Ctrl+C to stop")

	for ev := range events {
		entry := logger.WithFields(logrus.Fields{
			"mint":  ev.MintAddress,
			"score": ev.OverallScore,
			"level": ev.RiskLevel,
			"run":   ev.RunID,
		})
		if ev.RiskLevel == models.RiskLevelHighRisk {
			entry.Warn(ev.Verdict)
			continue
		}
		entry.Info(ev.Verdict)
	}
}
