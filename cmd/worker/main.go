package main

import (
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/notify"
	"github.com/spec-kit/appointment-service/internal/observability"
	"github.com/spec-kit/appointment-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	sender := notify.NewSender(notify.WebhookConfig{
		URL:     cfg.Notification.SMSWebhookURL,
		Token:   cfg.Notification.SMSWebhookToken,
		Timeout: 10 * time.Second,
	}, logger)

	srv := worker.NewServer(*cfg, logger)
	logger.Info("notification worker starting", zap.Int("concurrency", cfg.Notification.WorkerConcurrency))
	// Run blocks until SIGTERM or SIGINT.
	if err := srv.Run(worker.NewMux(sender, observability.NewMetrics(nil), logger)); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
