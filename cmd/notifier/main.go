// Command notifier consumes reservation events from RabbitMQ and appends a
// receipt line per event to a log file.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/vehicle-rental/internal/config"
	"github.com/iliyamo/vehicle-rental/internal/logging"
	"github.com/iliyamo/vehicle-rental/internal/queue"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadBrokerConfig()
	log := logging.New(config.LogLevel(), config.AppEnv())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(cfg.RabbitURL, cfg.Queue, cfg.ReceiptLogDir, log)
	log.WithField("queue", cfg.Queue).Info("notifier started")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("notifier stopped")
	}
	log.Info("notifier stopped")
}
