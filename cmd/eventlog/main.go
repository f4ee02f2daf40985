// Command eventlog tails the signage event topic and writes each event to the
// structured log.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/config"
	"signage-service/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logging.InitLogger(cfg.Log.Level, cfg.Log.Format)

	if len(cfg.Kafka.Brokers) == 0 {
		slog.Error("KAFKA_BROKERS is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer consumer.Close()

	slog.Info("Tailing events", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	err = consumer.Run(ctx, func(_ context.Context, ev kafka.Event) error {
		slog.Info("Event",
			"type", ev.Type,
			"key", ev.Key,
			"occurredAt", ev.OccurredAt,
			"data", string(ev.Data))
		return nil
	})
	if err != nil {
		slog.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
}
