// Command order-audit follows the order lifecycle topics and writes every
// created, approved and rejected order to the audit log.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	segkafka "github.com/segmentio/kafka-go"

	"etickets/internal/config"
	"etickets/internal/kafka"
	"etickets/internal/logger"
	orderkafka "etickets/internal/order/kafka"
)

const groupID = "etickets-order-audit"

func auditHandler(logger *logger.Logger) func(ctx context.Context, msg segkafka.Message) error {
	return func(ctx context.Context, msg segkafka.Message) error {
		event, err := orderkafka.DecodeOrderEvent(msg.Value)
		if err != nil {
			return err
		}
		action := strings.ToUpper(strings.TrimPrefix(event.Type, "order."))
		logger.LogOrder(action, event.ReferenceNumber, fmt.Sprintf(
			"event %d, %d tickets, total %s, status %s at %s",
			event.EventID, event.Quantity, event.TotalAmount.StringFixed(2), event.Status,
			event.OccurredAt.Format("2006-01-02 15:04:05"),
		))
		return nil
	}
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logger.NewLogger(cfg.LogDir)
	defer logger.Close()

	if !cfg.Kafka.Enabled {
		logger.Fatal("KAFKA", "KAFKA_ENABLED=false, nothing to audit")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), groupID, logger)
	defer consumer.Close()

	logger.Info("APP", fmt.Sprintf("Order audit consuming %s", strings.Join(cfg.Kafka.Topics.All(), ", ")))
	if err := consumer.Run(ctx, auditHandler(logger)); err != nil {
		logger.Error("KAFKA", err.Error())
		return
	}
	logger.Info("APP", "✅ Order audit stopped")
}
