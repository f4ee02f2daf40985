package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type HandlerFunc func(ctx context.Context, event Event) error

// Consumer reads events from the topic and hands them to a handler, committing
// each offset after the handler returns.
type Consumer struct {
	reader MessageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
		MaxWait:        500 * time.Millisecond,
	})
	return &Consumer{reader: reader}
}

func NewConsumerFromReader(r MessageReader) *Consumer {
	return &Consumer{reader: r}
}

// Run blocks until ctx is cancelled or the reader is closed. Undecodable
// messages are logged and committed so they do not wedge the group.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			slog.Warn("Skipping undecodable event", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		} else if err := handle(ctx, event); err != nil {
			slog.Error("Event handler failed", "type", event.Type, "key", event.Key, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
