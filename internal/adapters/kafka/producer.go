package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
)

// Producer publishes events through a sarama SyncProducer.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func newSaramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "signage-service"
	config.Producer.MaxMessageBytes = 1000000
	return config
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	sp, err := sarama.NewSyncProducer(brokers, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	slog.Info("Kafka producer connected", "brokers", brokers, "topic", topic)
	return NewProducerFromSync(sp, topic), nil
}

func NewProducerFromSync(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: sp, topic: topic}
}

// NewPublisher returns a kafka producer when brokers are configured and a
// NoopPublisher otherwise.
func NewPublisher(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		slog.Info("No Kafka brokers configured, events are discarded")
		return NoopPublisher{}, nil
	}
	return NewProducer(brokers, topic)
}

func (p *Producer) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send event %s: %w", event.Type, err)
	}

	slog.Debug("Event published", "type", event.Type, "key", event.Key, "partition", partition, "offset", offset)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
