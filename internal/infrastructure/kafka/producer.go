package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/config"
)

// ErrDisabled indicates the Kafka sink is disabled in configuration.
var ErrDisabled = errors.New("kafka sink is disabled")

// Producer timing constants.
const (
	// writeTimeout bounds a single publish batch.
	writeTimeout = 10 * time.Second

	// batchTimeout is how long the writer waits to fill a batch before
	// flushing. Kept short: we publish one document per polling cycle.
	batchTimeout = 100 * time.Millisecond
)

// Producer publishes snapshot documents to a Kafka topic.
// It wraps a kafka-go Writer configured for low-latency single-message use.
type Producer struct {
	writer *kafkago.Writer
	topic  string
}

// NewProducer creates a Kafka producer from configuration.
//
// Parameters:
//   - cfg: Kafka configuration from settings.yaml
//
// Returns:
//   - *Producer: Ready-to-use producer
//   - error: ErrDisabled if the sink is disabled
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		WriteTimeout: writeTimeout,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafkago.RequireOne,
	}

	return &Producer{
		writer: writer,
		topic:  cfg.Topic,
	}, nil
}

// Publish sends one message keyed by the publish timestamp.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - key: Message key (typically the RFC3339 cycle timestamp)
//   - payload: The JSON snapshot document
//
// Returns:
//   - error: If the write fails after the writer's internal retries
func (p *Producer) Publish(ctx context.Context, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

// Topic returns the configured topic name.
func (p *Producer) Topic() string {
	return p.topic
}

// Close flushes pending messages and releases the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("closing kafka writer: %w", err)
	}
	return nil
}
