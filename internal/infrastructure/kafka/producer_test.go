package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/config"
	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/kafka"
)

func TestNewProducer_Disabled(t *testing.T) {
	_, err := kafka.NewProducer(config.KafkaConfig{Enabled: false})
	if !errors.Is(err, kafka.ErrDisabled) {
		t.Errorf("NewProducer() error = %v, want ErrDisabled", err)
	}
}

func TestNewProducer_Topic(t *testing.T) {
	p, err := kafka.NewProducer(config.KafkaConfig{
		Enabled: true,
		Brokers: []string{"localhost:9092"},
		Topic:   "fusionsolar.snapshots",
	})
	if err != nil {
		t.Fatalf("NewProducer() error = %v", err)
	}
	defer p.Close()

	if got := p.Topic(); got != "fusionsolar.snapshots" {
		t.Errorf("Topic() = %q, want %q", got, "fusionsolar.snapshots")
	}
}

func TestCloseNil(t *testing.T) {
	p := &kafka.Producer{}
	if err := p.Close(); err != nil {
		t.Errorf("Close() on zero producer error = %v, want nil", err)
	}
}

// TestPublish_Integration requires a Kafka broker at localhost:9092.
func TestPublish_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	p, err := kafka.NewProducer(config.KafkaConfig{
		Enabled: true,
		Brokers: []string{"localhost:9092"},
		Topic:   "fusionsolar.test",
	})
	if err != nil {
		t.Fatalf("NewProducer() error = %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.Publish(ctx, "2026-03-01T12:00:00Z", []byte(`{"plants":{},"devices":{}}`))
	if err != nil {
		t.Skipf("Kafka not available: %v", err)
	}
}
