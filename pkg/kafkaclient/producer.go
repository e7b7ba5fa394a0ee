package kafkaclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"relocation/internal/models"
)

// KafkaWriter is the subset of *kafka.Writer the producer uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes lookup events as JSON, keyed by location so that all
// events for one location land on the same partition.
type Producer struct {
	writer KafkaWriter
	topic  string
}

// NewProducer returns a producer for topic on broker. With async set,
// Publish does not wait for the broker to acknowledge.
func NewProducer(broker, topic string, async bool) (*Producer, error) {
	if topic == "" || broker == "" {
		return nil, errors.New("kafkaclient: topic and broker are required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		Async:                  async,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w, topic: topic}, nil
}

// Publish writes one event.
func (p *Producer) Publish(ctx context.Context, event models.LookupEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode lookup event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.LocationKey),
		Value: value,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "status", Value: []byte(event.Status)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
