// Package kafkaclient wraps segmentio/kafka-go for publishing lookup events
// and consuming them again downstream.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"relocation/internal/logger"
)

// KafkaReader is the subset of *kafka.Reader the consumer uses.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ErrReaderClosed is what readers return once closed. kafka-go reports
// io.EOF for this; mocks may use either.
var ErrReaderClosed = errors.New("kafka: reader closed")

// KafkaConsumer reads messages on its own goroutine and hands them out on a
// channel. Offsets are committed explicitly through CommitOffset.
type KafkaConsumer struct {
	reader      KafkaReader
	doneChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	messageChan chan kafka.Message
	backoff     time.Duration
}

// NewKafkaConsumer creates a consumer in the given group.
func NewKafkaConsumer(topic, groupID, broker string) (*KafkaConsumer, error) {
	if topic == "" || broker == "" {
		return nil, errors.New("kafkaclient: topic and broker are required")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
		// Offsets are committed by hand after an event has been archived.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newConsumer(reader), nil
}

func newConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
		backoff:     time.Second,
	}
}

// Messages returns the delivery channel. It is closed when consumption stops.
func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messageChan
}

// CommitOffset commits msg for the consumer group.
func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	logger.GetLogger().Debugf("Committing offset topic=%s partition=%d offset=%d", msg.Topic, msg.Partition, msg.Offset)
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming starts the read loop.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	log := logger.GetLogger()
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		log.Info("Starting Kafka consumer loop")
		for {
			select {
			case <-ctx.Done():
				log.Info("Context canceled, stopping consumer loop")
				return
			case <-kc.doneChan:
				log.Info("Shutdown signal received, stopping consumer loop")
				return
			default:
			}

			msg, err := kc.reader.ReadMessage(ctx)
			if err != nil {
				if closed(err) || ctx.Err() != nil {
					return
				}
				log.Warnf("Error reading message: %v", err)
				select {
				case <-time.After(kc.backoff):
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
				continue
			}

			select {
			case kc.messageChan <- msg:
				log.Debugf("Message received topic=%s partition=%d offset=%d", msg.Topic, msg.Partition, msg.Offset)
			case <-ctx.Done():
				return
			case <-kc.doneChan:
				return
			}
		}
	}()
}

// Stop ends the read loop and closes the reader. Calling it twice is safe.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		log := logger.GetLogger()
		close(kc.doneChan)
		kc.wg.Wait()
		if err := kc.reader.Close(); err != nil {
			log.Warnf("Failed to close Kafka reader: %v", err)
		}
		log.Info("Kafka consumer stopped")
	})
}

func closed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, ErrReaderClosed)
}
