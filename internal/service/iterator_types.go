package service

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessageIterator is the message source an Iterator reads from.
// *kafkaclient.KafkaConsumer implements it.
//
// Implementations own the consumer lifecycle and close the Messages channel
// when they stop.
type MessageIterator interface {
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// DecodeFunc turns one message into an item of type T.
type DecodeFunc[T any] func(ctx context.Context, msg kafka.Message) (T, error)

// FetchedObject pairs a decoded item with the message it came from.
type FetchedObject[T any] struct {
	Data    T
	Message kafka.Message
}
