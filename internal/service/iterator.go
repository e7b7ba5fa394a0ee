// Package service streams decoded items out of a message source.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"relocation/internal/logger"
	"relocation/internal/models"
)

// Iterator decodes every message from a MessageIterator and yields the result.
// Messages that fail to decode are logged, committed and skipped so a poison
// message cannot stall the group.
type Iterator[T any] struct {
	msgIterator MessageIterator
	decode      DecodeFunc[T]
}

// NewIterator returns an iterator over source using decode.
func NewIterator[T any](source MessageIterator, decode DecodeFunc[T]) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: source,
		decode:      decode,
	}
}

// NewLookupIterator decodes lookup events published by the resolver.
func NewLookupIterator(source MessageIterator) *Iterator[*models.LookupEvent] {
	return NewIterator[*models.LookupEvent](source, DecodeJSON[models.LookupEvent])
}

// DecodeJSON unmarshals the message value into a new T.
func DecodeJSON[T any](_ context.Context, msg kafka.Message) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(msg.Value, v); err != nil {
		return nil, fmt.Errorf("decode message at offset %d: %w", msg.Offset, err)
	}
	return v, nil
}

// Objects streams decoded items until the source closes or ctx is done. The
// offset of each message is committed once its item has been handed over.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	log := logger.GetLogger()
	go func() {
		defer close(out)

		msgs := it.msgIterator.Messages()
		for {
			var msg kafka.Message
			select {
			case m, ok := <-msgs:
				if !ok {
					return
				}
				msg = m
			case <-ctx.Done():
				return
			}

			fields := logrus.Fields{"topic": msg.Topic, "partition": msg.Partition, "offset": msg.Offset}
			data, err := it.decode(ctx, msg)
			if err != nil {
				log.WithFields(fields).Warnf("Skipping undecodable message: %v", err)
				it.commit(ctx, msg)
				continue
			}

			select {
			case out <- &FetchedObject[T]{Data: data, Message: msg}:
			case <-ctx.Done():
				return
			}
			it.commit(ctx, msg)
		}
	}()
	return out
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		logger.GetLogger().Warnf("Failed to commit offset %d: %v", msg.Offset, err)
	}
}
