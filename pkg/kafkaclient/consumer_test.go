package kafkaclient

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// mockReader simulates the kafka-go Reader for unit testing.
type mockReader struct {
	messages   chan kafka.Message
	commitChan chan kafka.Message
	wg         sync.WaitGroup

	mu       sync.Mutex
	isClosed bool
}

func newMockReader() *mockReader {
	return &mockReader{
		messages:   make(chan kafka.Message, 10),
		commitChan: make(chan kafka.Message, 100),
	}
}

// produce simulates count messages arriving on the topic.
func (mr *mockReader) produce(count int) {
	mr.wg.Add(1)
	go func() {
		defer mr.wg.Done()
		defer close(mr.messages)

		for i := 0; i < count; i++ {
			mr.messages <- kafka.Message{
				Topic:     "lookups",
				Partition: 0,
				Offset:    int64(i),
				Value:     []byte(fmt.Sprintf("event-%d", i)),
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
}

func (mr *mockReader) closedNow() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.isClosed
}

func (mr *mockReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if mr.closedNow() {
		return kafka.Message{}, ErrReaderClosed
	}
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg, ok := <-mr.messages:
		if !ok {
			return kafka.Message{}, ErrReaderClosed
		}
		return msg, nil
	}
}

func (mr *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	if mr.closedNow() {
		return ErrReaderClosed
	}
	for _, msg := range msgs {
		mr.commitChan <- msg
	}
	return nil
}

func (mr *mockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.isClosed = true
	close(mr.commitChan)
	return nil
}

func TestKafkaConsumer_ConsumeAndCommit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader)

	const expected = 3
	reader.produce(expected)
	consumer.StartConsuming(ctx)

	received := 0
	for msg := range consumer.Messages() {
		want := fmt.Sprintf("event-%d", received)
		if string(msg.Value) != want {
			t.Errorf("message %d = %q; want %q", received, msg.Value, want)
		}
		if err := consumer.CommitOffset(ctx, msg); err != nil {
			t.Errorf("CommitOffset() failed: %v", err)
		}
		received++
	}
	if received != expected {
		t.Errorf("received %d messages; want %d", received, expected)
	}

	consumer.Stop()

	committed := 0
	for range reader.commitChan {
		committed++
	}
	if committed != expected {
		t.Errorf("committed %d messages; want %d", committed, expected)
	}
}

func TestKafkaConsumer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := newMockReader()
	consumer := newConsumer(reader)
	reader.produce(100)
	consumer.StartConsuming(ctx)

	for i := 0; i < 5; i++ {
		select {
		case <-consumer.Messages():
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timed out waiting for a message")
		}
	}

	consumer.Stop()
	consumer.Stop()

	remaining := 0
	for range consumer.Messages() {
		remaining++
	}
	if remaining > 0 {
		t.Errorf("got %d messages after Stop", remaining)
	}
	if !reader.closedNow() {
		t.Error("reader was not closed by Stop")
	}
}

type flakyReader struct {
	*mockReader
	mu    sync.Mutex
	fails int
}

func (f *flakyReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if f.fails > 0 {
		f.fails--
		f.mu.Unlock()
		return kafka.Message{}, fmt.Errorf("leader not available")
	}
	f.mu.Unlock()
	return f.mockReader.ReadMessage(ctx)
}

func TestKafkaConsumer_RetriesAfterReadError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reader := &flakyReader{mockReader: newMockReader(), fails: 2}
	consumer := newConsumer(reader)
	consumer.backoff = time.Millisecond
	reader.produce(1)
	consumer.StartConsuming(ctx)

	select {
	case msg := <-consumer.Messages():
		if string(msg.Value) != "event-0" {
			t.Errorf("got %q", msg.Value)
		}
	case <-ctx.Done():
		t.Fatal("consumer did not recover from read errors")
	}
	consumer.Stop()
}
