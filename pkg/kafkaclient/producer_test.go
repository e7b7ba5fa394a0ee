package kafkaclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"relocation/internal/models"
)

type mockWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := models.NewLookupEvent(now, "sk", "sk", "fallback", "showing", []models.Site{{Name: "Profesia.sk"}})

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "writes keyed JSON"},
		{name: "broker failure is returned", err: errors.New("broker down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &mockWriter{err: tt.err}
			p := &Producer{writer: w, topic: "lookups"}

			err := p.Publish(context.Background(), event)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Publish() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, tt.err) {
					t.Errorf("error %v does not wrap %v", err, tt.err)
				}
				return
			}
			if len(w.written) != 1 {
				t.Fatalf("wrote %d messages; want 1", len(w.written))
			}
			msg := w.written[0]
			if string(msg.Key) != "sk" {
				t.Errorf("Key = %q", msg.Key)
			}
			var got models.LookupEvent
			if err := json.Unmarshal(msg.Value, &got); err != nil {
				t.Fatalf("value is not JSON: %v", err)
			}
			if got.ID != event.ID || got.Source != "fallback" || got.SiteNames[0] != "Profesia.sk" {
				t.Errorf("decoded event = %+v", got)
			}
		})
	}
}

func TestProducer_Close(t *testing.T) {
	w := &mockWriter{}
	p := &Producer{writer: w}
	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("Close() = %v, closed = %v", err, w.closed)
	}
}

func TestNewProducer_RequiresTopic(t *testing.T) {
	if _, err := NewProducer("localhost:9092", "", false); err == nil {
		t.Fatal("expected error for empty topic")
	}
	if _, err := NewKafkaConsumer("", "g", "localhost:9092"); err == nil {
		t.Fatal("expected error for empty topic")
	}
}
