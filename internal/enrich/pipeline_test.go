package enrich

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type PipelineItem struct {
	mu      sync.Mutex
	Results map[string]any
}

func NewPipelineItem() *PipelineItem {
	return &PipelineItem{Results: make(map[string]any)}
}

func (p *PipelineItem) set(key string, val any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Results[key] = val
}

func StepAddValue(key string, val any) Step[PipelineItem] {
	return func(_ context.Context, item *PipelineItem) error {
		item.set(key, val)
		return nil
	}
}

func StepError(_ context.Context, _ *PipelineItem) error {
	return errors.New("mock step failed")
}

// StepCopy reads a value set by an earlier stage.
func StepCopy(from, to string) Step[PipelineItem] {
	return func(_ context.Context, item *PipelineItem) error {
		item.mu.Lock()
		v, ok := item.Results[from]
		item.mu.Unlock()
		if !ok {
			return errors.New("missing " + from)
		}
		item.set(to, v)
		return nil
	}
}

func TestPipeline_Run(t *testing.T) {
	tests := []struct {
		name     string
		stages   []Stage[PipelineItem]
		expected map[string]any
	}{
		{
			name:     "single step",
			stages:   []Stage[PipelineItem]{NewStage(StepAddValue("foo", "bar"))},
			expected: map[string]any{"foo": "bar"},
		},
		{
			name: "two steps in one stage",
			stages: []Stage[PipelineItem]{
				NewStage(StepAddValue("x", 1), StepAddValue("y", 2)),
			},
			expected: map[string]any{"x": 1, "y": 2},
		},
		{
			name: "later stage sees earlier results",
			stages: []Stage[PipelineItem]{
				NewStage(StepAddValue("a", "first")),
				NewStage(StepCopy("a", "b")),
			},
			expected: map[string]any{"a": "first", "b": "first"},
		},
		{
			name: "step error does not break pipeline",
			stages: []Stage[PipelineItem]{
				NewStage(StepError),
				NewStage(StepAddValue("ok", true)),
			},
			expected: map[string]any{"ok": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			item := NewPipelineItem()
			in := make(chan *PipelineItem, 1)
			in <- item
			close(in)

			forwarded := 0
			for range NewPipeline(tt.stages...).Run(ctx, in) {
				forwarded++
			}
			if forwarded != 1 {
				t.Fatalf("forwarded %d items; want 1", forwarded)
			}

			if !reflect.DeepEqual(item.Results, tt.expected) {
				t.Errorf("got %+v, expected %+v", item.Results, tt.expected)
			}
		})
	}
}

func TestPipeline_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan *PipelineItem, 1)
	in <- NewPipelineItem()

	out := NewPipeline(NewStage(StepAddValue("k", "v"))).Run(ctx, in)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Run did not close its output after cancel")
		}
	}
}
