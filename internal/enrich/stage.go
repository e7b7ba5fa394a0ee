// Package enrich runs items through stages of steps. Steps in one stage run
// in parallel; stages run one after another.
package enrich

import (
	"context"
)

// Step mutates one item. Steps in the same stage share the item and must not
// write the same fields.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that may run concurrently on one item.
type Stage[T any] struct {
	steps []Step[T]
}

// NewStage constructs a Stage from the provided steps.
func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
