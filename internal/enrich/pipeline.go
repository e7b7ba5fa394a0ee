package enrich

import (
	"context"
	"sync"

	"relocation/internal/logger"
)

// Pipeline applies its stages to every item it receives. Step errors are
// logged and do not stop the item.
type Pipeline[T any] struct {
	stages []Stage[T]
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Run applies every stage to each item of in and forwards the item once the
// last stage has finished. The output is closed when in is closed or ctx is
// done.
func (p *Pipeline[T]) Run(ctx context.Context, in <-chan *T) <-chan *T {
	out := make(chan *T)
	go func() {
		defer close(out)
		for {
			var item *T
			select {
			case v, ok := <-in:
				if !ok {
					return
				}
				item = v
			case <-ctx.Done():
				return
			}
			p.apply(ctx, item)
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (p *Pipeline[T]) apply(ctx context.Context, item *T) {
	for _, stage := range p.stages {
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					logger.GetLogger().Warnf("Step failed: %v", err)
				}
			}(step)
		}
		wg.Wait()
	}
}
