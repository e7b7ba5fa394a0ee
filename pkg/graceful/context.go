package graceful

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"relocation/internal/logger"
)

// Context returns a context that is canceled on SIGINT or SIGTERM. The
// returned cancel also releases the signal handler.
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.GetLogger().Infof("Received %s, starting graceful shutdown", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
