package shutdown

import (
	"context"
	"os"
	"os/signal"

	"github.com/honeycarbs/remotejobs/pkg/logging"
)

// OnSignal returns a context that is cancelled when one of the signals
// arrives, so an in-flight run can abort its current network call.
func OnSignal(parent context.Context, log *logging.Logger, signals ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Warn("shutdown signal received, cancelling run", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
