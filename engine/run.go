package engine

import (
	"context"
	stderrors "errors"

	"golang.org/x/time/rate"
)

// Run executes cycles at up to hz cycles per second until ctx is cancelled or
// cycles cycles have run. hz <= 0 runs unthrottled and cycles <= 0 runs until
// cancellation. Cancellation is a normal stop and returns nil. Node failures
// are reported per cycle and do not stop the loop.
func (e *Engine) Run(ctx context.Context, hz float64, cycles int) error {
	limit := rate.Inf
	if hz > 0 {
		limit = rate.Limit(hz)
	}
	limiter := rate.NewLimiter(limit, 1)

	e.logger.Info("engine loop started", "rate_hz", hz, "cycles", cycles, "skip_clean", e.skipClean)
	defer e.logger.Info("engine loop stopped", "completed", e.cycle)

	for i := 0; cycles <= 0 || i < cycles; i++ {
		// Wait fails only on cancellation or when the next slot lies past
		// the context deadline. Both end the loop normally.
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		var err error
		if i == 0 && e.initOnStart {
			_, err = e.ExecuteWithInit(ctx)
		} else {
			_, err = e.Execute(ctx)
		}
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
	return nil
}
