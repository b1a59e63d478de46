package eventing

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunDispatcher drains the outbox on a fixed interval until the context
// is cancelled. Dispatch errors are logged and the loop keeps going.
func RunDispatcher(ctx context.Context, d *Dispatcher, every time.Duration, batch int, logger *zap.Logger) {
	if d == nil {
		return
	}
	if every <= 0 {
		every = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := d.Dispatch(ctx, batch)
			if err != nil {
				logger.Warn("outbox dispatch failed",
					zap.Int("claimed", result.Claimed),
					zap.Int("failed", result.Failed),
					zap.Error(err),
				)
			}
		}
	}
}
