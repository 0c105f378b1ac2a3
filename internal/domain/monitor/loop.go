package monitor

import (
	"context"
	"time"
)

// RunLoop drives continuous monitoring: one cycle, then a fixed sleep,
// forever. Panics inside a cycle are recovered and followed by the same
// sleep, so the loop only ends when the context is cancelled.
func (o *Orchestrator) RunLoop(ctx context.Context, interval time.Duration) {
	o.logger.InfoTag("MONITOR", "starting continuous monitoring: interval=%s", interval)

	for {
		o.safeCycle(ctx)

		select {
		case <-ctx.Done():
			o.logger.InfoTag("MONITOR", "monitoring stopped")
			return
		case <-time.After(interval):
		}
	}
}

func (o *Orchestrator) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.ErrorTag("MONITOR", "error in monitoring loop: %v", r)
		}
	}()

	o.RunOnce(ctx)
}
