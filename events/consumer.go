package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Consumer moves events from a Queue into a Dispatcher.
type Consumer struct {
	queue      Queue
	dispatcher *Dispatcher
	logger     *slog.Logger
	backoff    time.Duration
}

// NewConsumer creates a Consumer. A nil logger uses slog.Default().
func NewConsumer(queue Queue, dispatcher *Dispatcher, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		queue:      queue,
		dispatcher: dispatcher,
		logger:     logger.With("component", "consumer"),
		backoff:    time.Second,
	}
}

// Run pops and dispatches events until ctx is cancelled or the queue is
// closed. Events already dispatched keep running after ctx is cancelled;
// call Dispatcher.Wait to drain them.
func (c *Consumer) Run(ctx context.Context) error {
	handleCtx := context.WithoutCancel(ctx)

	for {
		evt, err := c.queue.Pop(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrQueueClosed):
			return nil
		case errors.Is(err, ErrMalformedEvent):
			c.logger.Warn("skipping malformed event", "err", err)
			continue
		case err != nil:
			c.logger.Error("failed to pop event", "err", err)
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		case evt == nil:
			continue
		}

		if err := c.dispatcher.Dispatch(handleCtx, evt); err != nil {
			if errors.Is(err, ErrDispatcherClosed) {
				return err
			}
			c.logger.Error("failed to dispatch event", "event", evt.ID, "err", err)
		}
	}
}

// sleep waits for d and reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
