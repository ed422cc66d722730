package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Handler processes one event. Returning an error wrapping ErrPermanent
// skips the remaining attempts.
type Handler func(ctx context.Context, evt *Event) error

const (
	// DefaultMaxAttempts is used for events that do not carry their own limit.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = time.Second
)

// Dispatcher runs event handlers on a bounded worker pool.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	pool        *ants.Pool
	maxAttempts int
	baseDelay   time.Duration
	deadLetters DeadLetterSink
	logger      *slog.Logger

	// closeMu orders inflight.Add against Release's Wait.
	closeMu  sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher) error

// WithPoolSize sets the number of events handled concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) DispatcherOption {
	return func(d *Dispatcher) error {
		if size < 1 {
			size = 1
		}
		if d.pool != nil {
			d.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}
}

// WithMaxAttempts sets the default number of attempts per event.
func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		d.maxAttempts = n
		return nil
	}
}

// WithBaseDelay sets the delay before the first retry; it doubles on each
// further retry.
func WithBaseDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) error {
		d.baseDelay = delay
		return nil
	}
}

// WithDeadLetterSink sets where permanently failed events are sent.
// Without a sink they are only logged.
func WithDeadLetterSink(sink DeadLetterSink) DispatcherOption {
	return func(d *Dispatcher) error {
		d.deadLetters = sink
		return nil
	}
}

// WithDispatcherLogger sets a custom logger.
// Default is slog.Default().
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a Dispatcher with no handlers registered.
func NewDispatcher(opts ...DispatcherOption) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers:    make(map[string]Handler),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			d.Release()
			return nil, err
		}
	}

	if d.pool == nil {
		poolSize := runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
		pool, err := ants.NewPool(poolSize)
		if err != nil {
			return nil, err
		}
		d.pool = pool
	}

	d.logger = d.logger.With("component", "dispatcher")
	return d, nil
}

// Register sets the handler for an event type, replacing any previous one.
func (d *Dispatcher) Register(eventType string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = handler
}

// Dispatch submits evt to the worker pool and returns without waiting for
// the handler. It blocks while every worker is busy.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *Event) error {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return ErrDispatcherClosed
	}
	d.inflight.Add(1)
	d.closeMu.Unlock()

	err := d.pool.Submit(func() {
		defer d.inflight.Done()
		if err := d.Handle(ctx, evt); err != nil {
			d.logger.Debug("event not handled", "event", evt.ID, "err", err)
		}
	})
	if err != nil {
		d.inflight.Done()
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrDispatcherClosed
		}
		return err
	}
	return nil
}

// Handle runs the handler for evt in the calling goroutine, retrying with
// exponential backoff. Events that fail permanently or exhaust their
// attempts are dead-lettered.
func (d *Dispatcher) Handle(ctx context.Context, evt *Event) error {
	logger := d.logger.With("event", evt.ID, "type", evt.Type)

	d.mu.RLock()
	handler, ok := d.handlers[evt.Type]
	d.mu.RUnlock()
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownEventType, evt.Type)
		d.deadLetter(ctx, evt, err, logger)
		return err
	}

	maxAttempts := evt.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = d.maxAttempts
	}
	evt.MaxAttempts = maxAttempts

	remaining := maxAttempts - evt.Attempt
	if remaining <= 0 {
		err := fmt.Errorf("%w: %d of %d attempts used", ErrMaxAttemptsExceeded, evt.Attempt, maxAttempts)
		d.deadLetter(ctx, evt, err, logger)
		return err
	}

	err := RetryWithBackoff(ctx, func() error {
		evt.Attempt++
		err := handler(ctx, evt)
		if err != nil {
			evt.LastError = err.Error()
			logger.Warn("handler failed", "attempt", evt.Attempt, "maxAttempts", maxAttempts, "err", err)
		}
		return err
	}, remaining, d.baseDelay)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		logger.Warn("event abandoned", "attempt", evt.Attempt, "err", err)
		return err
	}
	if !errors.Is(err, ErrPermanent) {
		err = fmt.Errorf("%w: %w", ErrMaxAttemptsExceeded, err)
	}
	d.deadLetter(ctx, evt, err, logger)
	return err
}

func (d *Dispatcher) deadLetter(ctx context.Context, evt *Event, cause error, logger *slog.Logger) {
	evt.LastError = cause.Error()
	logger.Error("event failed permanently", "attempt", evt.Attempt, "err", cause)
	if d.deadLetters == nil {
		return
	}
	if err := d.deadLetters.DeadLetter(context.WithoutCancel(ctx), evt); err != nil {
		logger.Error("failed to dead-letter event", "err", err)
	}
}

// Wait blocks until every dispatched event has been handled.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// Release stops accepting events, waits for in-flight handlers and frees
// the worker pool. The dispatcher should not be used after calling Release.
func (d *Dispatcher) Release() {
	d.closeMu.Lock()
	d.closed = true
	d.closeMu.Unlock()

	d.inflight.Wait()
	if d.pool != nil {
		d.pool.Release()
	}
}
