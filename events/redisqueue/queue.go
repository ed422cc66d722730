// Package redisqueue implements events.Queue on a Redis list.
//
// Publishers LPUSH JSON envelopes onto the queue key and consumers BRPOP
// them from the other end, so events are delivered in publish order.
// Envelopes that cannot be decoded and events that failed permanently are
// pushed onto a separate dead-letter list for inspection.
package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/secondbrain/events"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueKey      = "secondbrain:queue:events"
	DefaultDeadLetterKey = "secondbrain:queue:failed"

	// DefaultPopTimeout bounds each BRPOP; Redis only supports whole seconds.
	DefaultPopTimeout = time.Second
)

// Queue is a Redis list backed events.Queue and events.DeadLetterSink.
type Queue struct {
	client        *redis.Client
	key           string
	deadLetterKey string
	popTimeout    time.Duration
	logger        *slog.Logger
}

var (
	_ events.Queue          = (*Queue)(nil)
	_ events.DeadLetterSink = (*Queue)(nil)
)

// Option configures a Queue.
type Option func(*Queue)

// WithKeys sets the queue and dead-letter list keys. Empty values keep the defaults.
func WithKeys(key, deadLetterKey string) Option {
	return func(q *Queue) {
		if key != "" {
			q.key = key
		}
		if deadLetterKey != "" {
			q.deadLetterKey = deadLetterKey
		}
	}
}

// WithPopTimeout sets how long Pop waits before returning an empty result.
func WithPopTimeout(timeout time.Duration) Option {
	return func(q *Queue) {
		if timeout > 0 {
			q.popTimeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// Connect opens a client for redisURL and verifies it with PING.
// A value that is not a redis:// URL is used as a host:port address.
func Connect(ctx context.Context, redisURL string, opts ...Option) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opt.Addr, err)
	}
	return New(client, opts...), nil
}

// New wraps an existing client. The Queue takes ownership of it.
func New(client *redis.Client, opts ...Option) *Queue {
	q := &Queue{
		client:        client,
		key:           DefaultQueueKey,
		deadLetterKey: DefaultDeadLetterKey,
		popTimeout:    DefaultPopTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With("component", "redis-queue", "key", q.key)
	return q
}

// Publish pushes evt onto the queue.
func (q *Queue) Publish(ctx context.Context, evt *events.Event) error {
	data, err := events.Marshal(evt)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", evt.ID, err)
	}
	return nil
}

// Pop waits up to the pop timeout for the oldest event.
// Undecodable envelopes are moved to the dead-letter list and reported
// as events.ErrMalformedEvent.
func (q *Queue) Pop(ctx context.Context) (*events.Event, error) {
	result, err := q.client.BRPop(ctx, q.popTimeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw := result[1]
	evt, err := events.Unmarshal([]byte(raw))
	if err != nil {
		if pushErr := q.client.LPush(context.WithoutCancel(ctx), q.deadLetterKey, raw).Err(); pushErr != nil {
			q.logger.Error("failed to dead-letter malformed event", "err", pushErr)
		}
		return nil, err
	}
	return evt, nil
}

// DeadLetter pushes evt onto the dead-letter list.
func (q *Queue) DeadLetter(ctx context.Context, evt *events.Event) error {
	data, err := events.Marshal(evt)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.deadLetterKey, data).Err()
}

// Len returns the number of pending events.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// DeadLetters returns the raw dead-lettered envelopes, newest first.
func (q *Queue) DeadLetters(ctx context.Context) ([]string, error) {
	return q.client.LRange(ctx, q.deadLetterKey, 0, -1).Result()
}

// Close closes the underlying client.
func (q *Queue) Close() error {
	return q.client.Close()
}
