package events

import "errors"

var (
	// ErrUnknownEventType is returned when no handler is registered for an event type.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrMaxAttemptsExceeded is returned when a handler failed on every attempt.
	ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrDispatcherClosed is returned when dispatching after Release.
	ErrDispatcherClosed = errors.New("dispatcher closed")

	// ErrQueueClosed is returned by queue operations after Close.
	ErrQueueClosed = errors.New("queue closed")

	// ErrMalformedEvent is returned when an envelope cannot be decoded.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrPermanent marks handler errors that must not be retried.
	ErrPermanent = errors.New("permanent failure")
)
