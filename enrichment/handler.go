package enrichment

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/secondbrain/events"
	"github.com/poiesic/secondbrain/storage"
)

// Handler adapts the Enricher to message/created events.
// Malformed payloads, invalid requests and unknown messages are marked
// permanent so the dispatcher dead-letters them without retrying.
func (e *Enricher) Handler() events.Handler {
	return func(ctx context.Context, evt *events.Event) error {
		var payload events.MessageCreated
		if err := evt.Decode(&payload); err != nil {
			return fmt.Errorf("%w: %w", events.ErrPermanent, err)
		}

		_, err := e.Enrich(ctx, Request{
			MessageID: payload.MessageID,
			UserID:    payload.UserID,
			Content:   payload.Content,
		})
		if errors.Is(err, ErrInvalidRequest) || errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %w", events.ErrPermanent, err)
		}
		return err
	}
}
