package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

// MediaScoreRepository implements storage.MediaScoreRepository for BadgerDB.
type MediaScoreRepository struct {
	backend *Backend
}

var _ storage.MediaScoreRepository = (*MediaScoreRepository)(nil)

// NewMediaScoreRepository creates a new MediaScoreRepository.
func NewMediaScoreRepository(backend *Backend) *MediaScoreRepository {
	return &MediaScoreRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *MediaScoreRepository) Close() error {
	return nil
}

// UpsertMediaScore writes the score under its message ID, replacing any previous one.
// The write is blind: the existing value is never read.
func (r *MediaScoreRepository) UpsertMediaScore(ctx context.Context, score *core.MediaScore) error {
	if err := core.ValidateMediaScore(score); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := *score
	if stored.ScoredAt.IsZero() {
		stored.ScoredAt = time.Now().UTC()
	}
	stored.ScoredAt = stored.ScoredAt.UTC().Truncate(time.Microsecond)

	value, err := storage.MarshalMediaScore(&stored)
	if err != nil {
		return err
	}

	return r.backend.update(func(tx *badger.Txn) error {
		return tx.Set(makeMediaScoreKey(stored.MessageID), value)
	})
}

// GetMediaScore retrieves the score for a message.
func (r *MediaScoreRepository) GetMediaScore(ctx context.Context, messageID string) (*core.MediaScore, error) {
	var score *core.MediaScore
	err := r.backend.view(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMediaScoreKey(messageID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: media score %s", storage.ErrNotFound, messageID)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			score, err = storage.UnmarshalMediaScore(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

// DeleteMediaScore removes the score for a message, if any.
func (r *MediaScoreRepository) DeleteMediaScore(ctx context.Context, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.update(func(tx *badger.Txn) error {
		return tx.Delete(makeMediaScoreKey(messageID))
	})
}
