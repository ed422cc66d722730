package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

// MessageRepository implements storage.MessageRepository for BadgerDB.
type MessageRepository struct {
	backend *Backend
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(backend *Backend) *MessageRepository {
	return &MessageRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *MessageRepository) Close() error {
	return nil
}

// AddMessage stores a new message and indexes it by user and category.
func (r *MessageRepository) AddMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if err := core.ValidateMessage(msg); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := *msg
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.CreatedAt = stored.CreatedAt.UTC().Truncate(time.Microsecond)
	stored.UpdatedAt = now

	err := r.backend.update(func(tx *badger.Txn) error {
		key := makeMessageKey(stored.ID)
		if _, err := tx.Get(key); err == nil {
			return fmt.Errorf("%w: message %s", storage.ErrDuplicateKey, stored.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return r.writeMessage(tx, nil, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetMessage retrieves a single message by ID.
func (r *MessageRepository) GetMessage(ctx context.Context, id string) (*core.Message, error) {
	var msg *core.Message
	err := r.backend.view(func(tx *badger.Txn) error {
		var err error
		msg, err = readMessage(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateClassification overwrites category, mood and summary in one transaction.
func (r *MessageRepository) UpdateClassification(ctx context.Context, id string, c core.Classification) error {
	if err := core.ValidateClassification(c); err != nil {
		return err
	}
	return r.modify(ctx, id, func(msg *core.Message) {
		summary := c.Summary
		msg.Category = c.Category
		msg.Mood = c.Mood
		msg.Summary = &summary
	})
}

// SetCompleted sets the completion flag of a message.
func (r *MessageRepository) SetCompleted(ctx context.Context, id string, completed bool) error {
	return r.modify(ctx, id, func(msg *core.Message) {
		msg.Completed = completed
	})
}

// modify applies change to the stored message and rewrites it with its indexes.
func (r *MessageRepository) modify(ctx context.Context, id string, change func(*core.Message)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.update(func(tx *badger.Txn) error {
		old, err := readMessage(tx, id)
		if err != nil {
			return err
		}
		updated := *old
		change(&updated)
		updated.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
		return r.writeMessage(tx, old, &updated)
	})
}

// writeMessage stores msg and moves its index entries away from old's.
func (r *MessageRepository) writeMessage(tx *badger.Txn, old, msg *core.Message) error {
	value, err := storage.MarshalMessage(msg)
	if err != nil {
		return err
	}
	if err := tx.Set(makeMessageKey(msg.ID), value); err != nil {
		return err
	}

	if old != nil && old.Category != msg.Category {
		if err := tx.Delete(makeUserIndexKey(old.UserID, old.Category, old.CreatedAt, old.ID)); err != nil {
			return err
		}
	}
	if err := tx.Set(makeUserIndexKey(msg.UserID, msg.Category, msg.CreatedAt, msg.ID), []byte(msg.ID)); err != nil {
		return err
	}

	if msg.Classified() {
		return tx.Delete(makeUnclassifiedKey(msg.ID))
	}
	return tx.Set(makeUnclassifiedKey(msg.ID), []byte(msg.ID))
}

// ListMessages returns a user's messages in a category, newest first.
func (r *MessageRepository) ListMessages(ctx context.Context, userID string, category core.Category, limit int) ([]*core.Message, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, core.ErrEmptyUserID)
	}

	var results []*core.Message
	err := r.backend.view(func(tx *badger.Txn) error {
		prefix := makeUserIndexPrefix(userID, category)

		// Use reverse iterator to get most recent records first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seekEnd(prefix)); iter.Valid(); iter.Next() {
			var id string
			if err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			msg, err := readMessage(tx, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			results = append(results, msg)

			// Without a category the index is grouped by category, so the
			// limit is applied after sorting.
			if category != core.CategoryUnset && limit > 0 && len(results) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if category == core.CategoryUnset {
		slices.SortStableFunc(results, func(a, b *core.Message) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		if limit > 0 && len(results) > limit {
			results = results[:limit]
		}
	}
	return results, nil
}

// ListUnclassified returns unclassified messages ordered by ID after afterID.
func (r *MessageRepository) ListUnclassified(ctx context.Context, afterID string, limit int) ([]*core.Message, error) {
	var results []*core.Message
	err := r.backend.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(unclassifiedPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := makeUnclassifiedKey(afterID)
		for iter.Seek(start); iter.Valid(); iter.Next() {
			if afterID != "" && bytes.Equal(iter.Item().Key(), start) {
				continue
			}
			id := string(iter.Item().Key()[len(unclassifiedPrefix):])
			msg, err := readMessage(tx, id)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			results = append(results, msg)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
		return nil
	})
	return results, err
}

// CountUnclassified counts entries in the unclassified index.
func (r *MessageRepository) CountUnclassified(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(unclassifiedPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// DeleteMessage removes a message along with its user and unclassified
// index entries.
func (r *MessageRepository) DeleteMessage(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.update(func(tx *badger.Txn) error {
		msg, err := readMessage(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(makeUserIndexKey(msg.UserID, msg.Category, msg.CreatedAt, msg.ID)); err != nil {
			return err
		}
		if err := tx.Delete(makeUnclassifiedKey(msg.ID)); err != nil {
			return err
		}
		return tx.Delete(makeMessageKey(msg.ID))
	})
}

// readMessage reads and deserializes a message, mapping a missing key to storage.ErrNotFound.
func readMessage(tx *badger.Txn, id string) (*core.Message, error) {
	item, err := tx.Get(makeMessageKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: message %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var msg *core.Message
	err = item.Value(func(val []byte) error {
		var err error
		msg, err = storage.UnmarshalMessage(val)
		return err
	})
	return msg, err
}
