package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

var messageColumns = []string{
	"id", "user_id", "content", "category", "mood", "summary", "completed", "created_at", "updated_at",
}

// MessageRepository implements storage.MessageRepository on the messages table.
type MessageRepository struct {
	db *sql.DB
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a MessageRepository. The caller owns db.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Close is a no-op; the pool is closed by its owner.
func (r *MessageRepository) Close() error {
	return nil
}

// AddMessage inserts a new message, generating its ID when empty.
func (r *MessageRepository) AddMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if err := core.ValidateMessage(msg); err != nil {
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

	query, args, err := psql.Insert("messages").
		Columns(messageColumns...).
		Values(
			stored.ID,
			stored.UserID,
			stored.Content,
			nullString(string(stored.Category)),
			nullString(string(stored.Mood)),
			nullStringPtr(stored.Summary),
			stored.Completed,
			stored.CreatedAt,
			stored.UpdatedAt,
		).ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, mapError(err, "message "+stored.ID)
	}
	return &stored, nil
}

// GetMessage retrieves a single message by ID.
func (r *MessageRepository) GetMessage(ctx context.Context, id string) (*core.Message, error) {
	query, args, err := psql.Select(messageColumns...).
		From("messages").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	msg, err := scanMessage(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "message "+id)
	}
	return msg, nil
}

// UpdateClassification overwrites category, mood and summary with a single UPDATE.
func (r *MessageRepository) UpdateClassification(ctx context.Context, id string, c core.Classification) error {
	if err := core.ValidateClassification(c); err != nil {
		return err
	}

	err := execExpectOne(ctx, r.db, psql.Update("messages").
		Set("category", string(c.Category)).
		Set("mood", string(c.Mood)).
		Set("summary", c.Summary).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}))
	return mapError(err, "message "+id)
}

// SetCompleted sets the completion flag of a message.
func (r *MessageRepository) SetCompleted(ctx context.Context, id string, completed bool) error {
	err := execExpectOne(ctx, r.db, psql.Update("messages").
		Set("completed", completed).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}))
	return mapError(err, "message "+id)
}

// DeleteMessage removes a message. Its media score row goes with it through
// the ON DELETE CASCADE foreign key.
func (r *MessageRepository) DeleteMessage(ctx context.Context, id string) error {
	err := execExpectOne(ctx, r.db, psql.Delete("messages").Where(sq.Eq{"id": id}))
	return mapError(err, "message "+id)
}

// ListMessages returns a user's messages, newest first. An unset category
// lists every category.
func (r *MessageRepository) ListMessages(ctx context.Context, userID string, category core.Category, limit int) ([]*core.Message, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, core.ErrEmptyUserID)
	}

	builder := psql.Select(messageColumns...).
		From("messages").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if category != core.CategoryUnset {
		builder = builder.Where(sq.Eq{"category": string(category)})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.queryMessages(ctx, builder)
}

// ListUnclassified returns unclassified messages ordered by ID after afterID.
func (r *MessageRepository) ListUnclassified(ctx context.Context, afterID string, limit int) ([]*core.Message, error) {
	builder := psql.Select(messageColumns...).
		From("messages").
		Where(sq.Eq{"category": nil}).
		OrderBy("id")
	if afterID != "" {
		builder = builder.Where(sq.Gt{"id": afterID})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.queryMessages(ctx, builder)
}

// CountUnclassified counts messages without a category.
func (r *MessageRepository) CountUnclassified(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("messages").
		Where(sq.Eq{"category": nil}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError(err, "count unclassified")
	}
	return count, nil
}

func (r *MessageRepository) queryMessages(ctx context.Context, builder sq.SelectBuilder) ([]*core.Message, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list messages")
	}
	defer rows.Close()

	var results []*core.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*core.Message, error) {
	var (
		msg      core.Message
		category sql.NullString
		mood     sql.NullString
		summary  sql.NullString
	)
	err := s.Scan(
		&msg.ID,
		&msg.UserID,
		&msg.Content,
		&category,
		&mood,
		&summary,
		&msg.Completed,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	msg.Category = core.Category(category.String)
	msg.Mood = core.Mood(mood.String)
	if summary.Valid {
		msg.Summary = &summary.String
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	msg.UpdatedAt = msg.UpdatedAt.UTC()
	return &msg, nil
}
