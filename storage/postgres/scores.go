package postgres

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

// MediaScoreRepository implements storage.MediaScoreRepository on the
// media_scores table.
type MediaScoreRepository struct {
	db *sql.DB
}

var _ storage.MediaScoreRepository = (*MediaScoreRepository)(nil)

// NewMediaScoreRepository creates a MediaScoreRepository. The caller owns db.
func NewMediaScoreRepository(db *sql.DB) *MediaScoreRepository {
	return &MediaScoreRepository{db: db}
}

// Close is a no-op; the pool is closed by its owner.
func (r *MediaScoreRepository) Close() error {
	return nil
}

// UpsertMediaScore inserts the score or replaces every column of the
// existing row for the same message.
func (r *MediaScoreRepository) UpsertMediaScore(ctx context.Context, score *core.MediaScore) error {
	if err := core.ValidateMediaScore(score); err != nil {
		return err
	}

	scoredAt := score.ScoredAt
	if scoredAt.IsZero() {
		scoredAt = time.Now()
	}

	query, args, err := psql.Insert("media_scores").
		Columns("message_id", "boldness", "explanation", "confidence", "scored_at").
		Values(
			score.MessageID,
			string(score.Boldness),
			nullStringPtr(score.Explanation),
			nullIntPtr(score.Confidence),
			scoredAt.UTC(),
		).
		Suffix(`ON CONFLICT (message_id) DO UPDATE SET
			boldness = EXCLUDED.boldness,
			explanation = EXCLUDED.explanation,
			confidence = EXCLUDED.confidence,
			scored_at = EXCLUDED.scored_at`).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, "media score "+score.MessageID)
}

// GetMediaScore retrieves the score for a message.
func (r *MediaScoreRepository) GetMediaScore(ctx context.Context, messageID string) (*core.MediaScore, error) {
	query, args, err := psql.Select("message_id", "boldness", "explanation", "confidence", "scored_at").
		From("media_scores").
		Where(sq.Eq{"message_id": messageID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var (
		score       core.MediaScore
		boldness    string
		explanation sql.NullString
		confidence  sql.NullInt64
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&score.MessageID, &boldness, &explanation, &confidence, &score.ScoredAt)
	if err != nil {
		return nil, mapError(err, "media score "+messageID)
	}

	score.Boldness = core.Boldness(boldness)
	if explanation.Valid {
		score.Explanation = &explanation.String
	}
	if confidence.Valid {
		n := int(confidence.Int64)
		score.Confidence = &n
	}
	score.ScoredAt = score.ScoredAt.UTC()
	return &score, nil
}

// DeleteMediaScore removes the score row for a message, if any.
func (r *MediaScoreRepository) DeleteMediaScore(ctx context.Context, messageID string) error {
	query, args, err := psql.Delete("media_scores").Where(sq.Eq{"message_id": messageID}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return mapError(err, "media score "+messageID)
}
