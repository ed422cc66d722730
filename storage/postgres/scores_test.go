package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertMediaScore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMediaScoreRepository(db)

	mock.ExpectExec(`INSERT INTO media_scores .* ON CONFLICT \(message_id\) DO UPDATE`).
		WithArgs("m1", "Hot Take", "Disagrees with mainstream praise", int64(75), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	explanation := "Disagrees with mainstream praise"
	confidence := 75
	err := repo.UpsertMediaScore(context.Background(), &core.MediaScore{
		MessageID:   "m1",
		Boldness:    core.BoldnessHot,
		Explanation: &explanation,
		Confidence:  &confidence,
	})
	require.NoError(t, err)
}

func TestUpsertMediaScore_NullableFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMediaScoreRepository(db)

	mock.ExpectExec("INSERT INTO media_scores").
		WithArgs("m1", "Cold Take", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertMediaScore(context.Background(), &core.MediaScore{
		MessageID: "m1",
		Boldness:  core.BoldnessCold,
	}))
}

func TestUpsertMediaScore_Invalid(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewMediaScoreRepository(db)

	err := repo.UpsertMediaScore(context.Background(), &core.MediaScore{MessageID: "m1", Boldness: "Warm Take"})
	assert.ErrorIs(t, err, core.ErrInvalidBoldness)
}

func TestGetMediaScore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMediaScoreRepository(db)
	scoredAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT message_id, boldness, explanation, confidence, scored_at FROM media_scores WHERE message_id = $1")).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"message_id", "boldness", "explanation", "confidence", "scored_at"}).
			AddRow("m1", "Nuclear Take", nil, int64(99), scoredAt))

	score, err := repo.GetMediaScore(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, core.BoldnessNuclear, score.Boldness)
	assert.Nil(t, score.Explanation)
	require.NotNil(t, score.Confidence)
	assert.Equal(t, 99, *score.Confidence)
	assert.Equal(t, scoredAt, score.ScoredAt)
}

func TestGetMediaScore_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMediaScoreRepository(db)

	mock.ExpectQuery("FROM media_scores").WillReturnRows(sqlmock.NewRows([]string{"message_id"}))

	_, err := repo.GetMediaScore(context.Background(), "m1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteMediaScore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMediaScoreRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM media_scores WHERE message_id = $1")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.DeleteMediaScore(context.Background(), "m1"), "missing score is not an error")
}
