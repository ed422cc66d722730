package secondbrain

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/secondbrain/ai/mock"
	"github.com/poiesic/secondbrain/backfill"
	"github.com/poiesic/secondbrain/config"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/events"
	"github.com/poiesic/secondbrain/search"
	"github.com/poiesic/secondbrain/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studyResponse = `{"category":"STUDY","mood":"REFLECTIVE","summary":"Read about Raft leader election."}`

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.InMemory = true
	cfg.Worker.BaseDelay = time.Millisecond
	return cfg
}

func openTestBrain(t *testing.T, classifierResponse string) *Brain {
	t.Helper()
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(),
		mock.NewMockChatModelWithResponse(classifierResponse),
		mock.NewMockChatModel(),
	)
	brain, err := Open(context.Background(), memoryConfig(), WithProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { brain.Close() })
	return brain
}

func TestOpen(t *testing.T) {
	t.Run("badger on disk", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Path = filepath.Join(t.TempDir(), "brain")

		brain, err := Open(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		assert.NotNil(t, brain.Messages())
		assert.NotNil(t, brain.Scores())
		assert.NotNil(t, brain.Vectors())
		assert.Same(t, cfg, brain.Config())
		assert.NoError(t, brain.Close())
	})

	t.Run("default provider from AI config", func(t *testing.T) {
		brain, err := Open(context.Background(), memoryConfig())
		require.NoError(t, err)
		assert.NoError(t, brain.Close())
	})

	t.Run("path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(path, []byte("test"), 0o644))

		cfg := config.Default()
		cfg.Storage.Path = path
		brain, err := Open(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, brain)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Storage.Driver = "sqlite"
		_, err := Open(context.Background(), cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestSubmitEnrichSearch(t *testing.T) {
	brain := openTestBrain(t, studyResponse)
	ctx := context.Background()

	queue := events.NewMemoryQueue(4)
	journal, err := brain.NewJournal(queue)
	require.NoError(t, err)

	content := "Finished the chapter on Raft leader election"
	msg, err := journal.Submit(ctx, "u1", content)
	require.NoError(t, err)

	evt, err := queue.Pop(ctx)
	require.NoError(t, err)

	dispatcher, err := brain.NewDispatcher(queue)
	require.NoError(t, err)
	defer dispatcher.Release()
	require.NoError(t, dispatcher.Handle(ctx, evt))

	stored, err := brain.Messages().GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryStudy, stored.Category)
	assert.Equal(t, core.MoodReflective, stored.Mood)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, "Read about Raft leader election.", *stored.Summary)

	searcher, err := brain.NewSearcher(search.WithMinSimilarity(0.95))
	require.NoError(t, err)
	results, err := searcher.FindSimilar(ctx, "u1", content, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, msg.ID, results[0].Record.ID)

	_, err = brain.Scores().GetMediaScore(ctx, msg.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "study notes are not scored")
	assert.Empty(t, queue.DeadLetters())
}

func TestDispatcher_DeadLettersInvalidEvent(t *testing.T) {
	brain := openTestBrain(t, studyResponse)
	ctx := context.Background()

	queue := events.NewMemoryQueue(1)
	dispatcher, err := brain.NewDispatcher(queue)
	require.NoError(t, err)
	defer dispatcher.Release()

	evt, err := events.NewMessageCreated("", "orphan", "u1")
	require.NoError(t, err)
	assert.Error(t, dispatcher.Handle(ctx, evt))
	assert.Len(t, queue.DeadLetters(), 1)
}

func TestBackfill(t *testing.T) {
	brain := openTestBrain(t, `{"category":"LOG","mood":"TIRED","summary":""}`)
	ctx := context.Background()

	for _, content := range []string{"Long day at work", "Slept badly"} {
		_, err := brain.Messages().AddMessage(ctx, &core.Message{UserID: "u1", Content: content})
		require.NoError(t, err)
	}

	var progress bytes.Buffer
	backfiller, err := brain.NewBackfiller(&backfill.Config{
		BatchSize:      10,
		Concurrency:    1,
		ReportInterval: 1,
		MaxAttempts:    1,
		RetryDelay:     time.Millisecond,
	}, &progress)
	require.NoError(t, err)

	summary, err := backfiller.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Enriched)

	logs, err := brain.Messages().ListMessages(ctx, "u1", core.CategoryLog, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, core.MoodTired, logs[0].Mood)
}
