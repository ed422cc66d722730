package backfill

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
	"github.com/poiesic/secondbrain/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessages(t *testing.T, n int) storage.MessageRepository {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	for i := 0; i < n; i++ {
		_, err := stores.Messages.AddMessage(context.Background(), &core.Message{
			ID:      fmt.Sprintf("m%02d", i),
			UserID:  "u1",
			Content: fmt.Sprintf("entry %d", i),
		})
		require.NoError(t, err)
	}
	return stores.Messages
}

func classify(ctx context.Context, repo storage.MessageRepository, id string) error {
	return repo.UpdateClassification(ctx, id, core.Classification{Category: core.CategoryLog, Mood: core.MoodNeutral})
}

func TestUnclassifiedIterator_Batches(t *testing.T) {
	repo := newTestMessages(t, 5)
	it := NewUnclassifiedIterator(repo, 2)

	var sizes []int
	var ids []string
	err := it.ForEach(context.Background(), func(batch []*core.Message) error {
		sizes = append(sizes, len(batch))
		for _, msg := range batch {
			ids = append(ids, msg.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []string{"m00", "m01", "m02", "m03", "m04"}, ids)
}

func TestUnclassifiedIterator_ClassifyingDuringIteration(t *testing.T) {
	repo := newTestMessages(t, 4)
	it := NewUnclassifiedIterator(repo, 2)
	ctx := context.Background()

	var ids []string
	err := it.ForEach(ctx, func(batch []*core.Message) error {
		for _, msg := range batch {
			ids = append(ids, msg.ID)
			require.NoError(t, classify(ctx, repo, msg.ID))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m00", "m01", "m02", "m03"}, ids, "every message is visited once")
}

func TestUnclassifiedIterator_Empty(t *testing.T) {
	repo := newTestMessages(t, 0)
	calls := 0
	err := NewUnclassifiedIterator(repo, 0).ForEach(context.Background(), func([]*core.Message) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestUnclassifiedIterator_StopsOnError(t *testing.T) {
	repo := newTestMessages(t, 5)
	boom := errors.New("boom")

	calls := 0
	err := NewUnclassifiedIterator(repo, 2).ForEach(context.Background(), func([]*core.Message) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestUnclassifiedIterator_Cancelled(t *testing.T) {
	repo := newTestMessages(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewUnclassifiedIterator(repo, 2).ForEach(ctx, func([]*core.Message) error {
		t.Fatal("no batch after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
