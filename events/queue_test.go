package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Publish(ctx, &Event{ID: id, Type: TypeMessageCreated}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"a", "b", "c"} {
		evt, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, evt.ID)
	}
}

func TestMemoryQueue_PopHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue_Close(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, &Event{ID: "pending"}))
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Publish(ctx, &Event{ID: "late"}), ErrQueueClosed)

	evt, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pending", evt.ID, "pending events are drained after close")

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueue_DeadLetters(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.DeadLetter(context.Background(), &Event{ID: "x"}))
	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "x", dead[0].ID)
}
