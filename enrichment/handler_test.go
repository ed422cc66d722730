package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.addMessage(t, "user-1", "Finished reading chapter 3 on distributed consensus")
	f.classifier.Response = `{"category":"STUDY","mood":"REFLECTIVE","summary":"Consensus notes."}`

	evt, err := events.NewMessageCreated(req.MessageID, req.Content, req.UserID)
	require.NoError(t, err)
	require.NoError(t, f.enricher.Handler()(ctx, evt))

	msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryStudy, msg.Category)

	_, err = f.stores.Vectors.Fetch(ctx, core.NamespaceFor(req.UserID, req.MessageID), req.MessageID)
	assert.NoError(t, err)
}

func TestHandler_PermanentFailures(t *testing.T) {
	f := newFixture(t)
	handler := f.enricher.Handler()
	f.classifier.Response = `{"category":"LOG","mood":"NEUTRAL"}`

	malformed := &events.Event{ID: "e1", Type: events.TypeMessageCreated, Payload: json.RawMessage(`"oops"`)}
	assert.ErrorIs(t, handler(context.Background(), malformed), events.ErrPermanent)

	missingUser, err := events.NewMessageCreated("m1", "hello", "")
	require.NoError(t, err)
	assert.ErrorIs(t, handler(context.Background(), missingUser), events.ErrPermanent)

	unknown, err := events.NewMessageCreated("missing", "hello", "u1")
	require.NoError(t, err)
	assert.ErrorIs(t, handler(context.Background(), unknown), events.ErrPermanent)
}

func TestHandler_TransientFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.addMessage(t, "user-1", "Marvel's new movie is overrated")

	calls := 0
	f.classifier.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("API returned unexpected status code: 503")
		}
		return `{"category":"MEDIA","mood":"ANGRY","summary":"Overrated."}`, nil
	}
	f.scorer.Response = `{"boldness":"Hot Take","explanation":"Against the consensus","confidence":75}`

	queue := events.NewMemoryQueue(1)
	d, err := events.NewDispatcher(
		events.WithPoolSize(1),
		events.WithBaseDelay(time.Millisecond),
		events.WithDeadLetterSink(queue),
	)
	require.NoError(t, err)
	defer d.Release()
	d.Register(events.TypeMessageCreated, f.enricher.Handler())

	evt, err := events.NewMessageCreated(req.MessageID, req.Content, req.UserID)
	require.NoError(t, err)
	require.NoError(t, d.Handle(ctx, evt))

	assert.Equal(t, 2, calls, "classification is re-requested on retry")
	assert.Empty(t, queue.DeadLetters())

	score, err := f.stores.Scores.GetMediaScore(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.BoldnessHot, score.Boldness)
}
