package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/secondbrain/ai"
	"github.com/poiesic/secondbrain/ai/mock"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
	"github.com/poiesic/secondbrain/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	stores     *badger.Stores
	embedder   *mock.MockEmbedder
	classifier *mock.MockChatModel
	scorer     *mock.MockChatModel
	enricher   *Enricher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stores:     newMemoryStores(t),
		embedder:   mock.NewMockEmbedder(),
		classifier: mock.NewMockChatModel(),
		scorer:     mock.NewMockChatModel(),
	}
	f.enricher = f.newEnricher(t, f.stores.Vectors)
	return f
}

func (f *fixture) newEnricher(t *testing.T, vectors storage.VectorStore) *Enricher {
	t.Helper()
	provider := mock.NewMockProviderWithServices(f.embedder, f.classifier, f.scorer)
	e, err := NewEnricher(f.stores.Messages, f.stores.Scores, vectors, provider)
	require.NoError(t, err)
	return e
}

func (f *fixture) addMessage(t *testing.T, userID, content string) Request {
	t.Helper()
	msg, err := f.stores.Messages.AddMessage(context.Background(), &core.Message{UserID: userID, Content: content})
	require.NoError(t, err)
	return Request{MessageID: msg.ID, UserID: msg.UserID, Content: msg.Content}
}

func (f *fixture) vectorCount(t *testing.T) int {
	t.Helper()
	results, err := f.stores.Vectors.Query(context.Background(), storage.VectorQuery{
		Vector:        make([]float32, mock.DefaultDimensions),
		MinSimilarity: -1,
	})
	require.NoError(t, err)
	return len(results)
}

func TestEnrich_StudyNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	content := "Finished reading chapter 3 on distributed consensus"
	req := f.addMessage(t, "user-1", content)
	f.classifier.Response = `{"category":"STUDY","mood":"REFLECTIVE","summary":"Reflects on studying distributed consensus."}`

	result, err := f.enricher.Enrich(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Enriched)

	calls := f.classifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, ClassificationPrompt, calls[0].System)
	assert.Equal(t, content, calls[0].User)

	msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryStudy, msg.Category)
	assert.Equal(t, core.MoodReflective, msg.Mood)
	require.NotNil(t, msg.Summary)
	assert.Equal(t, "Reflects on studying distributed consensus.", *msg.Summary)

	record, err := f.stores.Vectors.Fetch(ctx, "user-1_"+req.MessageID, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, content, record.Metadata[core.MetadataContent])
	assert.Equal(t, "user-1", record.Metadata[core.MetadataUserID])
	assert.Equal(t, 1, f.vectorCount(t))

	assert.Equal(t, 0, f.scorer.CallCount())
	_, err = f.stores.Scores.GetMediaScore(ctx, req.MessageID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEnrich_MediaOpinion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.addMessage(t, "user-1", "Marvel's new movie is overrated")
	f.classifier.Response = `{"category":"MEDIA","mood":"ANGRY","summary":"Thinks the new Marvel movie is overrated."}`
	f.scorer.Response = `{"boldness":"Hot Take","explanation":"Disagrees with mainstream praise","confidence":75}`

	result, err := f.enricher.Enrich(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Enriched)

	msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryMedia, msg.Category)
	assert.Equal(t, core.MoodAngry, msg.Mood)

	score, err := f.stores.Scores.GetMediaScore(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.BoldnessHot, score.Boldness)
	require.NotNil(t, score.Explanation)
	assert.Equal(t, "Disagrees with mainstream praise", *score.Explanation)
	require.NotNil(t, score.Confidence)
	assert.Equal(t, 75, *score.Confidence)

	assert.Equal(t, 0, f.embedder.CallCount())
	assert.Equal(t, 0, f.vectorCount(t))
}

func TestEnrich_ScoringFailureIsNotFatal(t *testing.T) {
	for name, configure := range map[string]func(*mock.MockChatModel){
		"provider error": func(m *mock.MockChatModel) { m.Err = errors.New("502 bad gateway") },
		"malformed json": func(m *mock.MockChatModel) { m.Response = "Hot Take, probably" },
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			req := f.addMessage(t, "user-1", "Marvel's new movie is overrated")
			f.classifier.Response = `{"category":"MEDIA","mood":"ANGRY","summary":"..."}`
			configure(f.scorer)

			result, err := f.enricher.Enrich(ctx, req)
			require.NoError(t, err)
			assert.True(t, result.Enriched)
			assert.Equal(t, 1, f.scorer.CallCount(), "scoring is attempted")

			msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
			require.NoError(t, err)
			assert.Equal(t, core.CategoryMedia, msg.Category)

			_, err = f.stores.Scores.GetMediaScore(ctx, req.MessageID)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}
}

func TestEnrich_OtherCategoriesStopAfterClassification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.addMessage(t, "user-1", "Buy milk")
	f.classifier.Response = `{"category":"task","mood":"tired","summary":"Needs milk."}`

	_, err := f.enricher.Enrich(ctx, req)
	require.NoError(t, err)

	msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryTask, msg.Category)
	assert.Equal(t, core.MoodTired, msg.Mood)
	assert.Equal(t, 0, f.embedder.CallCount())
	assert.Equal(t, 0, f.scorer.CallCount())
}

func TestEnrich_FencedResponse(t *testing.T) {
	plain := `{"category":"QUOTE","mood":"HAPPY","summary":"A favourite line."}`

	var got []*core.Message
	for _, raw := range []string{plain, "```json\n" + plain + "\n```"} {
		f := newFixture(t)
		req := f.addMessage(t, "user-1", "Be the change you wish to see")
		f.classifier.Response = raw

		_, err := f.enricher.Enrich(context.Background(), req)
		require.NoError(t, err)

		msg, err := f.stores.Messages.GetMessage(context.Background(), req.MessageID)
		require.NoError(t, err)
		got = append(got, msg)
	}

	assert.Equal(t, got[0].Category, got[1].Category)
	assert.Equal(t, got[0].Mood, got[1].Mood)
	assert.Equal(t, *got[0].Summary, *got[1].Summary)
}

func TestEnrich_Defaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.addMessage(t, "user-1", "hmm")
	f.classifier.Response = `{"category":"DIARY"}`

	_, err := f.enricher.Enrich(ctx, req)
	require.NoError(t, err)

	msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryOther, msg.Category)
	assert.Equal(t, core.MoodNeutral, msg.Mood)
	require.NotNil(t, msg.Summary)
	assert.Equal(t, "", *msg.Summary)
}

func TestEnrich_Failures(t *testing.T) {
	tests := []struct {
		name      string
		configure func(f *fixture)
		wantErr   error
	}{
		{
			name:      "unparseable response",
			configure: func(f *fixture) { f.classifier.Response = "This is a study note." },
			wantErr:   ErrUnparseableResponse,
		},
		{
			name:      "provider error",
			configure: func(f *fixture) { f.classifier.Err = errors.New("API returned unexpected status code: 500") },
			wantErr:   ErrClassificationFailed,
		},
		{
			name:      "empty provider content",
			configure: func(f *fixture) { f.classifier.Err = ai.ErrEmptyResponse },
			wantErr:   ErrClassificationFailed,
		},
		{
			name:      "blank content",
			configure: func(f *fixture) { f.classifier.Response = "   " },
			wantErr:   ErrClassificationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			req := f.addMessage(t, "user-1", "Finished reading chapter 3")
			tt.configure(f)

			result, err := f.enricher.Enrich(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)

			msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
			require.NoError(t, err)
			assert.False(t, msg.Classified(), "message is not updated")
			assert.Nil(t, msg.Summary)
			assert.Equal(t, 0, f.embedder.CallCount())
			assert.Equal(t, 0, f.scorer.CallCount())
		})
	}
}

func TestEnrich_IndexingFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.addMessage(t, "user-1", "Notes on Raft leader election")
	f.classifier.Response = `{"category":"STUDY","mood":"NEUTRAL","summary":"Raft notes."}`
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	_, err := f.enricher.Enrich(ctx, req)
	assert.ErrorIs(t, err, ErrIndexingFailed)

	msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryStudy, msg.Category, "classification is kept for the retry")
}

func TestEnrich_UnknownMessage(t *testing.T) {
	f := newFixture(t)
	f.classifier.Response = `{"category":"LOG","mood":"NEUTRAL"}`

	_, err := f.enricher.Enrich(context.Background(), Request{MessageID: "missing", UserID: "u1", Content: "hello"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEnrich_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	for _, req := range []Request{
		{UserID: "u1", Content: "hello"},
		{MessageID: "m1", Content: "hello"},
		{MessageID: "m1", UserID: "u1", Content: "  "},
	} {
		_, err := f.enricher.Enrich(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
	assert.Equal(t, 0, f.classifier.CallCount())
}

func TestEnrich_Idempotent(t *testing.T) {
	ctx := context.Background()

	t.Run("study", func(t *testing.T) {
		f := newFixture(t)
		req := f.addMessage(t, "user-1", "Paxos made simple, notes")
		f.classifier.Response = `{"category":"STUDY","mood":"REFLECTIVE","summary":"Paxos notes."}`

		for i := 0; i < 2; i++ {
			_, err := f.enricher.Enrich(ctx, req)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, f.vectorCount(t), "second run overwrites the embedding")
	})

	t.Run("media", func(t *testing.T) {
		f := newFixture(t)
		req := f.addMessage(t, "user-1", "The book was better")
		f.classifier.Response = `{"category":"MEDIA","mood":"NEUTRAL","summary":"Prefers the book."}`
		f.scorer.Response = `{"boldness":"Cold Take","confidence":90}`

		_, err := f.enricher.Enrich(ctx, req)
		require.NoError(t, err)

		f.scorer.Response = `{"boldness":"Mild Take","explanation":"Some disagree"}`
		_, err = f.enricher.Enrich(ctx, req)
		require.NoError(t, err)

		score, err := f.stores.Scores.GetMediaScore(ctx, req.MessageID)
		require.NoError(t, err)
		assert.Equal(t, core.BoldnessMild, score.Boldness)
		assert.Nil(t, score.Confidence, "second score replaces the first in full")

		msg, err := f.stores.Messages.GetMessage(ctx, req.MessageID)
		require.NoError(t, err)
		assert.Equal(t, core.CategoryMedia, msg.Category)
		assert.Equal(t, "Prefers the book.", *msg.Summary)
	})
}

// orderCheckingStore verifies the classification is visible before the
// vector is written.
type orderCheckingStore struct {
	storage.VectorStore
	t        *testing.T
	messages storage.MessageRepository
	upserts  int
}

func (s *orderCheckingStore) Upsert(ctx context.Context, namespace string, records ...*core.VectorRecord) error {
	s.upserts++
	for _, r := range records {
		msg, err := s.messages.GetMessage(ctx, r.ID)
		require.NoError(s.t, err)
		assert.Equal(s.t, core.CategoryStudy, msg.Category, "classification written before the vector")
	}
	return s.VectorStore.Upsert(ctx, namespace, records...)
}

func TestEnrich_ClassificationPrecedesIndexing(t *testing.T) {
	f := newFixture(t)
	store := &orderCheckingStore{VectorStore: f.stores.Vectors, t: t, messages: f.stores.Messages}
	enricher := f.newEnricher(t, store)

	req := f.addMessage(t, "user-1", "Lamport clocks")
	f.classifier.Response = `{"category":"STUDY","mood":"NEUTRAL","summary":"Clocks."}`

	_, err := enricher.Enrich(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, store.upserts)
}

func TestEnrichMessage(t *testing.T) {
	f := newFixture(t)
	req := f.addMessage(t, "user-1", "Some rant")
	f.classifier.Response = `{"category":"RANT","mood":"ANGRY","summary":"Rants."}`

	result, err := f.enricher.EnrichMessage(context.Background(), req.MessageID)
	require.NoError(t, err)
	assert.True(t, result.Enriched)
	assert.Equal(t, "Some rant", f.classifier.Calls()[0].User)

	_, err = f.enricher.EnrichMessage(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewEnricher_Requirements(t *testing.T) {
	stores := newMemoryStores(t)
	provider := mock.NewMockProvider()

	_, err := NewEnricher(nil, stores.Scores, stores.Vectors, provider)
	assert.ErrorIs(t, err, ErrMessageRepositoryRequired)
	_, err = NewEnricher(stores.Messages, nil, stores.Vectors, provider)
	assert.ErrorIs(t, err, ErrMediaScoreRepositoryRequired)
	_, err = NewEnricher(stores.Messages, stores.Scores, nil, provider)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)
	_, err = NewEnricher(stores.Messages, stores.Scores, stores.Vectors, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestClassificationPrompt(t *testing.T) {
	for _, c := range core.Categories {
		assert.Contains(t, ClassificationPrompt, string(c))
	}
	for _, m := range core.Moods {
		assert.Contains(t, ClassificationPrompt, string(m))
	}
	for _, b := range core.Boldnesses {
		assert.Contains(t, OpinionPrompt, string(b))
	}
}
