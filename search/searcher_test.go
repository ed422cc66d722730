package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/secondbrain/ai/mock"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
	"github.com/poiesic/secondbrain/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Unrelated mock vectors score around 0.75 against each other, so tests
// that expect exact matches only use a tighter threshold.
const exactThreshold = 0.95

func newTestVectors(t *testing.T) storage.VectorStore {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores.Vectors
}

func indexNote(t *testing.T, vectors storage.VectorStore, userID, messageID, content string) {
	t.Helper()
	err := vectors.Upsert(context.Background(), core.NamespaceFor(userID, messageID), &core.VectorRecord{
		ID:     messageID,
		Vector: mock.Vector(content),
		Metadata: map[string]string{
			core.MetadataContent: content,
			core.MetadataUserID:  userID,
		},
	})
	require.NoError(t, err)
}

type recordingMonitor struct {
	started  string
	semantic int
	verbatim []string
	finished int
}

func (m *recordingMonitor) Start(query string) { m.started = query }
func (m *recordingMonitor) AfterSemanticSearch(results []*core.SearchResult) {
	m.semantic = len(results)
}
func (m *recordingMonitor) VerbatimHit(record *core.VectorRecord) {
	m.verbatim = append(m.verbatim, record.ID)
}
func (m *recordingMonitor) Finish(results []*core.SearchResult) { m.finished = len(results) }

func TestNewSearcher(t *testing.T) {
	vectors := newTestVectors(t)
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(vectors, provider)
		require.NoError(t, err)
		assert.Equal(t, float32(DefaultMinSimilarity), searcher.minSimilarity)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(vectors, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.Equal(t, slog.Default(), searcher.logger)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := NewSearcher(vectors, provider, WithMinSimilarity(1.5))
		assert.Equal(t, ErrInvalidMinSimilarity, err)
	})

	t.Run("nil vector store", func(t *testing.T) {
		_, err := NewSearcher(nil, provider)
		assert.Equal(t, ErrVectorStoreRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(vectors, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestFindSimilar_EmptyStore(t *testing.T) {
	searcher, err := NewSearcher(newTestVectors(t), mock.NewMockProvider())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "u1", "raft consensus", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar(t *testing.T) {
	vectors := newTestVectors(t)
	indexNote(t, vectors, "u1", "m1", "raft consensus notes")
	indexNote(t, vectors, "u1", "m2", "sourdough starter feeding schedule")
	indexNote(t, vectors, "u2", "m3", "raft consensus notes")

	searcher, err := NewSearcher(vectors, mock.NewMockProvider(), WithMinSimilarity(exactThreshold))
	require.NoError(t, err)
	ctx := context.Background()

	monitor := &recordingMonitor{}
	results, err := searcher.FindSimilarWithMonitor(ctx, "u1", "raft consensus notes", 10, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1, "other users' notes are never returned")
	assert.Equal(t, "m1", results[0].Record.ID)
	assert.InDelta(t, 1.0+verbatimBoost, results[0].Score, 1e-4)

	assert.Equal(t, "raft consensus notes", monitor.started)
	assert.Equal(t, 1, monitor.semantic)
	assert.Equal(t, []string{"m1"}, monitor.verbatim)
	assert.Equal(t, 1, monitor.finished)

	t.Run("loose threshold ranks exact match first", func(t *testing.T) {
		loose, err := NewSearcher(vectors, mock.NewMockProvider(), WithMinSimilarity(-1))
		require.NoError(t, err)

		results, err := loose.FindSimilar(ctx, "u1", "raft consensus notes", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "m1", results[0].Record.ID)
		assert.Equal(t, "m2", results[1].Record.ID)
	})

	t.Run("max hits", func(t *testing.T) {
		loose, err := NewSearcher(vectors, mock.NewMockProvider(), WithMinSimilarity(-1))
		require.NoError(t, err)

		results, err := loose.FindSimilar(ctx, "u1", "raft consensus notes", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

// rankedVectors returns fixed results and honors the query limit the way
// the badger store does.
type rankedVectors struct {
	storage.VectorStore
	results []*core.SearchResult
	limits  []int
}

func (v *rankedVectors) Query(ctx context.Context, q storage.VectorQuery) ([]*core.SearchResult, error) {
	v.limits = append(v.limits, q.Limit)
	if q.Limit > 0 && len(v.results) > q.Limit {
		return v.results[:q.Limit], nil
	}
	return v.results, nil
}

func TestFindSimilar_BoostBeforeTruncation(t *testing.T) {
	note := func(id, content string, score float32) *core.SearchResult {
		return &core.SearchResult{
			Record: &core.VectorRecord{ID: id, Metadata: map[string]string{core.MetadataContent: content, core.MetadataUserID: "u1"}},
			Score:  score,
		}
	}
	vectors := &rankedVectors{results: []*core.SearchResult{
		note("a", "consensus protocols overview", 0.90),
		note("b", "leader leases in distributed systems", 0.85),
		note("c", "raft election timeout tuning", 0.80),
	}}
	searcher, err := NewSearcher(vectors, mock.NewMockProvider())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "u1", "raft election", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].Record.ID, "verbatim match outranks higher raw scores")
	assert.InDelta(t, 1.10, results[0].Score, 1e-6)
	assert.Equal(t, []int{0}, vectors.limits)
}

func TestFindSimilar_Validation(t *testing.T) {
	searcher, err := NewSearcher(newTestVectors(t), mock.NewMockProvider())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = searcher.FindSimilar(ctx, "", "raft", 10)
	assert.ErrorIs(t, err, ErrUserIDRequired)

	_, err = searcher.FindSimilar(ctx, "u1", "   ", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestFindSimilar_EmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockChatModel(), mock.NewMockChatModel())

	searcher, err := NewSearcher(newTestVectors(t), provider)
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "u1", "raft", 10)
	assert.EqualError(t, err, "embedding service down")
}

func TestFindInMessage(t *testing.T) {
	vectors := newTestVectors(t)
	indexNote(t, vectors, "u1", "m1", "raft consensus notes")
	indexNote(t, vectors, "u1", "m2", "sourdough starter feeding schedule")

	searcher, err := NewSearcher(vectors, mock.NewMockProvider())
	require.NoError(t, err)
	ctx := context.Background()

	result, err := searcher.FindInMessage(ctx, "u1", "m2", "raft consensus notes")
	require.NoError(t, err)
	assert.Equal(t, "m2", result.Record.ID)
	assert.Less(t, result.Score, float32(1.0))

	exact, err := searcher.FindInMessage(ctx, "u1", "m1", "raft consensus notes")
	require.NoError(t, err)
	assert.InDelta(t, 1.0+verbatimBoost, exact.Score, 1e-4)

	_, err = searcher.FindInMessage(ctx, "u1", "missing", "raft")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = searcher.FindInMessage(ctx, "u2", "m1", "raft")
	assert.ErrorIs(t, err, storage.ErrNotFound, "namespaces are per user")
}
