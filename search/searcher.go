package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/secondbrain/ai"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

const (
	// DefaultMinSimilarity drops weak matches from FindSimilar.
	DefaultMinSimilarity = 0.60

	// verbatimBoost is added when a note contains every query word.
	verbatimBoost = 0.3
)

// Searcher provides semantic search over a user's indexed study notes.
type Searcher struct {
	vectors       storage.VectorStore
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity below which records are dropped.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return ErrInvalidMinSimilarity
		}
		s.minSimilarity = threshold
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(vectors storage.VectorStore, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		vectors:       vectors,
		embedder:      provider.Embedder(),
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches a user's study notes for records similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, userID, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, userID, query, maxHits, nil)
}

// FindSimilarWithMonitor searches a user's study notes with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, userID, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	monitor.Start(query)

	// No store-side limit: the verbatim boost can lift a note ranked past
	// maxHits into the results, so truncation happens after boost.
	matches, err := s.vectors.Query(ctx, storage.VectorQuery{
		NamespacePrefix: core.UserNamespacePrefix(userID),
		Filter:          map[string]string{core.MetadataUserID: userID},
		Vector:          embedding,
		MinSimilarity:   s.minSimilarity,
	})
	if err != nil {
		s.logger.Error("error querying for similar records", "userID", userID, "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(matches)

	results := s.boost(matches, query, monitor)
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// FindInMessage scores the query against the single indexed note of a
// message. Returns storage.ErrNotFound when the message was never indexed.
func (s *Searcher) FindInMessage(ctx context.Context, userID, messageID, query string) (*core.SearchResult, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	matches, err := s.vectors.Query(ctx, storage.VectorQuery{
		Namespace:     core.NamespaceFor(userID, messageID),
		Vector:        embedding,
		MinSimilarity: -1,
		Limit:         1,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no indexed note for message %s", storage.ErrNotFound, messageID)
	}

	results := s.boost(matches, query, &noopMonitor{})
	return results[0], nil
}

func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	return embedding, nil
}

// boost applies the verbatim match bonus and re-sorts by score.
func (s *Searcher) boost(matches []*core.SearchResult, query string, monitor SearchMonitor) []*core.SearchResult {
	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match == nil || match.Record == nil {
			continue
		}
		score := match.Score
		if containsAllQueryWords(match.Record.Metadata[core.MetadataContent], query) {
			score += verbatimBoost
			monitor.VerbatimHit(match.Record)
		}
		results = append(results, &core.SearchResult{Record: match.Record, Score: score})
	}

	// Sort by score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
