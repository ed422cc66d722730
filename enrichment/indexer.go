package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/secondbrain/ai"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

// SemanticIndexer embeds study notes and stores them in the vector store.
// Each message gets its own namespace, userID + "_" + messageID, holding a
// single record whose ID is the message ID.
type SemanticIndexer struct {
	embedder ai.Embedder
	vectors  storage.VectorStore
	logger   *slog.Logger
}

var _ Indexer = (*SemanticIndexer)(nil)

// NewSemanticIndexer creates a SemanticIndexer.
func NewSemanticIndexer(embedder ai.Embedder, vectors storage.VectorStore, logger *slog.Logger) *SemanticIndexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticIndexer{
		embedder: embedder,
		vectors:  vectors,
		logger:   logger.With("component", "semantic-indexer"),
	}
}

// Index embeds content and upserts it into the message's namespace.
// Re-indexing the same message overwrites the previous vector.
func (i *SemanticIndexer) Index(ctx context.Context, userID, messageID, content string) error {
	embeddings, err := i.embedder.EmbedTexts(ctx, []string{content})
	if err != nil {
		return fmt.Errorf("%w: embedding: %w", ErrIndexingFailed, err)
	}
	if len(embeddings) != 1 || len(embeddings[0]) == 0 {
		return fmt.Errorf("%w: expected one embedding, got %d", ErrIndexingFailed, len(embeddings))
	}

	namespace := core.NamespaceFor(userID, messageID)
	record := &core.VectorRecord{
		ID:     messageID,
		Vector: embeddings[0],
		Metadata: map[string]string{
			core.MetadataContent: content,
			core.MetadataUserID:  userID,
		},
	}
	if err := i.vectors.Upsert(ctx, namespace, record); err != nil {
		return fmt.Errorf("%w: upsert: %w", ErrIndexingFailed, err)
	}

	i.logger.Debug("indexed message", "message", messageID, "namespace", namespace, "dimensions", len(record.Vector))
	return nil
}
