package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel sends a single-turn chat completion to a language model.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete sends a system instruction followed by one user turn and
	// returns the text content of the first choice.
	// Returns ErrEmptyResponse when the model produced no content.
	Complete(ctx context.Context, system, user string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// The classifier and scorer are distinct models and may live on different hosts.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Classifier returns the chat model used to classify messages.
	Classifier() ChatModel

	// Scorer returns the chat model used to score media opinions.
	Scorer() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
