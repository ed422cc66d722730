package storage

import (
	"context"

	"github.com/poiesic/secondbrain/core"
)

// MessageRepository provides operations for managing journal messages.
// Implementations must be thread-safe and support concurrent access.
type MessageRepository interface {
	// AddMessage stores a new message.
	// Generates an ID when msg.ID is empty and sets CreatedAt/UpdatedAt.
	// Returns the stored message with generated fields populated.
	AddMessage(ctx context.Context, msg *core.Message) (*core.Message, error)

	// GetMessage retrieves a single message by ID.
	// Returns ErrNotFound if the message doesn't exist.
	GetMessage(ctx context.Context, id string) (*core.Message, error)

	// UpdateClassification writes category, mood and summary onto a message
	// in a single write. The write is unconditional: it replaces any
	// previous classification.
	// Returns ErrNotFound if the message doesn't exist.
	UpdateClassification(ctx context.Context, id string, c core.Classification) error

	// SetCompleted sets the completion flag used by TASK messages.
	// Returns ErrNotFound if the message doesn't exist.
	SetCompleted(ctx context.Context, id string, completed bool) error

	// ListMessages returns a user's messages in a category, newest first.
	// An unset category lists every category. A limit <= 0 means no limit.
	ListMessages(ctx context.Context, userID string, category core.Category, limit int) ([]*core.Message, error)

	// ListUnclassified returns messages that have not been classified yet,
	// ordered by ID, starting strictly after afterID (empty for the start).
	ListUnclassified(ctx context.Context, afterID string, limit int) ([]*core.Message, error)

	// CountUnclassified returns the number of messages awaiting classification.
	CountUnclassified(ctx context.Context) (int, error)

	// DeleteMessage removes a message and its index entries.
	// Returns ErrNotFound if the message doesn't exist.
	DeleteMessage(ctx context.Context, id string) error

	// Close releases resources held by the repository.
	Close() error
}

// MediaScoreRepository stores opinion scores for MEDIA messages.
type MediaScoreRepository interface {
	// UpsertMediaScore inserts or fully replaces the score for score.MessageID.
	UpsertMediaScore(ctx context.Context, score *core.MediaScore) error

	// GetMediaScore retrieves the score for a message.
	// Returns ErrNotFound if the message has no score.
	GetMediaScore(ctx context.Context, messageID string) (*core.MediaScore, error)

	// DeleteMediaScore removes the score for a message. Deleting a score
	// that does not exist is not an error.
	DeleteMediaScore(ctx context.Context, messageID string) error

	// Close releases resources held by the repository.
	Close() error
}

// VectorQuery selects and ranks vector records.
type VectorQuery struct {
	// Namespace restricts the query to one namespace when set.
	Namespace string

	// NamespacePrefix restricts the query to namespaces with this prefix.
	// Ignored when Namespace is set.
	NamespacePrefix string

	// Filter keeps only records whose metadata contains every pair.
	Filter map[string]string

	// Vector is the query embedding. Scores are dot products against it.
	Vector []float32

	// MinSimilarity drops records scoring below it.
	MinSimilarity float32

	// Limit caps the number of results. A limit <= 0 means no limit.
	Limit int
}

// VectorStore is a namespaced key/vector/metadata store.
type VectorStore interface {
	// Upsert inserts or replaces records by ID within namespace.
	// Each record's Namespace is set to namespace.
	Upsert(ctx context.Context, namespace string, records ...*core.VectorRecord) error

	// Fetch retrieves one record from a namespace.
	// Returns ErrNotFound if it doesn't exist.
	Fetch(ctx context.Context, namespace, id string) (*core.VectorRecord, error)

	// Query returns matching records ordered by score, highest first.
	Query(ctx context.Context, q VectorQuery) ([]*core.SearchResult, error)

	// DeleteNamespace removes every record in namespace. Deleting an empty
	// namespace is not an error.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Close releases resources held by the store.
	Close() error
}
