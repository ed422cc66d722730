package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/secondbrain/ai"
	"github.com/poiesic/secondbrain/storage"
)

// Request identifies the message to enrich and carries its content.
type Request struct {
	MessageID string
	UserID    string
	Content   string
}

// Result is returned after a message has been enriched.
type Result struct {
	Enriched bool `json:"enriched"`
}

// Enricher runs the enrichment pipeline for one message at a time.
// It is safe for concurrent use; concurrent runs for the same message are
// last-write-wins.
type Enricher struct {
	messages   storage.MessageRepository
	classifier ai.ChatModel
	router     *Router
	logger     *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an Enricher that classifies with the provider's
// classifier, indexes study notes with its embedder and scores media
// opinions with its scorer.
func NewEnricher(
	messages storage.MessageRepository,
	scores storage.MediaScoreRepository,
	vectors storage.VectorStore,
	provider ai.AIProvider,
	opts ...Option,
) (*Enricher, error) {
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}
	if scores == nil {
		return nil, ErrMediaScoreRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Enricher{
		messages:   messages,
		classifier: provider.Classifier(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	// Built after options so the enrichers share the final logger
	e.router = NewRouter(
		NewSemanticIndexer(provider.Embedder(), vectors, e.logger),
		NewOpinionScorer(provider.Scorer(), scores, e.logger),
	)
	e.logger = e.logger.With("component", "enricher")
	return e, nil
}

// Enrich classifies the message, persists the classification and runs the
// secondary enrichment for its category.
//
// The classification update always happens before any secondary write.
// Errors are returned for classifier failures, unparseable classifier
// output, storage failures and indexing failures; opinion scoring
// failures are not errors.
func (e *Enricher) Enrich(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	logger := e.logger.With("message", req.MessageID)

	raw, err := e.classifier.Complete(ctx, ClassificationPrompt, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrClassificationFailed)
	}

	parsed, err := ParseClassification(raw)
	if err != nil {
		logger.Error("unparseable classification", "response", raw, "err", err)
		return nil, err
	}
	classification := Normalize(parsed, logger)

	if err := e.messages.UpdateClassification(ctx, req.MessageID, classification); err != nil {
		return nil, fmt.Errorf("update classification: %w", err)
	}

	route, err := e.router.Dispatch(ctx, req, classification.Category)
	if err != nil {
		return nil, err
	}

	logger.Info("message enriched",
		"category", classification.Category,
		"mood", classification.Mood,
		"route", route)
	return &Result{Enriched: true}, nil
}

// EnrichMessage loads a stored message and enriches it.
func (e *Enricher) EnrichMessage(ctx context.Context, messageID string) (*Result, error) {
	msg, err := e.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return e.Enrich(ctx, Request{
		MessageID: msg.ID,
		UserID:    msg.UserID,
		Content:   msg.Content,
	})
}

func (r Request) validate() error {
	switch {
	case r.MessageID == "":
		return fmt.Errorf("%w: missing message id", ErrInvalidRequest)
	case r.UserID == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	case strings.TrimSpace(r.Content) == "":
		return fmt.Errorf("%w: empty content", ErrInvalidRequest)
	}
	return nil
}
