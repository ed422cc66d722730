// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package secondbrain wires storage, AI providers and the enrichment
// pipeline into a single handle for commands and embedding applications.
package secondbrain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/secondbrain/ai"
	"github.com/poiesic/secondbrain/ai/openai"
	"github.com/poiesic/secondbrain/backfill"
	"github.com/poiesic/secondbrain/config"
	"github.com/poiesic/secondbrain/enrichment"
	"github.com/poiesic/secondbrain/events"
	"github.com/poiesic/secondbrain/events/redisqueue"
	"github.com/poiesic/secondbrain/journal"
	"github.com/poiesic/secondbrain/search"
	"github.com/poiesic/secondbrain/storage"
	"github.com/poiesic/secondbrain/storage/badger"
	"github.com/poiesic/secondbrain/storage/postgres"
)

// Brain owns the stores and AI provider of one secondbrain instance.
type Brain struct {
	cfg      *config.Config
	backend  *badger.Backend
	db       *sql.DB
	messages storage.MessageRepository
	scores   storage.MediaScoreRepository
	vectors  storage.VectorStore
	provider ai.AIProvider
	logger   *slog.Logger
}

// Option configures a Brain.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the AI config.
// The Brain takes ownership of it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open builds the stores selected by cfg and the AI provider.
// Vectors always live in badger; messages and media scores live in badger
// or PostgreSQL depending on the storage driver.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Brain, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	b := &Brain{cfg: cfg, logger: options.logger}

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	b.backend = backend
	stores := badger.NewStores(backend)
	b.vectors = stores.Vectors

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, postgres.DefaultConfig(cfg.Storage.DSN))
		if err != nil {
			b.Close()
			return nil, err
		}
		b.db = db
		b.messages = postgres.NewMessageRepository(db)
		b.scores = postgres.NewMediaScoreRepository(db)
	default:
		b.messages = stores.Messages
		b.scores = stores.Scores
	}

	b.provider = options.provider
	if b.provider == nil {
		provider, err := openai.NewProvider(cfg.AIConfig())
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("create AI provider: %w", err)
		}
		b.provider = provider
	}

	b.logger.Debug("brain opened", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)
	return b, nil
}

// Close releases the provider and every store. It is safe to call on a
// partially opened Brain.
func (b *Brain) Close() error {
	var errs []error
	if b.provider != nil {
		if err := b.provider.Close(); err != nil {
			b.logger.Error("error closing AI provider", "err", err)
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.logger.Error("error closing postgres pool", "err", err)
			errs = append(errs, err)
		}
	}
	if b.backend != nil {
		if err := b.backend.Close(); err != nil {
			b.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Brain) Config() *config.Config {
	return b.cfg
}

func (b *Brain) Messages() storage.MessageRepository {
	return b.messages
}

func (b *Brain) Scores() storage.MediaScoreRepository {
	return b.scores
}

func (b *Brain) Vectors() storage.VectorStore {
	return b.vectors
}

func (b *Brain) NewEnricher(opts ...enrichment.Option) (*enrichment.Enricher, error) {
	return enrichment.NewEnricher(b.messages, b.scores, b.vectors, b.provider, opts...)
}

func (b *Brain) NewJournal(publisher events.Publisher, opts ...journal.Option) (*journal.Service, error) {
	return journal.NewService(b.messages, b.scores, b.vectors, publisher, opts...)
}

func (b *Brain) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(b.vectors, b.provider, opts...)
}

// NewDispatcher creates a dispatcher sized by the worker config with the
// enrichment handler registered for message/created.
func (b *Brain) NewDispatcher(sink events.DeadLetterSink) (*events.Dispatcher, error) {
	enricher, err := b.NewEnricher(enrichment.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}

	opts := []events.DispatcherOption{
		events.WithPoolSize(b.cfg.Worker.PoolSize),
		events.WithMaxAttempts(b.cfg.Worker.MaxAttempts),
		events.WithBaseDelay(b.cfg.Worker.BaseDelay),
		events.WithDispatcherLogger(b.logger),
	}
	if sink != nil {
		opts = append(opts, events.WithDeadLetterSink(sink))
	}

	dispatcher, err := events.NewDispatcher(opts...)
	if err != nil {
		return nil, err
	}
	dispatcher.Register(events.TypeMessageCreated, enricher.Handler())
	return dispatcher, nil
}

// NewBackfiller creates a backfiller over the unclassified messages.
// progress receives the progress report; nil discards it.
func (b *Brain) NewBackfiller(cfg *backfill.Config, progress io.Writer) (*backfill.Backfiller, error) {
	enricher, err := b.NewEnricher(enrichment.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}
	return backfill.NewBackfiller(b.messages, enricher, cfg, progress, b.logger)
}

// OpenQueue connects to the Redis queue named by the queue config.
// The caller closes the returned queue.
func (b *Brain) OpenQueue(ctx context.Context) (*redisqueue.Queue, error) {
	q := b.cfg.Queue
	return redisqueue.Connect(ctx, q.RedisURL,
		redisqueue.WithKeys(q.Key, q.DeadLetterKey),
		redisqueue.WithPopTimeout(q.PopTimeout),
		redisqueue.WithLogger(b.logger),
	)
}
