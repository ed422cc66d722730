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


package backfill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/enrichment"
	"github.com/poiesic/secondbrain/events"
	"github.com/poiesic/secondbrain/storage"
)

// Enricher runs the enrichment pipeline for one message.
type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) (*enrichment.Result, error)
}

// Config holds configuration for a backfill run.
type Config struct {
	// BatchSize is the number of messages fetched per batch
	BatchSize int

	// Concurrency is the number of messages enriched in parallel
	Concurrency int

	// ReportInterval is how often to report progress (number of messages)
	ReportInterval int

	// MaxAttempts is the number of enrichment attempts per message
	MaxAttempts int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		Concurrency:    1,
		ReportInterval: 10,
		MaxAttempts:    3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	Enriched int
	Failed   int
	Elapsed  time.Duration
}

// Backfiller enriches every message still awaiting classification.
type Backfiller struct {
	enricher Enricher
	config   *Config
	progress io.Writer
	iterator *UnclassifiedIterator
	messages storage.MessageRepository
	logger   *slog.Logger
}

// NewBackfiller creates a new backfiller.
// progress: where to write progress output (typically os.Stderr)
func NewBackfiller(messages storage.MessageRepository, enricher Enricher, config *Config, progress io.Writer, logger *slog.Logger) (*Backfiller, error) {
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}
	if enricher == nil {
		return nil, ErrEnricherRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts <= 0 {
		return nil, events.ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Backfiller{
		enricher: enricher,
		config:   config,
		progress: progress,
		iterator: NewUnclassifiedIterator(messages, config.BatchSize),
		messages: messages,
		logger:   logger.With("component", "backfill"),
	}, nil
}

// Run enriches all unclassified messages. A message that still fails after
// every attempt is logged and counted; it does not stop the run.
func (b *Backfiller) Run(ctx context.Context) (*Summary, error) {
	total, err := b.messages.CountUnclassified(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count unclassified messages: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(b.progress, "No unclassified messages found\n")
		return &Summary{}, nil
	}

	concurrency := max(b.config.Concurrency, 1)
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	fmt.Fprintf(b.progress, "Starting backfill of %d messages (batch size: %d, concurrency: %d)\n",
		total, b.iterator.batchSize, concurrency)

	tracker := NewProgressTracker(b.progress, total, b.config.ReportInterval)
	tracker.Start()

	var (
		mu      sync.Mutex
		summary Summary
	)
	err = b.iterator.ForEach(ctx, func(batch []*core.Message) error {
		var wg sync.WaitGroup
		for _, msg := range batch {
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				failed := b.enrich(ctx, msg) != nil

				mu.Lock()
				if failed {
					summary.Failed++
				} else {
					summary.Enriched++
				}
				mu.Unlock()
				tracker.Record(failed)
			})
			if submitErr != nil {
				wg.Done()
				return submitErr
			}
		}
		wg.Wait()
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	tracker.Finish()
	summary.Elapsed = tracker.Elapsed()
	fmt.Fprintf(b.progress, "Backfill complete. Enriched %d, failed %d in %v\n",
		summary.Enriched, summary.Failed, summary.Elapsed.Round(time.Millisecond))

	return &summary, nil
}

func (b *Backfiller) enrich(ctx context.Context, msg *core.Message) error {
	req := enrichment.Request{
		MessageID: msg.ID,
		UserID:    msg.UserID,
		Content:   msg.Content,
	}

	err := events.RetryWithBackoff(ctx, func() error {
		_, err := b.enricher.Enrich(ctx, req)
		if errors.Is(err, enrichment.ErrInvalidRequest) {
			return fmt.Errorf("%w: %w", events.ErrPermanent, err)
		}
		return err
	}, b.config.MaxAttempts, b.config.RetryDelay)
	if err != nil {
		b.logger.Warn("message not enriched", "messageID", msg.ID, "err", err)
	}
	return err
}
