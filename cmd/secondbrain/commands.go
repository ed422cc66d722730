package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/poiesic/secondbrain"
	"github.com/poiesic/secondbrain/backfill"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/events"
	"github.com/poiesic/secondbrain/journal"
	"github.com/poiesic/secondbrain/search"
	"github.com/poiesic/secondbrain/storage/postgres"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func workerCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("consumers") {
		cfg.Worker.Consumers = c.Int("consumers")
	}
	if c.IsSet("pool-size") {
		cfg.Worker.PoolSize = c.Int("pool-size")
	}
	if cfg.Worker.Consumers <= 0 {
		return fmt.Errorf("consumers must be greater than 0")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	brain, err := secondbrain.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open brain: %w", err)
	}
	defer brain.Close()

	queue, err := brain.OpenQueue(ctx)
	if err != nil {
		return err
	}
	defer queue.Close()

	dispatcher, err := brain.NewDispatcher(queue)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer dispatcher.Release()

	slog.Info("worker started",
		"consumers", cfg.Worker.Consumers,
		"poolSize", cfg.Worker.PoolSize,
		"queue", cfg.Queue.Key)

	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.Worker.Consumers {
		consumer := events.NewConsumer(queue, dispatcher, slog.Default().With("consumer", i))
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}
	err = g.Wait()

	// Handlers already running finish before the stores close.
	dispatcher.Wait()
	slog.Info("worker stopped")
	return err
}

func submitCommand(c *cli.Context) error {
	content := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	brain, err := secondbrain.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open brain: %w", err)
	}
	defer brain.Close()

	queue, err := brain.OpenQueue(c.Context)
	if err != nil {
		return err
	}
	defer queue.Close()

	svc, err := brain.NewJournal(queue)
	if err != nil {
		return err
	}

	msg, err := svc.Submit(c.Context, c.String("user"), content)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, msg.ID)
	return nil
}

// openJournal opens the journal for commands that never publish, so they
// work without Redis.
func openJournal(c *cli.Context) (*secondbrain.Brain, *journal.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	brain, err := secondbrain.Open(c.Context, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open brain: %w", err)
	}

	svc, err := brain.NewJournal(events.NewMemoryQueue(1))
	if err != nil {
		brain.Close()
		return nil, nil, err
	}
	return brain, svc, nil
}

func mediaCommand(c *cli.Context) error {
	brain, svc, err := openJournal(c)
	if err != nil {
		return err
	}
	defer brain.Close()

	entries, err := svc.ListMedia(c.Context, c.String("user"), c.Int("limit"))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.App.Writer, "No media opinions")
		return nil
	}
	for _, entry := range entries {
		boldness, confidence := "unscored", "-"
		if entry.Score != nil {
			boldness = string(entry.Score.Boldness)
			if entry.Score.Confidence != nil {
				confidence = strconv.Itoa(*entry.Score.Confidence) + "%"
			}
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%s\n", entry.Message.ID, boldness, confidence, entry.Message.Content)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	messageID := c.Args().First()
	if messageID == "" {
		return fmt.Errorf("message id is required")
	}

	brain, svc, err := openJournal(c)
	if err != nil {
		return err
	}
	defer brain.Close()

	if err := svc.Delete(c.Context, c.String("user"), messageID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Deleted", messageID)
	return nil
}

func enrichCommand(c *cli.Context) error {
	messageID := c.Args().First()
	if messageID == "" {
		return fmt.Errorf("message id is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	brain, err := secondbrain.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open brain: %w", err)
	}
	defer brain.Close()

	enricher, err := brain.NewEnricher()
	if err != nil {
		return err
	}

	result, err := enricher.EnrichMessage(c.Context, messageID)
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}
	return json.NewEncoder(c.App.Writer).Encode(result)
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}
	if c.Int("limit") <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	brain, err := secondbrain.Open(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to open brain: %w", err)
	}
	defer brain.Close()

	searcher, err := brain.NewSearcher(search.WithMinSimilarity(float32(c.Float64("min-similarity"))))
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(c.Context, c.String("user"), query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No matching notes")
		return nil
	}
	for _, result := range results {
		fmt.Fprintf(c.App.Writer, "%.3f\t%s\t%s\n", result.Score, result.Record.ID, result.Record.Metadata[core.MetadataContent])
	}
	return nil
}

func backfillCommand(c *cli.Context) error {
	backfillConfig := &backfill.Config{
		BatchSize:      c.Int("batch-size"),
		Concurrency:    c.Int("concurrency"),
		ReportInterval: c.Int("report-interval"),
		MaxAttempts:    c.Int("max-attempts"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if backfillConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if backfillConfig.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be greater than 0")
	}
	if backfillConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if backfillConfig.MaxAttempts <= 0 {
		return fmt.Errorf("max-attempts must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	brain, err := secondbrain.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open brain: %w", err)
	}
	defer brain.Close()

	backfiller, err := brain.NewBackfiller(backfillConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Storage: %s (%s)\n", cfg.Storage.Driver, cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Classifier model: %s\n", cfg.AIConfig().ClassifierModel)
	fmt.Fprintln(os.Stderr)

	if _, err := backfiller.Run(ctx); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	return nil
}

func openMigrator(c *cli.Context) (*postgres.Migrator, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.DSN == "" {
		return nil, errors.New("a postgres dsn is required (--dsn or DATABASE_URL)")
	}
	return postgres.NewMigrator(cfg.Storage.DSN)
}

func migrateUpCommand(c *cli.Context) error {
	m, err := openMigrator(c)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

func migrateDownCommand(c *cli.Context) error {
	m, err := openMigrator(c)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Down()
}

func migrateStepsCommand(c *cli.Context) error {
	n, err := strconv.Atoi(c.Args().First())
	if err != nil || n == 0 {
		return fmt.Errorf("steps must be a non-zero integer, got %q", c.Args().First())
	}

	m, err := openMigrator(c)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Steps(n)
}

func migrateVersionCommand(c *cli.Context) error {
	m, err := openMigrator(c)
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", version, dirty)
	return nil
}
