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


package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/secondbrain/backfill"
	"github.com/poiesic/secondbrain/config"
	"github.com/poiesic/secondbrain/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "secondbrain",
		Usage: "Journal enrichment pipeline: classify, index and score messages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{config.EnvLogLevel},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the BadgerDB database directory",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Message storage driver (badger, postgres)",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "PostgreSQL connection string",
			},
			&cli.StringFlag{
				Name:  "redis-url",
				Usage: "Redis URL of the event queue",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "worker",
				Usage:  "Consume message/created events and enrich messages",
				Action: workerCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "consumers",
						Usage: "Number of queue consumers",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of events handled concurrently",
					},
				},
			},
			{
				Name:      "submit",
				Usage:     "Store a message and publish its message/created event",
				ArgsUsage: "<content>",
				Action:    submitCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "ID of the user writing the message",
						Required: true,
					},
				},
			},
			{
				Name:   "media",
				Usage:  "List a user's media opinions with their boldness scores",
				Action: mediaCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "ID of the user whose opinions are listed",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of opinions, 0 for all",
						Value: 20,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a message with its score and index entry",
				ArgsUsage: "<message-id>",
				Action:    deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "ID of the user owning the message",
						Required: true,
					},
				},
			},
			{
				Name:      "enrich",
				Usage:     "Enrich one stored message synchronously",
				ArgsUsage: "<message-id>",
				Action:    enrichCommand,
			},
			{
				Name:      "search",
				Usage:     "Search a user's study notes",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "ID of the user whose notes are searched",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Drop results scoring below this similarity",
						Value: search.DefaultMinSimilarity,
					},
				},
			},
			{
				Name:   "backfill",
				Usage:  "Enrich every message that is still unclassified",
				Action: backfillCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of messages fetched per batch",
						Value: backfill.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of messages enriched in parallel",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N messages",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Enrichment attempts per message",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:  "migrate",
				Usage: "Manage the PostgreSQL schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: migrateUpCommand,
					},
					{
						Name:   "down",
						Usage:  "Revert all migrations",
						Action: migrateDownCommand,
					},
					{
						Name:      "steps",
						Usage:     "Apply n migrations, or revert them when n is negative",
						ArgsUsage: "[--] <n>",
						Action:    migrateStepsCommand,
					},
					{
						Name:   "version",
						Usage:  "Print the applied schema version",
						Action: migrateVersionCommand,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	return installLogger(c.String("log-level"))
}

func installLogger(levelStr string) error {
	level, err := config.ParseLevel(levelStr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the configuration and applies the global flags on top.
// A log level from the file is honored unless --log-level was given.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("db") {
		cfg.Storage.Path = c.String("db")
	}
	if c.IsSet("driver") {
		cfg.Storage.Driver = c.String("driver")
	}
	if c.IsSet("dsn") {
		cfg.Storage.DSN = c.String("dsn")
	}
	if c.IsSet("redis-url") {
		cfg.Queue.RedisURL = c.String("redis-url")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := installLogger(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}
