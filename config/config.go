// Package config loads secondbrain's application configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML
// file, and environment variables (optionally seeded from a .env file).
// Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/secondbrain/ai"
	"gopkg.in/yaml.v3"
)

// EnvFile is the dotenv file read from the working directory when present.
const EnvFile = ".env"

// Environment variables read by Load.
const (
	EnvConfigPath      = "SECONDBRAIN_CONFIG"
	EnvLogLevel        = "SECONDBRAIN_LOG_LEVEL"
	EnvStorageDriver   = "SECONDBRAIN_STORAGE_DRIVER"
	EnvStoragePath     = "SECONDBRAIN_STORAGE_PATH"
	EnvAIHost          = "SECONDBRAIN_AI_HOST"
	EnvEmbeddingModel  = "SECONDBRAIN_EMBEDDING_MODEL"
	EnvClassifierModel = "SECONDBRAIN_CLASSIFIER_MODEL"
	EnvScorerHost      = "SECONDBRAIN_SCORER_HOST"
	EnvScorerModel     = "SECONDBRAIN_SCORER_MODEL"
	EnvWorkerPoolSize  = "SECONDBRAIN_WORKER_POOL_SIZE"
	EnvAPIKey          = "OPENROUTER_API_KEY"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvRedisURL        = "REDIS_URL"
)

// Storage drivers.
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

var (
	// ErrInvalidConfig is returned when the loaded configuration is unusable.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidLogLevel is returned for an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config is the application configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	AI       AIConfig      `yaml:"ai"`
	Storage  StorageConfig `yaml:"storage"`
	Queue    QueueConfig   `yaml:"queue"`
	Worker   WorkerConfig  `yaml:"worker"`
}

// AIConfig names the model hosts and models. Empty fields keep the
// defaults of ai.DefaultConfig. Host applies to every service unless a
// more specific host is set.
type AIConfig struct {
	Host            string   `yaml:"host"`
	EmbeddingHost   string   `yaml:"embedding_host"`
	ClassifierHost  string   `yaml:"classifier_host"`
	ScorerHost      string   `yaml:"scorer_host"`
	EmbeddingModel  string   `yaml:"embedding_model"`
	ClassifierModel string   `yaml:"classifier_model"`
	ScorerModel     string   `yaml:"scorer_model"`
	APIKey          string   `yaml:"api_key"`
	Temperature     *float64 `yaml:"temperature"`
	MaxTokens       int      `yaml:"max_tokens"`
}

// StorageConfig selects where messages, scores and vectors live.
// With the postgres driver, messages and scores go to PostgreSQL while
// vectors stay in the badger database at Path.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	DSN      string `yaml:"dsn"`
}

// QueueConfig locates the Redis event queue.
type QueueConfig struct {
	RedisURL      string        `yaml:"redis_url"`
	Key           string        `yaml:"key"`
	DeadLetterKey string        `yaml:"dead_letter_key"`
	PopTimeout    time.Duration `yaml:"pop_timeout"`
}

// WorkerConfig tunes event consumption.
type WorkerConfig struct {
	Consumers   int           `yaml:"consumers"`
	PoolSize    int           `yaml:"pool_size"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Driver: DriverBadger,
			Path:   "secondbrain.db",
		},
		Queue: QueueConfig{
			RedisURL:      "redis://localhost:6379/0",
			Key:           "secondbrain:queue:events",
			DeadLetterKey: "secondbrain:queue:failed",
			PopTimeout:    time.Second,
		},
		Worker: WorkerConfig{
			Consumers:   1,
			PoolSize:    4,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// the environment. An empty path falls back to $SECONDBRAIN_CONFIG; when
// that is unset too, no file is read. A missing .env file is ignored.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.Storage.Driver, EnvStorageDriver)
	setString(&c.Storage.Path, EnvStoragePath)
	setString(&c.Storage.DSN, EnvDatabaseURL)
	setString(&c.AI.Host, EnvAIHost)
	setString(&c.AI.EmbeddingModel, EnvEmbeddingModel)
	setString(&c.AI.ClassifierModel, EnvClassifierModel)
	setString(&c.AI.ScorerHost, EnvScorerHost)
	setString(&c.AI.ScorerModel, EnvScorerModel)
	setString(&c.AI.APIKey, EnvAPIKey)
	setString(&c.Queue.RedisURL, EnvRedisURL)

	if v := os.Getenv(EnvWorkerPoolSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvWorkerPoolSize, err)
		}
		c.Worker.PoolSize = n
	}
	return nil
}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Storage.Driver {
	case DriverBadger, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("%w: storage path is required", ErrInvalidConfig)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.DSN == "" {
		return fmt.Errorf("%w: postgres driver requires a dsn", ErrInvalidConfig)
	}

	if c.Worker.MaxAttempts <= 0 {
		return fmt.Errorf("%w: worker max_attempts must be greater than 0", ErrInvalidConfig)
	}
	if c.Worker.Consumers <= 0 || c.Worker.PoolSize <= 0 {
		return fmt.Errorf("%w: worker consumers and pool_size must be greater than 0", ErrInvalidConfig)
	}
	if c.AI.Temperature != nil && (*c.AI.Temperature < 0 || *c.AI.Temperature > 2) {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	}
	return nil
}

// AIConfig returns the provider configuration, starting from
// ai.DefaultConfig and overriding whatever is set.
func (c *Config) AIConfig() *ai.Config {
	var opts []ai.ConfigOption
	if c.AI.Host != "" {
		opts = append(opts, ai.WithHost(c.AI.Host))
	}

	add := func(value string, opt func(string) ai.ConfigOption) {
		if value != "" {
			opts = append(opts, opt(value))
		}
	}
	add(c.AI.EmbeddingHost, ai.WithEmbeddingHost)
	add(c.AI.ClassifierHost, ai.WithClassifierHost)
	add(c.AI.ScorerHost, ai.WithScorerHost)
	add(c.AI.EmbeddingModel, ai.WithEmbeddingModel)
	add(c.AI.ClassifierModel, ai.WithClassifierModel)
	add(c.AI.ScorerModel, ai.WithScorerModel)
	add(c.AI.APIKey, ai.WithAPIKey)

	if c.AI.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*c.AI.Temperature))
	}
	if c.AI.MaxTokens > 0 {
		opts = append(opts, ai.WithMaxTokens(c.AI.MaxTokens))
	}
	return ai.NewConfig(opts...)
}

// ParseLevel maps debug, info, warn or error (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w %q: must be one of debug, info, warn, error", ErrInvalidLogLevel, s)
}
