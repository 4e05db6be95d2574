// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem of the indexer (Indexer, Schema, Postgres, Kafka, Redis, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-fanout/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-fanout/pkg/resilience"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the top-level application configuration.
type Config struct {
	Indexer  IndexerConfig          `yaml:"indexer"`
	Schema   SchemaConfig           `yaml:"schema"`
	Postgres PostgresConfig         `yaml:"postgres"`
	Kafka    KafkaConfig            `yaml:"kafka"`
	Redis    RedisConfig            `yaml:"redis"`
	Logging  LoggingConfig          `yaml:"logging"`
	Metrics  MetricsConfig          `yaml:"metrics"`
	Retry    resilience.RetryConfig `yaml:"retry"`
}

// IndexerConfig controls where documents are persisted, when the in-memory
// structures are flushed and how fields are encoded and tokenized.
type IndexerConfig struct {
	DataDir        string        `yaml:"dataDir"`
	SegmentMaxSize int64         `yaml:"segmentMaxSize"`
	FlushInterval  time.Duration `yaml:"flushInterval"`
	NumShards      int           `yaml:"numShards"`
	Encoding       string        `yaml:"encoding"`
	Analyzer       string        `yaml:"analyzer"`
	NoSync         bool          `yaml:"noSync"`
}

// SchemaConfig declares the identifier field and every recognized attribute.
type SchemaConfig struct {
	Identifier string                `yaml:"identifier"`
	Attributes []schema.AttributeDef `yaml:"attributes"`
}

// Build turns the declaration into a schema.
func (s SchemaConfig) Build() (*schema.Schema, error) {
	return schema.FromDefs(s.Identifier, s.Attributes)
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings. An empty
// IndexComplete disables completion events.
type KafkaTopics struct {
	DocumentIngest string `yaml:"documentIngest"`
	IndexComplete  string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection parameters and the key prefix of the
// published rank sorted sets.
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	PoolSize      int    `yaml:"poolSize"`
	RankKeyPrefix string `yaml:"rankKeyPrefix"`

	PublishTimeout time.Duration                   `yaml:"publishTimeout"`
	CircuitBreaker resilience.CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting the indexer cannot start with.
func (c *Config) Validate() error {
	if c.Indexer.DataDir == "" {
		return fmt.Errorf("%w: indexer.dataDir is empty", ErrInvalid)
	}
	if c.Indexer.NumShards < 1 {
		return fmt.Errorf("%w: indexer.numShards must be at least 1, got %d", ErrInvalid, c.Indexer.NumShards)
	}
	if c.Indexer.SegmentMaxSize <= 0 {
		return fmt.Errorf("%w: indexer.segmentMaxSize must be positive", ErrInvalid)
	}
	if c.Indexer.FlushInterval <= 0 {
		return fmt.Errorf("%w: indexer.flushInterval must be positive", ErrInvalid)
	}
	switch c.Indexer.Encoding {
	case "json", "msgpack":
	default:
		return fmt.Errorf("%w: unknown indexer.encoding %q", ErrInvalid, c.Indexer.Encoding)
	}
	if _, err := c.Schema.Build(); err != nil {
		return fmt.Errorf("%w: schema: %w", ErrInvalid, err)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Indexer: IndexerConfig{
			DataDir:        "./data/index",
			SegmentMaxSize: 64 << 20,
			FlushInterval:  30 * time.Second,
			NumShards:      1,
			Encoding:       "json",
			Analyzer:       "simple",
		},
		Schema: SchemaConfig{
			Identifier: "id",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "searchplatform",
			User:            "searchplatform",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "search-fanout-indexer",
			Topics: KafkaTopics{
				DocumentIngest: "document-ingest",
				IndexComplete:  "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			PoolSize:       10,
			RankKeyPrefix:  "rank:",
			PublishTimeout: 2 * time.Second,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_INDEXER_DATA_DIR"); v != "" {
		cfg.Indexer.DataDir = v
	}
	if v := os.Getenv("SP_INDEXER_NUM_SHARDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.NumShards = n
		}
	}
	if v := os.Getenv("SP_INDEXER_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Indexer.FlushInterval = d
		}
	}
	if v := os.Getenv("SP_INDEXER_ENCODING"); v != "" {
		cfg.Indexer.Encoding = v
	}
	if v := os.Getenv("SP_INDEXER_ANALYZER"); v != "" {
		cfg.Indexer.Analyzer = v
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
