package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by the store switches.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendKafka    = "kafka"
)

// Config is the full process configuration, loaded from REVIEWDRAW_* variables.
type Config struct {
	Server    Server
	Log       Log
	Store     Store
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Audit     Audit
	Selection Selection
	OTel      OTel
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `env:"REVIEWDRAW_ADDR" envDefault:":8080"`
	RequestTimeout time.Duration `env:"REVIEWDRAW_REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownGrace  time.Duration `env:"REVIEWDRAW_SHUTDOWN_GRACE" envDefault:"15s"`
}

type Log struct {
	Level  string `env:"REVIEWDRAW_LOG_LEVEL" envDefault:"info"`
	Format string `env:"REVIEWDRAW_LOG_FORMAT" envDefault:"json"`
}

// Store selects the record store and expert directory backends.
type Store struct {
	Records    string `env:"REVIEWDRAW_RECORD_STORE" envDefault:"memory"`
	Directory  string `env:"REVIEWDRAW_DIRECTORY" envDefault:"memory"`
	SQLitePath string `env:"REVIEWDRAW_SQLITE_PATH" envDefault:"reviewdraw.db"`
	// RedisUpdateRetries bounds optimistic retries before a conflict is reported.
	RedisUpdateRetries int `env:"REVIEWDRAW_REDIS_UPDATE_RETRIES" envDefault:"8"`
}

type PostgresConfig struct {
	URL             string        `env:"REVIEWDRAW_DATABASE_URL"`
	MaxOpenConns    int           `env:"REVIEWDRAW_DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"REVIEWDRAW_DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"REVIEWDRAW_DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type RedisConfig struct {
	URL          string        `env:"REVIEWDRAW_REDIS_URL"`
	PoolSize     int           `env:"REVIEWDRAW_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REVIEWDRAW_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REVIEWDRAW_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REVIEWDRAW_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REVIEWDRAW_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type KafkaConfig struct {
	Brokers    []string `env:"REVIEWDRAW_KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"REVIEWDRAW_KAFKA_AUDIT_TOPIC" envDefault:"selection-audit"`
	Partitions int32    `env:"REVIEWDRAW_KAFKA_AUDIT_PARTITIONS" envDefault:"3"`
}

// Audit configures best-effort delivery of operator events.
type Audit struct {
	Sink             string        `env:"REVIEWDRAW_AUDIT_SINK" envDefault:"memory"`
	Buffer           int           `env:"REVIEWDRAW_AUDIT_BUFFER" envDefault:"1024"`
	AppendTimeout    time.Duration `env:"REVIEWDRAW_AUDIT_APPEND_TIMEOUT" envDefault:"5s"`
	FailureThreshold int           `env:"REVIEWDRAW_AUDIT_FAILURE_THRESHOLD" envDefault:"5"`
	Cooldown         time.Duration `env:"REVIEWDRAW_AUDIT_COOLDOWN" envDefault:"30s"`
}

type Selection struct {
	ProjectPrefix string `env:"REVIEWDRAW_PROJECT_PREFIX" envDefault:"PDSU"`
	SeedDirectory bool   `env:"REVIEWDRAW_SEED_DIRECTORY" envDefault:"true"`
}

type OTel struct {
	Endpoint    string `env:"REVIEWDRAW_OTEL_ENDPOINT"`
	ServiceName string `env:"REVIEWDRAW_OTEL_SERVICE_NAME" envDefault:"reviewdraw"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FromEnv loads and validates the process configuration.
func FromEnv() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Store.Records = strings.ToLower(strings.TrimSpace(c.Store.Records))
	c.Store.Directory = strings.ToLower(strings.TrimSpace(c.Store.Directory))
	c.Audit.Sink = strings.ToLower(strings.TrimSpace(c.Audit.Sink))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate checks backend names and the settings each backend needs.
func (c Config) Validate() error {
	switch c.Store.Records {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("REVIEWDRAW_DATABASE_URL is required for the postgres record store")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REVIEWDRAW_REDIS_URL is required for the redis record store")
		}
		if c.Store.RedisUpdateRetries < 1 {
			return fmt.Errorf("REVIEWDRAW_REDIS_UPDATE_RETRIES must be at least 1")
		}
	default:
		return fmt.Errorf("unknown record store %q", c.Store.Records)
	}

	switch c.Store.Directory {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("REVIEWDRAW_SQLITE_PATH is required for the sqlite directory")
		}
	default:
		return fmt.Errorf("unknown directory backend %q", c.Store.Directory)
	}

	switch c.Audit.Sink {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("REVIEWDRAW_DATABASE_URL is required for the postgres audit sink")
		}
	case BackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("REVIEWDRAW_KAFKA_BROKERS is required for the kafka audit sink")
		}
	default:
		return fmt.Errorf("unknown audit sink %q", c.Audit.Sink)
	}

	if c.Selection.ProjectPrefix == "" {
		return fmt.Errorf("REVIEWDRAW_PROJECT_PREFIX must not be empty")
	}
	return nil
}
