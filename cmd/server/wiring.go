package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	dirhandler "reviewdraw/internal/directory/handler"
	dirstore "reviewdraw/internal/directory/store"
	dirmemory "reviewdraw/internal/directory/store/memory"
	dirsqlite "reviewdraw/internal/directory/store/sqlite"
	"reviewdraw/internal/platform/config"
	"reviewdraw/internal/platform/kafka"
	"reviewdraw/internal/platform/postgres"
	platformredis "reviewdraw/internal/platform/redis"
	"reviewdraw/internal/selection/service"
	"reviewdraw/internal/selection/store/record"
	httptransport "reviewdraw/internal/transport/http"
	"reviewdraw/pkg/platform/audit"
	"reviewdraw/pkg/platform/audit/publisher"
	auditkafka "reviewdraw/pkg/platform/audit/store/kafka"
	auditmemory "reviewdraw/pkg/platform/audit/store/memory"
	auditpostgres "reviewdraw/pkg/platform/audit/store/postgres"
	"reviewdraw/pkg/platform/circuit"
)

// directory is what both directory backends offer the service and handler.
type directory interface {
	service.ExpertRepository
	service.CategoryDirectory
	dirhandler.Directory
	dirstore.Writer
}

type deps struct {
	directory directory
	records   service.RecordStore
	publisher *publisher.Publisher
	health    map[string]httptransport.HealthCheck
	closers   []func() error
}

func (d *deps) onClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (d *deps) close(log *slog.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

func buildDeps(ctx context.Context, cfg config.Config, log *slog.Logger, reg prometheus.Registerer) (_ *deps, err error) {
	d := &deps{health: make(map[string]httptransport.HealthCheck)}
	defer func() {
		if err != nil {
			d.close(log)
		}
	}()

	var db *sql.DB
	if cfg.Store.Records == config.BackendPostgres || cfg.Audit.Sink == config.BackendPostgres {
		if db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
			return nil, err
		}
		d.onClose(db.Close)
		if err = postgres.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		d.health["postgres"] = db.PingContext
	}

	if err = d.buildDirectory(ctx, cfg); err != nil {
		return nil, err
	}
	if err = d.buildRecords(ctx, cfg, db); err != nil {
		return nil, err
	}
	sink, err := d.buildAuditSink(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	breaker := circuit.New("audit_sink",
		circuit.WithFailureThreshold(cfg.Audit.FailureThreshold),
		circuit.WithCooldown(cfg.Audit.Cooldown),
	)
	d.publisher = publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(cfg.Audit.Buffer),
		publisher.WithAppendTimeout(cfg.Audit.AppendTimeout),
		publisher.WithCircuitBreaker(breaker),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
		publisher.WithLogger(log),
	)
	d.onClose(d.publisher.Close)
	return d, nil
}

func (d *deps) buildDirectory(ctx context.Context, cfg config.Config) error {
	switch cfg.Store.Directory {
	case config.BackendSQLite:
		store, err := dirsqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite directory: %w", err)
		}
		d.onClose(store.Close)
		d.directory = store
	default:
		d.directory = dirmemory.NewInMemory()
	}
	if cfg.Selection.SeedDirectory {
		if err := dirstore.Seed(ctx, d.directory); err != nil {
			return fmt.Errorf("seed directory: %w", err)
		}
	}
	return nil
}

func (d *deps) buildRecords(ctx context.Context, cfg config.Config, db *sql.DB) error {
	switch cfg.Store.Records {
	case config.BackendPostgres:
		d.records = record.NewPostgres(db)
	case config.BackendRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		d.onClose(client.Close)
		d.health["redis"] = client.Health
		d.records = record.NewRedis(client.Client, record.WithUpdateRetries(cfg.Store.RedisUpdateRetries))
	default:
		d.records = record.NewInMemory()
	}
	return nil
}

func (d *deps) buildAuditSink(ctx context.Context, cfg config.Config, db *sql.DB) (audit.Store, error) {
	switch cfg.Audit.Sink {
	case config.BackendPostgres:
		return auditpostgres.New(db), nil
	case config.BackendKafka:
		client, err := kafka.NewProducer(ctx, cfg.Kafka)
		if err != nil {
			return nil, err
		}
		d.onClose(func() error { client.Close(); return nil })
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions); err != nil {
			return nil, err
		}
		d.health["kafka"] = client.Ping
		return auditkafka.New(client, cfg.Kafka.AuditTopic), nil
	default:
		return auditmemory.NewInMemoryStore(), nil
	}
}
