package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmehdipour/group-load/internal/config"
	"github.com/jmehdipour/group-load/internal/db"
	"github.com/jmehdipour/group-load/internal/envelope"
	"github.com/jmehdipour/group-load/internal/kafka"
	"github.com/jmehdipour/group-load/internal/logger"
	"github.com/jmehdipour/group-load/internal/repository"
	"github.com/jmehdipour/group-load/internal/streamer"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// runtime is what every command needs: resolved config, the environment
// binding and a logger. provider is nil for commands that never talk to Kafka.
type runtime struct {
	cfg      config.Config
	provider *config.Provider
	log      *zap.Logger
}

// loadBase resolves config, environment and logger without validating the
// Kafka settings.
func loadBase() (*runtime, config.Environment, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	if environment != "" {
		cfg.Environment = environment
	}

	env, err := config.ParseEnvironment(cfg.Environment)
	if err != nil {
		return nil, "", err
	}
	cfg.Environment = env.String()

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.Log.Encoding)
	if err != nil {
		return nil, "", fmt.Errorf("build logger: %w", err)
	}

	return &runtime{cfg: cfg, log: log}, env, nil
}

// loadRuntime is loadBase plus the Kafka binding for the environment.
func loadRuntime() (*runtime, error) {
	rt, env, err := loadBase()
	if err != nil {
		return nil, err
	}
	rt.provider, err = config.NewProvider(rt.cfg, env)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) security() kafka.Security {
	k := rt.provider.Kafka()
	return kafka.Security{
		SASL:     rt.provider.UseSASL(),
		TLS:      rt.provider.UseTLS(),
		Username: k.APIKey,
		Password: k.APISecret,
	}
}

func (rt *runtime) producerConfig() kafka.ProducerConfig {
	k := rt.provider.Kafka()
	return kafka.ProducerConfig{
		Brokers:          k.Brokers(),
		Topic:            rt.provider.Topic(),
		ClientID:         k.ClientID,
		Security:         rt.security(),
		RequiredAcks:     k.Acks,
		Retries:          k.Retries,
		BatchBytes:       k.BatchSize,
		Linger:           k.Linger,
		BufferBytes:      k.BufferMemory,
		PublishTimeout:   k.PublishTimeout,
		DialTimeout:      k.DialTimeout,
		VerifyOnStart:    k.VerifyOnStart,
		BreakerThreshold: k.Breaker.FailThreshold,
		BreakerOpenFor:   k.Breaker.OpenFor,
	}
}

// stores holds the optional audit databases. Zero value means none configured.
type stores struct {
	mysql      *sqlx.DB
	clickhouse *sqlx.DB

	deliveries repository.DeliveriesRepository
	summaries  repository.CHDeliveriesRepository
}

// openStores connects every store that has a DSN. A configured store that
// cannot be reached is an error.
func (rt *runtime) openStores() (*stores, error) {
	s := &stores{}
	if dsn := rt.cfg.MySQL.DSN; dsn != "" {
		dbx, err := db.NewMySQLConnection(dsn, poolOpts(rt.cfg.MySQL))
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		s.mysql = dbx
		s.deliveries = repository.NewDeliveriesRepository(dbx)
	}
	if dsn := rt.cfg.ClickHouse.DSN; dsn != "" {
		chx, err := db.NewClickHouseConnection(dsn, poolOpts(rt.cfg.ClickHouse))
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("clickhouse connect: %w", err)
		}
		s.clickhouse = chx
		s.summaries = repository.NewCHDeliveriesRepository(chx)
	}
	return s, nil
}

func (s *stores) recorder() *repository.Recorder {
	var writers []repository.DeliveryWriter
	if s.deliveries != nil {
		writers = append(writers, s.deliveries)
	}
	if s.summaries != nil {
		writers = append(writers, s.summaries)
	}
	return repository.NewRecorder(writers...)
}

func (s *stores) Close() error {
	var errs []error
	if s.mysql != nil {
		errs = append(errs, s.mysql.Close())
	}
	if s.clickhouse != nil {
		errs = append(errs, s.clickhouse.Close())
	}
	return errors.Join(errs...)
}

func poolOpts(c config.DatabaseConfig) db.PoolOpts {
	return db.PoolOpts{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		PingTimeout:     c.PingTimeout,
	}
}

// newStreamer connects the publisher and wires the audit recorder when any
// store is configured. The caller owns the streamer and must Close it.
func (rt *runtime) newStreamer(ctx context.Context, st *stores) (*streamer.Streamer, error) {
	pub, err := kafka.NewPublisher(ctx, rt.producerConfig(), rt.log.Named("publisher"))
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}

	opts := []streamer.Option{streamer.WithWorkers(rt.cfg.Streamer.Workers)}
	if rec := st.recorder(); rec.Enabled() {
		opts = append(opts, streamer.WithRecorder(rec))
	}

	rt.log.Debug("streamer ready",
		zap.String("environment", rt.provider.Environment().String()),
		zap.String("topic", rt.provider.Topic()),
		zap.Int("workers", rt.cfg.Streamer.Workers),
	)
	return streamer.New(pub, envelope.NewBuilder(rt.provider.Environment().String()), rt.log.Named("streamer"), opts...), nil
}
