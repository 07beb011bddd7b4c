package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/report"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/lock"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/reports"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, flush, err := logging.New(cfg.AppName, cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("fern exited with an error")
		flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	checker := health.NewChecker(version)

	deps.AddDependency(tracing.NewProvider(tracing.ProviderConfig{
		ServiceName: cfg.AppName,
		SampleRatio: cfg.TraceSampleRate,
		OTLP: exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  cfg.OTLPTimeout,
		},
	}, logger))

	var db *database.Dependency
	if cfg.StoreDriver == config.StoreDriverPostgres {
		db = database.NewDependency(cfg.DatabaseDSN(), database.PoolConfig{
			MaxOpenConns:    cfg.DatabaseMaxOpenConns,
			MaxIdleConns:    cfg.DatabaseMaxIdleConns,
			ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
		}, &database.MigrationConfig{
			MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
			Version:             cfg.DatabaseMigrationVersion,
			Force:               cfg.DatabaseMigrationForce,
			AutoRollback:        cfg.DatabaseMigrationAutoRollback,
		}, logger)
		deps.AddDependency(db)
	}

	var redisClient *redis.Client
	if cfg.LockDriver == config.LockDriverRedis {
		redisClient = redis.NewClient(redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		}, logger)
		deps.AddDependency(redisClient)
		checker.AddCheck("redis", redisClient.Ping)
	}

	var publisher events.Publisher
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		deps.AddDependency(producer)
		publisher = producer
	}

	if err := deps.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := deps.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("Failed to stop dependencies")
		}
	}()

	var store reports.Store
	if db != nil {
		store = report.NewPostgresRepository(db.DB(), logger)
		checker.AddCheck("database", db.DB().PingContext)
	} else {
		logger.Warn("Using in-memory report store; reports are lost on restart")
		store = report.NewMemoryRepository()
	}

	var locker lock.ScopeLocker
	switch cfg.LockDriver {
	case config.LockDriverRedis:
		locker = lock.NewRedisLocker(redisClient, cfg.LockTTL, cfg.LockWaitTimeout, logger)
	case config.LockDriverNone:
		locker = lock.Noop{}
	default:
		locker = lock.NewLocalLocker(cfg.LockWaitTimeout)
	}

	service := reports.NewService(store, reports.Config{
		Matching: matching.Config{
			FirstNameThreshold: cfg.Matching.FirstNameThreshold,
			FullNameThreshold:  cfg.Matching.FullNameThreshold,
		},
		RequireAcknowledgement: cfg.Matching.RequireAcknowledgement,
	}, logger,
		reports.WithLocker(locker),
		reports.WithPublisher(events.NewEmitter(publisher, logger)),
	)

	if _, err := newContainer(cfg.AppName, logger, service); err != nil {
		return err
	}

	e := newServer(cfg, logger, cfg.AppName, checker)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting %s on %s", cfg.AppName, srv.Addr)
		errCh <- srv.ListenAndServe()
	}()
	checker.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
