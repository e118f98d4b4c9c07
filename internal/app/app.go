// Package app wires the runtime: database, locker, event sinks, metrics and
// services, built from a loaded config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/config"
	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/events"
	"github.com/alexanderramin/tranche/internal/lock"
	"github.com/alexanderramin/tranche/internal/metrics"
	"github.com/alexanderramin/tranche/internal/repository"
	"github.com/alexanderramin/tranche/internal/service"
)

const redisPingTimeout = 3 * time.Second

// App holds the wired services shared by the CLI and the HTTP server.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	DB       *sql.DB
	Projects service.ProjectService
	Accounts service.AccountService
	Outbox   repository.OutboxRepo
	Metrics  *metrics.Metrics

	closers []func() error
}

type Option func(*options)

type options struct {
	now   func() time.Time
	sinks []events.Sink
}

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSink adds an in-process sink next to the log and metrics sinks.
func WithSink(s events.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s) }
}

// New opens the database and builds the services. Close releases everything
// New acquired.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      database,
		Outbox:  repository.NewSQLiteOutboxRepo(database),
		closers: []func() error{database.Close},
	}

	locker, err := a.newLocker()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(registry)

	observers := []service.UseCaseObserver{
		service.NewLogUseCaseObserver(logger.Named("service")),
		a.Metrics,
	}
	svcOpts := []service.Option{
		service.WithLocker(locker),
		service.WithSink(events.NewLogSink(logger.Named("events"))),
		service.WithSink(a.Metrics),
		service.WithObservers(observers...),
	}
	for _, s := range o.sinks {
		svcOpts = append(svcOpts, service.WithSink(s))
	}
	if o.now != nil {
		svcOpts = append(svcOpts, service.WithClock(o.now))
	}
	if cfg.DBPath != db.MemoryPath {
		readDB, err := db.OpenReadDB(cfg.DBPath)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, readDB.Close)
		svcOpts = append(svcOpts, service.WithReadUnitOfWork(db.NewSQLiteUnitOfWork(readDB)))
	}

	a.Projects = service.NewProjectService(db.NewSQLiteUnitOfWork(database), svcOpts...)
	a.Accounts = service.NewAccountService(database, observers...)
	return a, nil
}

func (a *App) newLocker() (lock.Locker, error) {
	rc := a.Config.Redis
	if rc.Addr == "" {
		return lock.NewKeyedMutex(), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	a.closers = append(a.closers, rdb.Close)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", rc.Addr, err)
	}
	a.Logger.Info("using redis project locks", zap.String("addr", rc.Addr), zap.Duration("ttl", rc.LockTTL))
	return lock.NewRedisLocker(rdb, rc.LockTTL, lock.WithLogger(a.Logger.Named("lock"))), nil
}

// Publisher returns the AMQP publisher when a broker URL is configured and a
// log-only publisher otherwise. The returned func closes it.
func (a *App) Publisher() (events.Publisher, func(), error) {
	if a.Config.AMQP.URL == "" {
		return events.NewLogPublisher(a.Logger.Named("outbox")), func() {}, nil
	}
	pub, err := events.NewAMQPPublisher(a.Config.AMQP.URL)
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Close, nil
}

// Dispatcher builds an outbox dispatcher from the outbox settings.
func (a *App) Dispatcher(pub events.Publisher) *events.Dispatcher {
	oc := a.Config.Outbox
	return events.NewDispatcher(a.Outbox, pub, a.Logger.Named("outbox"),
		events.WithInterval(oc.Interval),
		events.WithBackoff(oc.Backoff),
		events.WithMaxAttempts(oc.MaxAttempts),
		events.WithBatchSize(oc.BatchSize),
		events.WithDispatchObserver(a.Metrics),
	)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
