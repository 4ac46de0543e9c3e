package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/goliatone/go-directory/activity"
	"github.com/goliatone/go-directory/badgerstore"
	"github.com/goliatone/go-directory/bunstore"
	"github.com/goliatone/go-directory/command"
	"github.com/goliatone/go-directory/config"
	"github.com/goliatone/go-directory/migrations"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/goliatone/go-directory/service"
	"github.com/goliatone/go-directory/state"
	"github.com/goliatone/go-featuregate/adapters/configadapter"
	"github.com/goliatone/go-featuregate/resolver"
	"github.com/goliatone/go-featuregate/store"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// runtime is one opened backend plus the service wired over it.
type runtime struct {
	svc     *service.Service
	closers []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openRuntime(ctx context.Context, cfg config.Config, limits types.Limits, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{}
	svcCfg := service.Config{
		Limits:                limits,
		Logger:                slogLogger{logger: logger},
		FeatureGate:           newFeatureGate(cfg),
		ActivityOperatorTypes: cfg.ActivityOperators,
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := openSQLite(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		stateStore, err := bunstore.New(bunstore.Config{DB: db})
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		repo, err := activity.NewRepository(activity.RepositoryConfig{DB: db})
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		svcCfg.StateStore = stateStore
		svcCfg.ActivitySink = repo
	case config.BackendBadger:
		badgerCfg := badgerstore.DefaultConfig(cfg.BadgerPath)
		badgerCfg.Logger = logger.With("component", "badger")
		db, err := badgerstore.Open(badgerCfg)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, db.Close)
		stateStore, err := badgerstore.New(db)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		svcCfg.StateStore = stateStore
		svcCfg.ActivitySink = activity.NewMemoryLog(nil, nil)
	default:
		svcCfg.StateStore = state.NewMemoryStore()
		svcCfg.ActivitySink = activity.NewMemoryLog(nil, nil)
	}

	rt.svc = service.New(svcCfg)
	if err := rt.svc.HealthCheck(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	logger.Debug("directory ready", "backend", cfg.Backend, "max_username_length", limits.MaxUsernameLength, "max_bio_length", limits.MaxBioLength)
	return rt, nil
}

// slogLogger adapts log/slog to types.Logger.
type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) Debug(msg string, fields ...any) { l.logger.Debug(msg, fields...) }
func (l slogLogger) Info(msg string, fields ...any)  { l.logger.Info(msg, fields...) }
func (l slogLogger) Error(msg string, err error, fields ...any) {
	l.logger.Error(msg, append([]any{"error", err}, fields...)...)
}

// openSQLite opens the database and brings its schema up to date through
// go-persistence-bun, which records applied migrations.
func openSQLite(ctx context.Context, cfg config.Config, logger *slog.Logger) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	client, err := persistence.New(cfg.Persistence(), sqldb, sqlitedialect.New())
	if err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("persistence client: %w", err)
	}
	for _, fsys := range migrations.Filesystems() {
		client.RegisterDialectMigrations(
			fsys,
			persistence.WithDialectSourceLabel("."),
			persistence.WithValidationTargets("postgres", "sqlite"),
		)
	}
	if err := client.ValidateDialects(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("validate migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	if report := client.Report(); report != nil && !report.IsZero() {
		logger.Debug("migrations applied", "report", report.String())
	}
	return client.DB(), nil
}

// newFeatureGate resolves directory features from DIRECTORY_* defaults. The
// override store accepts runtime toggles per scope.
func newFeatureGate(cfg config.Config) *resolver.Gate {
	defaults := configadapter.NewDefaultsFromBools(map[string]bool{
		command.FeatureStatsUpdate: cfg.StatsUpdateEnabled,
	})
	return resolver.New(
		resolver.WithDefaults(defaults),
		resolver.WithOverrideStore(store.NewMemoryStore()),
	)
}
