package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/rdbms"
	"github.com/syssam/rdbms/config"
	"github.com/syssam/rdbms/dialect"
	dsql "github.com/syssam/rdbms/dialect/sql"
	"github.com/syssam/rdbms/mapping"
)

// pool is a driver that hands out dedicated connections.
type pool interface {
	dialect.Driver
	dialect.Connector
}

// Open opens the connection pool described by cfg and returns a
// disconnected provider on top of it. Close releases the pool.
//
// With cfg.Stats enabled, statement statistics are collected and available
// through QueryStats. With cfg.Debug set, every statement is logged at
// debug level. Options are applied after the ones derived from cfg.
//
// The sqlserver dialect needs a database/sql driver registered under that
// name by the application; see dsql.Open.
func Open(ctx context.Context, cfg *config.Config, schema *mapping.Schema, opts ...Option) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &rdbms.ArgumentError{Op: "open", Err: err}
	}
	level, err := cfg.IsolationLevel()
	if err != nil {
		return nil, &rdbms.ArgumentError{Op: "open", Err: err}
	}
	logger := cfg.Logger().With("dialect", cfg.Dialect)

	drv, err := dsql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, rdbms.NewExecutionError("open", "", err)
	}
	db := drv.DB()
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, rdbms.NewExecutionError("open", "", fmt.Errorf("ping %s: %w", cfg.Dialect, err))
	}

	var (
		wrapped pool = drv
		stats   *dsql.StatsDriver
	)
	if cfg.Stats.Enabled {
		sd := dsql.NewStatsDriver(wrapped,
			dsql.WithSlowThreshold(cfg.Stats.SlowThreshold),
			dsql.WithSlowQueryLog(logger),
		)
		stats = sd
		wrapped = sd
	}
	if cfg.Debug {
		wrapped = dsql.NewDebugDriver(wrapped, logger)
	}

	opts = append([]Option{WithIsolation(level), WithLogger(logger)}, opts...)
	p, err := New(cfg.Provider, schema, wrapped, opts...)
	if err != nil {
		_ = wrapped.Close()
		return nil, err
	}
	p.pool = wrapped
	p.stats = stats
	logger.InfoContext(ctx, "provider opened", "provider", cfg.Provider, "stats", cfg.Stats.Enabled, "debug", cfg.Debug)
	return p, nil
}

// QueryStats returns the statement statistics, or nil if the provider was
// not opened with statistics enabled.
func (p *Provider) QueryStats() *dsql.QueryStats {
	if p.stats == nil {
		return nil
	}
	return p.stats.QueryStats()
}

// WatchConfig watches the configuration file at path until ctx is done.
// On every change the companion column cache is reset, since a new schema
// revision may add or drop class ID columns. The slow query threshold of
// the statistics driver follows the file. Other settings only apply to
// providers opened afterwards.
func (p *Provider) WatchConfig(ctx context.Context, path string) error {
	return config.Watch(ctx, path, p.log, func(cfg *config.Config) {
		p.cache.Reset()
		if p.stats != nil && cfg.Stats.SlowThreshold > 0 {
			p.stats.SetSlowThreshold(cfg.Stats.SlowThreshold)
		}
		p.log.InfoContext(ctx, "column cache reset", "reason", "config changed",
			slog.Group("stats", "enabled", cfg.Stats.Enabled, "slow_threshold", cfg.Stats.SlowThreshold))
	})
}
