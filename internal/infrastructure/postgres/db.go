package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const defaultConnectTimeout = 5 * time.Second

// PoolConfig configures the pgx pool. ConnectTimeout bounds each dial;
// StartupWait bounds how long Open keeps pinging a database that is still
// coming up.
type PoolConfig struct {
	DatabaseURL     string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
	StartupWait     time.Duration
	Logger          zerolog.Logger
}

func (c PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = int32(c.MaxConns)
	}
	if c.MinConns > 0 {
		pc.MinConns = int32(c.MinConns)
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	pc.ConnConfig.ConnectTimeout = c.connectTimeout()
	return pc, nil
}

func (c PoolConfig) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return c.ConnectTimeout
	}
	return defaultConnectTimeout
}

// Open creates a pool and returns once the database answers a ping.
func Open(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pc, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := waitReady(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func waitReady(ctx context.Context, pool *pgxpool.Pool, cfg PoolConfig) error {
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.connectTimeout())
		defer cancel()
		return pool.Ping(pingCtx)
	}
	if cfg.StartupWait <= 0 {
		return ping()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = cfg.StartupWait

	return backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		cfg.Logger.Warn().Err(err).Dur("retry_in", wait).Msg("database not ready")
	})
}
