package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes a unit of work can lose to a concurrent writer.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// RetrierConfig sets the retry schedule. Zero fields keep the defaults.
type RetrierConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

var defaultRetrierConfig = RetrierConfig{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  10 * time.Second,
}

func (c RetrierConfig) withDefaults() RetrierConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultRetrierConfig.MaxRetries
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaultRetrierConfig.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = defaultRetrierConfig.MaxInterval
	}
	if c.MaxElapsedTime <= 0 {
		c.MaxElapsedTime = defaultRetrierConfig.MaxElapsedTime
	}
	return c
}

// Retrier implements usecase.Retrier. It re-runs a whole unit of work after a
// serialization failure or deadlock; every other error is returned at once.
type Retrier struct {
	cfg    RetrierConfig
	logger zerolog.Logger
}

func NewRetrier(cfg RetrierConfig, logger zerolog.Logger) *Retrier {
	return &Retrier{cfg: cfg.withDefaults(), logger: logger}
}

func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.cfg.InitialInterval
	exp.MaxInterval = r.cfg.MaxInterval
	exp.MaxElapsedTime = r.cfg.MaxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.cfg.MaxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := operation()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("unit of work conflicted, retrying")
	})
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgErrDeadlock || pgErr.Code == pgErrSerializationFailure
}
