package eventpublisher

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

const (
	defaultBatchSize = 100
	defaultInterval  = 5 * time.Second
)

// Publisher delivers one outbox event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Observer is told about every delivery attempt.
type Observer interface {
	EventPublished(eventType string, err error)
}

type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Observer   Observer
	Logger     zerolog.Logger
	Now        func() time.Time
	BatchSize  int
	Interval   time.Duration
	// Retention is the age after which published events are purged. Zero keeps them.
	Retention time.Duration
}

// Relay polls the outbox and hands committed events to a Publisher. Delivery
// is at least once: an event is marked published only after Publish succeeds.
type Relay struct {
	cfg    Config
	logger zerolog.Logger
}

func NewRelay(cfg Config) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Relay{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "outbox_relay").Logger(),
	}
}

// Run relays until ctx is canceled.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info().
		Int("batch_size", r.cfg.BatchSize).
		Dur("interval", r.cfg.Interval).
		Msg("outbox relay started")

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		r.tick(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	if _, err := r.drain(ctx); err != nil {
		r.logger.Error().Err(err).Msg("outbox drain failed")
	}
	if err := r.purge(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("outbox purge failed")
	}
}

// drain relays full batches until the backlog is empty or a batch makes no
// progress. Undelivered events wait for the next tick.
func (r *Relay) drain(ctx context.Context) (int, error) {
	total := 0
	for ctx.Err() == nil {
		events, err := r.cfg.OutboxRepo.GetUnpublished(ctx, r.cfg.BatchSize)
		if err != nil {
			return total, err
		}

		delivered := 0
		for _, event := range events {
			if r.deliver(ctx, event) {
				delivered++
			}
		}
		total += delivered

		if len(events) < r.cfg.BatchSize || delivered == 0 {
			break
		}
	}
	if total > 0 {
		r.logger.Debug().Int("count", total).Msg("outbox events relayed")
	}
	return total, nil
}

func (r *Relay) deliver(ctx context.Context, event *domain.OutboxEvent) bool {
	log := r.logger.With().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		Logger()

	err := r.cfg.Publisher.Publish(ctx, event)
	if r.cfg.Observer != nil {
		r.cfg.Observer.EventPublished(event.EventType, err)
	}
	if err != nil {
		log.Error().Err(err).Msg("publish failed")
		return false
	}

	if err := r.cfg.OutboxRepo.MarkPublished(ctx, event.ID, r.cfg.Now()); err != nil {
		log.Error().Err(err).Msg("mark published failed")
		return false
	}
	return true
}

func (r *Relay) purge(ctx context.Context) error {
	if r.cfg.Retention <= 0 {
		return nil
	}
	return r.cfg.OutboxRepo.DeletePublished(ctx, r.cfg.Now().Add(-r.cfg.Retention))
}

// FanOut delivers each event to every publisher and joins their errors.
type FanOut []Publisher

func (f FanOut) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes each event to the log.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		Interface("payload", event.Payload).
		Msg("outbox event")
	return nil
}
