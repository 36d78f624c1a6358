package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
)

// Deps bundles the collaborators every mutating use case needs.
type Deps struct {
	TxManager TransactionManager
	Retrier   Retrier
	Outbox    OutboxRepository
	Audit     AuditRepository
	IDGen     IDGenerator
	Clock     Clock
	Identity  IdentityProvider
	Recorder  Recorder
	Logger    zerolog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Recorder == nil {
		d.Recorder = NopRecorder{}
	}
	return d
}

// runInTx executes fn inside one transaction bounded by DefaultTransactionTimeout.
// fn may run more than once when the retrier sees a serialization failure, so it
// must reload any state it mutates.
func (d Deps) runInTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	op := func() error {
		tx, err := d.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	if d.Retrier == nil {
		return op()
	}
	return d.Retrier.Retry(ctx, op)
}

func (d Deps) actor(ctx context.Context) (string, error) {
	if d.Identity == nil {
		return "", domain.ErrUnauthenticated
	}
	return d.Identity.ActingUser(ctx)
}

func (d Deps) emit(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload map[string]any) error {
	if d.Outbox == nil {
		return nil
	}
	return d.Outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:            d.IDGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     d.Clock.Now(),
	})
}

func (d Deps) audit(ctx context.Context, tx Transaction, actor string, action domain.AuditAction, resourceType, resourceID string, before, after any) error {
	if d.Audit == nil {
		return nil
	}
	meta := domain.RequestMetaFromContext(ctx)
	return d.Audit.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           d.IDGen.Generate(),
		UserID:       actor,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		RequestID:    meta.RequestID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    d.Clock.Now(),
	})
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// NopRecorder discards every measurement.
type NopRecorder struct{}

func (NopRecorder) EntryRecorded(domain.TransactionType, decimal.Decimal) {}
func (NopRecorder) CashAllocated(bool) {}
func (NopRecorder) BudgetMutated(string, error) {}
func (NopRecorder) ApprovalDecided(domain.DocumentKind, domain.ApprovalStatus) {}
func (NopRecorder) BudgetStatusChanged(domain.BudgetStatus, int) {}
func (NopRecorder) TaskDispatched(domain.DocumentKind) {}
