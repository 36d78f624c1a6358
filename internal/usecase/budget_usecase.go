package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
)

// BudgetUseCase reserves, releases and consumes request budget capacity and
// moves fiscal-period budgets through their status lifecycle.
type BudgetUseCase struct {
	deps           Deps
	requestBudgets RequestBudgetRepository
	budgets        BudgetRepository
	commitments    CommitmentRepository
}

// NewBudgetUseCase creates a new BudgetUseCase.
func NewBudgetUseCase(deps Deps, requestBudgets RequestBudgetRepository, budgets BudgetRepository, commitments CommitmentRepository) *BudgetUseCase {
	return &BudgetUseCase{
		deps:           deps.withDefaults(),
		requestBudgets: requestBudgets,
		budgets:        budgets,
		commitments:    commitments,
	}
}

// Reserve earmarks amount on a request budget. It fails with
// domain.InsufficientBudgetError when amount exceeds the spendable balance.
//
// A non-nil doc links the purchase or payment order to the reservation, so the
// document's approval outcome later releases or consumes it.
func (uc *BudgetUseCase) Reserve(ctx context.Context, id string, amount decimal.Decimal, doc *domain.DocumentRef) (*domain.RequestBudget, error) {
	actor, err := uc.deps.actor(ctx)
	if err != nil {
		return nil, err
	}

	var out *domain.RequestBudget
	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		b, err := uc.ReserveTx(ctx, tx, actor, id, amount, doc)
		out = b
		return err
	})
	uc.deps.Recorder.BudgetMutated(BudgetOpReserve, err)
	if err != nil {
		uc.deps.Logger.Debug().Err(err).Str("request_budget_id", id).Str("operation", BudgetOpReserve).Msg("budget mutation failed")
		return nil, err
	}
	return out, nil
}

// Release returns reserved capacity to the spendable balance.
func (uc *BudgetUseCase) Release(ctx context.Context, id string, amount decimal.Decimal) (*domain.RequestBudget, error) {
	return uc.run(ctx, BudgetOpRelease, id, amount)
}

// Consume permanently spends reserved capacity. A document without a linked
// budget passes an empty id and gets false without error.
func (uc *BudgetUseCase) Consume(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	if id == "" {
		return false, nil
	}
	if _, err := uc.run(ctx, BudgetOpConsume, id, amount); err != nil {
		return false, err
	}
	return true, nil
}

// ReserveForScope resolves the request budget matching scope in a fiscal period
// and reserves amount on it.
func (uc *BudgetUseCase) ReserveForScope(ctx context.Context, scope domain.BudgetScope, fiscalPeriodID string, amount decimal.Decimal, doc *domain.DocumentRef) (*domain.RequestBudget, error) {
	actor, err := uc.deps.actor(ctx)
	if err != nil {
		return nil, err
	}

	var out *domain.RequestBudget
	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		if err := uc.checkCommittable(doc); err != nil {
			return err
		}
		budget, err := uc.requestBudgets.FindByScopeForUpdate(ctx, tx, scope, fiscalPeriodID)
		if err != nil {
			return err
		}
		if out, err = uc.apply(ctx, tx, actor, BudgetOpReserve, budget, amount); err != nil {
			return err
		}
		return uc.commitTx(ctx, tx, doc, out.ID, amount)
	})
	uc.deps.Recorder.BudgetMutated(BudgetOpReserve, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *BudgetUseCase) run(ctx context.Context, op, id string, amount decimal.Decimal) (*domain.RequestBudget, error) {
	actor, err := uc.deps.actor(ctx)
	if err != nil {
		return nil, err
	}

	var out *domain.RequestBudget
	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		b, err := uc.mutateTx(ctx, tx, actor, op, id, amount)
		out = b
		return err
	})
	uc.deps.Recorder.BudgetMutated(op, err)
	if err != nil {
		uc.deps.Logger.Debug().Err(err).Str("request_budget_id", id).Str("operation", op).Msg("budget mutation failed")
		return nil, err
	}
	return out, nil
}

// ReserveTx reserves inside a caller-owned transaction and links doc when given.
func (uc *BudgetUseCase) ReserveTx(ctx context.Context, tx Transaction, actor, id string, amount decimal.Decimal, doc *domain.DocumentRef) (*domain.RequestBudget, error) {
	if err := uc.checkCommittable(doc); err != nil {
		return nil, err
	}
	budget, err := uc.mutateTx(ctx, tx, actor, BudgetOpReserve, id, amount)
	if err != nil {
		return nil, err
	}
	if err := uc.commitTx(ctx, tx, doc, budget.ID, amount); err != nil {
		return nil, err
	}
	return budget, nil
}

func (uc *BudgetUseCase) checkCommittable(doc *domain.DocumentRef) error {
	if doc == nil {
		return nil
	}
	if !doc.CanCommit() {
		return fmt.Errorf("%w: %s", domain.ErrNotCommittable, doc)
	}
	if uc.commitments == nil {
		return errors.New("budget commitments are not configured")
	}
	return nil
}

func (uc *BudgetUseCase) commitTx(ctx context.Context, tx Transaction, doc *domain.DocumentRef, budgetID string, amount decimal.Decimal) error {
	if doc == nil {
		return nil
	}
	return uc.commitments.Create(ctx, tx, *doc, &domain.Commitment{RequestBudgetID: budgetID, Amount: amount})
}

// ReleaseTx releases inside a caller-owned transaction.
func (uc *BudgetUseCase) ReleaseTx(ctx context.Context, tx Transaction, actor, id string, amount decimal.Decimal) (*domain.RequestBudget, error) {
	return uc.mutateTx(ctx, tx, actor, BudgetOpRelease, id, amount)
}

// ConsumeTx consumes inside a caller-owned transaction.
func (uc *BudgetUseCase) ConsumeTx(ctx context.Context, tx Transaction, actor, id string, amount decimal.Decimal) (bool, error) {
	if id == "" {
		return false, nil
	}
	if _, err := uc.mutateTx(ctx, tx, actor, BudgetOpConsume, id, amount); err != nil {
		return false, err
	}
	return true, nil
}

func (uc *BudgetUseCase) mutateTx(ctx context.Context, tx Transaction, actor, op, id string, amount decimal.Decimal) (*domain.RequestBudget, error) {
	budget, err := uc.requestBudgets.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return uc.apply(ctx, tx, actor, op, budget, amount)
}

func (uc *BudgetUseCase) apply(ctx context.Context, tx Transaction, actor, op string, budget *domain.RequestBudget, amount decimal.Decimal) (*domain.RequestBudget, error) {
	before := *budget

	var (
		err       error
		action    domain.AuditAction
		eventType string
	)
	switch op {
	case BudgetOpReserve:
		action, eventType = domain.AuditActionBudgetReserve, domain.EventTypeBudgetReserved
		err = budget.Reserve(amount)
	case BudgetOpRelease:
		action, eventType = domain.AuditActionBudgetRelease, domain.EventTypeBudgetReleased
		err = budget.Release(amount)
	case BudgetOpConsume:
		action, eventType = domain.AuditActionBudgetConsume, domain.EventTypeBudgetConsumed
		err = budget.Consume(amount)
	default:
		return nil, fmt.Errorf("unknown budget operation %q", op)
	}
	if err != nil {
		return nil, err
	}

	budget.UpdatedBy = actor
	budget.UpdatedAt = uc.deps.Clock.Now()

	if err := uc.requestBudgets.UpdateAmounts(ctx, tx, budget); err != nil {
		return nil, err
	}

	if err := uc.deps.emit(ctx, tx, domain.AggregateTypeRequestBudget, budget.ID, eventType, map[string]any{
		"amount":          amount.String(),
		"balance_amount":  budget.BalanceAmount.String(),
		"reserved_amount": budget.ReservedAmount.String(),
	}); err != nil {
		return nil, err
	}

	if err := uc.deps.audit(ctx, tx, actor, action, domain.AggregateTypeRequestBudget, budget.ID, before, budget); err != nil {
		return nil, err
	}

	return budget, nil
}

// TransitionFiscalPeriodTx moves every pending budget in the subject budget's
// fiscal period, the subject included, to Active on approve or Closed on reject.
func (uc *BudgetUseCase) TransitionFiscalPeriodTx(ctx context.Context, tx Transaction, actor, budgetID string, outcome domain.OverallStatus) ([]*domain.Budget, error) {
	var target domain.BudgetStatus
	switch outcome {
	case domain.OverallApprove:
		target = domain.BudgetStatusActive
	case domain.OverallReject:
		target = domain.BudgetStatusClosed
	default:
		return nil, fmt.Errorf("budget transition needs a terminal outcome, got %q", outcome)
	}

	subject, err := uc.budgets.GetByIDForUpdate(ctx, tx, budgetID)
	if err != nil {
		return nil, err
	}

	pending, err := uc.budgets.ListByFiscalPeriodForUpdate(ctx, tx, subject.FiscalPeriodID, domain.BudgetStatusPending)
	if err != nil {
		return nil, err
	}

	now := uc.deps.Clock.Now()
	for _, b := range pending {
		before := *b
		b.Status = target
		b.UpdatedBy = actor
		b.UpdatedAt = now

		if err := uc.budgets.UpdateStatus(ctx, tx, b); err != nil {
			return nil, err
		}
		if err := uc.deps.emit(ctx, tx, domain.AggregateTypeBudget, b.ID, domain.EventTypeBudgetStatusChanged, map[string]any{
			"fiscal_period_id": b.FiscalPeriodID,
			"from":             string(before.Status),
			"to":               string(b.Status),
		}); err != nil {
			return nil, err
		}
		if err := uc.deps.audit(ctx, tx, actor, domain.AuditActionBudgetStatus, domain.AggregateTypeBudget, b.ID, before, b); err != nil {
			return nil, err
		}
	}

	return pending, nil
}
