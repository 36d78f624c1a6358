package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/procureledger/internal/domain"
)

const reconcilePageSize = 100

// ReconciliationUseCase replays posted entries and compares them with the
// credit and debit totals stored on each account.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	clock       Clock
	logger      zerolog.Logger
}

func NewReconciliationUseCase(accountRepo AccountRepository, entryRepo EntryRepository, logger zerolog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		clock:       SystemClock{},
		logger:      logger.With().Str("component", "reconciliation").Logger(),
	}
}

// ReconciliationResult is one account's check. Difference is recorded minus
// calculated balance; the side differences are stored minus summed totals.
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	CreditDifference  decimal.Decimal
	DebitDifference   decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount sums the account's entries per side. The account is
// reconciled only when both stored totals match, so drift on both sides that
// cancels out in the balance is still reported.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, accountError(accountID, err)
	}

	credits, debits, err := uc.entryRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("sum entries of %s: %w", accountID, err)
	}

	replayed := domain.Account{Type: account.Type, CreditAmount: credits, DebitAmount: debits}
	res := &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance(),
		CalculatedBalance: replayed.Balance(),
		CreditDifference:  account.CreditAmount.Sub(credits),
		DebitDifference:   account.DebitAmount.Sub(debits),
		LastChecked:       uc.clock.Now(),
	}
	res.Difference = res.RecordedBalance.Sub(res.CalculatedBalance)
	res.IsReconciled = res.CreditDifference.IsZero() && res.DebitDifference.IsZero()
	return res, nil
}

// ReconcileAllAccounts checks every account, ReconcileConcurrency at a time.
// Results keep the repository's listing order.
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	ids, err := uc.accountIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*ReconciliationResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ReconcileConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := uc.ReconcileAccount(gctx, id)
			if err != nil {
				return fmt.Errorf("reconcile account %s: %w", id, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (uc *ReconciliationUseCase) accountIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += reconcilePageSize {
		page, err := uc.accountRepo.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		for _, a := range page {
			ids = append(ids, a.ID)
		}
		if len(page) < reconcilePageSize {
			return ids, nil
		}
	}
}

type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// GenerateReconciliationReport reconciles every account and logs each
// discrepancy at warn.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts: len(results),
		Discrepancies: []*ReconciliationResult{},
		CheckedAt:     uc.clock.Now(),
	}
	for _, res := range results {
		if res.IsReconciled {
			report.ReconciledAccounts++
			continue
		}
		report.Discrepancies = append(report.Discrepancies, res)
		uc.logger.Warn().
			Str("account_id", res.AccountID).
			Stringer("balance_diff", res.Difference).
			Stringer("credit_diff", res.CreditDifference).
			Stringer("debit_diff", res.DebitDifference).
			Msg("account out of balance")
	}
	return report, nil
}
