package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
	"github.com/iho/procureledger/internal/usecase/mocks"
)

func entry(id, accountID string, txType domain.TransactionType, amount string) *domain.TransactionFlowEntry {
	return &domain.TransactionFlowEntry{ID: id, AccountID: accountID, Type: txType, Amount: d(amount)}
}

func TestReconcileAccount(t *testing.T) {
	tests := []struct {
		name           string
		account        *domain.Account
		entries        []*domain.TransactionFlowEntry
		wantReconciled bool
		wantDiff       string
	}{
		{
			name:    "asset totals match entries",
			account: account("acc-1", domain.AccountTypeAsset, "30", "100"),
			entries: []*domain.TransactionFlowEntry{
				entry("e-1", "acc-1", domain.TransactionTypeDebit, "100"),
				entry("e-2", "acc-1", domain.TransactionTypeCredit, "30"),
			},
			wantReconciled: true,
			wantDiff:       "0",
		},
		{
			name:    "revenue totals drifted",
			account: account("acc-1", domain.AccountTypeRevenue, "500", "0"),
			entries: []*domain.TransactionFlowEntry{
				entry("e-1", "acc-1", domain.TransactionTypeCredit, "450"),
			},
			wantReconciled: false,
			wantDiff:       "50",
		},
		{
			name:    "both sides drifted by the same amount",
			account: account("acc-1", domain.AccountTypeAsset, "40", "110"),
			entries: []*domain.TransactionFlowEntry{
				entry("e-1", "acc-1", domain.TransactionTypeDebit, "100"),
				entry("e-2", "acc-1", domain.TransactionTypeCredit, "30"),
			},
			wantReconciled: false,
			wantDiff:       "0",
		},
		{
			name:           "no entries",
			account:        account("acc-1", domain.AccountTypeLiability, "0", "0"),
			wantReconciled: true,
			wantDiff:       "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewReconciliationUseCase(
				mocks.NewMockAccountRepository(tt.account),
				mocks.NewMockEntryRepository(tt.entries...),
				zerolog.Nop(),
			)

			res, err := uc.ReconcileAccount(context.Background(), "acc-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantReconciled, res.IsReconciled)
			assert.True(t, res.Difference.Equal(d(tt.wantDiff)), "difference = %s", res.Difference)
		})
	}
}

func TestReconcileAccount_PropagatesError(t *testing.T) {
	errDB := errors.New("db down")
	accounts := mocks.NewMockAccountRepository()
	accounts.GetByIDFunc = func(context.Context, string) (*domain.Account, error) { return nil, errDB }

	uc := usecase.NewReconciliationUseCase(accounts, mocks.NewMockEntryRepository(), zerolog.Nop())
	_, err := uc.ReconcileAccount(context.Background(), "acc-1")
	require.ErrorIs(t, err, errDB)

	_, err = usecase.NewReconciliationUseCase(mocks.NewMockAccountRepository(), mocks.NewMockEntryRepository(), zerolog.Nop()).
		ReconcileAccount(context.Background(), "acc-1")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestReconcileAllAccounts(t *testing.T) {
	// More than one page so the paging loop runs twice.
	var (
		accounts []*domain.Account
		entries  []*domain.TransactionFlowEntry
	)
	for i := 0; i < 130; i++ {
		id := fmt.Sprintf("acc-%03d", i)
		accounts = append(accounts, account(id, domain.AccountTypeAsset, "0", "10"))
		entries = append(entries, entry("e-"+id, id, domain.TransactionTypeDebit, "10"))
	}

	uc := usecase.NewReconciliationUseCase(
		mocks.NewMockAccountRepository(accounts...),
		mocks.NewMockEntryRepository(entries...),
		zerolog.Nop(),
	)

	results, err := uc.ReconcileAllAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 130)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("acc-%03d", i), r.AccountID)
		assert.True(t, r.IsReconciled, r.AccountID)
	}
}

func TestGenerateReconciliationReport(t *testing.T) {
	uc := usecase.NewReconciliationUseCase(
		mocks.NewMockAccountRepository(
			account("acc-good", domain.AccountTypeAsset, "0", "10"),
			account("acc-bad", domain.AccountTypeAsset, "0", "99"),
		),
		mocks.NewMockEntryRepository(
			entry("e-1", "acc-good", domain.TransactionTypeDebit, "10"),
			entry("e-2", "acc-bad", domain.TransactionTypeDebit, "90"),
		),
		zerolog.Nop(),
	)

	report, err := uc.GenerateReconciliationReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalAccounts)
	assert.Equal(t, 1, report.ReconciledAccounts)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "acc-bad", report.Discrepancies[0].AccountID)
	assert.True(t, report.Discrepancies[0].Difference.Equal(d("9")))
	assert.True(t, report.Discrepancies[0].DebitDifference.Equal(d("9")))
	assert.True(t, report.Discrepancies[0].CreditDifference.IsZero())
}
