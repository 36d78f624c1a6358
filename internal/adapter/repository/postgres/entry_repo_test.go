package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
)

func TestEntryRepositoryListByReference(t *testing.T) {
	pool := newMockPool(t)
	tx := beginMockTx(t, pool)

	rows := pgxmock.NewRows([]string{
		"id", "account_id", "type", "amount", "balance_after", "related_kind", "related_id",
		"related_accounts", "description", "reference_number", "transaction_date", "attachment",
		"created_by", "updated_by", "created_at",
	}).AddRow("e-1", "acc-ar", "credit", "43.48", "56.52", "invoice", "inv-10",
		[]byte(`{"acc-cash":"cash"}`), "installment", "INV-00010", repoNow, "", "u-1", "u-1", repoNow)

	pool.ExpectQuery(regexp.QuoteMeta("WHERE account_id = $1 AND reference_number = $2 AND type = $3")).
		WithArgs("acc-ar", "INV-00010", "credit").
		WillReturnRows(rows)

	entries, err := NewEntryRepository(pool).ListByReference(context.Background(), tx, "acc-ar", "INV-00010", domain.TransactionTypeCredit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}

	e := entries[0]
	if !e.Amount.Equal(decimal.RequireFromString("43.48")) {
		t.Errorf("amount = %s", e.Amount)
	}
	if e.Related == nil || e.Related.Kind() != domain.RelatedInvoice || e.Related.EntityID() != "inv-10" {
		t.Errorf("related = %+v", e.Related)
	}
	if e.RelatedAccounts["acc-cash"] != domain.RoleCash {
		t.Errorf("related accounts = %v", e.RelatedAccounts)
	}
	assertExpectations(t, pool)
}

func TestEntryRepositorySumByAccount(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery(regexp.QuoteMeta("FILTER (WHERE type = 'credit')")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"credits", "debits"}).AddRow("300", "120.5"))

	credits, debits, err := NewEntryRepository(pool).SumByAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !credits.Equal(decimal.NewFromInt(300)) || !debits.Equal(decimal.RequireFromString("120.5")) {
		t.Fatalf("sums = %s/%s", credits, debits)
	}
	assertExpectations(t, pool)
}
