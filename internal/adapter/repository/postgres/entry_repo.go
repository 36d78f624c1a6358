package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

const entryColumns = `id, account_id, type, amount, balance_after, related_kind, related_id,
	related_accounts, description, reference_number, transaction_date, attachment,
	created_by, updated_by, created_at`

// EntryRepository implements usecase.EntryRepository over transaction_flow_entries.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create inserts an entry. Entries are never updated afterwards.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionFlowEntry) error {
	related, err := json.Marshal(entry.RelatedAccounts)
	if err != nil {
		return fmt.Errorf("marshal related accounts: %w", err)
	}
	relatedKind, relatedID := domain.EncodeRelatedEntity(entry.Related)

	query := `
		INSERT INTO transaction_flow_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = pgxTx(tx).Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		string(entry.Type),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceAfter),
		relatedKind,
		relatedID,
		related,
		entry.Description,
		entry.ReferenceNumber,
		entry.TransactionDate,
		entry.Attachment,
		entry.CreatedBy,
		entry.UpdatedBy,
		entry.CreatedAt,
	)

	return err
}

// ListByAccount returns every entry of an account in chronological order.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.TransactionFlowEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM transaction_flow_entries
		WHERE account_id = $1
		ORDER BY transaction_date, created_at
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// ListByReference returns the entries of one side posted to an account under a reference.
func (r *EntryRepository) ListByReference(ctx context.Context, tx usecase.Transaction, accountID, reference string, txType domain.TransactionType) ([]*domain.TransactionFlowEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM transaction_flow_entries
		WHERE account_id = $1 AND reference_number = $2 AND type = $3
		ORDER BY transaction_date, created_at
	`

	rows, err := pgxTx(tx).Query(ctx, query, accountID, reference, string(txType))
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// SumByAccount totals credits and debits posted to an account.
func (r *EntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'credit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'debit'), 0)
		FROM transaction_flow_entries
		WHERE account_id = $1
	`

	var credits, debits pgtype.Numeric
	if err := r.db.QueryRow(ctx, query, accountID).Scan(&credits, &debits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(credits), numericToDecimal(debits), nil
}

func collectEntries(rows pgx.Rows) ([]*domain.TransactionFlowEntry, error) {
	defer rows.Close()

	var entries []*domain.TransactionFlowEntry
	for rows.Next() {
		var (
			e                      domain.TransactionFlowEntry
			txType                 string
			amount, balanceAfter   pgtype.Numeric
			relatedKind, relatedID string
			relatedAccounts        []byte
		)

		err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&txType,
			&amount,
			&balanceAfter,
			&relatedKind,
			&relatedID,
			&relatedAccounts,
			&e.Description,
			&e.ReferenceNumber,
			&e.TransactionDate,
			&e.Attachment,
			&e.CreatedBy,
			&e.UpdatedBy,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		e.Type = domain.TransactionType(txType)
		e.Amount = numericToDecimal(amount)
		e.BalanceAfter = numericToDecimal(balanceAfter)

		if e.Related, err = domain.ParseRelatedEntity(relatedKind, relatedID); err != nil {
			return nil, err
		}
		if len(relatedAccounts) > 0 {
			if err := json.Unmarshal(relatedAccounts, &e.RelatedAccounts); err != nil {
				return nil, fmt.Errorf("decode related accounts of %s: %w", e.ID, err)
			}
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
