package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the side of a ledger posting.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// ParseTransactionType accepts "credit" or "debit" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionTypeCredit:
		return TransactionTypeCredit, nil
	case TransactionTypeDebit:
		return TransactionTypeDebit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
	}
}

// Ledger leg roles used in RelatedAccounts maps.
const (
	RoleCash          = "cash"
	RoleReceivable    = "accounts_receivable"
	RoleVATCollected  = "vat_collected"
	RoleVATReceivable = "vat_receivable"
)

// TransactionFlowEntry is an immutable record of one posting against one account.
// BalanceAfter is a snapshot taken at posting time and never recomputed in storage.
type TransactionFlowEntry struct {
	CreatedAt       time.Time
	TransactionDate time.Time
	Related         RelatedEntity
	RelatedAccounts map[string]string
	ID              string
	AccountID       string
	Type            TransactionType
	Description     string
	ReferenceNumber string
	Attachment      string
	CreatedBy       string
	UpdatedBy       string
	Amount          decimal.Decimal
	BalanceAfter    decimal.Decimal
}

// Validate checks the invariants every entry must hold before it is persisted.
func (e *TransactionFlowEntry) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if e.Type != TransactionTypeCredit && e.Type != TransactionTypeDebit {
		return fmt.Errorf("%w: %q", ErrInvalidTransactionType, e.Type)
	}
	return nil
}

// DateRange bounds a history query. Zero values are open ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range, inclusive on both ends.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}
