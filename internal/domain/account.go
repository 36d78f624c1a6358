package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the normal-balance classification of an account code.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeExpense   AccountType = "expense"
)

var validAccountTypes = map[AccountType]bool{
	AccountTypeAsset:     true,
	AccountTypeRevenue:   true,
	AccountTypeLiability: true,
	AccountTypeEquity:    true,
	AccountTypeExpense:   true,
}

// ParseAccountType parses an account type, ignoring case.
func ParseAccountType(s string) (AccountType, bool) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	return t, validAccountTypes[t]
}

// Account represents a ledger account with accumulated credit and debit totals.
// Totals only ever grow; the balance is derived from them.
type Account struct {
	ID           string
	Name         string
	CodeID       string
	Type         AccountType
	CreditAmount decimal.Decimal
	DebitAmount  decimal.Decimal
	CreatedBy    string
	UpdatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Balance returns the current balance on the account's normal side.
// Asset accounts are debit-normal; every other type is treated as credit-normal.
func (a *Account) Balance() decimal.Decimal {
	if a.Type == AccountTypeAsset {
		return a.DebitAmount.Sub(a.CreditAmount)
	}
	return a.CreditAmount.Sub(a.DebitAmount)
}

// BalanceAfter returns the balance that posting amount with txType would produce.
func (a *Account) BalanceAfter(txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	return ApplySign(a.Type, a.Balance(), txType, amount)
}

// ApplyPosting accumulates amount into the bucket matching txType.
func (a *Account) ApplyPosting(txType TransactionType, amount decimal.Decimal, actor string, at time.Time) {
	switch txType {
	case TransactionTypeCredit:
		a.CreditAmount = a.CreditAmount.Add(amount)
	case TransactionTypeDebit:
		a.DebitAmount = a.DebitAmount.Add(amount)
	}
	a.UpdatedBy = actor
	a.UpdatedAt = at
}

// ApplySign moves balance by amount according to the account type's normal side.
//
// Asset: credit decreases, debit increases.
// Revenue: credit increases, debit decreases.
// Liability, Equity, Expense share the revenue convention.
func ApplySign(accountType AccountType, balance decimal.Decimal, txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch accountType {
	case AccountTypeAsset:
		if txType == TransactionTypeCredit {
			return balance.Sub(amount)
		}
		return balance.Add(amount)
	case AccountTypeRevenue:
		if txType == TransactionTypeCredit {
			return balance.Add(amount)
		}
		return balance.Sub(amount)
	default:
		if txType == TransactionTypeCredit {
			return balance.Add(amount)
		}
		return balance.Sub(amount)
	}
}
