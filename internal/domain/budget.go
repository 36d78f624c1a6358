package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalState is the approval status carried on budget documents.
type ApprovalState string

const (
	ApprovalStatePending  ApprovalState = "pending"
	ApprovalStateApproved ApprovalState = "approved"
	ApprovalStateRejected ApprovalState = "rejected"
	ApprovalStateClosed   ApprovalState = "closed"
)

// BudgetScope locates a request budget. A nil dimension matches only a nil dimension.
type BudgetScope struct {
	DepartmentID    *string
	CostCenterID    *string
	SubCostCenterID *string
}

// Matches compares scopes with null-equality on every dimension.
func (s BudgetScope) Matches(other BudgetScope) bool {
	return nullEqual(s.DepartmentID, other.DepartmentID) &&
		nullEqual(s.CostCenterID, other.CostCenterID) &&
		nullEqual(s.SubCostCenterID, other.SubCostCenterID)
}

func nullEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RequestBudget is the spendable budget a procurement document draws from.
type RequestBudget struct {
	ID             string
	Scope          BudgetScope
	FiscalPeriodID string
	Status         ApprovalState
	BalanceAmount  decimal.Decimal
	ReservedAmount decimal.Decimal
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reserve earmarks amount. It never partially reserves.
func (b *RequestBudget) Reserve(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if b.BalanceAmount.LessThan(amount) {
		return &InsufficientBudgetError{BudgetID: b.ID, Requested: amount, Available: b.BalanceAmount}
	}
	return b.apply(b.BalanceAmount.Sub(amount), b.ReservedAmount.Add(amount))
}

// Release returns a reservation to the spendable balance.
func (b *RequestBudget) Release(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return b.apply(b.BalanceAmount.Add(amount), b.ReservedAmount.Sub(amount))
}

// Consume spends part of the reservation permanently.
func (b *RequestBudget) Consume(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return b.apply(b.BalanceAmount, b.ReservedAmount.Sub(amount))
}

func (b *RequestBudget) apply(balance, reserved decimal.Decimal) error {
	if balance.IsNegative() || reserved.IsNegative() {
		return fmt.Errorf("%w: request budget %s balance %s reserved %s",
			ErrNegativeInventoryOrBalance, b.ID, balance, reserved)
	}
	b.BalanceAmount = balance
	b.ReservedAmount = reserved
	return nil
}

// BudgetStatus is the lifecycle status of a fiscal-period budget.
type BudgetStatus string

const (
	BudgetStatusPending BudgetStatus = "pending"
	BudgetStatusActive  BudgetStatus = "active"
	BudgetStatusClosed  BudgetStatus = "closed"
)

// Budget is a fiscal-period budget. Budgets sharing a period change status together.
type Budget struct {
	ID                 string
	FiscalPeriodID     string
	TotalRevenueActual decimal.Decimal
	Status             BudgetStatus
	UpdatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Commitment links a purchase or payment order to the request budget it draws from.
type Commitment struct {
	RequestBudgetID string
	Amount          decimal.Decimal
}

// CanCommit reports whether doc is a kind that draws on a request budget.
func (d DocumentRef) CanCommit() bool {
	return (d.Kind == DocumentPurchaseOrder || d.Kind == DocumentPaymentOrder) && d.ID != ""
}

