package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Ledger errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("transaction type must be credit or debit")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrInvalidInvoiceState    = errors.New("invalid invoice state")
	ErrOverpayment            = errors.New("payment exceeds remaining due")

	// Budget errors
	ErrBudgetNotFound             = errors.New("budget not found")
	ErrInsufficientBudget         = errors.New("insufficient budget")
	ErrNegativeInventoryOrBalance = errors.New("operation would drive a non-negative field negative")
	ErrDocumentCommitted          = errors.New("document already draws on a request budget")
	ErrNotCommittable             = errors.New("only purchase and payment orders draw on a request budget")

	// Workflow errors
	ErrProcessNotFound        = errors.New("approval process not found")
	ErrNoNextStep             = errors.New("no further process step")
	ErrNoApproverResolved     = errors.New("no approver resolved for process step")
	ErrApprovalNotFound       = errors.New("approval transaction not found")
	ErrNoPendingApproval      = errors.New("document has no pending approval")
	ErrNotAssignee            = errors.New("actor is not assigned to the pending approval")
	ErrInvalidDecision        = errors.New("decision must be approve, reject or refer")
	ErrReferralTargetRequired = errors.New("referral requires a target user")
	ErrAlreadyDecided         = errors.New("approval transaction already decided")
	ErrApprovalStarted        = errors.New("approval chain already started")
)

// OverpaymentError carries the split that failed against what is still due.
type OverpaymentError struct {
	Reference          string
	PrincipalPart      decimal.Decimal
	VATPart            decimal.Decimal
	RemainingPrincipal decimal.Decimal
	RemainingVAT       decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("%s: invoice %s principal %s/%s vat %s/%s",
		ErrOverpayment, e.Reference,
		e.PrincipalPart, e.RemainingPrincipal,
		e.VATPart, e.RemainingVAT)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// InsufficientBudgetError reports a reservation larger than the spendable balance.
type InsufficientBudgetError struct {
	BudgetID  string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("%s: request budget %s requested %s available %s",
		ErrInsufficientBudget, e.BudgetID, e.Requested, e.Available)
}

func (e *InsufficientBudgetError) Unwrap() error { return ErrInsufficientBudget }
