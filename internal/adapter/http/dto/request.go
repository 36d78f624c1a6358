package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

// CreateAccountRequest represents a request to open an account under an account code.
type CreateAccountRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	CodeID string `json:"code_id" validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{Name: r.Name, CodeID: r.CodeID}
}

// RelatedEntityRequest names the business document an entry refers to.
type RelatedEntityRequest struct {
	Kind string `json:"kind" validate:"required"`
	ID   string `json:"id" validate:"required"`
}

// RecordEntryRequest represents a single ledger posting.
type RecordEntryRequest struct {
	TransactionDate time.Time             `json:"transaction_date" validate:"required"`
	Related         *RelatedEntityRequest `json:"related,omitempty"`
	RelatedAccounts map[string]string     `json:"related_accounts,omitempty"`
	AccountID       string                `json:"account_id" validate:"required"`
	Type            string                `json:"type" validate:"required,oneof=credit debit"`
	Description     string                `json:"description" validate:"max=1000"`
	ReferenceNumber string                `json:"reference_number" validate:"max=64"`
	Attachment      string                `json:"attachment,omitempty"`
	Amount          decimal.Decimal       `json:"amount" validate:"positive_decimal"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordEntryRequest) ToUseCaseInput() (usecase.RecordEntryInput, error) {
	input := usecase.RecordEntryInput{
		TransactionDate: r.TransactionDate,
		RelatedAccounts: r.RelatedAccounts,
		AccountID:       r.AccountID,
		Type:            domain.TransactionType(r.Type),
		Description:     r.Description,
		ReferenceNumber: r.ReferenceNumber,
		Attachment:      r.Attachment,
		Amount:          r.Amount,
	}
	if r.Related != nil {
		related, err := domain.ParseRelatedEntity(r.Related.Kind, r.Related.ID)
		if err != nil {
			return usecase.RecordEntryInput{}, err
		}
		input.Related = related
	}
	return input, nil
}

// AllocateCashRequest represents a cash receipt against an invoice.
type AllocateCashRequest struct {
	TransactionDate  time.Time       `json:"transaction_date" validate:"required"`
	InvoiceReference string          `json:"invoice_reference" validate:"required"`
	Description      string          `json:"description" validate:"max=1000"`
	Attachment       string          `json:"attachment,omitempty"`
	CashAmount       decimal.Decimal `json:"cash_amount"`
}

// ToUseCaseInput converts to use case input.
func (r *AllocateCashRequest) ToUseCaseInput() usecase.AllocateCashInput {
	return usecase.AllocateCashInput{
		TransactionDate:  r.TransactionDate,
		InvoiceReference: r.InvoiceReference,
		Description:      r.Description,
		Attachment:       r.Attachment,
		CashAmount:       r.CashAmount,
	}
}

// BudgetAmountRequest carries the amount of a release or consume.
type BudgetAmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"positive_decimal"`
}

// BudgetDocument names the purchase or payment order a reservation funds.
// Both fields are set together or left out.
type BudgetDocument struct {
	DocumentKind string `json:"document_kind,omitempty" validate:"required_with=DocumentID,omitempty,oneof=purchase_order payment_order"`
	DocumentID   string `json:"document_id,omitempty" validate:"required_with=DocumentKind"`
}

// Document returns the linked document, or nil when none was named.
func (d BudgetDocument) Document() *domain.DocumentRef {
	if d.DocumentKind == "" {
		return nil
	}
	return &domain.DocumentRef{Kind: domain.DocumentKind(d.DocumentKind), ID: d.DocumentID}
}

// ReserveRequest reserves an amount on a request budget.
type ReserveRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"positive_decimal"`
	BudgetDocument
}

// ReserveForScopeRequest reserves against the budget matching a scope.
type ReserveForScopeRequest struct {
	DepartmentID    *string         `json:"department_id,omitempty"`
	CostCenterID    *string         `json:"cost_center_id,omitempty"`
	SubCostCenterID *string         `json:"sub_cost_center_id,omitempty"`
	FiscalPeriodID  string          `json:"fiscal_period_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"positive_decimal"`
	BudgetDocument
}

// Scope returns the budget scope the request targets.
func (r *ReserveForScopeRequest) Scope() domain.BudgetScope {
	return domain.BudgetScope{
		DepartmentID:    r.DepartmentID,
		CostCenterID:    r.CostCenterID,
		SubCostCenterID: r.SubCostCenterID,
	}
}

// StartApprovalRequest opens a document's approval chain.
type StartApprovalRequest struct {
	Description string `json:"description" validate:"max=1000"`
}

// DecisionRequest records an approver's decision.
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject refer"`
	Note     string `json:"note" validate:"max=1000"`
	ReferTo  string `json:"refer_to" validate:"required_if=Decision refer"`
}
