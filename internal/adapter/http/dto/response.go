package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CodeID       string          `json:"code_id"`
	Type         string          `json:"type"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:           a.ID,
		Name:         a.Name,
		CodeID:       a.CodeID,
		Type:         string(a.Type),
		CreditAmount: a.CreditAmount,
		DebitAmount:  a.DebitAmount,
		Balance:      a.Balance(),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string                `json:"id"`
	AccountID       string                `json:"account_id"`
	Type            string                `json:"type"`
	Amount          decimal.Decimal       `json:"amount"`
	BalanceAfter    decimal.Decimal       `json:"balance_after"`
	Related         *RelatedEntityRequest `json:"related,omitempty"`
	RelatedAccounts map[string]string     `json:"related_accounts,omitempty"`
	Description     string                `json:"description,omitempty"`
	ReferenceNumber string                `json:"reference_number,omitempty"`
	Attachment      string                `json:"attachment,omitempty"`
	TransactionDate time.Time             `json:"transaction_date"`
	CreatedBy       string                `json:"created_by"`
	CreatedAt       time.Time             `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.TransactionFlowEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:              e.ID,
		AccountID:       e.AccountID,
		Type:            string(e.Type),
		Amount:          e.Amount,
		BalanceAfter:    e.BalanceAfter,
		RelatedAccounts: e.RelatedAccounts,
		Description:     e.Description,
		ReferenceNumber: e.ReferenceNumber,
		Attachment:      e.Attachment,
		TransactionDate: e.TransactionDate,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
	if e.Related != nil {
		resp.Related = &RelatedEntityRequest{Kind: string(e.Related.Kind()), ID: e.Related.EntityID()}
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.TransactionFlowEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// AllocationResponse lists the legs a cash allocation posted.
type AllocationResponse struct {
	Entries []*EntryResponse `json:"entries"`
}

// RequestBudgetResponse represents a request budget in API responses.
type RequestBudgetResponse struct {
	ID              string          `json:"id"`
	DepartmentID    *string         `json:"department_id"`
	CostCenterID    *string         `json:"cost_center_id"`
	SubCostCenterID *string         `json:"sub_cost_center_id"`
	FiscalPeriodID  string          `json:"fiscal_period_id"`
	Status          string          `json:"status"`
	BalanceAmount   decimal.Decimal `json:"balance_amount"`
	ReservedAmount  decimal.Decimal `json:"reserved_amount"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RequestBudgetFromDomain converts a request budget to response.
func RequestBudgetFromDomain(b *domain.RequestBudget) *RequestBudgetResponse {
	return &RequestBudgetResponse{
		ID:              b.ID,
		DepartmentID:    b.Scope.DepartmentID,
		CostCenterID:    b.Scope.CostCenterID,
		SubCostCenterID: b.Scope.SubCostCenterID,
		FiscalPeriodID:  b.FiscalPeriodID,
		Status:          string(b.Status),
		BalanceAmount:   b.BalanceAmount,
		ReservedAmount:  b.ReservedAmount,
		UpdatedAt:       b.UpdatedAt,
	}
}

// ConsumeResponse reports whether a consume touched a budget.
type ConsumeResponse struct {
	Consumed bool `json:"consumed"`
}

// BudgetResponse represents a fiscal-period budget.
type BudgetResponse struct {
	ID             string `json:"id"`
	FiscalPeriodID string `json:"fiscal_period_id"`
	Status         string `json:"status"`
}

// ApprovalResponse represents one approval transaction.
type ApprovalResponse struct {
	ID            string     `json:"id"`
	DocumentKind  string     `json:"document_kind"`
	DocumentID    string     `json:"document_id"`
	RequesterID   string     `json:"requester_id"`
	AssignedTo    string     `json:"assigned_to"`
	ProcessStepID string     `json:"process_step_id"`
	StepOrder     int        `json:"step_order"`
	Status        string     `json:"status"`
	Description   string     `json:"description,omitempty"`
	Note          string     `json:"note,omitempty"`
	ReferredTo    *string    `json:"referred_to,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}

// ApprovalFromDomain converts an approval transaction to response.
func ApprovalFromDomain(a *domain.ApprovalTransaction) *ApprovalResponse {
	if a == nil {
		return nil
	}
	return &ApprovalResponse{
		ID:            a.ID,
		DocumentKind:  string(a.Document.Kind),
		DocumentID:    a.Document.ID,
		RequesterID:   a.RequesterID,
		AssignedTo:    a.AssignedTo,
		ProcessStepID: a.ProcessStepID,
		StepOrder:     a.StepOrder,
		Status:        string(a.Status),
		Description:   a.Description,
		Note:          a.Note,
		ReferredTo:    a.ReferredTo,
		CreatedAt:     a.CreatedAt,
		DecidedAt:     a.DecidedAt,
	}
}

// TaskResponse represents an approval task.
type TaskResponse struct {
	ID           string     `json:"id"`
	AssignedTo   string     `json:"assigned_to"`
	ApprovalID   string     `json:"approval_id"`
	DocumentKind string     `json:"document_kind"`
	DocumentID   string     `json:"document_id"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// TaskFromDomain converts a task to response.
func TaskFromDomain(t *domain.Task) *TaskResponse {
	if t == nil {
		return nil
	}
	return &TaskResponse{
		ID:           t.ID,
		AssignedTo:   t.AssignedTo,
		ApprovalID:   t.ApprovalID,
		DocumentKind: string(t.Document.Kind),
		DocumentID:   t.Document.ID,
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt,
		CompletedAt:  t.CompletedAt,
	}
}

// TasksFromDomain converts tasks to responses.
func TasksFromDomain(tasks []*domain.Task) []*TaskResponse {
	result := make([]*TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = TaskFromDomain(t)
	}
	return result
}

// StepResponse is an approval step opened together with its task.
type StepResponse struct {
	Approval *ApprovalResponse `json:"approval"`
	Task     *TaskResponse     `json:"task,omitempty"`
}

// StepFromUseCase converts a step result to response.
func StepFromUseCase(s *usecase.StepResult) *StepResponse {
	if s == nil {
		return nil
	}
	return &StepResponse{Approval: ApprovalFromDomain(s.Approval), Task: TaskFromDomain(s.Task)}
}

// DecisionResponse describes what a decision changed.
type DecisionResponse struct {
	Decided *ApprovalResponse `json:"decided"`
	Next    *StepResponse     `json:"next,omitempty"`
	Overall string            `json:"overall"`
	Budgets []*BudgetResponse `json:"budgets,omitempty"`
}

// DecisionFromUseCase converts a decision result to response.
func DecisionFromUseCase(r *usecase.DecisionResult) *DecisionResponse {
	resp := &DecisionResponse{
		Decided: ApprovalFromDomain(r.Decided),
		Next:    StepFromUseCase(r.Next),
		Overall: string(r.Overall),
	}
	for _, b := range r.Budgets {
		resp.Budgets = append(resp.Budgets, &BudgetResponse{ID: b.ID, FiscalPeriodID: b.FiscalPeriodID, Status: string(b.Status)})
	}
	return resp
}

// ChainResponse is a document's approval chain with its derived status.
type ChainResponse struct {
	Overall   string              `json:"overall"`
	Approvals []*ApprovalResponse `json:"approvals"`
}

// ChainFromDomain converts a chain to response.
func ChainFromDomain(chain []*domain.ApprovalTransaction) *ChainResponse {
	resp := &ChainResponse{
		Overall:   string(domain.DeriveOverallStatus(chain)),
		Approvals: make([]*ApprovalResponse, len(chain)),
	}
	for i, a := range chain {
		resp.Approvals[i] = ApprovalFromDomain(a)
	}
	return resp
}

// ReconciliationResultResponse is one account's reconciliation outcome.
type ReconciliationResultResponse struct {
	AccountID         string          `json:"account_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	CreditDifference  decimal.Decimal `json:"credit_difference"`
	DebitDifference   decimal.Decimal `json:"debit_difference"`
	IsReconciled      bool            `json:"is_reconciled"`
}

// ReconciliationReportResponse summarises a reconciliation run.
type ReconciliationReportResponse struct {
	TotalAccounts      int                             `json:"total_accounts"`
	ReconciledAccounts int                             `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResultResponse `json:"discrepancies"`
	CheckedAt          time.Time                       `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      make([]*ReconciliationResultResponse, len(r.Discrepancies)),
		CheckedAt:          r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &ReconciliationResultResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
			CreditDifference:  d.CreditDifference,
			DebitDifference:   d.DebitDifference,
			IsReconciled:      d.IsReconciled,
		}
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
