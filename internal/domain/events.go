package domain

import "time"

// Event types
const (
	EventTypeEntryRecorded       = "ledger.entry_recorded"
	EventTypeCashAllocated       = "ledger.cash_allocated"
	EventTypeBudgetReserved      = "request_budget.reserved"
	EventTypeBudgetReleased      = "request_budget.released"
	EventTypeBudgetConsumed      = "request_budget.consumed"
	EventTypeBudgetStatusChanged = "budget.status_changed"
	EventTypeApprovalDecided     = "approval.decided"
	EventTypeTaskAssigned        = "approval.task_assigned"
)

// Aggregate types
const (
	AggregateTypeAccount       = "account"
	AggregateTypeInvoice       = "invoice"
	AggregateTypeRequestBudget = "request_budget"
	AggregateTypeBudget        = "budget"
	AggregateTypeApproval      = "approval"
	AggregateTypeTask          = "task"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TaskAssignedEvent payload
type TaskAssignedEvent struct {
	TaskID       string `json:"task_id"`
	ApprovalID   string `json:"approval_id"`
	AssignedTo   string `json:"assigned_to"`
	DocumentKind string `json:"document_kind"`
	DocumentID   string `json:"document_id"`
	StepOrder    int    `json:"step_order"`
}

// CashAllocatedEvent payload
type CashAllocatedEvent struct {
	Reference string `json:"reference"`
	Cash      string `json:"cash"`
	Principal string `json:"principal"`
	VAT       string `json:"vat"`
	TrueUp    bool   `json:"true_up"`
}
