package domain

import (
	"context"
	"encoding/json"
	"time"
)

// AuditLog is one row of the audit trail. Mutating use cases write it in the
// same transaction as the change it describes.
type AuditLog struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	UserAgent    string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a loosely typed snapshot stored as jsonb.
type JSON map[string]any

// AuditAction names what happened to a resource.
type AuditAction string

const (
	AuditActionEntryRecord  AuditAction = "ledger.entry_record"
	AuditActionCashAllocate AuditAction = "ledger.cash_allocate"
	AuditActionAccountOpen  AuditAction = "account.open"

	AuditActionBudgetReserve AuditAction = "request_budget.reserve"
	AuditActionBudgetRelease AuditAction = "request_budget.release"
	AuditActionBudgetConsume AuditAction = "request_budget.consume"
	AuditActionBudgetStatus  AuditAction = "budget.status_change"

	AuditActionApprovalCreate AuditAction = "approval.create"
	AuditActionApprovalDecide AuditAction = "approval.decide"
)

// AuditStatus is the outcome recorded with an audit row. Rows are written in
// the transaction of the change, so a rolled-back change leaves none and only
// successes are ever stored.
type AuditStatus string

const AuditStatusSuccess AuditStatus = "success"

// MarshalState snapshots v through its JSON form for audit rows and outbox
// payloads. A value that does not encode to an object yields a marker instead
// of failing the surrounding transaction.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": err.Error()}
	}
	var out JSON
	if err := json.Unmarshal(data, &out); err != nil {
		return JSON{"error": "state is not a JSON object"}
	}
	return out
}

// RequestMeta identifies the inbound request behind a change.
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// ContextWithRequestMeta returns a copy of ctx carrying meta.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the meta stored by ContextWithRequestMeta,
// or the zero value for background work.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// AuditFilter narrows an audit log query. Zero fields match everything.
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
