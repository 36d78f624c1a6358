package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateTotals(ctx context.Context, tx Transaction, account *domain.Account) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// AccountCodeReader loads the chart of account codes.
type AccountCodeReader interface {
	ListCodes(ctx context.Context) ([]domain.HierarchyNode, error)
}

// EntryRepository defines data access for transaction flow entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.TransactionFlowEntry) error
	// ListByAccount returns every entry of an account in chronological order.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.TransactionFlowEntry, error)
	ListByReference(ctx context.Context, tx Transaction, accountID, reference string, txType domain.TransactionType) ([]*domain.TransactionFlowEntry, error)
	SumByAccount(ctx context.Context, accountID string) (credits, debits decimal.Decimal, err error)
}

// InvoiceReader resolves invoices by reference number.
type InvoiceReader interface {
	GetByReference(ctx context.Context, reference string) (*domain.Invoice, error)
}

// RequestBudgetRepository defines data access for request budgets.
type RequestBudgetRepository interface {
	GetByID(ctx context.Context, id string) (*domain.RequestBudget, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.RequestBudget, error)
	FindByScopeForUpdate(ctx context.Context, tx Transaction, scope domain.BudgetScope, fiscalPeriodID string) (*domain.RequestBudget, error)
	UpdateAmounts(ctx context.Context, tx Transaction, budget *domain.RequestBudget) error
}

// BudgetRepository defines data access for fiscal-period budgets.
type BudgetRepository interface {
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Budget, error)
	ListByFiscalPeriodForUpdate(ctx context.Context, tx Transaction, fiscalPeriodID string, status domain.BudgetStatus) ([]*domain.Budget, error)
	UpdateStatus(ctx context.Context, tx Transaction, budget *domain.Budget) error
}

// CommitmentReader returns the request budget linkage of a purchase or payment order.
// A document without a linked budget yields (nil, nil).
type CommitmentReader interface {
	GetCommitment(ctx context.Context, tx Transaction, doc domain.DocumentRef) (*domain.Commitment, error)
}

// CommitmentRepository links documents to the request budget they reserved on.
// Create fails with domain.ErrDocumentCommitted when doc is already linked.
type CommitmentRepository interface {
	CommitmentReader
	Create(ctx context.Context, tx Transaction, doc domain.DocumentRef, commitment *domain.Commitment) error
}

// ApprovalRepository defines data access for approval transactions.
type ApprovalRepository interface {
	Create(ctx context.Context, tx Transaction, approval *domain.ApprovalTransaction) error
	// ListByDocument returns the chain ordered by step order then creation time.
	ListByDocument(ctx context.Context, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error)
	ListByDocumentForUpdate(ctx context.Context, tx Transaction, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error)
	// Decide moves a pending row to its decided status. It returns
	// domain.ErrAlreadyDecided when the row is no longer pending.
	Decide(ctx context.Context, tx Transaction, approval *domain.ApprovalTransaction) error
}

// ProcessReader looks up approval processes by title.
type ProcessReader interface {
	GetByTitle(ctx context.Context, title string) (*domain.Process, error)
}

// ApproverResolver maps a process step designation to a concrete user for a requester.
// An empty user id means nobody holds the designation.
type ApproverResolver interface {
	ResolveApprover(ctx context.Context, step domain.ProcessStep, requesterID string) (string, error)
}

// TaskRepository defines data access for tasks.
type TaskRepository interface {
	Create(ctx context.Context, tx Transaction, task *domain.Task) error
	CompleteByApproval(ctx context.Context, tx Transaction, approvalID string, at time.Time) error
	ListOpen(ctx context.Context, assignee string, limit, offset int) ([]*domain.Task, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// IdentityProvider returns the user acting on behalf of the request.
type IdentityProvider interface {
	ActingUser(ctx context.Context) (string, error)
}

// Recorder receives business counters.
type Recorder interface {
	EntryRecorded(txType domain.TransactionType, amount decimal.Decimal)
	CashAllocated(trueUp bool)
	BudgetMutated(operation string, err error)
	ApprovalDecided(kind domain.DocumentKind, decision domain.ApprovalStatus)
	BudgetStatusChanged(status domain.BudgetStatus, count int)
	TaskDispatched(kind domain.DocumentKind)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
