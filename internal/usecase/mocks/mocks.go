package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

// MockAccountRepository is an in-memory AccountRepository. Reads return copies so
// that a failed transaction leaves stored rows untouched.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateTotalsFunc      func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
}

func NewMockAccountRepository(accounts ...*domain.Account) *MockAccountRepository {
	m := &MockAccountRepository{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

// Stored returns the stored row for assertions.
func (m *MockAccountRepository) Stored(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[id]
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			cp := *acc
			accounts = append(accounts, &cp)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateTotals(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.UpdateTotalsFunc != nil {
		return m.UpdateTotalsFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var accounts []*domain.Account
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		cp := *m.accounts[ids[i]]
		accounts = append(accounts, &cp)
	}
	return accounts, nil
}

// MockAccountCodeReader returns a fixed chart of accounts.
type MockAccountCodeReader struct {
	Nodes []domain.HierarchyNode
	Err   error
}

func (m *MockAccountCodeReader) ListCodes(ctx context.Context) ([]domain.HierarchyNode, error) {
	return m.Nodes, m.Err
}

// MockEntryRepository is an in-memory EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.TransactionFlowEntry

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionFlowEntry) error
}

func NewMockEntryRepository(entries ...*domain.TransactionFlowEntry) *MockEntryRepository {
	return &MockEntryRepository{entries: entries}
}

// All returns every stored entry in insertion order.
func (m *MockEntryRepository) All() []*domain.TransactionFlowEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.TransactionFlowEntry(nil), m.entries...)
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionFlowEntry) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, tx, entry); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.TransactionFlowEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.TransactionFlowEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) ListByReference(ctx context.Context, tx usecase.Transaction, accountID, reference string, txType domain.TransactionType) ([]*domain.TransactionFlowEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.TransactionFlowEntry
	for _, e := range m.entries {
		if e.AccountID == accountID && e.ReferenceNumber == reference && e.Type == txType {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	credits, debits := decimal.Zero, decimal.Zero
	for _, e := range m.entries {
		if e.AccountID != accountID {
			continue
		}
		if e.Type == domain.TransactionTypeCredit {
			credits = credits.Add(e.Amount)
		} else {
			debits = debits.Add(e.Amount)
		}
	}
	return credits, debits, nil
}

// MockRequestBudgetRepository is an in-memory RequestBudgetRepository.
type MockRequestBudgetRepository struct {
	mu      sync.RWMutex
	budgets map[string]*domain.RequestBudget

	UpdateAmountsFunc func(ctx context.Context, tx usecase.Transaction, budget *domain.RequestBudget) error
}

func NewMockRequestBudgetRepository(budgets ...*domain.RequestBudget) *MockRequestBudgetRepository {
	m := &MockRequestBudgetRepository{budgets: make(map[string]*domain.RequestBudget)}
	for _, b := range budgets {
		m.budgets[b.ID] = b
	}
	return m
}

func (m *MockRequestBudgetRepository) GetByID(ctx context.Context, id string) (*domain.RequestBudget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.budgets[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrBudgetNotFound, id)
}

func (m *MockRequestBudgetRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.RequestBudget, error) {
	return m.GetByID(ctx, id)
}

func (m *MockRequestBudgetRepository) FindByScopeForUpdate(ctx context.Context, tx usecase.Transaction, scope domain.BudgetScope, fiscalPeriodID string) (*domain.RequestBudget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.budgets {
		if b.FiscalPeriodID == fiscalPeriodID && b.Scope.Matches(scope) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrBudgetNotFound
}

func (m *MockRequestBudgetRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, budget *domain.RequestBudget) error {
	if m.UpdateAmountsFunc != nil {
		return m.UpdateAmountsFunc(ctx, tx, budget)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *budget
	m.budgets[budget.ID] = &cp
	return nil
}

// MockBudgetRepository is an in-memory BudgetRepository.
type MockBudgetRepository struct {
	mu      sync.RWMutex
	budgets map[string]*domain.Budget

	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, budget *domain.Budget) error
}

func NewMockBudgetRepository(budgets ...*domain.Budget) *MockBudgetRepository {
	m := &MockBudgetRepository{budgets: make(map[string]*domain.Budget)}
	for _, b := range budgets {
		m.budgets[b.ID] = b
	}
	return m
}

// Stored returns the stored row for assertions.
func (m *MockBudgetRepository) Stored(id string) *domain.Budget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.budgets[id]
}

func (m *MockBudgetRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.budgets[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrBudgetNotFound, id)
}

func (m *MockBudgetRepository) ListByFiscalPeriodForUpdate(ctx context.Context, tx usecase.Transaction, fiscalPeriodID string, status domain.BudgetStatus) ([]*domain.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Budget
	for _, b := range m.budgets {
		if b.FiscalPeriodID == fiscalPeriodID && b.Status == status {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockBudgetRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, budget *domain.Budget) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, budget)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *budget
	m.budgets[budget.ID] = &cp
	return nil
}

// MockCommitmentRepository keeps commitments keyed by document.
type MockCommitmentRepository struct {
	mu          sync.Mutex
	Commitments map[domain.DocumentRef]*domain.Commitment
}

func NewMockCommitmentRepository() *MockCommitmentRepository {
	return &MockCommitmentRepository{Commitments: make(map[domain.DocumentRef]*domain.Commitment)}
}

func (m *MockCommitmentRepository) GetCommitment(ctx context.Context, tx usecase.Transaction, doc domain.DocumentRef) (*domain.Commitment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Commitments[doc], nil
}

func (m *MockCommitmentRepository) Create(ctx context.Context, tx usecase.Transaction, doc domain.DocumentRef, commitment *domain.Commitment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Commitments[doc]; ok {
		return domain.ErrDocumentCommitted
	}
	cp := *commitment
	m.Commitments[doc] = &cp
	return nil
}

// MockApprovalRepository is an in-memory ApprovalRepository.
type MockApprovalRepository struct {
	mu        sync.RWMutex
	approvals []*domain.ApprovalTransaction

	CreateFunc func(ctx context.Context, tx usecase.Transaction, approval *domain.ApprovalTransaction) error
}

func NewMockApprovalRepository(approvals ...*domain.ApprovalTransaction) *MockApprovalRepository {
	return &MockApprovalRepository{approvals: approvals}
}

func (m *MockApprovalRepository) Create(ctx context.Context, tx usecase.Transaction, approval *domain.ApprovalTransaction) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, tx, approval); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *approval
	m.approvals = append(m.approvals, &cp)
	return nil
}

func (m *MockApprovalRepository) ListByDocument(ctx context.Context, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ApprovalTransaction
	for _, a := range m.approvals {
		if a.Document == doc {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (m *MockApprovalRepository) ListByDocumentForUpdate(ctx context.Context, tx usecase.Transaction, doc domain.DocumentRef) ([]*domain.ApprovalTransaction, error) {
	return m.ListByDocument(ctx, doc)
}

func (m *MockApprovalRepository) Decide(ctx context.Context, tx usecase.Transaction, approval *domain.ApprovalTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.approvals {
		if a.ID != approval.ID {
			continue
		}
		if a.Status != domain.ApprovalPending {
			return domain.ErrAlreadyDecided
		}
		cp := *approval
		m.approvals[i] = &cp
		return nil
	}
	return domain.ErrApprovalNotFound
}

// MockTaskRepository is an in-memory TaskRepository.
type MockTaskRepository struct {
	mu    sync.RWMutex
	tasks []*domain.Task
}

func NewMockTaskRepository(tasks ...*domain.Task) *MockTaskRepository {
	return &MockTaskRepository{tasks: tasks}
}

// All returns every stored task.
func (m *MockTaskRepository) All() []*domain.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Task(nil), m.tasks...)
}

func (m *MockTaskRepository) Create(ctx context.Context, tx usecase.Transaction, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks = append(m.tasks, &cp)
	return nil
}

func (m *MockTaskRepository) CompleteByApproval(ctx context.Context, tx usecase.Transaction, approvalID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ApprovalID == approvalID && t.Status == domain.TaskOpen {
			t.Status = domain.TaskDone
			done := at
			t.CompletedAt = &done
		}
	}
	return nil
}

func (m *MockTaskRepository) ListOpen(ctx context.Context, assignee string, limit, offset int) ([]*domain.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Task
	for _, t := range m.tasks {
		if t.AssignedTo == assignee && t.Status == domain.TaskOpen {
			cp := *t
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	GetUnpublishedFunc func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc  func(ctx context.Context, id string, publishedAt time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

// EventTypes returns the type of every stored event in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockAuditRepository records audit logs in memory.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

// Actions returns the action of every stored log in order.
func (m *MockAuditRepository) Actions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// MockTransaction counts commits and rollbacks.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions and keeps them for inspection.
type MockTransactionManager struct {
	mu  sync.Mutex
	Txs []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

// Last returns the most recent transaction.
func (m *MockTransactionManager) Last() *MockTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Txs) == 0 {
		return nil
	}
	return m.Txs[len(m.Txs)-1]
}

// MockIDGenerator yields sequential ids unless GenerateFunc is set.
type MockIDGenerator struct {
	mu           sync.Mutex
	n            int
	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("id-%04d", m.n)
}

// MockClock returns a fixed instant.
type MockClock struct {
	T time.Time
}

func (m MockClock) Now() time.Time { return m.T }

// MockIdentityProvider returns a fixed acting user.
type MockIdentityProvider struct {
	UserID string
	Err    error
}

func (m MockIdentityProvider) ActingUser(ctx context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.UserID, nil
}

// MockRecorder counts recorder calls.
type MockRecorder struct {
	mu              sync.Mutex
	Entries         int
	Allocations     int
	TrueUps         int
	BudgetOps       map[string]int
	BudgetFailures  int
	Decisions       map[domain.ApprovalStatus]int
	StatusChanges   int
	TasksDispatched int
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		BudgetOps: make(map[string]int),
		Decisions: make(map[domain.ApprovalStatus]int),
	}
}

func (m *MockRecorder) EntryRecorded(domain.TransactionType, decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries++
}

func (m *MockRecorder) CashAllocated(trueUp bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Allocations++
	if trueUp {
		m.TrueUps++
	}
}

func (m *MockRecorder) BudgetMutated(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.BudgetFailures++
		return
	}
	m.BudgetOps[op]++
}

func (m *MockRecorder) ApprovalDecided(kind domain.DocumentKind, decision domain.ApprovalStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Decisions[decision]++
}

func (m *MockRecorder) BudgetStatusChanged(status domain.BudgetStatus, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusChanges += count
}

func (m *MockRecorder) TaskDispatched(domain.DocumentKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TasksDispatched++
}
