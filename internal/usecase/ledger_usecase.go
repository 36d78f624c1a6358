package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/procureledger/internal/domain"
)

// LedgerAccounts names the accounts a cash receipt is posted to.
type LedgerAccounts struct {
	Cash          string
	Receivable    string
	VATCollected  string
	VATReceivable string
}

func (a LedgerAccounts) roles() map[string]string {
	return map[string]string{
		a.Cash:          domain.RoleCash,
		a.Receivable:    domain.RoleReceivable,
		a.VATCollected:  domain.RoleVATCollected,
		a.VATReceivable: domain.RoleVATReceivable,
	}
}

// Validate checks that all four accounts are set and distinct.
func (a LedgerAccounts) Validate() error {
	if a.Cash == "" || a.Receivable == "" || a.VATCollected == "" || a.VATReceivable == "" {
		return errors.New("ledger accounts: cash, receivable, vat collected and vat receivable are required")
	}
	if len(a.roles()) != 4 {
		return errors.New("ledger accounts: each role needs its own account")
	}
	return nil
}

// sortedIDs returns the account ids in lock order.
func (a LedgerAccounts) sortedIDs() []string {
	ids := []string{a.Cash, a.Receivable, a.VATCollected, a.VATReceivable}
	sort.Strings(ids)
	return ids
}

// relatedTo returns the other legs of a cash receipt keyed by account id.
func (a LedgerAccounts) relatedTo(accountID string) map[string]string {
	out := a.roles()
	delete(out, accountID)
	return out
}

// LedgerUseCase records transaction flow entries and derives balances.
type LedgerUseCase struct {
	deps        Deps
	accountRepo AccountRepository
	entryRepo   EntryRepository
	invoices    InvoiceReader
	accounts    LedgerAccounts
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	deps Deps,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	invoices InvoiceReader,
	accounts LedgerAccounts,
) *LedgerUseCase {
	return &LedgerUseCase{
		deps:        deps.withDefaults(),
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		invoices:    invoices,
		accounts:    accounts,
	}
}

// RecordEntryInput represents input for posting one entry.
type RecordEntryInput struct {
	TransactionDate time.Time
	Related         domain.RelatedEntity
	RelatedAccounts map[string]string
	AccountID       string
	Type            domain.TransactionType
	Description     string
	ReferenceNumber string
	Attachment      string
	Amount          decimal.Decimal
}

// RecordEntry posts amount to an account and snapshots the resulting balance.
func (uc *LedgerUseCase) RecordEntry(ctx context.Context, input RecordEntryInput) (*domain.TransactionFlowEntry, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	txType, err := domain.ParseTransactionType(string(input.Type))
	if err != nil {
		return nil, err
	}
	input.Type = txType

	if err := domain.ValidateRelatedAccounts(input.AccountID, input.RelatedAccounts); err != nil {
		return nil, err
	}

	actor, err := uc.deps.actor(ctx)
	if err != nil {
		return nil, err
	}

	var entry *domain.TransactionFlowEntry
	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
		if err != nil {
			return accountError(input.AccountID, err)
		}
		before := *account

		entry, err = uc.post(ctx, tx, account, input, actor)
		if err != nil {
			return err
		}

		return uc.deps.audit(ctx, tx, actor, domain.AuditActionEntryRecord,
			domain.AggregateTypeAccount, account.ID, before, account)
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Recorder.EntryRecorded(entry.Type, entry.Amount)
	uc.deps.Logger.Debug().
		Str("entry_id", entry.ID).
		Str("account_id", entry.AccountID).
		Str("type", string(entry.Type)).
		Str("amount", entry.Amount.String()).
		Str("balance_after", entry.BalanceAfter.String()).
		Msg("entry recorded")

	return entry, nil
}

// post writes one leg against a locked account.
func (uc *LedgerUseCase) post(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	input RecordEntryInput,
	actor string,
) (*domain.TransactionFlowEntry, error) {
	now := uc.deps.Clock.Now()

	date := input.TransactionDate
	if date.IsZero() {
		date = now
	}

	entry := &domain.TransactionFlowEntry{
		ID:              uc.deps.IDGen.Generate(),
		AccountID:       account.ID,
		Type:            input.Type,
		Amount:          input.Amount,
		BalanceAfter:    account.BalanceAfter(input.Type, input.Amount),
		Related:         input.Related,
		RelatedAccounts: input.RelatedAccounts,
		Description:     input.Description,
		ReferenceNumber: input.ReferenceNumber,
		TransactionDate: date,
		Attachment:      input.Attachment,
		CreatedBy:       actor,
		UpdatedBy:       actor,
		CreatedAt:       now,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	account.ApplyPosting(input.Type, input.Amount, actor, now)

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := uc.accountRepo.UpdateTotals(ctx, tx, account); err != nil {
		return nil, err
	}

	return entry, uc.deps.emit(ctx, tx, domain.AggregateTypeAccount, account.ID, domain.EventTypeEntryRecorded, map[string]any{
		"entry_id":      entry.ID,
		"type":          string(entry.Type),
		"amount":        entry.Amount.String(),
		"balance_after": entry.BalanceAfter.String(),
		"reference":     entry.ReferenceNumber,
	})
}

// AllocateCashInput represents a cash receipt against an invoice.
type AllocateCashInput struct {
	TransactionDate  time.Time
	InvoiceReference string
	Description      string
	Attachment       string
	CashAmount       decimal.Decimal
}

// AllocateCashPayment splits a cash receipt into principal and VAT and posts the
// four ledger legs atomically. A receipt with nothing left to allocate returns no entries.
func (uc *LedgerUseCase) AllocateCashPayment(ctx context.Context, input AllocateCashInput) ([]*domain.TransactionFlowEntry, error) {
	if !input.CashAmount.IsPositive() {
		return nil, nil
	}

	ref := strings.TrimSpace(input.InvoiceReference)
	if !domain.IsInvoiceReference(ref) {
		return nil, fmt.Errorf("%w: %q is not an invoice reference", domain.ErrInvoiceNotFound, ref)
	}

	invoice, err := uc.invoices.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if invoice.Due().IsZero() {
		return nil, fmt.Errorf("%w: invoice %s has zero total", domain.ErrInvalidInvoiceState, invoice.Reference)
	}

	actor, err := uc.deps.actor(ctx)
	if err != nil {
		return nil, err
	}

	var (
		entries []*domain.TransactionFlowEntry
		alloc   domain.Allocation
	)
	err = uc.deps.runInTx(ctx, func(ctx context.Context, tx Transaction) error {
		entries = nil

		prior, err := uc.entryRepo.ListByReference(ctx, tx, uc.accounts.Cash, invoice.Reference, domain.TransactionTypeCredit)
		if err != nil {
			return err
		}
		paid := make([]decimal.Decimal, 0, len(prior))
		for _, e := range prior {
			paid = append(paid, e.Amount)
		}

		alloc, err = domain.AllocatePayment(invoice, paid, input.CashAmount)
		if err != nil {
			return err
		}
		if alloc.IsEmpty() {
			return nil
		}

		locked, err := uc.lockAccounts(ctx, tx, uc.accounts.sortedIDs())
		if err != nil {
			return err
		}

		legs := []struct {
			accountID string
			txType    domain.TransactionType
			amount    decimal.Decimal
		}{
			{uc.accounts.Cash, domain.TransactionTypeCredit, input.CashAmount},
			{uc.accounts.Receivable, domain.TransactionTypeDebit, alloc.Split.Principal},
			{uc.accounts.VATCollected, domain.TransactionTypeCredit, alloc.Split.VAT},
			{uc.accounts.VATReceivable, domain.TransactionTypeDebit, alloc.Split.VAT},
		}

		for _, leg := range legs {
			if !leg.amount.IsPositive() {
				continue
			}
			entry, err := uc.post(ctx, tx, locked[leg.accountID], RecordEntryInput{
				TransactionDate: input.TransactionDate,
				Related:         domain.InvoiceRef{ID: invoice.ID},
				RelatedAccounts: uc.accounts.relatedTo(leg.accountID),
				AccountID:       leg.accountID,
				Type:            leg.txType,
				Description:     input.Description,
				ReferenceNumber: invoice.Reference,
				Attachment:      input.Attachment,
				Amount:          leg.amount,
			}, actor)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		event := domain.CashAllocatedEvent{
			Reference: invoice.Reference,
			Cash:      input.CashAmount.String(),
			Principal: alloc.Split.Principal.String(),
			VAT:       alloc.Split.VAT.String(),
			TrueUp:    alloc.TrueUp,
		}
		if err := uc.deps.emit(ctx, tx, domain.AggregateTypeInvoice, invoice.ID, domain.EventTypeCashAllocated, domain.MarshalState(event)); err != nil {
			return err
		}

		return uc.deps.audit(ctx, tx, actor, domain.AuditActionCashAllocate,
			domain.AggregateTypeInvoice, invoice.ID, nil, event)
	})
	if err != nil {
		var over *domain.OverpaymentError
		if errors.As(err, &over) {
			uc.deps.Logger.Warn().Err(err).Str("reference", ref).Msg("cash allocation rejected")
		}
		return nil, err
	}

	if len(entries) == 0 {
		return nil, nil
	}

	uc.deps.Recorder.CashAllocated(alloc.TrueUp)
	uc.deps.Logger.Info().
		Str("reference", invoice.Reference).
		Str("cash", input.CashAmount.String()).
		Str("principal", alloc.Split.Principal.String()).
		Str("vat", alloc.Split.VAT.String()).
		Bool("true_up", alloc.TrueUp).
		Msg("cash payment allocated")

	return entries, nil
}

func (uc *LedgerUseCase) lockAccounts(ctx context.Context, tx Transaction, ids []string) (map[string]*domain.Account, error) {
	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	for _, id := range ids {
		if byID[id] == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
	}
	return byID, nil
}

// GetAccountHistory returns the account's entries newest first, with BalanceAfter
// recomputed by replaying every entry from the opening balance. Stored snapshots
// are left untouched; the returned entries are copies.
func (uc *LedgerUseCase) GetAccountHistory(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, accountError(accountID, err)
	}

	entries, err := uc.entryRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].TransactionDate.Equal(entries[j].TransactionDate) {
			return entries[i].TransactionDate.Before(entries[j].TransactionDate)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	balance := account.Balance()
	for _, e := range entries {
		balance = balance.Sub(domain.ApplySign(account.Type, decimal.Zero, e.Type, e.Amount))
	}

	history := make([]*domain.TransactionFlowEntry, 0, len(entries))
	for _, e := range entries {
		balance = domain.ApplySign(account.Type, balance, e.Type, e.Amount)
		if !dateRange.Contains(e.TransactionDate) {
			continue
		}
		view := *e
		view.BalanceAfter = balance
		history = append(history, &view)
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}

func accountError(id string, err error) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return err
}
