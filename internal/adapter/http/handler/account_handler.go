package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/procureledger/internal/adapter/http/dto"
	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/usecase"
)

// AccountService opens and reads chart-of-accounts entries.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// HistoryService replays an account's entries.
type HistoryService interface {
	GetAccountHistory(ctx context.Context, accountID string, dateRange *domain.DateRange) ([]*domain.TransactionFlowEntry, error)
}

// AccountHandler serves /accounts: the chart of accounts and per-account history.
type AccountHandler struct {
	accountUC AccountService
	historyUC HistoryService
}

func NewAccountHandler(accountUC AccountService, historyUC HistoryService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, historyUC: historyUC}
}

// Create opens an account under a hierarchy code. Posters only.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get returns one account with its running balance.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List pages through accounts, 20 at a time unless limit says otherwise.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageQuery(r, 20)
	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// History returns the account's entries newest first with replayed balances.
// Optional from and to query parameters bound the transaction date.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dateRange, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	entries, err := h.historyUC.GetAccountHistory(r.Context(), id, dateRange)
	if err != nil {
		writeDomainError(w, "failed to get account history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

func parseDateRange(r *http.Request) (*domain.DateRange, error) {
	from, _, err := parseDateQuery(r, "from")
	if err != nil {
		return nil, err
	}
	to, dateOnly, err := parseDateQuery(r, "to")
	if err != nil {
		return nil, err
	}
	if dateOnly {
		// A plain date as the upper bound covers that whole day.
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if from.IsZero() && to.IsZero() {
		return nil, nil
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("to %s is before from %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return &domain.DateRange{From: from, To: to}, nil
}

// parseDateQuery accepts RFC 3339 timestamps or plain dates and reports which one it got.
func parseDateQuery(r *http.Request, key string) (t time.Time, dateOnly bool, err error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, false, nil
	}
	t, err = time.Parse(time.DateOnly, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s: expected RFC 3339 or YYYY-MM-DD, got %q", key, val)
	}
	return t, true, nil
}
